package material_test

import (
	"testing"

	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/ai/material"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func TestCentipawns(t *testing.T) {
	cp, err := material.Centipawns(StartFEN)
	require.NoError(t, err)
	assert.Equal(t, 0, cp)

	// White is a queen up.
	cp, err = material.Centipawns("4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, 1200, cp)

	// Black knight on a central square.
	cp, err = material.Centipawns("4k3/8/8/3n4/8/8/8/4K3 w - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, -410, cp)

	// Advanced pawns: White on e5 (2 ranks beyond the 3rd), Black on d4 (2 ranks beyond the 6th).
	cp, err = material.Centipawns("4k3/8/8/4P3/3p4/8/8/4K3 w - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, 0, cp)

	_, err = material.Centipawns("garbage")
	assert.ErrorIs(t, err, ai.ErrInvalidPosition)
}

func TestLeafValue(t *testing.T) {
	eval := material.New()
	assert.Equal(t, "material", eval.String())

	b, err := NewBoardFromFEN("4k3/8/8/8/8/8/8/3QK3 b - - 0 1")
	require.NoError(t, err)
	value, err := eval.LeafValue(b, Move{})
	require.NoError(t, err)
	assert.Greater(t, value, float32(0.5))
	assert.Less(t, value, ai.WinGameScore)

	// Score is from White's perspective, regardless of the side to move.
	b, err = NewBoardFromFEN("3qk3/8/8/8/8/8/8/4K3 w - - 0 1")
	require.NoError(t, err)
	value, err = eval.LeafValue(b, Move{})
	require.NoError(t, err)
	assert.Less(t, value, float32(-0.5))
}
