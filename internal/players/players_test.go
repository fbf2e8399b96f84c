package players_test

import (
	"testing"

	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/ai/material"
	"github.com/janpfeifer/qchess/internal/ai/qtable"
	"github.com/janpfeifer/qchess/internal/players"
	_ "github.com/janpfeifer/qchess/internal/players/default"
	"github.com/janpfeifer/qchess/internal/searchers/alphabeta"
	"github.com/janpfeifer/qchess/internal/searchers/greedy"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func TestNewAlphaBeta(t *testing.T) {
	store := qtable.New()
	player, err := players.New("ab,max_depth=4,leaf=qtable", store)
	require.NoError(t, err)
	ab, ok := player.Searcher.(*alphabeta.Searcher)
	require.True(t, ok)
	assert.Equal(t, 4, ab.MaxDepth())
	assert.Same(t, store, player.Leaf)

	// Defaults.
	player, err = players.New("", nil)
	require.NoError(t, err)
	ab, ok = player.Searcher.(*alphabeta.Searcher)
	require.True(t, ok)
	assert.Equal(t, 2, ab.MaxDepth())
	assert.Equal(t, material.New(), player.Leaf)
	assert.Equal(t, players.DefaultPlayerConfig, player.String())
}

func TestNewGreedy(t *testing.T) {
	player, err := players.New("greedy,epsilon=0.3,seed=7", nil)
	require.NoError(t, err)
	policy, ok := player.Searcher.(*greedy.Policy)
	require.True(t, ok)
	assert.Equal(t, float32(0.3), policy.Epsilon())

	player, err = players.New("greedy", nil)
	require.NoError(t, err)
	assert.Equal(t, qtable.DefaultHyperparameters.Epsilon, player.Searcher.(*greedy.Policy).Epsilon())

	b := NewBoard()
	m, _, err := player.Play(b)
	require.NoError(t, err)
	assert.True(t, ContainsMove(b.LegalMoves(), m))
}

func TestNewErrors(t *testing.T) {
	for _, config := range []string{
		"ab,greedy",          // Multiple searchers.
		"max_depth=3",        // No searcher.
		"ab,leaf=neural",     // Unknown leaf evaluator.
		"ab,max_depth=2,foo", // Unknown parameter.
		"ab,max_depth=x",     // Parse error.
	} {
		_, err := players.New(config, nil)
		assert.Errorf(t, err, "config %q should fail", config)
	}

	_, err := players.New("ab,max_depth=0", nil)
	assert.ErrorIs(t, err, ai.ErrInvalidArgument)
	_, err = players.New("greedy,epsilon=1.5", nil)
	assert.ErrorIs(t, err, ai.ErrInvalidArgument)
}

func TestPlay(t *testing.T) {
	// Mate in one with the material evaluator.
	b, err := NewBoardFromFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	require.NoError(t, err)
	player, err := players.New("ab,max_depth=1", nil)
	require.NoError(t, err)
	m, score, err := player.Play(b)
	require.NoError(t, err)
	assert.Equal(t, "a1a8", m.String())
	assert.Equal(t, ai.WinGameScore, score)
}
