package greedy_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/ai/qtable"
	"github.com/janpfeifer/qchess/internal/features"
	"github.com/janpfeifer/qchess/internal/searchers/greedy"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/janpfeifer/qchess/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

// setValue stores value for playing m in pos.
func setValue(t *testing.T, store *qtable.Store, pos Position, m Move, value float32) {
	require.NoError(t, pos.ApplyMove(m))
	encoded, err := features.Encode(pos)
	require.NoError(t, err)
	require.NoError(t, pos.UndoLastMove())
	store.Update(encoded, m, value)
}

func TestAllEqualSelectsFirst(t *testing.T) {
	store := qtable.New()
	b := NewBoard()
	policy := greedy.New(store, 0)
	m, err := policy.SelectMove(b, b.LegalMoves())
	require.NoError(t, err)
	assert.Equal(t, b.LegalMoves()[0], m)
	assert.Equal(t, StartFEN, b.Signature())
}

func TestSelectsMaxValue(t *testing.T) {
	store := qtable.New()
	tree := statetest.NewTree(4, 3)
	moves := tree.LegalMoves()
	setValue(t, store, tree, moves[1], 0.3)
	setValue(t, store, tree, moves[2], 0.7)
	setValue(t, store, tree, moves[3], 0.7) // Tie with moves[2]: first one wins.
	setValue(t, store, tree, moves[0], -0.1)

	policy := greedy.New(store, 0)
	m, score, err := policy.Search(tree)
	require.NoError(t, err)
	assert.Equal(t, moves[2], m)
	assert.Equal(t, float32(0.7), score)
	assert.Empty(t, tree.Path())

	// Restricting the candidate moves.
	m, err = policy.SelectMove(tree, []Move{moves[0], moves[1]})
	require.NoError(t, err)
	assert.Equal(t, moves[1], m)

	// Negative values lose to the default zero.
	m, err = policy.SelectMove(tree, []Move{moves[0], moves[1], moves[3]})
	require.NoError(t, err)
	assert.Equal(t, moves[3], m)
}

func TestDeterministicWithoutExploration(t *testing.T) {
	store := qtable.New()
	b := NewBoard()
	for ii, m := range b.LegalMoves() {
		setValue(t, store, b, m, float32(ii%7)/10)
	}
	policy := greedy.New(store, 0)
	first, err := policy.SelectMove(b, b.LegalMoves())
	require.NoError(t, err)
	for range 20 {
		m, err := policy.SelectMove(b, b.LegalMoves())
		require.NoError(t, err)
		assert.Equal(t, first, m)
	}
	assert.Equal(t, StartFEN, b.Signature())
}

func TestExploration(t *testing.T) {
	store := qtable.New()
	b := NewBoard()
	legalMoves := b.LegalMoves()
	setValue(t, store, b, legalMoves[5], 1)

	policy := greedy.New(store, 1).WithRand(rand.New(rand.NewPCG(42, 0)))
	assert.Equal(t, float32(1), policy.Epsilon())
	seen := make(map[Move]int)
	for range 200 {
		m, err := policy.SelectMove(b, legalMoves)
		require.NoError(t, err)
		require.True(t, ContainsMove(legalMoves, m))
		seen[m]++
	}
	// With 20 moves and 200 draws, the best valued move can't be the only one selected.
	assert.Greater(t, len(seen), 10)
	assert.Equal(t, StartFEN, b.Signature())

	// Same seed, same choices.
	p1 := greedy.New(store, 0.5).WithRand(rand.New(rand.NewPCG(7, 7)))
	p2 := greedy.New(store, 0.5).WithRand(rand.New(rand.NewPCG(7, 7)))
	for range 50 {
		m1, err := p1.SelectMove(b, legalMoves)
		require.NoError(t, err)
		m2, err := p2.SelectMove(b, legalMoves)
		require.NoError(t, err)
		assert.Equal(t, m1, m2)
	}
}

func TestTerminalPosition(t *testing.T) {
	b := NewBoard()
	for _, s := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		m, err := ParseMove(s)
		require.NoError(t, err)
		require.NoError(t, b.ApplyMove(m))
	}
	policy := greedy.New(qtable.New(), 0)
	_, _, err := policy.Search(b)
	assert.ErrorIs(t, err, ai.ErrInvalidPosition)
	_, err = policy.SelectMove(b, nil)
	assert.ErrorIs(t, err, ai.ErrInvalidPosition)
}

func TestInvalidEpsilon(t *testing.T) {
	for _, epsilon := range []float32{-0.1, 1.5, float32(math.NaN())} {
		assert.Panicsf(t, func() { greedy.New(qtable.New(), epsilon) }, "epsilon=%g", epsilon)
	}
	assert.NotPanics(t, func() { greedy.New(qtable.New(), 1) })
}
