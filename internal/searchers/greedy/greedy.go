// Package greedy implements the epsilon-greedy policy over the learned action values: with
// probability epsilon it plays a uniformly random legal move (exploration), otherwise the move
// with the highest stored value (exploitation).
package greedy

import (
	"math"
	"math/rand/v2"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/ai/qtable"
	"github.com/janpfeifer/qchess/internal/features"
	"github.com/janpfeifer/qchess/internal/searchers"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Policy implements searchers.Searcher.
type Policy struct {
	store   *qtable.Store
	epsilon float32
	rng     *rand.Rand
}

// Assert Policy is a searchers.Searcher.
var _ searchers.Searcher = (*Policy)(nil)

// New returns an epsilon-greedy Policy reading values from store.
//
// It panics if epsilon is not in [0, 1]: callers taking epsilon from users should check it first
// with qtable.ValidateEpsilon. Use WithRand for reproducible choices.
func New(store *qtable.Store, epsilon float32) *Policy {
	if err := qtable.ValidateEpsilon(epsilon); err != nil {
		exceptions.Panicf("greedy.New: %v", err)
	}
	return &Policy{
		store:   store,
		epsilon: epsilon,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// WithRand sets the random number generator used for exploration. It returns itself.
func (p *Policy) WithRand(rng *rand.Rand) *Policy {
	p.rng = rng
	return p
}

// Epsilon returns the exploration probability.
func (p *Policy) Epsilon() float32 { return p.epsilon }

// Search implements searchers.Searcher. The score is the stored value of the move chosen.
func (p *Policy) Search(pos Position) (Move, float32, error) {
	if pos.IsTerminal() {
		return Move{}, 0, errors.Wrapf(ai.ErrInvalidPosition, "greedy policy called on a terminal position %q", pos.Signature())
	}
	return p.selectMove(pos, pos.LegalMoves())
}

// SelectMove selects one of legalMoves to play in pos.
//
// When exploiting, ties are broken by the order of legalMoves: the first move with the maximal value
// is selected. pos is left unchanged.
func (p *Policy) SelectMove(pos Position, legalMoves []Move) (Move, error) {
	m, _, err := p.selectMove(pos, legalMoves)
	return m, err
}

func (p *Policy) selectMove(pos Position, legalMoves []Move) (Move, float32, error) {
	if len(legalMoves) == 0 {
		return Move{}, 0, errors.Wrapf(ai.ErrInvalidPosition, "no legal moves in position %q", pos.Signature())
	}
	if p.rng.Float32() < p.epsilon {
		m := legalMoves[p.rng.IntN(len(legalMoves))]
		if klog.V(2).Enabled() {
			klog.Infof("greedy: exploring with random move %s", m)
		}
		return m, 0, nil
	}

	bestValue := float32(math.Inf(-1))
	var bestMove Move
	for _, m := range legalMoves {
		var value float32
		err := searchers.WithMove(pos, m, func() error {
			encoded, err := features.Encode(pos)
			if err != nil {
				return err
			}
			value = p.store.Get(encoded, m)
			return nil
		})
		if err != nil {
			return Move{}, 0, errors.WithMessagef(err, "greedy policy evaluating move %s", m)
		}
		if value > bestValue {
			bestValue = value
			bestMove = m
		}
	}
	if klog.V(2).Enabled() {
		klog.Infof("greedy: best move %s, value=%.4f", bestMove, bestValue)
	}
	return bestMove, bestValue, nil
}
