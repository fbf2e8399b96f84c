// Package alphabeta implements a fixed-depth minimax search with alpha-beta pruning.
//
// Scores are propagated from White's perspective: White maximizes, Black minimizes.
// Leaf nodes are scored by an ai.LeafEvaluator, and terminal nodes by ai.IsEndGameAndScore.
//
// See: wikipedia.org/wiki/Alpha-beta_pruning
package alphabeta

import (
	"fmt"
	"math"
	"time"

	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/searchers"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Searcher implements the searchers.Searcher interface.
type Searcher struct {
	maxDepth int
	leaf     ai.LeafEvaluator
	stats    Stats
}

// Assert that Searcher implements searchers.Searcher.
var _ searchers.Searcher = (*Searcher)(nil)

// Stats stores running stats collected during the search: for benchmarking, monitoring and debugging purposes.
type Stats struct {
	// Nodes "played" during search: each move applied.
	Nodes int

	// LeafEvals is the number of calls to the leaf evaluator. Terminal positions are not
	// evaluated and counted in TerminalEvals instead.
	LeafEvals, TerminalEvals int

	// Prunes counts the cutoffs.
	Prunes int
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("nodes=%d, leafEvals=%d, terminalEvals=%d, prunes=%d",
		s.Nodes, s.LeafEvals, s.TerminalEvals, s.Prunes)
}

// New returns an Alpha-Beta Pruning based searchers.Searcher implementation.
// See Searcher.WithMaxDepth for optional configuration.
//
// The one obligatory parameter is the leaf evaluator used for the search.
func New(leaf ai.LeafEvaluator) *Searcher {
	return &Searcher{
		leaf:     leaf,
		maxDepth: DefaultMaxDepth,
	}
}

// DefaultMaxDepth for search.
const DefaultMaxDepth = 3

// WithMaxDepth sets the depth of search used by Search: the unit here are plies (ply singular). Each player
// playing counts as one ply. See https://en.wikipedia.org/wiki/Ply_(game_theory).
//
// The default is 3 (DefaultMaxDepth). Values < 1 make Search fail with ai.ErrInvalidArgument.
func (ab *Searcher) WithMaxDepth(maxDepth int) *Searcher {
	ab.maxDepth = maxDepth
	return ab
}

// MaxDepth returns the depth of search used by Search.
func (ab *Searcher) MaxDepth() int { return ab.maxDepth }

// Stats returns the stats accumulated since the Searcher was created.
func (ab *Searcher) Stats() Stats { return ab.stats }

// String implements fmt.Stringer.
func (ab *Searcher) String() string {
	return fmt.Sprintf("ab(max_depth=%d, leaf=%s)", ab.maxDepth, ab.leaf)
}

// Search implements the searchers.Searcher interface: the score is from the perspective of the side to move.
func (ab *Searcher) Search(pos Position) (Move, float32, error) {
	return ab.BestMove(pos, ab.maxDepth, pos.SideToMove())
}

// BestMove searches depth plies from pos and returns the best move for the side to move.
//
// The returned score is from the perspective of maximizing: positive values are good for maximizing.
// Among moves with the same score the first one, in the order given by pos.LegalMoves, is returned.
//
// pos is left unchanged.
func (ab *Searcher) BestMove(pos Position, depth int, maximizing Color) (bestMove Move, bestScore float32, err error) {
	if depth < 1 {
		return Move{}, 0, errors.Wrapf(ai.ErrInvalidArgument, "alpha-beta search depth must be >= 1, got %d", depth)
	}
	if maximizing != White && maximizing != Black {
		return Move{}, 0, errors.Wrapf(ai.ErrInvalidArgument, "alpha-beta search maximizing side must be White or Black, got %s", maximizing)
	}
	if pos.IsTerminal() {
		return Move{}, 0, errors.Wrapf(ai.ErrInvalidPosition, "alpha-beta search on a terminal position %q", pos.Signature())
	}

	start := time.Now()
	statsBefore := ab.stats
	side := pos.SideToMove()
	alpha, beta := float32(math.Inf(-1)), float32(math.Inf(1))
	var best float32
	if side == White {
		best = alpha
	} else {
		best = beta
	}
	for idx, m := range pos.LegalMoves() {
		var score float32
		err = searchers.WithMove(pos, m, func() error {
			ab.stats.Nodes++
			var err error
			score, err = ab.recursion(pos, depth-1, alpha, beta, m)
			return err
		})
		if err != nil {
			return Move{}, 0, err
		}
		if side == White {
			if idx == 0 || score > best {
				best, bestMove = score, m
			}
			alpha = max(alpha, best)
		} else {
			if idx == 0 || score < best {
				best, bestMove = score, m
			}
			beta = min(beta, best)
		}
	}

	bestScore = ai.FromWhitePerspective(maximizing, best)
	if klog.V(2).Enabled() {
		elapsed := time.Since(start).Seconds()
		nodes := ab.stats.Nodes - statsBefore.Nodes
		klog.Infof("alpha-beta (depth=%d, leaf=%s): best move %s, score=%.4f", depth, ab.leaf, bestMove, bestScore)
		klog.Infof("  stats: %s, nodes/s=%.1f", ab.stats, float64(nodes)/elapsed)
	}
	return bestMove, bestScore, nil
}

// recursion of the alpha-beta pruning algorithm, with depthLeft plies to go. reached is the move that
// led to pos. It returns the score from White's perspective.
func (ab *Searcher) recursion(pos Position, depthLeft int, alpha, beta float32, reached Move) (float32, error) {
	if isEnd, score := ai.IsEndGameAndScore(pos); isEnd {
		ab.stats.TerminalEvals++
		return ai.FromWhitePerspective(pos.SideToMove(), score), nil
	}
	if depthLeft == 0 {
		ab.stats.LeafEvals++
		score, err := ab.leaf.LeafValue(pos, reached)
		if err != nil {
			return 0, errors.WithMessagef(err, "leaf evaluator %s failed", ab.leaf)
		}
		return score, nil
	}

	maximizing := pos.SideToMove() == White
	var best float32
	if maximizing {
		best = float32(math.Inf(-1))
	} else {
		best = float32(math.Inf(1))
	}
	for _, m := range pos.LegalMoves() {
		var score float32
		err := searchers.WithMove(pos, m, func() error {
			ab.stats.Nodes++
			var err error
			score, err = ab.recursion(pos, depthLeft-1, alpha, beta, m)
			return err
		})
		if err != nil {
			return 0, err
		}
		if maximizing {
			best = max(best, score)
			alpha = max(alpha, best)
		} else {
			best = min(best, score)
			beta = min(beta, best)
		}
		if alpha >= beta {
			// The opponent will never take this path, so we can prune the search and stop here.
			ab.stats.Prunes++
			break
		}
	}
	return best, nil
}
