// Package arena plays matches between two AI configurations, alternating colors, and tallies the
// results. Matches run in parallel: each match owns its board and its searchers.
package arena

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/searchers"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// MatchResult of a single match.
type MatchResult struct {
	Plies int

	// Winner is the color that delivered checkmate, or NoColor for draws (including capped matches).
	Winner Color

	// Capped is true if the match reached the ply cap.
	Capped bool

	// Reason is a human-readable description of how the match finished.
	Reason string
}

// PlayMatch plays b until it is finished or maxPlies moves were played, asking sides[White] and
// sides[Black] for the moves. The observer, if not nil, is notified after each move.
func PlayMatch(ctx context.Context, b *Board, sides [NumColors]searchers.Searcher, maxPlies int, observer MoveObserver) (MatchResult, error) {
	result := MatchResult{Winner: NoColor}
	for !b.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if result.Plies >= maxPlies {
			result.Capped = true
			result.Reason = fmt.Sprintf("capped after %d plies", result.Plies)
			return result, nil
		}
		side := b.SideToMove()
		m, score, err := sides[side].Search(b)
		if err != nil {
			return result, errors.WithMessagef(err, "%s searching move #%d", side, result.Plies+1)
		}
		if err = b.ApplyMove(m); err != nil {
			return result, errors.WithMessagef(err, "%s playing move #%d", side, result.Plies+1)
		}
		result.Plies++
		if klog.V(2).Enabled() {
			klog.Infof("  %s plays %s (%s), score=%.3f", side, b.LastMoveEntry(), m, score)
		}
		if observer != nil {
			observer.OnMove(b.Signature(), b.LastMoveEntry())
		}
	}
	result.Winner = b.Outcome()
	result.Reason = b.FinishReason()
	return result, nil
}

// Results of the matches between AI-1 (index 0) and AI-2 (index 1). It is safe for concurrent use.
type Results struct {
	mu    sync.Mutex
	start time.Time

	// WinsAsWhite and WinsAsBlack are indexed by the AI.
	WinsAsWhite, WinsAsBlack [2]int

	// Draws are indexed by the AI playing White.
	Draws [2]int

	// Capped counts the draws by the ply cap.
	Capped int

	Played, Total int
}

// Record the result of a match where the AI whiteIdx played White.
func (r *Results) Record(whiteIdx int, result MatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Played++
	switch result.Winner {
	case White:
		r.WinsAsWhite[whiteIdx]++
	case Black:
		r.WinsAsBlack[1-whiteIdx]++
	default:
		r.Draws[whiteIdx]++
		if result.Capped {
			r.Capped++
		}
	}
}

// String implements fmt.Stringer.
func (r *Results) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var parts []string
	parts = append(parts, fmt.Sprintf("Played %d of %d: ", r.Played, r.Total))
	for aiIdx := range 2 {
		parts = append(parts, fmt.Sprintf("AI-%d: %d wins (White: %d, Black: %d) / ",
			aiIdx+1, r.WinsAsWhite[aiIdx]+r.WinsAsBlack[aiIdx], r.WinsAsWhite[aiIdx], r.WinsAsBlack[aiIdx]))
	}
	parts = append(parts, fmt.Sprintf("%d draws (%d capped, %d with AI-1 as White, %d with AI-2 as White)",
		r.Draws[0]+r.Draws[1], r.Capped, r.Draws[0], r.Draws[1]))
	if !r.start.IsZero() {
		parts = append(parts, fmt.Sprintf(" - %s", time.Since(r.start).Round(time.Millisecond)))
	}
	return strings.Join(parts, "")
}

// Config of a Run.
type Config struct {
	NumMatches int

	// Parallelism is the number of matches played simultaneously. If <= 0, GOMAXPROCS is used.
	Parallelism int

	// MaxPlies caps each match, which is then counted as a draw.
	MaxPlies int

	// NewSearchers creates the searchers of AI-1 and AI-2 for one match. Searchers keep state (random
	// number generators, statistics), so each match gets its own.
	NewSearchers func() ([2]searchers.Searcher, error)

	// NewBoard creates the initial position of each match. The default is the standard starting position.
	NewBoard func() (*Board, error)

	// Observer, if set, is called with the match number and each move. It may be called concurrently.
	Observer func(matchIdx int, signature, entry string)

	// OnResult, if set, is called after each match is recorded.
	OnResult func(r *Results)
}

// parallelism returns the number of matches to play simultaneously.
func (c Config) parallelism() int {
	if c.Parallelism > 0 {
		return c.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

// Run plays c.NumMatches matches, with AI-1 playing White in the even matches and AI-2 in the odd ones.
//
// If ctx is cancelled, the matches in progress are abandoned and Run returns the results so far and
// ctx.Err().
func Run(ctx context.Context, c Config) (*Results, error) {
	if c.NumMatches < 0 {
		return nil, errors.Wrapf(ai.ErrInvalidArgument, "num_matches=%d must be >= 0", c.NumMatches)
	}
	if c.MaxPlies < 1 {
		return nil, errors.Wrapf(ai.ErrInvalidArgument, "max_plies=%d must be >= 1", c.MaxPlies)
	}
	if c.NewSearchers == nil {
		return nil, errors.Wrap(ai.ErrInvalidArgument, "arena requires the searchers")
	}
	newBoard := c.NewBoard
	if newBoard == nil {
		newBoard = func() (*Board, error) { return NewBoard(), nil }
	}
	r := &Results{start: time.Now(), Total: c.NumMatches}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism())
	for matchIdx := range c.NumMatches {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			aiSearchers, err := c.NewSearchers()
			if err != nil {
				return err
			}
			b, err := newBoard()
			if err != nil {
				return err
			}
			whiteIdx := matchIdx % 2
			var sides [NumColors]searchers.Searcher
			sides[White], sides[Black] = aiSearchers[whiteIdx], aiSearchers[1-whiteIdx]
			var observer MoveObserver
			if c.Observer != nil {
				observer = MoveObserverFunc(func(signature, entry string) {
					c.Observer(matchIdx, signature, entry)
				})
			}
			result, err := PlayMatch(gCtx, b, sides, c.MaxPlies, observer)
			if err != nil {
				return errors.WithMessagef(err, "match #%d", matchIdx)
			}
			klog.V(1).Infof("Match #%d (AI-%d as White): %s", matchIdx, whiteIdx+1, result.Reason)
			r.Record(whiteIdx, result)
			if c.OnResult != nil {
				c.OnResult(r)
			}
			return nil
		})
	}
	err := g.Wait()
	if ctx.Err() != nil {
		return r, ctx.Err()
	}
	return r, err
}
