// Package trainer implements self-play training of the action-value store: it plays episodes
// with a searcher (by default the epsilon-greedy policy over the store itself), and at the end of
// each episode feeds its trajectory to the store's backward update rule.
//
// Training is single-threaded and synchronous: one episode completes before the next starts.
package trainer

import (
	"context"
	"fmt"

	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/ai/qtable"
	"github.com/janpfeifer/qchess/internal/features"
	"github.com/janpfeifer/qchess/internal/searchers"
	"github.com/janpfeifer/qchess/internal/searchers/greedy"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultMaxPlies is the default cap on the number of plies of an episode.
const DefaultMaxPlies = 400

// Trajectory of an episode: the transitions in the order they were played.
type Trajectory []qtable.Transition

// EpisodeResult summarizes one episode.
type EpisodeResult struct {
	// Plies played.
	Plies int

	// Winner is the side that delivered checkmate, or NoColor for draws and capped episodes.
	Winner Color

	// Capped is true if the episode was stopped by the ply cap, before reaching a terminal position.
	Capped bool

	// Reward given to the last transition, from the perspective of its mover.
	Reward float32
}

// String implements fmt.Stringer.
func (r EpisodeResult) String() string {
	switch {
	case r.Capped:
		return fmt.Sprintf("capped after %d plies", r.Plies)
	case r.Winner == NoColor:
		return fmt.Sprintf("draw after %d plies", r.Plies)
	default:
		return fmt.Sprintf("%s won after %d plies", r.Winner, r.Plies)
	}
}

// Stats accumulated over the episodes of a Trainer.
type Stats struct {
	Episodes, WhiteWins, BlackWins, Draws, Capped, Plies int
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("episodes=%d, white wins=%d, black wins=%d, draws=%d (capped=%d), plies=%d",
		s.Episodes, s.WhiteWins, s.BlackWins, s.Draws, s.Capped, s.Plies)
}

func (s *Stats) add(r EpisodeResult) {
	s.Episodes++
	s.Plies += r.Plies
	switch r.Winner {
	case White:
		s.WhiteWins++
	case Black:
		s.BlackWins++
	default:
		s.Draws++
		if r.Capped {
			s.Capped++
		}
	}
}

// Trainer runs self-play episodes and updates the store.
type Trainer struct {
	store       *qtable.Store
	h           qtable.Hyperparameters
	searcher    searchers.Searcher
	maxPlies    int
	observer    MoveObserver
	newPosition func() (Position, error)
	onEpisode   func(episode int, result EpisodeResult)
	stats       Stats
}

// Option configures a Trainer, see New.
type Option func(t *Trainer)

// WithSearcher sets the searcher used to select the moves of both sides.
// The default is the epsilon-greedy policy over the store, using the hyperparameters' epsilon.
func WithSearcher(searcher searchers.Searcher) Option {
	return func(t *Trainer) { t.searcher = searcher }
}

// WithMaxPlies sets the cap on the number of plies of an episode. It must be >= 1.
// The default is DefaultMaxPlies.
func WithMaxPlies(maxPlies int) Option {
	return func(t *Trainer) { t.maxPlies = maxPlies }
}

// WithObserver sets an observer notified after each move, e.g.: a UI.
func WithObserver(observer MoveObserver) Option {
	return func(t *Trainer) { t.observer = observer }
}

// WithNewPosition sets the function that creates the initial position of each episode of Train.
// The default is the standard chess starting position.
func WithNewPosition(newPosition func() (Position, error)) Option {
	return func(t *Trainer) { t.newPosition = newPosition }
}

// WithOnEpisode sets a callback called by Train at the end of each episode.
func WithOnEpisode(onEpisode func(episode int, result EpisodeResult)) Option {
	return func(t *Trainer) { t.onEpisode = onEpisode }
}

// New creates a Trainer that updates store with the given hyperparameters.
//
// It returns a wrapped ai.ErrInvalidArgument if the hyperparameters or the ply cap are out of range.
func New(store *qtable.Store, h qtable.Hyperparameters, opts ...Option) (*Trainer, error) {
	if store == nil {
		return nil, errors.Wrapf(ai.ErrInvalidArgument, "trainer requires a store")
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	t := &Trainer{
		store:    store,
		h:        h,
		maxPlies: DefaultMaxPlies,
		newPosition: func() (Position, error) {
			return NewBoard(), nil
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.maxPlies < 1 {
		return nil, errors.Wrapf(ai.ErrInvalidArgument, "max plies per episode must be >= 1, got %d", t.maxPlies)
	}
	if t.searcher == nil {
		t.searcher = greedy.New(store, h.Epsilon)
	}
	return t, nil
}

// Store being trained.
func (t *Trainer) Store() *qtable.Store { return t.store }

// Stats accumulated so far.
func (t *Trainer) Stats() Stats { return t.stats }

// lastMoveEntry returns the notation of the last move, if pos provides it, or its UCI notation.
func lastMoveEntry(pos Position, m Move) string {
	if withHistory, ok := pos.(interface{ LastMoveEntry() string }); ok {
		return withHistory.LastMoveEntry()
	}
	return m.String()
}

// RunEpisode plays an episode from pos until it reaches a terminal position or the ply cap, and
// then updates the store with the resulting trajectory. pos is left at the final position.
//
// If ctx is cancelled during the episode, the trajectory is discarded (the store is not updated)
// and ctx.Err() is returned.
func (t *Trainer) RunEpisode(ctx context.Context, pos Position) (result EpisodeResult, err error) {
	var trajectory Trajectory
	for {
		if err = ctx.Err(); err != nil {
			klog.V(1).Infof("Episode interrupted after %d plies: %v", len(trajectory), err)
			return EpisodeResult{Plies: len(trajectory)}, err
		}
		if pos.IsTerminal() {
			break
		}
		if len(trajectory) >= t.maxPlies {
			result.Capped = true
			klog.Warningf("Episode capped after %d plies, treated as a draw", len(trajectory))
			break
		}
		side := pos.SideToMove()
		m, score, err := t.searcher.Search(pos)
		if err != nil {
			return EpisodeResult{Plies: len(trajectory)}, errors.WithMessagef(err, "selecting move #%d", len(trajectory)+1)
		}
		if err = pos.ApplyMove(m); err != nil {
			return EpisodeResult{Plies: len(trajectory)}, errors.WithMessagef(err, "applying move #%d", len(trajectory)+1)
		}
		encoded, err := features.Encode(pos)
		if err != nil {
			return EpisodeResult{Plies: len(trajectory)}, err
		}
		trajectory = append(trajectory, qtable.Transition{State: encoded, Move: m, Side: side})
		if klog.V(2).Enabled() {
			klog.Infof("  ply #%d: %s plays %s (score=%.3f)", len(trajectory), side, m, score)
		}
		if t.observer != nil {
			t.observer.OnMove(pos.Signature(), lastMoveEntry(pos, m))
		}
	}

	result.Plies = len(trajectory)
	result.Winner = NoColor
	if !result.Capped && pos.IsCheckmate() && len(trajectory) > 0 {
		// The last mover delivered checkmate.
		result.Winner = trajectory[len(trajectory)-1].Side
		result.Reward = ai.WinGameScore
	}
	if err = t.store.Learn(t.h, trajectory, result.Reward); err != nil {
		return result, err
	}
	return result, nil
}

// Train runs iterations episodes, each from a new position. It returns the stats accumulated over
// the episodes run by this call.
func (t *Trainer) Train(ctx context.Context, iterations int) (Stats, error) {
	if iterations < 0 {
		return Stats{}, errors.Wrapf(ai.ErrInvalidArgument, "number of iterations must be >= 0, got %d", iterations)
	}
	var stats Stats
	for episode := range iterations {
		pos, err := t.newPosition()
		if err != nil {
			return stats, errors.WithMessagef(err, "creating position for episode #%d", episode)
		}
		result, err := t.RunEpisode(ctx, pos)
		if err != nil {
			return stats, err
		}
		stats.add(result)
		t.stats.add(result)
		klog.V(1).Infof("Episode #%d: %s, store has %d entries", episode, result, t.store.Len())
		if t.onEpisode != nil {
			t.onEpisode(episode, result)
		}
	}
	return stats, nil
}

// Train a new store with iterations self-play episodes, using the epsilon-greedy policy by default.
func Train(ctx context.Context, h qtable.Hyperparameters, iterations int, opts ...Option) (*qtable.Store, Stats, error) {
	store := qtable.New()
	t, err := New(store, h, opts...)
	if err != nil {
		return nil, Stats{}, err
	}
	stats, err := t.Train(ctx, iterations)
	if err != nil {
		return nil, stats, err
	}
	return store, stats, nil
}
