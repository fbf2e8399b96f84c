// Package qtable implements the tabular action-value store: a mapping from (encoded state, move)
// to the learned value of playing the move, along with the backward update rule used to
// learn it from self-play trajectories.
//
// The state of each entry is the encoding of the position after the move is played
// (an "afterstate"), and the value is from the perspective of the side that played the move.
package qtable

import (
	"cmp"
	"slices"
	"sync"

	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/features"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

type entryKey struct {
	state features.Key
	move  Move
}

// Store of action values. Missing entries have value 0.
//
// It is safe for concurrent use, but it is expected to have a single writer: the training loop.
type Store struct {
	mu     sync.RWMutex
	values map[entryKey]float32

	// FileName where to save/load the store from, used by Save and LoadOrCreate.
	FileName string
	muSave   sync.Mutex
}

// Assert Store is an ai.LeafEvaluator.
var _ ai.LeafEvaluator = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{values: make(map[entryKey]float32)}
}

// Get returns the stored value, or 0 if the entry was never written.
func (s *Store) Get(state features.EncodedState, m Move) float32 {
	return s.getByKey(state.Key(), m)
}

func (s *Store) getByKey(key features.Key, m Move) float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[entryKey{key, m}]
}

// Update inserts or overwrites the value of the entry.
func (s *Store) Update(state features.EncodedState, m Move, value float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[entryKey{state.Key(), m}] = value
}

// UpdateTowards moves the value of the entry towards target by the learning rate alpha,
// that is value + alpha*(target-value), and returns the new value.
func (s *Store) UpdateTowards(state features.EncodedState, m Move, target, alpha float32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entryKey{state.Key(), m}
	value := s.values[key]
	value += alpha * (target - value)
	s.values[key] = value
	return value
}

// Len returns the number of entries written.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// String implements ai.LeafEvaluator.
func (s *Store) String() string {
	if s.FileName != "" {
		return "qtable(" + s.FileName + ")"
	}
	return "qtable"
}

// LeafValue implements ai.LeafEvaluator: it returns the stored value of the move reached, in
// the position it led to, converted to White's perspective.
func (s *Store) LeafValue(pos Position, reached Move) (float32, error) {
	encoded, err := features.Encode(pos)
	if err != nil {
		return 0, err
	}
	// The side that played reached is the opponent of the side to move now.
	mover := pos.SideToMove().Opponent()
	return ai.FromWhitePerspective(mover, s.Get(encoded, reached)), nil
}

// Transition is one step of a trajectory: Side played Move, and State is the encoding of the
// position that resulted from it.
type Transition struct {
	State features.EncodedState
	Move  Move
	Side  Color
}

// Learn applies the backward update rule on the trajectory of one episode, from the last
// transition to the first.
//
// finalReward is given from the perspective of the side that played the last transition:
// +1 if it delivered checkmate, 0 for draws. The target of each earlier transition is the
// discounted target of its successor, negated since the successor was played by the other side.
func (s *Store) Learn(h Hyperparameters, trajectory []Transition, finalReward float32) error {
	if err := h.Validate(); err != nil {
		return err
	}
	target := finalReward
	for ii := len(trajectory) - 1; ii >= 0; ii-- {
		if ii < len(trajectory)-1 {
			target = h.Gamma * (-target)
		}
		tr := trajectory[ii]
		value := s.UpdateTowards(tr.State, tr.Move, target, h.Alpha)
		if klog.V(3).Enabled() {
			klog.Infof("  learn #%d %s %s: target=%.4f, value=%.4f", ii, tr.Side, tr.Move, target, value)
		}
	}
	return nil
}

// record is the serialized form of an entry.
type record struct {
	State string
	Move  Move
	Value float32
}

// sortedRecords returns the entries sorted by state key and move, for reproducible exports.
func (s *Store) sortedRecords() []record {
	s.mu.RLock()
	records := make([]record, 0, len(s.values))
	for key, value := range s.values {
		records = append(records, record{State: string(key.state), Move: key.move, Value: value})
	}
	s.mu.RUnlock()
	slices.SortFunc(records, func(a, b record) int {
		return cmp.Or(
			cmp.Compare(a.State, b.State),
			cmp.Compare(a.Move.From, b.Move.From),
			cmp.Compare(a.Move.To, b.Move.To),
			cmp.Compare(a.Move.Promotion, b.Move.Promotion))
	})
	return records
}

func (s *Store) setRecords(records []record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ii, r := range records {
		if !r.Move.From.Valid() || !r.Move.To.Valid() || r.Move.Promotion >= LastPieceKind {
			return errors.Errorf("invalid move %+v in record #%d", r.Move, ii)
		}
		s.values[entryKey{features.Key(r.State), r.Move}] = r.Value
	}
	return nil
}
