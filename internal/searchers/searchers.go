// Package searchers defines the Searcher interface implemented by the move-selection strategies,
// and helpers shared by them.
package searchers

import (
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/pkg/errors"
)

// Searcher is the interface that any of the move-selection algorithms must adhere to be valid.
type Searcher interface {
	// Search returns the move to play in the given position, along with its expected score
	// from the perspective of the side to move.
	//
	// The position is left unchanged. It returns a wrapped ai.ErrInvalidPosition if pos is terminal.
	Search(pos Position) (move Move, score float32, err error)
}

// WithMove applies m to pos, calls fn, and undoes m afterwards, whatever fn returns.
//
// An error undoing the move is joined to the error returned by fn.
func WithMove(pos Position, m Move, fn func() error) (err error) {
	if err = pos.ApplyMove(m); err != nil {
		return err
	}
	defer func() {
		if undoErr := pos.UndoLastMove(); undoErr != nil {
			undoErr = errors.WithMessagef(undoErr, "failed to undo move %s", m)
			if err == nil {
				err = undoErr
			} else {
				err = errors.WithMessagef(err, "%v", undoErr)
			}
		}
	}()
	return fn()
}
