// Package statetest provides synthetic positions to test searchers and trainers without
// depending on chess rules.
package statetest

import (
	"fmt"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/pkg/errors"
	"strings"
)

// Tree is a synthetic game tree implementing state.Position: every non-terminal node has
// Branching legal moves, and the node is identified by the path of move indices from the root.
//
// Nodes at Depth are terminal (draws, unless Checkmate says otherwise). A Depth of 0 builds an
// endless game, whose terminal detection never fires.
type Tree struct {
	Branching, Depth int

	// Checkmate, if set, marks nodes where the side to move is checkmated. Those nodes are terminal.
	Checkmate func(path []int) bool

	path []int
}

// Assert Tree is a Position.
var _ Position = (*Tree)(nil)

// NewTree creates a game tree with the given branching factor and depth (0 for endless).
func NewTree(branching, depth int) *Tree {
	if branching < 1 || branching > 8 {
		panic(fmt.Sprintf("statetest.NewTree: branching must be between 1 and 8, got %d", branching))
	}
	return &Tree{Branching: branching, Depth: depth}
}

// Path returns a copy of the move indices from the root to the current node.
func (t *Tree) Path() []int {
	return append([]int(nil), t.path...)
}

// MoveAt returns the move with index idx at the current node.
func (t *Tree) MoveAt(idx int) Move {
	return Move{From: Square(idx), To: Square(len(t.path) % NumSquares)}
}

// SideToMove implements state.Position.
func (t *Tree) SideToMove() Color {
	if len(t.path)%2 == 0 {
		return White
	}
	return Black
}

// LegalMoves implements state.Position.
func (t *Tree) LegalMoves() []Move {
	if t.IsTerminal() {
		return nil
	}
	moves := make([]Move, t.Branching)
	for idx := range moves {
		moves[idx] = t.MoveAt(idx)
	}
	return moves
}

// ApplyMove implements state.Position.
func (t *Tree) ApplyMove(m Move) error {
	if t.IsTerminal() || int(m.From) >= t.Branching || m != t.MoveAt(int(m.From)) {
		return errors.Wrapf(ErrIllegalMove, "move %s at path %v", m, t.path)
	}
	t.path = append(t.path, int(m.From))
	return nil
}

// UndoLastMove implements state.Position.
func (t *Tree) UndoLastMove() error {
	if len(t.path) == 0 {
		return ErrNoMoveToUndo
	}
	t.path = t.path[:len(t.path)-1]
	return nil
}

// IsCheckmate implements state.Position.
func (t *Tree) IsCheckmate() bool {
	return t.Checkmate != nil && t.Checkmate(t.path)
}

// IsTerminal implements state.Position.
func (t *Tree) IsTerminal() bool {
	return (t.Depth > 0 && len(t.path) >= t.Depth) || t.IsCheckmate()
}

// Signature implements state.Position. It returns a FEN where each ply of the path places a
// pawn: ply j on rank 8-(j%8) at the file of the move index. Paths of up to 8 plies have
// distinct signatures.
func (t *Tree) Signature() string {
	var grid [8][8]byte
	for ply, moveIdx := range t.path {
		letter := byte('P')
		if ply%2 == 1 {
			letter = 'p'
		}
		grid[ply%8][moveIdx] = letter
	}
	ranks := make([]string, 8)
	for row := range grid {
		var sb strings.Builder
		empty := 0
		for _, letter := range grid[row] {
			if letter == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(letter)
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		ranks[row] = sb.String()
	}
	return fmt.Sprintf("%s %s - - 0 %d", strings.Join(ranks, "/"), t.SideToMove().Letter(), len(t.path)/2+1)
}
