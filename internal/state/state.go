// Package state defines the chess value types used by the engine (Color, Square, PieceKind, Move)
// and the Position interface: the contract with the rules engine that owns the game rules.
//
// Board implements Position on top of github.com/notnil/chess.
package state

import (
	"fmt"
	"github.com/pkg/errors"
	"strings"
)

// Color of a side. NoColor is the null value.
type Color uint8

const (
	White Color = iota
	Black

	// NoColor represents no side, e.g.: the winner of a drawn match.
	NoColor
)

// NumColors is the number of sides playing.
const NumColors = 2

var colorNames = [...]string{"White", "Black", "NoColor"}

// String returns the name of the color.
func (c Color) String() string {
	if int(c) >= len(colorNames) {
		return fmt.Sprintf("Color(%d)", c)
	}
	return colorNames[c]
}

// Opponent returns the other side. The opponent of NoColor is NoColor.
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	}
	return NoColor
}

// Letter used in FEN for the side to move: "w" or "b".
func (c Color) Letter() string {
	if c == Black {
		return "b"
	}
	return "w"
}

// PieceKind is the kind of piece, regardless of its color.
type PieceKind uint8

const (
	NoPieceKind PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
	LastPieceKind
)

var (
	// PieceLetters are the uppercase FEN letters of each piece kind.
	PieceLetters = [LastPieceKind]byte{'-', 'P', 'N', 'B', 'R', 'Q', 'K'}

	// PieceKinds enumerates all the piece kinds, skipping NoPieceKind.
	PieceKinds = [...]PieceKind{Pawn, Knight, Bishop, Rook, Queen, King}
)

// String returns the uppercase letter of the piece kind.
func (k PieceKind) String() string {
	if k >= LastPieceKind {
		return "?"
	}
	return string(PieceLetters[k])
}

// PieceKindFromLetter parses a FEN piece letter, either case. It returns NoPieceKind if
// the letter is not a piece.
func PieceKindFromLetter(letter byte) PieceKind {
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	for kind := Pawn; kind < LastPieceKind; kind++ {
		if PieceLetters[kind] == letter {
			return kind
		}
	}
	return NoPieceKind
}

// Square on the board, from a1 (0) to h8 (63), enumerated by file first: b1 is 1, a2 is 8.
type Square int8

// NumSquares in a chess board.
const NumSquares = 64

// NoSquare is an invalid square.
const NoSquare Square = -1

// NewSquare from file (0 for "a") and rank (0 for "1").
func NewSquare(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(rank*8 + file)
}

// File of the square, 0 for "a".
func (sq Square) File() int { return int(sq) % 8 }

// Rank of the square, 0 for "1".
func (sq Square) Rank() int { return int(sq) / 8 }

// Valid returns whether sq is on the board.
func (sq Square) Valid() bool { return sq >= 0 && sq < NumSquares }

// String returns the algebraic coordinate, e.g. "e4".
func (sq Square) String() string {
	if !sq.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// ParseSquare parses an algebraic coordinate like "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, errors.Errorf("invalid square %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}

// Move is a (from, to, promotion) triple. Promotion is NoPieceKind for non-promotions.
// Moves are comparable values.
type Move struct {
	From, To  Square
	Promotion PieceKind
}

// String returns the move in UCI notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPieceKind {
		s += strings.ToLower(m.Promotion.String())
	}
	return s
}

// ParseMove parses a move in UCI notation, e.g. "g1f3" or "a7a8q".
func ParseMove(s string) (m Move, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return m, errors.Errorf("invalid move %q: expected UCI notation like \"e2e4\"", s)
	}
	if m.From, err = ParseSquare(s[0:2]); err != nil {
		return m, errors.WithMessagef(err, "invalid move %q", s)
	}
	if m.To, err = ParseSquare(s[2:4]); err != nil {
		return m, errors.WithMessagef(err, "invalid move %q", s)
	}
	if len(s) == 5 {
		m.Promotion = PieceKindFromLetter(s[4])
		if m.Promotion == NoPieceKind || m.Promotion == Pawn || m.Promotion == King {
			return m, errors.Errorf("invalid promotion in move %q", s)
		}
	}
	return m, nil
}

// Position is the handle to a game position, owned by the rules engine.
//
// The engine never mutates a Position except through ApplyMove and UndoLastMove.
type Position interface {
	// SideToMove returns the color of the side that plays next.
	SideToMove() Color

	// LegalMoves enumerates the legal moves, in a deterministic order.
	LegalMoves() []Move

	// ApplyMove plays the move, it fails if the move is not legal.
	ApplyMove(m Move) error

	// UndoLastMove reverts the last applied move.
	UndoLastMove() error

	// IsTerminal returns whether the game is over: checkmate or any draw condition.
	IsTerminal() bool

	// IsCheckmate returns whether the side to move is checkmated.
	IsCheckmate() bool

	// Signature returns a canonical description of the position: a FEN string.
	Signature() string
}

// MoveObserver is notified after each move applied by the engine, typically a UI.
//
// The entry is the notation of the move for a move history (e.g. "Nf3").
type MoveObserver interface {
	OnMove(signature, entry string)
}

// MoveObserverFunc adapts a function to a MoveObserver.
type MoveObserverFunc func(signature, entry string)

// OnMove implements MoveObserver.
func (fn MoveObserverFunc) OnMove(signature, entry string) { fn(signature, entry) }

// ContainsMove returns whether m is in moves.
func ContainsMove(moves []Move, m Move) bool {
	for _, candidate := range moves {
		if candidate == m {
			return true
		}
	}
	return false
}
