// Package features implements the state encoding used to key learned action values:
// the pieces on the board, read from the position signature (FEN) in a fixed order.
package features

import (
	"github.com/janpfeifer/qchess/internal/ai"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/pkg/errors"
	"strings"
)

// ColoredPiece is a piece on a square, as read from a FEN placement.
type ColoredPiece struct {
	Kind   PieceKind
	Color  Color
	Square Square
}

// ParsePlacement parses the placement field (the first field) of a FEN signature.
//
// Pieces are returned in FEN order: rank 8 to rank 1, and within a rank file "a" to "h".
func ParsePlacement(signature string) ([]ColoredPiece, error) {
	fields := strings.Fields(signature)
	if len(fields) == 0 {
		return nil, errors.Wrapf(ai.ErrInvalidPosition, "empty position signature")
	}
	rows := strings.Split(fields[0], "/")
	if len(rows) != 8 {
		return nil, errors.Wrapf(ai.ErrInvalidPosition, "signature %q has %d ranks, 8 expected", signature, len(rows))
	}
	pieces := make([]ColoredPiece, 0, 32)
	for rowIdx, row := range rows {
		rank := 7 - rowIdx
		file := 0
		for ii := 0; ii < len(row); ii++ {
			letter := row[ii]
			if letter >= '1' && letter <= '8' {
				file += int(letter - '0')
				continue
			}
			kind := PieceKindFromLetter(letter)
			if kind == NoPieceKind {
				return nil, errors.Wrapf(ai.ErrInvalidPosition, "signature %q has unknown piece %q", signature, letter)
			}
			if file > 7 {
				return nil, errors.Wrapf(ai.ErrInvalidPosition, "signature %q: rank %d overflows", signature, rank+1)
			}
			color := White
			if letter >= 'a' {
				color = Black
			}
			pieces = append(pieces, ColoredPiece{Kind: kind, Color: color, Square: NewSquare(file, rank)})
			file++
		}
		if file != 8 {
			return nil, errors.Wrapf(ai.ErrInvalidPosition, "signature %q: rank %d covers %d files", signature, rank+1, file)
		}
	}
	return pieces, nil
}

// PieceSquare is one element of an EncodedState.
type PieceSquare struct {
	Kind   PieceKind
	Square Square
}

// EncodedState is the canonical representation of a position used by the learned action values:
// the side to move and the pieces in FEN order, with their kinds normalized regardless of color.
//
// It depends only on the piece placement and the side to move, never on the move history.
type EncodedState struct {
	Side   Color
	Pieces []PieceSquare
}

// Key is a compact comparable form of an EncodedState, to be used as a map key.
type Key string

// Encode the position. It fails only if the position signature is malformed.
func Encode(pos Position) (EncodedState, error) {
	colored, err := ParsePlacement(pos.Signature())
	if err != nil {
		return EncodedState{}, err
	}
	encoded := EncodedState{Side: pos.SideToMove(), Pieces: make([]PieceSquare, len(colored))}
	for ii, p := range colored {
		encoded.Pieces[ii] = PieceSquare{Kind: p.Kind, Square: p.Square}
	}
	return encoded, nil
}

// Key returns the compact form of the encoded state: one byte for the side to move, followed by
// two bytes (kind letter, square) per piece.
func (e EncodedState) Key() Key {
	buf := make([]byte, 0, 1+2*len(e.Pieces))
	buf = append(buf, e.Side.Letter()[0])
	for _, p := range e.Pieces {
		buf = append(buf, PieceLetters[p.Kind], byte(p.Square))
	}
	return Key(buf)
}

// Len returns the number of pieces.
func (e EncodedState) Len() int { return len(e.Pieces) }

// String returns a human-readable form, e.g. "w:Ra8 Nb8 ...".
func (e EncodedState) String() string {
	var sb strings.Builder
	sb.WriteString(e.Side.Letter())
	sb.WriteByte(':')
	for ii, p := range e.Pieces {
		if ii > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.Kind.String())
		sb.WriteString(p.Square.String())
	}
	return sb.String()
}
