// Package material implements a static leaf evaluator: material balance plus a small
// centralization term, squashed to the score range of the other evaluators.
package material

import (
	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/features"
	. "github.com/janpfeifer/qchess/internal/state"
)

// PieceValues in centipawns. The king is not counted.
var PieceValues = [LastPieceKind]int{
	Pawn:   100,
	Knight: 400,
	Bishop: 400,
	Rook:   600,
	Queen:  1200,
}

const (
	// CenterBonus is added for each knight or bishop on one of the 16 central squares.
	CenterBonus = 10

	// PawnAdvanceBonus is added per rank a pawn advanced beyond its third rank.
	PawnAdvanceBonus = 5

	// Scale divides the centipawn total before squashing: a queen up is ~0.83.
	Scale = 1000
)

// Evaluator implements ai.LeafEvaluator.
type Evaluator struct{}

// Assert Evaluator is an ai.LeafEvaluator.
var _ ai.LeafEvaluator = Evaluator{}

// New returns the static material evaluator.
func New() Evaluator { return Evaluator{} }

// String implements ai.LeafEvaluator.
func (Evaluator) String() string { return "material" }

// LeafValue implements ai.LeafEvaluator: the score is from White's perspective and doesn't depend
// on the move that reached the position.
func (Evaluator) LeafValue(pos Position, _ Move) (float32, error) {
	cp, err := Centipawns(pos.Signature())
	if err != nil {
		return 0, err
	}
	return ai.SquashScore(float32(cp) / Scale), nil
}

// Centipawns returns the static evaluation of the signature placement, from White's perspective.
func Centipawns(signature string) (int, error) {
	pieces, err := features.ParsePlacement(signature)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, p := range pieces {
		value := PieceValues[p.Kind]
		switch p.Kind {
		case Knight, Bishop:
			if isCentral(p.Square) {
				value += CenterBonus
			}
		case Pawn:
			advance := p.Square.Rank() - 2 // Rank 3 for White.
			if p.Color == Black {
				advance = 5 - p.Square.Rank() // Rank 6 for Black.
			}
			if advance > 0 {
				value += advance * PawnAdvanceBonus
			}
		}
		if p.Color == Black {
			value = -value
		}
		total += value
	}
	return total, nil
}

func isCentral(sq Square) bool {
	file, rank := sq.File(), sq.Rank()
	return file >= 2 && file <= 5 && rank >= 2 && rank <= 5
}
