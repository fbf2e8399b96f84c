// Package ai (Artificial Intelligence) defines the standard interfaces and conventions shared by
// the evaluators, the searchers and the trainer.
package ai

import (
	"github.com/chewxy/math32"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument is returned (wrapped) for arguments out of their valid range: search depth,
	// hyperparameters, ply caps, iteration counts. Nothing is changed when it is returned.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPosition is returned (wrapped) when a search or a policy is invoked on a terminal
	// position, or when a position signature cannot be parsed.
	ErrInvalidPosition = errors.New("invalid position")
)

// WinGameScore for the winning side. For the losing side it is -WinGameScore.
// These are +1 and -1, the same range as the rewards used to learn action values.
const WinGameScore = float32(1)

// SquashScore converts any score to a value strictly between -WinGameScore and +WinGameScore,
// using tanh(x) -- a type of S curve.
func SquashScore(x float32) float32 {
	return math32.Tanh(x) * WinGameScore
}

// LeafEvaluator scores non-expanded nodes of a search.
//
// LeafValue returns the value of pos from White's perspective, where reached is the move that
// led to pos. It is never called on terminal positions.
type LeafEvaluator interface {
	LeafValue(pos Position, reached Move) (float32, error)
	String() string
}

// IsEndGameAndScore returns whether the game is over, and the hard-coded score of a
// win/loss/draw for the side to move if it is.
// If isEnd is false, the score should be ignored.
func IsEndGameAndScore(pos Position) (isEnd bool, score float32) {
	if !pos.IsTerminal() {
		return false, 0
	}
	if pos.IsCheckmate() {
		// Side to move lost.
		return true, -WinGameScore
	}
	return true, 0
}

// FromWhitePerspective converts a score given for side to White's perspective.
func FromWhitePerspective(side Color, score float32) float32 {
	if side == Black {
		return -score
	}
	return score
}
