package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	// ErrIllegalMove is returned by Board.ApplyMove for moves not legal in the current position.
	ErrIllegalMove = errors.New("illegal move")

	// ErrNoMoveToUndo is returned by Board.UndoLastMove at the initial position.
	ErrNoMoveToUndo = errors.New("no move to undo")
)

const (
	// RepetitionsForDraw is the number of times a position must occur for the match to be drawn.
	RepetitionsForDraw = 3

	// HalfMovesForDraw is the half-move clock value (plies without captures or pawn moves) that draws the match.
	HalfMovesForDraw = 100
)

// Board implements Position using github.com/notnil/chess for the rules.
//
// notnil positions are immutable, so Board keeps a stack of them: ApplyMove pushes
// the updated position and UndoLastMove pops it.
type Board struct {
	positions []*chess.Position
	moves     []*chess.Move

	// entries holds the algebraic notation (SAN) of each move played.
	entries []string

	// hashes of each position in positions, used to detect repetitions.
	hashes [][16]byte
}

// Assert Board is a Position.
var _ Position = (*Board)(nil)

// NewBoard returns a Board at the standard starting position.
func NewBoard() *Board {
	return newBoardFromPosition(chess.NewGame().Position())
}

// NewBoardFromFEN returns a Board starting at the given FEN position.
func NewBoardFromFEN(fen string) (*Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid FEN %q", fen)
	}
	return newBoardFromPosition(chess.NewGame(opt).Position()), nil
}

func newBoardFromPosition(pos *chess.Position) *Board {
	b := &Board{}
	b.push(pos, nil, "")
	return b
}

func (b *Board) push(pos *chess.Position, move *chess.Move, entry string) {
	b.positions = append(b.positions, pos)
	b.hashes = append(b.hashes, pos.Hash())
	if move != nil {
		b.moves = append(b.moves, move)
		b.entries = append(b.entries, entry)
	}
}

// current position.
func (b *Board) current() *chess.Position {
	return b.positions[len(b.positions)-1]
}

// SideToMove implements Position.
func (b *Board) SideToMove() Color {
	if b.current().Turn() == chess.Black {
		return Black
	}
	return White
}

// LegalMoves implements Position. The order is the one generated by the rules engine, and
// it is deterministic for a given position.
func (b *Board) LegalMoves() []Move {
	chessMoves := b.current().ValidMoves()
	moves := make([]Move, len(chessMoves))
	for ii, cm := range chessMoves {
		moves[ii] = fromChessMove(cm)
	}
	return moves
}

// findMove returns the rules engine move matching m, or nil if m is not legal.
func (b *Board) findMove(m Move) *chess.Move {
	for _, cm := range b.current().ValidMoves() {
		if fromChessMove(cm) == m {
			return cm
		}
	}
	return nil
}

// ApplyMove implements Position.
func (b *Board) ApplyMove(m Move) error {
	cm := b.findMove(m)
	if cm == nil {
		return errors.Wrapf(ErrIllegalMove, "move %s in position %q", m, b.Signature())
	}
	pos := b.current()
	entry := chess.AlgebraicNotation{}.Encode(pos, cm)
	b.push(pos.Update(cm), cm, entry)
	return nil
}

// ParseSAN parses a move in standard algebraic notation (e.g. "Nf3" or "exd5") in the current
// position. It fails with ErrIllegalMove if the notation doesn't match a legal move.
func (b *Board) ParseSAN(san string) (Move, error) {
	cm, err := chess.AlgebraicNotation{}.Decode(b.current(), strings.TrimSpace(san))
	if err != nil {
		return Move{}, errors.Wrapf(ErrIllegalMove, "%q in position %q: %v", san, b.Signature(), err)
	}
	return fromChessMove(cm), nil
}

// UndoLastMove implements Position.
func (b *Board) UndoLastMove() error {
	if len(b.moves) == 0 {
		return ErrNoMoveToUndo
	}
	if len(b.positions) != len(b.moves)+1 || len(b.entries) != len(b.moves) {
		exceptions.Panicf("Board stacks out of sync: %d positions, %d moves and %d entries",
			len(b.positions), len(b.moves), len(b.entries))
	}
	last := len(b.positions) - 1
	b.positions = b.positions[:last]
	b.hashes = b.hashes[:last]
	b.moves = b.moves[:len(b.moves)-1]
	b.entries = b.entries[:len(b.entries)-1]
	return nil
}

// IsCheckmate implements Position.
func (b *Board) IsCheckmate() bool {
	return b.current().Status() == chess.Checkmate
}

// IsTerminal implements Position.
func (b *Board) IsTerminal() bool {
	return b.IsCheckmate() || b.DrawReason() != ""
}

// Signature implements Position: it returns the FEN of the current position.
func (b *Board) Signature() string {
	return b.current().String()
}

// DrawReason returns why the current position is a draw, or "" if it isn't.
func (b *Board) DrawReason() string {
	pos := b.current()
	if pos.Status() == chess.Stalemate {
		return "stalemate"
	}
	if b.CountRepetitions() >= RepetitionsForDraw {
		return "threefold repetition"
	}
	if halfMoveClock(pos) >= HalfMovesForDraw {
		return "fifty-move rule"
	}
	if !hasSufficientMaterial(pos.Board()) {
		return "insufficient material"
	}
	return ""
}

// CountRepetitions returns how many times the current position occurred in the match, including
// the current one.
func (b *Board) CountRepetitions() int {
	last := len(b.hashes) - 1
	count := 1
	for ii := last - 2; ii >= 0; ii -= 2 {
		// Only positions with the same side to move can repeat.
		if b.hashes[ii] == b.hashes[last] {
			count++
		}
	}
	return count
}

// Outcome returns the winner of the match, or NoColor if it is a draw or not finished.
func (b *Board) Outcome() Color {
	if b.IsCheckmate() {
		return b.SideToMove().Opponent()
	}
	return NoColor
}

// FinishReason returns a human-readable description of why the match is over, or "" if it isn't.
func (b *Board) FinishReason() string {
	if b.IsCheckmate() {
		return fmt.Sprintf("checkmate, %s wins", b.Outcome())
	}
	if reason := b.DrawReason(); reason != "" {
		return "draw by " + reason
	}
	return ""
}

// Plies returns the number of moves applied since the initial position.
func (b *Board) Plies() int {
	return len(b.moves)
}

// History returns the algebraic notation of the moves played so far.
func (b *Board) History() []string {
	return append([]string(nil), b.entries...)
}

// LastMoveEntry returns the algebraic notation of the last move, or "" at the initial position.
func (b *Board) LastMoveEntry() string {
	if len(b.entries) == 0 {
		return ""
	}
	return b.entries[len(b.entries)-1]
}

// PGN returns the match so far in Portable Game Notation, replayed from the initial position.
func (b *Board) PGN() (string, error) {
	opt, err := chess.FEN(b.positions[0].String())
	if err != nil {
		return "", errors.Wrap(err, "invalid initial position")
	}
	game := chess.NewGame(opt)
	for ii, cm := range b.moves {
		if err = game.Move(cm); err != nil {
			return "", errors.Wrapf(err, "replaying move #%d %s", ii+1, b.entries[ii])
		}
	}
	return game.String(), nil
}

// fromChessMove converts a rules engine move.
func fromChessMove(cm *chess.Move) Move {
	return Move{From: Square(cm.S1()), To: Square(cm.S2()), Promotion: fromChessPieceType(cm.Promo())}
}

func fromChessPieceType(t chess.PieceType) PieceKind {
	switch t {
	case chess.Pawn:
		return Pawn
	case chess.Knight:
		return Knight
	case chess.Bishop:
		return Bishop
	case chess.Rook:
		return Rook
	case chess.Queen:
		return Queen
	case chess.King:
		return King
	}
	return NoPieceKind
}

// halfMoveClock reads the half-move clock field of the FEN.
func halfMoveClock(pos *chess.Position) int {
	fields := strings.Fields(pos.String())
	if len(fields) < 5 {
		return 0
	}
	clock, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0
	}
	return clock
}

// hasSufficientMaterial returns false for bare kings, or kings plus a single minor piece.
func hasSufficientMaterial(board *chess.Board) bool {
	minors := 0
	for _, piece := range board.SquareMap() {
		switch piece.Type() {
		case chess.King:
			continue
		case chess.Knight, chess.Bishop:
			minors++
		default:
			return true
		}
	}
	return minors > 1
}
