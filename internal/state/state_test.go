package state_test

import (
	"testing"

	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/janpfeifer/qchess/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

// playMoves applies the moves given in UCI notation.
func playMoves(t *testing.T, pos Position, moves ...string) {
	for _, s := range moves {
		m, err := ParseMove(s)
		require.NoError(t, err)
		require.NoErrorf(t, pos.ApplyMove(m), "applying move %s", s)
	}
}

func TestSquare(t *testing.T) {
	assert.Equal(t, Square(0), NewSquare(0, 0))
	assert.Equal(t, "a1", Square(0).String())
	assert.Equal(t, "h8", Square(63).String())
	assert.Equal(t, "e4", NewSquare(4, 3).String())
	assert.Equal(t, NoSquare, NewSquare(8, 0))
	sq, err := ParseSquare("g7")
	require.NoError(t, err)
	assert.Equal(t, 6, sq.File())
	assert.Equal(t, 6, sq.Rank())
	_, err = ParseSquare("i1")
	assert.Error(t, err)
}

func TestParseMove(t *testing.T) {
	m, err := ParseMove("e2e4")
	require.NoError(t, err)
	assert.Equal(t, Move{From: NewSquare(4, 1), To: NewSquare(4, 3)}, m)
	assert.Equal(t, "e2e4", m.String())

	m, err = ParseMove(" A7A8Q ")
	require.NoError(t, err)
	assert.Equal(t, Queen, m.Promotion)
	assert.Equal(t, "a7a8q", m.String())

	for _, invalid := range []string{"", "e2", "e2e9", "a7a8k", "a7a8p", "a7a8x", "e2e4e5"} {
		_, err = ParseMove(invalid)
		assert.Errorf(t, err, "move %q should fail to parse", invalid)
	}
}

func TestPieceKindFromLetter(t *testing.T) {
	assert.Equal(t, Knight, PieceKindFromLetter('N'))
	assert.Equal(t, Knight, PieceKindFromLetter('n'))
	assert.Equal(t, King, PieceKindFromLetter('k'))
	assert.Equal(t, NoPieceKind, PieceKindFromLetter('x'))
	assert.Equal(t, NoPieceKind, PieceKindFromLetter('-'))
}

func TestColor(t *testing.T) {
	assert.Equal(t, Black, White.Opponent())
	assert.Equal(t, White, Black.Opponent())
	assert.Equal(t, NoColor, NoColor.Opponent())
	assert.Equal(t, "w", White.Letter())
	assert.Equal(t, "b", Black.Letter())
}

func TestApplyAndUndo(t *testing.T) {
	b := NewBoard()
	assert.Equal(t, StartFEN, b.Signature())
	assert.Equal(t, White, b.SideToMove())
	assert.Len(t, b.LegalMoves(), 20)
	assert.False(t, b.IsTerminal())

	playMoves(t, b, "g1f3")
	assert.Equal(t, Black, b.SideToMove())
	assert.Equal(t, 1, b.Plies())
	assert.Equal(t, "Nf3", b.LastMoveEntry())
	assert.NotEqual(t, StartFEN, b.Signature())

	require.NoError(t, b.UndoLastMove())
	assert.Equal(t, StartFEN, b.Signature())
	assert.Equal(t, 0, b.Plies())
	assert.ErrorIs(t, b.UndoLastMove(), ErrNoMoveToUndo)
}

func TestIllegalMove(t *testing.T) {
	b := NewBoard()
	m, err := ParseMove("e2e5")
	require.NoError(t, err)
	assert.ErrorIs(t, b.ApplyMove(m), ErrIllegalMove)
	assert.Equal(t, StartFEN, b.Signature())
}

func TestFoolsMate(t *testing.T) {
	b := NewBoard()
	playMoves(t, b, "f2f3", "e7e5", "g2g4", "d8h4")
	assert.True(t, b.IsCheckmate())
	assert.True(t, b.IsTerminal())
	assert.Empty(t, b.LegalMoves())
	assert.Equal(t, Black, b.Outcome())
	assert.Equal(t, "checkmate, Black wins", b.FinishReason())
	assert.Equal(t, []string{"f3", "e5", "g4", "Qh4#"}, b.History())
}

func TestStalemate(t *testing.T) {
	// Black king on a8, White queen on b6 and king on c6: Black has no legal move.
	b, err := NewBoardFromFEN("k7/8/1QK5/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)
	assert.False(t, b.IsCheckmate())
	assert.True(t, b.IsTerminal())
	assert.Equal(t, "stalemate", b.DrawReason())
	assert.Equal(t, NoColor, b.Outcome())
}

func TestInsufficientMaterial(t *testing.T) {
	b, err := NewBoardFromFEN("k7/8/8/8/8/8/8/6NK w - - 0 1")
	require.NoError(t, err)
	assert.True(t, b.IsTerminal())
	assert.Equal(t, "insufficient material", b.DrawReason())

	b, err = NewBoardFromFEN("k7/8/8/8/8/8/8/5RNK w - - 0 1")
	require.NoError(t, err)
	assert.False(t, b.IsTerminal())
}

func TestThreefoldRepetition(t *testing.T) {
	b := NewBoard()
	knightDance := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	playMoves(t, b, knightDance...)
	assert.Equal(t, 2, b.CountRepetitions())
	assert.False(t, b.IsTerminal())
	playMoves(t, b, knightDance...)
	assert.Equal(t, 3, b.CountRepetitions())
	assert.True(t, b.IsTerminal())
	assert.Equal(t, "threefold repetition", b.DrawReason())

	// Undoing goes back to a non-terminal position.
	require.NoError(t, b.UndoLastMove())
	assert.False(t, b.IsTerminal())
}

func TestFiftyMoveRule(t *testing.T) {
	b, err := NewBoardFromFEN("k7/8/8/8/8/8/8/5RNK w - - 99 80")
	require.NoError(t, err)
	assert.False(t, b.IsTerminal())
	playMoves(t, b, "f1f2")
	assert.True(t, b.IsTerminal())
	assert.Equal(t, "fifty-move rule", b.DrawReason())
}

func TestInvalidFEN(t *testing.T) {
	_, err := NewBoardFromFEN("not a fen")
	assert.Error(t, err)
}

func TestContainsMove(t *testing.T) {
	b := NewBoard()
	m, _ := ParseMove("e2e4")
	assert.True(t, ContainsMove(b.LegalMoves(), m))
	m, _ = ParseMove("e2e5")
	assert.False(t, ContainsMove(b.LegalMoves(), m))
}

func TestTree(t *testing.T) {
	tree := statetest.NewTree(3, 2)
	assert.Equal(t, White, tree.SideToMove())
	moves := tree.LegalMoves()
	require.Len(t, moves, 3)
	root := tree.Signature()

	require.NoError(t, tree.ApplyMove(moves[1]))
	assert.Equal(t, Black, tree.SideToMove())
	assert.Equal(t, []int{1}, tree.Path())
	assert.NotEqual(t, root, tree.Signature())

	require.NoError(t, tree.ApplyMove(tree.LegalMoves()[2]))
	assert.True(t, tree.IsTerminal())
	assert.False(t, tree.IsCheckmate())
	assert.Empty(t, tree.LegalMoves())
	assert.ErrorIs(t, tree.ApplyMove(tree.MoveAt(0)), ErrIllegalMove)

	require.NoError(t, tree.UndoLastMove())
	require.NoError(t, tree.UndoLastMove())
	assert.Equal(t, root, tree.Signature())
	assert.ErrorIs(t, tree.UndoLastMove(), ErrNoMoveToUndo)

	// Endless tree never ends.
	endless := statetest.NewTree(1, 0)
	for range 100 {
		require.NoError(t, endless.ApplyMove(endless.LegalMoves()[0]))
	}
	assert.False(t, endless.IsTerminal())
}

func TestParseSAN(t *testing.T) {
	b := NewBoard()
	m, err := b.ParseSAN("Nf3")
	require.NoError(t, err)
	assert.Equal(t, "g1f3", m.String())
	m, err = b.ParseSAN(" e4 ")
	require.NoError(t, err)
	assert.Equal(t, "e2e4", m.String())
	_, err = b.ParseSAN("Qh5")
	assert.ErrorIs(t, err, ErrIllegalMove)
	_, err = b.ParseSAN("xyz")
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestPGN(t *testing.T) {
	b := NewBoard()
	playMoves(t, b, "f2f3", "e7e5", "g2g4", "d8h4")
	pgn, err := b.PGN()
	require.NoError(t, err)
	assert.Contains(t, pgn, "Qh4#")
	assert.Contains(t, pgn, "0-1")
}
