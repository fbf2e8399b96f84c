package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatHistory(t *testing.T) {
	assert.Empty(t, FormatHistory(nil, White, 1))
	assert.Equal(t, []string{"1. e4 e5", "2. Nf3"},
		FormatHistory([]string{"e4", "e5", "Nf3"}, White, 1))
	assert.Equal(t, []string{"12... e5", "13. Nf3 Nc6"},
		FormatHistory([]string{"e5", "Nf3", "Nc6"}, Black, 12))
}

func TestStartFrom(t *testing.T) {
	ui := NewWithIO(strings.NewReader(""), io.Discard, false, false)
	ui.history = []string{"e4"}
	ui.StartFrom("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 7")
	assert.Empty(t, ui.History())
	assert.Equal(t, Black, ui.firstSide)
	assert.Equal(t, 7, ui.firstMoveNumber)

	ui.StartFrom("garbage")
	assert.Equal(t, White, ui.firstSide)
	assert.Equal(t, 1, ui.firstMoveNumber)
}

func TestRenderBoard(t *testing.T) {
	ui := NewWithIO(strings.NewReader(""), io.Discard, false, false)
	rendered, err := ui.RenderBoard(StartFEN)
	require.NoError(t, err)
	lines := strings.Split(rendered, "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "8  r  n  b  q  k  b  n  r ", lines[0])
	assert.Equal(t, "1  R  N  B  Q  K  B  N  R ", lines[7])
	assert.Equal(t, "   a  b  c  d  e  f  g  h ", lines[8])
	// Rank 6: a6 is a light square, b6 a dark one.
	assert.True(t, strings.HasPrefix(lines[2], "6     . "))

	_, err = ui.RenderBoard("8/8 w")
	assert.Error(t, err)
}

func TestOnMove(t *testing.T) {
	var out bytes.Buffer
	ui := NewWithIO(strings.NewReader(""), &out, false, false)
	b := NewBoard()
	ui.StartFrom(b.Signature())
	for _, san := range []string{"e4", "e5", "Nf3"} {
		m, err := b.ParseSAN(san)
		require.NoError(t, err)
		require.NoError(t, b.ApplyMove(m))
		ui.OnMove(b.Signature(), b.LastMoveEntry())
	}
	assert.Equal(t, []string{"e4", "e5", "Nf3"}, ui.History())
	printed := out.String()
	assert.Contains(t, printed, "1. e4 e5")
	assert.Contains(t, printed, "2. Nf3")
	assert.Contains(t, printed, " N ")
}

func TestReadMove(t *testing.T) {
	var out bytes.Buffer
	ui := NewWithIO(strings.NewReader("zz\ne2e5\n\n?\nNf3\ne2e4"), &out, false, false)
	b := NewBoard()

	m, err := ui.ReadMove(b)
	require.NoError(t, err)
	assert.Equal(t, "g1f3", m.String())
	printed := out.String()
	assert.Contains(t, printed, "White move > ")
	assert.Contains(t, printed, `Failed to parse "zz"`)
	assert.Contains(t, printed, "e2e5 is not a legal move")
	assert.Contains(t, printed, "Legal moves: a2a3 a2a4 b1a3 b1c3")

	// Last input has no line break.
	m, err = ui.ReadMove(b)
	require.NoError(t, err)
	assert.Equal(t, "e2e4", m.String())

	_, err = ui.ReadMove(b)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadMoveIllegalAtEOF(t *testing.T) {
	ui := NewWithIO(strings.NewReader("e2e5"), io.Discard, false, false)
	_, err := ui.ReadMove(NewBoard())
	assert.ErrorIs(t, err, io.EOF)
}

func TestPrintWinner(t *testing.T) {
	var out bytes.Buffer
	ui := NewWithIO(strings.NewReader(""), &out, false, false)
	b := NewBoard()
	for _, s := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		m, err := ParseMove(s)
		require.NoError(t, err)
		require.NoError(t, b.ApplyMove(m))
	}
	ui.PrintWinner(b)
	assert.Contains(t, out.String(), "CHECKMATE: BLACK WINS")

	out.Reset()
	b, err := NewBoardFromFEN("k7/8/1QK5/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)
	ui.PrintWinner(b)
	assert.Contains(t, out.String(), "DRAW BY STALEMATE")
}
