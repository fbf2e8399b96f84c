// Package cli implements a command-line UI for the game: it renders the board and the move history,
// and reads the moves of a human player.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/janpfeifer/qchess/internal/features"
	"github.com/janpfeifer/qchess/internal/generics"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// HistoryLines is the maximum number of lines of move history displayed next to the board.
const HistoryLines = 16

var ansiFilter = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// displayWidth of s removes its color/control sequences and returns the width of what is left.
func displayWidth(s string) int {
	return lipgloss.Width(ansiFilter.ReplaceAllString(s, ""))
}

// UI renders positions to a writer and reads moves from a reader. It implements state.MoveObserver,
// so it can be used to watch matches or training episodes.
type UI struct {
	color, clearScreen bool
	reader             *bufio.Reader
	out                io.Writer
	renderer           *lipgloss.Renderer

	// history of the moves since StartFrom, and how to number them.
	history         []string
	firstSide       Color
	firstMoveNumber int
}

// Assert UI is a MoveObserver.
var _ MoveObserver = (*UI)(nil)

// New creates a UI on the standard input and output.
func New(color bool, clearScreen bool) *UI {
	return NewWithIO(os.Stdin, os.Stdout, color, clearScreen)
}

// NewWithIO creates a UI that reads moves from in and renders to out.
func NewWithIO(in io.Reader, out io.Writer, color bool, clearScreen bool) *UI {
	return &UI{
		color:           color,
		clearScreen:     clearScreen,
		reader:          bufio.NewReader(in),
		out:             out,
		renderer:        lipgloss.NewRenderer(out),
		firstSide:       White,
		firstMoveNumber: 1,
	}
}

// terminalWidth returns the width of the output terminal, or 0 if the output is not a terminal.
func (ui *UI) terminalWidth() int {
	f, ok := ui.out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func (ui *UI) printCentered(block string) {
	lines := strings.Split(block, "\n")
	blockWidth := 0
	for _, line := range lines {
		blockWidth = max(blockWidth, displayWidth(line))
	}
	indent := max((ui.terminalWidth()-blockWidth)/2, 0)
	for _, line := range lines {
		if len(line) == 0 {
			_, _ = fmt.Fprintln(ui.out)
			continue
		}
		_, _ = fmt.Fprintf(ui.out, "%s%s\n", strings.Repeat(" ", indent), line)
	}
}

// StartFrom resets the move history, and takes the side to move and the move number from the
// given FEN signature.
func (ui *UI) StartFrom(signature string) {
	ui.history = ui.history[:0]
	ui.firstSide = White
	ui.firstMoveNumber = 1
	fields := strings.Fields(signature)
	if len(fields) > 1 && fields[1] == "b" {
		ui.firstSide = Black
	}
	if len(fields) > 5 {
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			ui.firstMoveNumber = n
		}
	}
}

// History returns the move entries seen since StartFrom.
func (ui *UI) History() []string {
	return slices.Clone(ui.history)
}

// OnMove implements state.MoveObserver: it records the move and prints the new position.
func (ui *UI) OnMove(signature, entry string) {
	ui.history = append(ui.history, entry)
	ui.Print(signature)
}

// FormatHistory formats the move entries in the usual numbered pairs, one move number per line:
// "1. e4 e5", "2. Nf3". If the first move is Black's, its line is "1... e5".
func FormatHistory(entries []string, firstSide Color, firstMoveNumber int) []string {
	var lines []string
	moveNumber := firstMoveNumber
	idx := 0
	if firstSide == Black && len(entries) > 0 {
		lines = append(lines, fmt.Sprintf("%d... %s", moveNumber, entries[0]))
		moveNumber++
		idx = 1
	}
	for ; idx < len(entries); idx += 2 {
		line := fmt.Sprintf("%d. %s", moveNumber, entries[idx])
		if idx+1 < len(entries) {
			line += " " + entries[idx+1]
		}
		lines = append(lines, line)
		moveNumber++
	}
	return lines
}

// Print the position given by its FEN signature, along with the most recent move history.
func (ui *UI) Print(signature string) {
	if ui.clearScreen {
		_, _ = fmt.Fprint(ui.out, "\033[H\033[2J")
	}
	board, err := ui.RenderBoard(signature)
	if err != nil {
		_, _ = fmt.Fprintf(ui.out, "    * Can't render position %q: %v\n", signature, err)
		return
	}
	lines := FormatHistory(ui.history, ui.firstSide, ui.firstMoveNumber)
	if len(lines) > HistoryLines {
		lines = lines[len(lines)-HistoryLines:]
	}
	block := board
	if len(lines) > 0 {
		historyBox := ui.renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			MarginLeft(3).
			Render(strings.Join(lines, "\n"))
		block = lipgloss.JoinHorizontal(lipgloss.Top, board, historyBox)
	}
	_, _ = fmt.Fprintln(ui.out)
	ui.printCentered(block)
	_, _ = fmt.Fprintln(ui.out)
}

var (
	lightSquareColor = lipgloss.Color("180")
	darkSquareColor  = lipgloss.Color("137")
	whitePieceColor  = lipgloss.Color("231")
	blackPieceColor  = lipgloss.Color("16")
)

// RenderBoard returns the board of the FEN signature, White at the bottom, with the ranks and files
// labeled. White pieces are uppercase letters and Black pieces lowercase ones.
func (ui *UI) RenderBoard(signature string) (string, error) {
	pieces, err := features.ParsePlacement(signature)
	if err != nil {
		return "", err
	}
	var squares [NumSquares]*features.ColoredPiece
	for ii := range pieces {
		squares[pieces[ii].Square] = &pieces[ii]
	}

	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		_, _ = fmt.Fprintf(&sb, "%d ", rank+1)
		for file := range 8 {
			sq := NewSquare(file, rank)
			sb.WriteString(ui.renderSquare(sq, squares[sq]))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  ")
	for file := range 8 {
		_, _ = fmt.Fprintf(&sb, " %c ", 'a'+file)
	}
	return sb.String(), nil
}

func (ui *UI) renderSquare(sq Square, piece *features.ColoredPiece) string {
	symbol := " "
	if piece != nil {
		symbol = piece.Kind.String()
		if piece.Color == Black {
			symbol = strings.ToLower(symbol)
		}
	}
	if !ui.color {
		if piece == nil && (sq.File()+sq.Rank())%2 == 0 {
			// Dark squares are dotted when colors are off.
			symbol = "."
		}
		return " " + symbol + " "
	}
	style := ui.renderer.NewStyle().Padding(0, 1).Bold(true)
	if (sq.File()+sq.Rank())%2 == 0 {
		style = style.Background(darkSquareColor)
	} else {
		style = style.Background(lightSquareColor)
	}
	if piece != nil {
		if piece.Color == White {
			style = style.Foreground(whitePieceColor)
		} else {
			style = style.Foreground(blackPieceColor)
		}
	}
	return style.Render(symbol)
}

// PrintWinner prints how the match on board finished.
func (ui *UI) PrintWinner(b *Board) {
	_, _ = fmt.Fprintln(ui.out)
	style := ui.renderer.NewStyle().Padding(1, 2)
	if ui.color {
		style = style.Background(lipgloss.Color("13")).Foreground(lipgloss.Color("0"))
	}
	winner := b.Outcome()
	if winner == NoColor {
		reason := b.FinishReason()
		if reason == "" {
			reason = "match not finished"
		}
		ui.printCentered(style.Render(fmt.Sprintf("*** %s! ***", strings.ToUpper(reason))))
	} else {
		ui.printCentered(style.Render(fmt.Sprintf("*** CHECKMATE: %s WINS!! ***", strings.ToUpper(winner.String()))))
	}
	_, _ = fmt.Fprintln(ui.out)
}

// sanParser is implemented by positions that can parse algebraic notation, like state.Board.
type sanParser interface {
	ParseSAN(san string) (Move, error)
}

// parseInput parses a move in UCI notation or, if pos supports it, in algebraic notation.
func parseInput(pos Position, text string) (Move, error) {
	m, err := ParseMove(text)
	if err == nil {
		return m, nil
	}
	if p, ok := pos.(sanParser); ok {
		if m, sanErr := p.ParseSAN(text); sanErr == nil {
			return m, nil
		}
	}
	return Move{}, err
}

// ReadMove reads a move for the side to move in pos, in UCI (e.g. "e2e4") or algebraic (e.g. "Nf3")
// notation. Illegal or unparseable input is rejected (snapback) and the user is prompted again,
// so only legal moves are returned. Entering "?" lists the legal moves.
//
// It returns an error only if reading the input fails, e.g.: io.EOF.
func (ui *UI) ReadMove(pos Position) (Move, error) {
	// ANSI escape codes for:
	// - \033[30;45;2m: black foreground over a magenta (purple-ish) background.
	// - \033[39;49;0m\033[0K: reset all attributes and clear to the end of the line.
	const (
		inputAreaColor = "\033[30;45;2m"
		inputAreaReset = "\033[39;49;0m\033[0K"
		inputWidth     = 10
	)

	legalMoves := pos.LegalMoves()
	for {
		_, _ = fmt.Fprintf(ui.out, "    %s move > ", pos.SideToMove())
		if ui.color {
			// Print the "input area" and move the cursor back to its beginning, leaving 1 char padding.
			_, _ = fmt.Fprintf(ui.out, "%s%s\033[%dD", inputAreaColor, strings.Repeat(" ", inputWidth), inputWidth-1)
		}
		text, readErr := ui.reader.ReadString('\n')
		if ui.color {
			_, _ = fmt.Fprint(ui.out, inputAreaReset)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			if readErr != nil {
				return Move{}, errors.Wrap(readErr, "reading move")
			}
			continue
		}

		if text == "?" {
			uciMoves := generics.SliceMap(legalMoves, func(m Move) string { return m.String() })
			slices.Sort(uciMoves)
			_, _ = fmt.Fprintf(ui.out, "    Legal moves: %s\n", strings.Join(uciMoves, " "))
		} else if m, err := parseInput(pos, text); err != nil {
			_, _ = fmt.Fprintf(ui.out, "    * Failed to parse %q: use UCI (\"e2e4\") or algebraic (\"Nf3\") notation, \"?\" lists the legal moves.\n", text)
		} else if !ContainsMove(legalMoves, m) {
			_, _ = fmt.Fprintf(ui.out, "    * %s is not a legal move, try again.\n", m)
		} else {
			return m, nil
		}
		if readErr != nil {
			return Move{}, errors.Wrap(readErr, "reading move")
		}
	}
}
