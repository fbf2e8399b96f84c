// chess plays a match in the terminal: human vs AI, or AI vs AI with -watch.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/must"
	"github.com/janpfeifer/qchess/internal/ai/qtable"
	"github.com/janpfeifer/qchess/internal/players"
	_ "github.com/janpfeifer/qchess/internal/players/default"
	"github.com/janpfeifer/qchess/internal/profilers"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/janpfeifer/qchess/internal/trainer"
	"github.com/janpfeifer/qchess/internal/ui/cli"
	"github.com/janpfeifer/qchess/internal/ui/spinning"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagWatch     = flag.Bool("watch", false, "Watch mode: AI vs AI playing.")
	flagFirst     = flag.String("first", "", "Who plays White: human or ai. Default is random.")
	flagAIConfig  = flag.String("ai", players.DefaultPlayerConfig, "AI configuration against which to play.")
	flagAIConfig2 = flag.String("ai2", "", "Configuration of the AI playing Black with -watch. Defaults to -ai.")
	flagLoad      = flag.String("load", "", "File with the action values (see trainer -save), used by the \"greedy\" searcher and the \"qtable\" leaf evaluator.")
	flagFEN       = flag.String("fen", "", "Starting position in FEN. Default is the standard starting position.")
	flagMaxPlies  = flag.Int("max_plies", trainer.DefaultMaxPlies, "Max plies before the match is considered a draw.")
	flagColor     = flag.Bool("color", true, "Render the board with colors.")
	flagClear     = flag.Bool("clear", false, "Clear the screen before printing the board.")
	flagPGN       = flag.String("pgn", "", "If set, the match is saved to this file in PGN format.")

	// aiPlayers indexed by color: nil for a human player.
	aiPlayers [NumColors]*players.SearcherPlayer

	globalCtx = context.Background()
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagMaxPlies <= 0 {
		klog.Fatalf("Invalid -max_plies=%d", *flagMaxPlies)
	}

	// Capture Control+C
	var cancel func()
	globalCtx, cancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 3*time.Second)
	defer cancel()

	must.M(profilers.Setup(globalCtx))
	defer profilers.OnQuit()

	store := must.M1(qtable.LoadOrCreate(*flagLoad))
	err := exceptions.TryCatch[error](func() { createPlayers(store) })
	if err != nil {
		klog.Exitf("Failed to create players: %+v", err)
	}

	board := NewBoard()
	if *flagFEN != "" {
		board = must.M1(NewBoardFromFEN(*flagFEN))
	}
	ui := cli.New(*flagColor, *flagClear)
	ui.StartFrom(board.Signature())
	err = playMatch(globalCtx, board, ui)
	if *flagPGN != "" {
		must.M(savePGN(board, *flagPGN))
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Interrupted.")
			return
		}
		klog.Exitf("Match failed: %+v", err)
	}
}

// savePGN writes the match to fileName.
func savePGN(board *Board, fileName string) error {
	pgn, err := board.PGN()
	if err != nil {
		return err
	}
	if err = os.WriteFile(fileName, []byte(pgn+"\n"), 0644); err != nil {
		return errors.Wrapf(err, "failed to save match to %s", fileName)
	}
	fmt.Printf("Match saved to %s\n", fileName)
	return nil
}

// playMatch loops over the moves until the match is over or capped.
func playMatch(ctx context.Context, board *Board, ui *cli.UI) error {
	ui.Print(board.Signature())
	for !board.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if board.Plies() >= *flagMaxPlies {
			fmt.Printf("\nMatch capped after %d plies, it's a draw.\n", board.Plies())
			return nil
		}
		side := board.SideToMove()
		aiPlayer := aiPlayers[side]
		var m Move
		if aiPlayer == nil {
			var err error
			m, err = ui.ReadMove(board)
			if err != nil {
				return err
			}
		} else {
			fmt.Printf("    %s (%s) thinking ", side, aiPlayer)
			s := spinning.New(ctx, os.Stdout)
			var score float32
			var err error
			m, score, err = aiPlayer.Play(board)
			s.Done()
			if err != nil {
				return err
			}
			fmt.Printf(" %s (score=%.3f)\n", m, score)
		}
		if err := board.ApplyMove(m); err != nil {
			return err
		}
		ui.OnMove(board.Signature(), board.LastMoveEntry())
	}
	ui.PrintWinner(board)
	return nil
}

// createPlayers in aiPlayers. It panics on errors.
func createPlayers(store *qtable.Store) {
	var aiColor Color
	switch strings.ToLower(*flagFirst) {
	case "human":
		aiColor = Black
	case "ai":
		aiColor = White
	case "":
		aiColor = Color(rand.IntN(NumColors))
	default:
		exceptions.Panicf("invalid -first=%q, only valid values are \"human\" or \"ai\"", *flagFirst)
	}
	if *flagWatch {
		aiColor = White
	}
	aiPlayers[aiColor] = must.M1(players.New(*flagAIConfig, store))
	if !*flagWatch {
		return
	}
	config2 := *flagAIConfig2
	if config2 == "" {
		config2 = *flagAIConfig
	}
	aiPlayers[aiColor.Opponent()] = must.M1(players.New(config2, store))
}
