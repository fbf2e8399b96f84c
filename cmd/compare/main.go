// compare pits two AI configurations against each other, alternating colors, and prints the tally.
package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/janpfeifer/must"
	"github.com/janpfeifer/qchess/internal/ai/qtable"
	"github.com/janpfeifer/qchess/internal/arena"
	"github.com/janpfeifer/qchess/internal/players"
	_ "github.com/janpfeifer/qchess/internal/players/default"
	"github.com/janpfeifer/qchess/internal/profilers"
	"github.com/janpfeifer/qchess/internal/searchers"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/janpfeifer/qchess/internal/trainer"
	"github.com/janpfeifer/qchess/internal/ui/cli"
	"github.com/janpfeifer/qchess/internal/ui/spinning"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagPlayer1Config = flag.String("ai1", "", "1st AI configuration, e.g. \"ab,max_depth=3\".")
	flagPlayer2Config = flag.String("ai2", "", "2nd AI configuration, e.g. \"greedy,epsilon=0\".")
	flagNumMatches    = flag.Int("num_matches", 100, "Number of matches to play.")
	flagParallelism   = flag.Int("parallelism", 0, "If > 0 ignore GOMAXPROCS and play "+
		"these many matches simultaneously.")
	flagLoad       = flag.String("load", "", "File with the action values (see trainer -save) shared by both AIs.")
	flagFEN        = flag.String("fen", "", "Starting position in FEN. Default is the standard starting position.")
	flagMaxPlies   = flag.Int("max_plies", trainer.DefaultMaxPlies, "Max plies before a match is considered a draw.")
	flagPrintSteps = flag.Bool("print_steps", false, "Print board at each step. "+
		"Very verbose, and you probably want to set -parallelism=1.")
)

// globalCtx is cancelled when the program is interrupted (Ctrl+C).
var globalCtx = context.Background()

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *flagPlayer1Config == "" || *flagPlayer2Config == "" {
		klog.Fatal("You must configure both AIs to compare with flags -ai1 and -ai2")
	}

	var globalCancel func()
	globalCtx, globalCancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(globalCancel, 5*time.Second)
	defer globalCancel()

	must.M(profilers.Setup(globalCtx))
	defer profilers.OnQuit()

	// The store is only read during the matches.
	store := must.M1(qtable.LoadOrCreate(*flagLoad))
	configs := [2]string{*flagPlayer1Config, *flagPlayer2Config}
	// Fail early on bad configurations.
	for _, config := range configs {
		_ = must.M1(players.New(config, store))
	}

	config := arena.Config{
		NumMatches:  *flagNumMatches,
		Parallelism: *flagParallelism,
		MaxPlies:    *flagMaxPlies,
		NewSearchers: func() (aiSearchers [2]searchers.Searcher, err error) {
			for aiIdx, playerConfig := range configs {
				var player *players.SearcherPlayer
				player, err = players.New(playerConfig, store)
				if err != nil {
					return
				}
				aiSearchers[aiIdx] = player.Searcher
			}
			return
		},
		OnResult: func(r *arena.Results) {
			fmt.Printf("\r%s\033[0K", r)
		},
	}
	if *flagFEN != "" {
		_ = must.M1(NewBoardFromFEN(*flagFEN))
		config.NewBoard = func() (*Board, error) { return NewBoardFromFEN(*flagFEN) }
	}
	if *flagPrintSteps {
		var muStepUI sync.Mutex
		stepUI := cli.New(true, false)
		config.Observer = func(matchIdx int, signature, entry string) {
			muStepUI.Lock()
			defer muStepUI.Unlock()
			fmt.Printf("Match-%05d: %s\n", matchIdx, entry)
			stepUI.Print(signature)
			fmt.Println("------------------")
		}
	}

	results, err := arena.Run(globalCtx, config)
	fmt.Println()
	if errors.Is(err, context.Canceled) {
		fmt.Printf("Interrupted: %s\n", results)
		return
	}
	must.M(err)
	fmt.Printf("Final: %s\n", results)
}
