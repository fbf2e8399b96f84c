// trainer learns the action values with self-play episodes, and saves them to a file that can be
// loaded by the other programs (-load).
//
// Hyperparameters can be given by flags or by a YAML configuration file (-config), in which case
// flags explicitly set take precedence.
//
// See -help for flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/must"
	"github.com/janpfeifer/qchess/internal/ai/qtable"
	"github.com/janpfeifer/qchess/internal/players"
	_ "github.com/janpfeifer/qchess/internal/players/default"
	"github.com/janpfeifer/qchess/internal/profilers"
	"github.com/janpfeifer/qchess/internal/state"
	"github.com/janpfeifer/qchess/internal/trainer"
	"github.com/janpfeifer/qchess/internal/ui/cli"
	"github.com/janpfeifer/qchess/internal/ui/spinning"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// Flags
var (
	flagAlpha         = flag.Float64("alpha", float64(qtable.DefaultHyperparameters.Alpha), "Learning rate, in (0, 1].")
	flagGamma         = flag.Float64("gamma", float64(qtable.DefaultHyperparameters.Gamma), "Discount factor, in [0, 1].")
	flagEpsilon       = flag.Float64("epsilon", float64(qtable.DefaultHyperparameters.Epsilon), "Exploration probability of the self-play policy, in [0, 1].")
	flagNumIterations = flag.Int("num_iterations", trainer.DefaultConfig().Iterations, "Number of self-play episodes.")
	flagMaxPlies      = flag.Int("max_plies", trainer.DefaultMaxPlies, "Max plies per episode, after which it is considered a draw.")
	flagPlayer        = flag.String("ai", "", "Configuration of the self-play searcher, e.g. \"ab,max_depth=2,leaf=qtable\". "+
		"Default is the epsilon-greedy policy over the values being learned. A \"greedy\" configuration without "+
		"\"epsilon=\" uses -epsilon (or the YAML epsilon).")
	flagConfig     = flag.String("config", "", "YAML file with the training configuration. Flags explicitly set take precedence.")
	flagLoad       = flag.String("load", "", "File with action values to continue training from.")
	flagSave       = flag.String("save", "", "File where to save the action values. Defaults to -load, if set.")
	flagPrintSteps = flag.Bool("print_steps", false, "Print board at each step. Very verbose.")
)

// globalCtx is cancelled when the program is interrupted (Ctrl+C).
var globalCtx = context.Background()

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	var globalCancel func()
	globalCtx, globalCancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(globalCancel, 10*time.Second)
	defer globalCancel()

	must.M(profilers.Setup(globalCtx))
	defer profilers.OnQuit()

	config := must.M1(loadConfig())
	store := must.M1(qtable.LoadOrCreate(*flagLoad))
	if *flagSave != "" {
		store.FileName = *flagSave
	}
	fmt.Printf("Training %s for %d episodes: %s, max_plies=%d\n",
		store, config.Iterations, config.Hyperparameters, config.MaxPlies)

	err := exceptions.TryCatch[error](func() { must.M(train(globalCtx, store, config)) })
	if err != nil && !errors.Is(err, context.Canceled) {
		klog.Exitf("Training failed: %+v", err)
	}
	if store.FileName == "" {
		klog.Warningf("No -save file given, the %d learned values are discarded.", store.Len())
		return
	}
	must.M(store.Save())
	fmt.Printf("Saved %d action values to %s\n", store.Len(), store.FileName)
}

// loadConfig starts from the defaults, then the YAML configuration, if given, and then the flags
// explicitly set.
func loadConfig() (trainer.Config, error) {
	config := trainer.DefaultConfig()
	if *flagConfig != "" {
		var err error
		config, err = trainer.LoadConfig(*flagConfig)
		if err != nil {
			return config, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "alpha":
			config.Alpha = float32(*flagAlpha)
		case "gamma":
			config.Gamma = float32(*flagGamma)
		case "epsilon":
			config.Epsilon = float32(*flagEpsilon)
		case "num_iterations":
			config.Iterations = *flagNumIterations
		case "max_plies":
			config.MaxPlies = *flagMaxPlies
		case "ai":
			config.Player = *flagPlayer
		}
	})
	return config, config.Validate()
}

// train runs the self-play episodes, showing a progress bar.
func train(ctx context.Context, store *qtable.Store, config trainer.Config) error {
	bar := progressbar.Default(int64(config.Iterations), "episodes")
	var stepUI *cli.UI
	opts := []trainer.Option{
		trainer.WithMaxPlies(config.MaxPlies),
		trainer.WithOnEpisode(func(episode int, result trainer.EpisodeResult) {
			bar.Describe(fmt.Sprintf("#%d %s", episode, result))
			_ = bar.Add(1)
			if stepUI != nil {
				stepUI.StartFrom(state.StartFEN)
			}
		}),
	}
	if config.Player != "" {
		player, err := players.New(config.PlayerConfig(), store)
		if err != nil {
			return err
		}
		opts = append(opts, trainer.WithSearcher(player.Searcher))
	}
	if *flagPrintSteps {
		stepUI = cli.New(true, false)
		opts = append(opts, trainer.WithObserver(stepUI))
	}

	t, err := trainer.New(store, config.Hyperparameters, opts...)
	if err != nil {
		return err
	}
	stats, err := t.Train(ctx, config.Iterations)
	_ = bar.Finish()
	fmt.Println()
	fmt.Printf("Results: %s\n", stats)
	fmt.Printf("Store: %d action values\n", t.Store().Len())
	return err
}
