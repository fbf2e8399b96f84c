package trainer

import (
	"fmt"
	"os"

	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/ai/qtable"
	"github.com/janpfeifer/qchess/internal/parameters"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config of a training run, as loaded from a YAML file. E.g.:
//
//	alpha: 0.1
//	gamma: 0.9
//	epsilon: 0.2
//	iterations: 1000
//	max_plies: 300
//	player: "greedy,epsilon=0.2"
type Config struct {
	qtable.Hyperparameters `yaml:",inline"`

	// Iterations is the number of self-play episodes.
	Iterations int `yaml:"iterations"`

	// MaxPlies caps the length of each episode.
	MaxPlies int `yaml:"max_plies"`

	// Player is the configuration string of the self-play searcher (see players.New).
	// If empty, the epsilon-greedy policy with the configured epsilon is used. See PlayerConfig.
	Player string `yaml:"player,omitempty"`
}

// DefaultConfig returns the configuration used for the values not set.
func DefaultConfig() Config {
	return Config{
		Hyperparameters: qtable.DefaultHyperparameters,
		Iterations:      1000,
		MaxPlies:        DefaultMaxPlies,
	}
}

// Validate returns a wrapped ai.ErrInvalidArgument if any of the values is out of range.
func (c Config) Validate() error {
	if err := c.Hyperparameters.Validate(); err != nil {
		return err
	}
	if c.Iterations < 0 {
		return errors.Wrapf(ai.ErrInvalidArgument, "iterations=%d must be >= 0", c.Iterations)
	}
	if c.MaxPlies < 1 {
		return errors.Wrapf(ai.ErrInvalidArgument, "max_plies=%d must be >= 1", c.MaxPlies)
	}
	return nil
}

// PlayerConfig returns Player, adding the configured epsilon if it selects the "greedy" policy
// without an explicit "epsilon=" value.
func (c Config) PlayerConfig() string {
	params := parameters.NewFromConfigString(c.Player)
	if !params.Has("greedy") || params.Has("epsilon") {
		return c.Player
	}
	return fmt.Sprintf("%s,epsilon=%g", c.Player, c.Epsilon)
}

// ParseConfig parses a YAML configuration, starting from DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrap(err, "failed to parse training configuration")
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// LoadConfig reads and parses the YAML configuration in fileName.
func LoadConfig(fileName string) (Config, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return DefaultConfig(), errors.Wrapf(err, "failed to read training configuration %s", fileName)
	}
	c, err := ParseConfig(data)
	if err != nil {
		return c, errors.WithMessagef(err, "training configuration %s", fileName)
	}
	return c, nil
}
