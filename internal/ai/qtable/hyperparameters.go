package qtable

import (
	"fmt"

	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/pkg/errors"
)

// Hyperparameters of the learning rule and of the exploration policy.
type Hyperparameters struct {
	// Alpha is the learning rate, in (0, 1].
	Alpha float32 `yaml:"alpha"`

	// Gamma is the discount factor, in [0, 1].
	Gamma float32 `yaml:"gamma"`

	// Epsilon is the exploration probability of the epsilon-greedy policy, in [0, 1].
	Epsilon float32 `yaml:"epsilon"`
}

// DefaultHyperparameters used when not configured.
var DefaultHyperparameters = Hyperparameters{Alpha: 0.1, Gamma: 0.9, Epsilon: 0.1}

// Validate returns a wrapped ai.ErrInvalidArgument if any of the hyperparameters is out of range.
func (h Hyperparameters) Validate() error {
	if !(h.Alpha > 0 && h.Alpha <= 1) {
		return errors.Wrapf(ai.ErrInvalidArgument, "alpha=%g must be in (0, 1]", h.Alpha)
	}
	if !(h.Gamma >= 0 && h.Gamma <= 1) {
		return errors.Wrapf(ai.ErrInvalidArgument, "gamma=%g must be in [0, 1]", h.Gamma)
	}
	if err := ValidateEpsilon(h.Epsilon); err != nil {
		return err
	}
	return nil
}

// ValidateEpsilon returns a wrapped ai.ErrInvalidArgument if epsilon is not in [0, 1].
func ValidateEpsilon(epsilon float32) error {
	if !(epsilon >= 0 && epsilon <= 1) {
		return errors.Wrapf(ai.ErrInvalidArgument, "epsilon=%g must be in [0, 1]", epsilon)
	}
	return nil
}

// String implements fmt.Stringer.
func (h Hyperparameters) String() string {
	return fmt.Sprintf("alpha=%g, gamma=%g, epsilon=%g", h.Alpha, h.Gamma, h.Epsilon)
}
