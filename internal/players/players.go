// Package players provides a factory of AI players from configuration strings.
// It also allows searcher and leaf evaluator providers to register themselves, see
// package players/default.
package players

import (
	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/ai/qtable"
	"github.com/janpfeifer/qchess/internal/parameters"
	"github.com/janpfeifer/qchess/internal/searchers"
	. "github.com/janpfeifer/qchess/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// LeafBuilder creates a leaf evaluator, given the store of action values and the configuration
// parameters. It should pop the parameters it uses.
type LeafBuilder func(store *qtable.Store, params parameters.Params) (ai.LeafEvaluator, error)

// SearcherBuilder creates a searcher if its keyword is in params, otherwise it returns nil.
// It should pop the parameters it uses.
type SearcherBuilder func(store *qtable.Store, leaf ai.LeafEvaluator, params parameters.Params) (searchers.Searcher, error)

var (
	// RegisteredLeafEvaluators by name, selected with the "leaf" parameter.
	RegisteredLeafEvaluators = make(map[string]LeafBuilder)

	// RegisteredSearchers are tried in order, and exactly one must be selected by the configuration.
	RegisteredSearchers []SearcherBuilder
)

// RegisterLeafEvaluator under name.
func RegisterLeafEvaluator(name string, builder LeafBuilder) {
	RegisteredLeafEvaluators[name] = builder
}

// RegisterSearcher adds a searcher builder.
func RegisterSearcher(builder SearcherBuilder) {
	RegisteredSearchers = append(RegisteredSearchers, builder)
}

var (
	// DefaultPlayerConfig is used if no configuration was given to the AI. The value may be changed by the
	// binary built.
	DefaultPlayerConfig = "ab,max_depth=2"

	// DefaultLeafEvaluator is used if the "leaf" parameter is not given.
	DefaultLeafEvaluator = "material"
)

// SearcherPlayer is the standard set up for an AI: a searcher and the leaf evaluator it uses.
type SearcherPlayer struct {
	Searcher searchers.Searcher
	Leaf     ai.LeafEvaluator

	// Config used to create the player.
	Config string
}

// New creates a new AI player given the configuration string and the store of action values it
// will use. If store is nil, an empty one is used.
//
// Args:
//
//   - config: a comma-separated list of parameters with optional values associated. Exactly one searcher
//     must be selected (e.g. "greedy" or "ab"). If empty, the default is given by DefaultPlayerConfig.
//     E.g.: "ab,max_depth=3,leaf=qtable" or "greedy,epsilon=0".
//   - store: the action values used by the "greedy" searcher and by the "qtable" leaf evaluator.
//
// Typical parameters:
//
//   - greedy (bool): epsilon-greedy policy over the action values.
//   - epsilon (float): exploration probability of the greedy policy, defaults to 0.1.
//   - seed (int): seed for the random number generator of the greedy policy.
//   - ab (bool): Alpha-Beta pruning search algorithm.
//   - max_depth (int): Max depth of the alpha-beta search, default is 3.
//   - leaf (string): leaf evaluator for the search: "material" (default) or "qtable".
func New(config string, store *qtable.Store) (*SearcherPlayer, error) {
	if config == "" {
		config = DefaultPlayerConfig
	}
	if store == nil {
		store = qtable.New()
	}
	if len(RegisteredSearchers) == 0 {
		return nil, errors.New("no registered searchers. Perhaps you need to import _ \"github.com/janpfeifer/qchess/internal/players/default\" to your binary ?")
	}
	params := parameters.NewFromConfigString(config)
	player := &SearcherPlayer{Config: config}

	// Find leaf evaluator.
	leafName, err := parameters.PopParamOr(params, "leaf", DefaultLeafEvaluator)
	if err != nil {
		return nil, err
	}
	leafBuilder, found := RegisteredLeafEvaluators[leafName]
	if !found {
		return nil, errors.Errorf("unknown leaf evaluator %q in parameters %q", leafName, config)
	}
	player.Leaf, err = leafBuilder(store, params)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create leaf evaluator %q", leafName)
	}

	// Find searcher.
	for _, builder := range RegisteredSearchers {
		s, err := builder(store, player.Leaf, params)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to create AI player %q", config)
		}
		if s == nil {
			// Not this type of searcher.
			continue
		}
		if player.Searcher != nil {
			return nil, errors.Errorf("multiple searchers defined in parameters %q", config)
		}
		player.Searcher = s
	}
	if player.Searcher == nil {
		return nil, errors.Errorf("no searchers defined in parameters %q", config)
	}

	// Check that all parameters were processed.
	if err := parameters.CheckAllUsed(params); err != nil {
		return nil, errors.WithMessagef(err, "AI player %q", config)
	}
	return player, nil
}

// Play chooses a move for the side to move in pos, and returns it along with its score.
func (p *SearcherPlayer) Play(pos Position) (Move, float32, error) {
	m, score, err := p.Searcher.Search(pos)
	if err != nil {
		return m, score, err
	}
	if klog.V(2).Enabled() {
		klog.Infof("AI (%s) playing %s for %s, score=%.3f", p.Config, m, pos.SideToMove(), score)
	}
	return m, score, nil
}

// String implements fmt.Stringer.
func (p *SearcherPlayer) String() string { return p.Config }
