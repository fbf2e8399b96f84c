// Package _default registers the default searchers and leaf evaluators that can be included in any
// front-end: the epsilon-greedy policy ("greedy"), the alpha-beta search ("ab"), and the
// "material" and "qtable" leaf evaluators.
package _default

import (
	"math/rand/v2"

	"github.com/janpfeifer/qchess/internal/ai"
	"github.com/janpfeifer/qchess/internal/ai/material"
	"github.com/janpfeifer/qchess/internal/ai/qtable"
	"github.com/janpfeifer/qchess/internal/parameters"
	"github.com/janpfeifer/qchess/internal/players"
	"github.com/janpfeifer/qchess/internal/searchers"
	"github.com/janpfeifer/qchess/internal/searchers/alphabeta"
	"github.com/janpfeifer/qchess/internal/searchers/greedy"
	"github.com/pkg/errors"
)

func init() {
	players.RegisterLeafEvaluator("material", newMaterial)
	players.RegisterLeafEvaluator("qtable", newQTable)
	players.RegisterSearcher(newGreedy)
	players.RegisterSearcher(newAlphaBeta)
}

func newMaterial(_ *qtable.Store, _ parameters.Params) (ai.LeafEvaluator, error) {
	return material.New(), nil
}

func newQTable(store *qtable.Store, _ parameters.Params) (ai.LeafEvaluator, error) {
	return store, nil
}

func newGreedy(store *qtable.Store, _ ai.LeafEvaluator, params parameters.Params) (searchers.Searcher, error) {
	if !params.Has("greedy") {
		return nil, nil
	}
	delete(params, "greedy")
	epsilon, err := parameters.PopParamOr(params, "epsilon", qtable.DefaultHyperparameters.Epsilon)
	if err != nil {
		return nil, err
	}
	if err = qtable.ValidateEpsilon(epsilon); err != nil {
		return nil, err
	}
	policy := greedy.New(store, epsilon)
	if params.Has("seed") {
		seed, err := parameters.PopParamOr(params, "seed", 0)
		if err != nil {
			return nil, err
		}
		policy.WithRand(rand.New(rand.NewPCG(uint64(seed), 0)))
	}
	return policy, nil
}

func newAlphaBeta(_ *qtable.Store, leaf ai.LeafEvaluator, params parameters.Params) (searchers.Searcher, error) {
	if !params.Has("ab") {
		return nil, nil
	}
	delete(params, "ab")
	maxDepth, err := parameters.PopParamOr(params, "max_depth", alphabeta.DefaultMaxDepth)
	if err != nil {
		return nil, err
	}
	if maxDepth < 1 {
		return nil, errors.Wrapf(ai.ErrInvalidArgument, "max_depth=%d must be >= 1", maxDepth)
	}
	return alphabeta.New(leaf).WithMaxDepth(maxDepth), nil
}
