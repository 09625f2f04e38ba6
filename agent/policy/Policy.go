package policy

import (
	"github.com/samuelfneumann/rlzoo/agent"
	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/network"
	G "gorgonia.org/gorgonia"
)

// NewStochastic returns a Categorical policy if env has discrete
// actions and a Gaussian policy otherwise.
func NewStochastic(env environment.Environment, batch int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, activations []*network.Activation,
	init G.InitWFn, prefix string, seed uint64) (agent.LogPdfOfer, error) {
	if env.ActionSpec().Cardinality == environment.Discrete {
		p, err := NewCategorical(env, batch, g, hiddenSizes, biases,
			activations, init, prefix, seed)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	p, err := NewGaussian(env, batch, g, hiddenSizes, biases, activations,
		init, prefix, seed)
	if err != nil {
		return nil, err
	}
	return p, nil
}
