// Package wrappers implements environment wrappers which alter the
// interface of an environment.Environment
package wrappers

import (
	"fmt"
	"image"
	"math"

	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

// NormalizedActions wraps a continuous-action environment so that
// agents act in [-1, 1]^d. Each action dimension is affinely mapped
// from [-1, 1] onto the action bounds of the wrapped environment:
//
//	a_env = low + (a + 1) * (high - low) / 2
//
// Actions outside [-1, 1] are clipped before being mapped.
//
// NormalizedActions itself implements the environment.Environment
// interface, and is therefore itself an Environment.
type NormalizedActions struct {
	environment.Environment
	low, high *mat.VecDense
	action    *mat.VecDense
}

// NewNormalizedActions creates and returns a new NormalizedActions
// wrapping env. An error is returned if env does not have continuous
// actions or if any action dimension is unbounded.
func NewNormalizedActions(env environment.Environment) (*NormalizedActions,
	error) {
	spec := env.ActionSpec()
	if spec.Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newNormalizedActions: cannot normalize " +
			"discrete actions")
	}

	low := mat.VecDenseCopyOf(spec.LowerBound)
	high := mat.VecDenseCopyOf(spec.UpperBound)
	for i := 0; i < low.Len(); i++ {
		if isInf(low.AtVec(i)) || isInf(high.AtVec(i)) {
			return nil, fmt.Errorf("newNormalizedActions: action "+
				"dimension %v is unbounded", i)
		}
	}

	return &NormalizedActions{
		Environment: env,
		low:         low,
		high:        high,
		action:      mat.NewVecDense(low.Len(), nil),
	}, nil
}

// Step takes one environmental step with normalized action a
func (n *NormalizedActions) Step(a *mat.VecDense) (timestep.TimeStep,
	bool, error) {
	if a.Len() != n.low.Len() {
		return timestep.TimeStep{}, true, fmt.Errorf("step: action "+
			"should be %v-dimensional", n.low.Len())
	}

	for i := 0; i < a.Len(); i++ {
		norm := a.AtVec(i)
		if norm > 1 {
			norm = 1
		} else if norm < -1 {
			norm = -1
		}

		low, high := n.low.AtVec(i), n.high.AtVec(i)
		n.action.SetVec(i, low+(norm+1)*(high-low)/2)
	}

	return n.Environment.Step(n.action)
}

// ActionSpec returns the normalized action specification
func (n *NormalizedActions) ActionSpec() environment.Spec {
	dims := n.low.Len()
	lower := mat.NewVecDense(dims, nil)
	upper := mat.NewVecDense(dims, nil)
	for i := 0; i < dims; i++ {
		lower.SetVec(i, -1)
		upper.SetVec(i, 1)
	}

	return environment.NewSpec(mat.NewVecDense(dims, nil),
		environment.Action, lower, upper, environment.Continuous)
}

// Render renders the wrapped environment. If the wrapped environment
// is not an environment.Renderer, the returned error wraps
// environment.ErrNotRenderable.
func (n *NormalizedActions) Render() (image.Image, error) {
	r, ok := n.Environment.(environment.Renderer)
	if !ok {
		return nil, fmt.Errorf("render: %T: %w", n.Environment,
			environment.ErrNotRenderable)
	}
	return r.Render()
}

// Unwrap returns the wrapped environment
func (n *NormalizedActions) Unwrap() environment.Environment {
	return n.Environment
}

// isInf reports whether f is infinite or at least as large in
// magnitude as the largest float32, which Gym uses for unbounded spaces
func isInf(f float64) bool {
	return math.IsInf(f, 0) || math.Abs(f) >= math.MaxFloat32
}
