package cartpole

import (
	"fmt"

	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

const (
	MinContinuousAction float64 = -1.0
	MaxContinuousAction float64 = 1.0
)

// Continuous implements the classic control environment Cartpole with
// continuous actions. Actions are 1-dimensional in [-1, 1] and are
// scaled by ForceMag to produce the horizontal force on the cart.
// Actions outside [-1, 1] are clipped.
//
// Continuous implements the environment.Environment interface
type Continuous struct {
	*base
}

// NewContinuous constructs a new Cartpole environment with continuous
// actions
func NewContinuous(t env.Task, discount float64) (*Continuous, ts.TimeStep) {
	base, firstStep := newBase(t, discount)
	return &Continuous{base}, firstStep
}

// ActionSpec returns the action specification of the environment
func (c *Continuous) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims,
		[]float64{MinContinuousAction})
	upperBound := mat.NewVecDense(ActionDims,
		[]float64{MaxContinuousAction})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended.
func (c *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	force := a.AtVec(0)
	if force > MaxContinuousAction {
		force = MaxContinuousAction
	} else if force < MinContinuousAction {
		force = MinContinuousAction
	}

	nextState := c.nextState(force)
	return c.update(a, nextState)
}
