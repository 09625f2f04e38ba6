package pendulum

import (
	"fmt"

	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

// Continuous implements the classic control environment Pendulum with
// continuous actions. Actions are 1-dimensional and determine the
// torque to apply to the pendulum at its fixed base. Actions are
// bounded by [MinContinuousAction, MaxContinuousAction] = [-2, 2] and
// actions outside of this region are clipped.
//
// Continuous implements the environment.Environment interface
type Continuous struct {
	*base
}

// NewContinuous creates and returns a new Continuous environment
func NewContinuous(t env.Task, discount float64) (*Continuous,
	ts.TimeStep) {
	baseEnv, firstStep := newBase(t, discount)
	return &Continuous{baseEnv}, firstStep
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended.
func (p *Continuous) Step(action *mat.VecDense) (ts.TimeStep, bool,
	error) {
	if action.Len() != ActionDims {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	torque := p.clipTorque(action.AtVec(0))
	return p.update(torque, p.nextState(torque))
}

// ActionSpec returns the action specification of the environment
func (p *Continuous) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims,
		[]float64{MinContinuousAction})
	upperBound := mat.NewVecDense(ActionDims,
		[]float64{MaxContinuousAction})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}
