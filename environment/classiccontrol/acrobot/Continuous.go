package acrobot

import (
	"fmt"

	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"github.com/samuelfneumann/rlzoo/utils/floatutils"
	"gonum.org/v1/gonum/mat"
)

const (
	MinContinuousAction float64 = -MaxTorque
	MaxContinuousAction float64 = MaxTorque
)

// Continuous implements the classic control environment Acrobot with
// continuous actions. Actions are the torque applied at the joint and
// are clipped to [MinContinuousAction, MaxContinuousAction].
//
// Continuous implements the environment.Environment interface
type Continuous struct {
	*base
}

// NewContinuous creates and returns a new Acrobot environment with
// continuous actions
func NewContinuous(t env.Task, discount float64) (*Continuous,
	ts.TimeStep) {
	baseEnv, firstStep := newBase(t, discount)
	return &Continuous{baseEnv}, firstStep
}

// ActionSpec returns the action specification of the environment
func (c *Continuous) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{MinContinuousAction})
	upperBound := mat.NewVecDense(ActionDims, []float64{MaxContinuousAction})

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

	torque := floatutils.Clip(a.AtVec(0), MinContinuousAction,
		MaxContinuousAction)
	return c.update(torque, c.nextState(torque))
}
