package mountaincar

import (
	"fmt"

	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"github.com/samuelfneumann/rlzoo/utils/floatutils"
	"gonum.org/v1/gonum/mat"
)

const (
	MinContinuousAction float64 = -1.0
	MaxContinuousAction float64 = 1.0
)

// Continuous implements the classic control environment Mountain Car
// with continuous actions. Actions are 1-dimensional in [-1, 1] and
// are scaled by Power to produce the acceleration of the car. Actions
// outside [-1, 1] are clipped, and the Task receives the clipped
// action.
//
// Continuous implements the environment.Environment interface
type Continuous struct {
	*base
}

// NewContinuous creates a new Mountain Car environment with continuous
// actions
func NewContinuous(t env.Task, discount float64) (*Continuous,
	ts.TimeStep) {
	baseEnv, firstStep := newBase(t, discount)
	return &Continuous{baseEnv}, firstStep
}

// ActionSpec returns the action specification of the environment
func (m *Continuous) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{MinContinuousAction})
	upperBound := mat.NewVecDense(ActionDims, []float64{MaxContinuousAction})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended.
func (m *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	force := floatutils.Clip(a.AtVec(0), MinContinuousAction,
		MaxContinuousAction)
	clipped := mat.NewVecDense(ActionDims, []float64{force})

	return m.update(clipped, m.nextState(force*Power))
}
