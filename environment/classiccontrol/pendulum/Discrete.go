package pendulum

import (
	"fmt"

	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

const (
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 4
)

// Discrete implements the classic control environment Pendulum with
// discrete actions. Actions are evenly spaced torques:
//
//	Action	Torque
//	  0		  -2
//	  1		  -1
//	  2		   0
//	  3		   1
//	  4		   2
//
// Discrete implements the environment.Environment interface
type Discrete struct {
	*base
}

// NewDiscrete creates and returns a new Discrete environment
func NewDiscrete(t env.Task, discount float64) (*Discrete, ts.TimeStep) {
	baseEnv, firstStep := newBase(t, discount)
	return &Discrete{baseEnv}, firstStep
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended.
func (p *Discrete) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if action.Len() != ActionDims {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	a := int(action.AtVec(0))
	if a < MinDiscreteAction || a > MaxDiscreteAction {
		return ts.TimeStep{}, true, fmt.Errorf("step: illegal action %v",
			a)
	}

	// Convert discrete action to torque applied to fixed base
	half := float64(MaxDiscreteAction) / 2.0
	torque := (float64(a) - half) / half * MaxContinuousAction

	return p.update(torque, p.nextState(torque))
}

// ActionSpec returns the action specification of the environment
func (p *Discrete) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}
