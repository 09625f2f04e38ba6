package acrobot

import (
	"fmt"

	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

const (
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2
)

// Discrete implements the classic control environment Acrobot with
// discrete actions. Actions select the torque applied at the joint:
//
//	Action	Torque
//	  0		  -1
//	  1		   0
//	  2		   1
//
// Discrete implements the environment.Environment interface
type Discrete struct {
	*base
}

// NewDiscrete creates and returns a new Acrobot environment with
// discrete actions
func NewDiscrete(t env.Task, discount float64) (*Discrete, ts.TimeStep) {
	baseEnv, firstStep := newBase(t, discount)
	return &Discrete{baseEnv}, firstStep
}

// ActionSpec returns the action specification of the environment
func (d *Discrete) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended. Legal actions are in the set {0, 1, 2}.
func (d *Discrete) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	action := int(a.AtVec(0))
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		return ts.TimeStep{}, true, fmt.Errorf("step: illegal action %v "+
			"∉ {0, 1, 2}", action)
	}

	torque := float64(action-1) * MaxTorque
	return d.update(torque, d.nextState(torque))
}
