package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition implements a (S, A, R, γ, S', A') tuple. The next action
// may be nil for off-policy learners which do not need it.
type Transition struct {
	State      *mat.VecDense
	Action     *mat.VecDense
	Reward     float64
	Discount   float64
	NextState  *mat.VecDense
	NextAction *mat.VecDense
}

// NewTransition creates and returns a new Transition. The discount of
// the transition is the discount of the next step, unless the next
// step is a terminal state, in which case the discount is 0.
func NewTransition(step TimeStep, action *mat.VecDense, nextStep TimeStep,
	nextAction *mat.VecDense) Transition {
	discount := nextStep.Discount
	if nextStep.TerminalEnd() {
		discount = 0.0
	}

	return Transition{
		State:      step.Observation,
		Action:     action,
		Reward:     nextStep.Reward,
		Discount:   discount,
		NextState:  nextStep.Observation,
		NextAction: nextAction,
	}
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | Action: %v  |  Reward: %.2f  |  "+
		"Discount: %.2f", mat.Formatted(t.Action.T()), t.Reward, t.Discount)
}
