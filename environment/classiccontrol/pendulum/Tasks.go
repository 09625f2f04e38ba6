package pendulum

import (
	"math"

	env "github.com/samuelfneumann/rlzoo/environment"
	"gonum.org/v1/gonum/mat"
)

// SwingUp implements a task where the agent must swing the pendulum up
// and hold it in a vertical position. The reward is the negative cost
//
//	θ² + 0.1 θ̇² + 0.001 u²
//
// for normalized angle θ, angular velocity θ̇ and torque u, so that the
// goal state of the pendulum pointing straight up with no velocity
// receives the maximum reward of 0.
type SwingUp struct {
	env.Starter
	env.Ender
}

// NewSwingUp creates and returns a new SwingUp task
func NewSwingUp(s env.Starter, maxSteps int) *SwingUp {
	ender := env.NewStepLimit(maxSteps)
	return &SwingUp{s, ender}
}

// GetReward gets the reward for applying torque action in state
func (s *SwingUp) GetReward(state, action, _ *mat.VecDense) float64 {
	th := normalizeAngle(state.AtVec(0))
	thdot := state.AtVec(1)
	u := action.AtVec(0)

	return -(th*th + 0.1*thdot*thdot + 0.001*u*u)
}

// AtGoal determines whether or not the current state is the goal state
func (s *SwingUp) AtGoal(state *mat.VecDense) bool {
	return normalizeAngle(state.AtVec(0)) == 0
}

// Min returns the minimum possible reward
func (s *SwingUp) Min() float64 {
	return -(math.Pi*math.Pi + 0.1*SpeedBound*SpeedBound +
		0.001*TorqueBound*TorqueBound)
}

// Max returns the maximum possible reward
func (s *SwingUp) Max() float64 {
	return 0.0
}

// RewardSpec returns the reward specification of the Task
func (s *SwingUp) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{s.Min()})
	upperBound := mat.NewVecDense(1, []float64{s.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}
