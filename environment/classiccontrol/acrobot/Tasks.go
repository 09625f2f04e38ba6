package acrobot

import (
	"math"

	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

const (
	// GoalHeight is the classic control goal: the tip must swing one
	// link length above the fixed base
	GoalHeight float64 = LinkLength1

	maxReward, minReward float64 = 0.0, -1.0
)

// SwingUp implements the classic control Acrobot task where the agent
// must swing the tip of the second link above a goal height.
//
// Rewards are -1 on each timestep and 0 for the action which swings
// the tip above the goal height. Episodes end when the tip is above
// the goal height or after a step limit.
type SwingUp struct {
	env.Starter
	stepLimiter *env.StepLimit
	goalHeight  float64
}

// NewSwingUp returns a new SwingUp task with start state distribution
// s, episodic step limit stepLimit, and goal height goalHeight.
func NewSwingUp(s env.Starter, stepLimit int, goalHeight float64) *SwingUp {
	return &SwingUp{s, env.NewStepLimit(stepLimit), goalHeight}
}

// tipHeight returns the height of the tip of the second link above
// the fixed base given cos(θ1), sin(θ1), cos(θ2) and sin(θ2)
func tipHeight(cos1, sin1, cos2, sin2 float64) float64 {
	// cos(θ1 + θ2) = cos(θ1)cos(θ2) - sin(θ1)sin(θ2)
	return -LinkLength1*cos1 - LinkLength2*(cos1*cos2-sin1*sin2)
}

// AtGoal returns whether the tip is above the goal height in the
// underlying state
func (s *SwingUp) AtGoal(state *mat.VecDense) bool {
	th1, th2 := state.AtVec(0), state.AtVec(1)
	h := tipHeight(math.Cos(th1), math.Sin(th1), math.Cos(th2),
		math.Sin(th2))
	return h > s.goalHeight
}

// End determines if a timestep is the last timestep in the episode.
// If so, it changes the TimeStep's StepType to timestep.Last, sets
// its EndType, and returns true.
func (s *SwingUp) End(t *ts.TimeStep) bool {
	obs := t.Observation
	h := tipHeight(obs.AtVec(0), obs.AtVec(1), obs.AtVec(2), obs.AtVec(3))
	if h > s.goalHeight {
		t.StepType = ts.Last
		t.SetEnd(ts.TerminalStateReached)
		return true
	}
	return s.stepLimiter.End(t)
}

// GetReward returns the reward for transitioning to nextState
func (s *SwingUp) GetReward(_, _, nextState *mat.VecDense) float64 {
	if s.AtGoal(nextState) {
		return maxReward
	}
	return minReward
}

// Min returns the minimum attainable reward over all timesteps
func (s *SwingUp) Min() float64 { return minReward }

// Max returns the maximum attainable reward over all timesteps
func (s *SwingUp) Max() float64 { return maxReward }

// RewardSpec returns the reward specification of the Task
func (s *SwingUp) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{s.Min()})
	upperBound := mat.NewVecDense(1, []float64{s.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Discrete)
}
