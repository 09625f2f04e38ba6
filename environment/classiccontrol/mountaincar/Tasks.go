package mountaincar

import (
	"math"

	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	// Goal positions of the discrete and continuous action versions
	GoalPosition           float64 = 0.5
	ContinuousGoalPosition float64 = 0.45

	// Reward for reaching the goal in the EfficientGoal task
	GoalBonus float64 = 100.0
)

// goal holds the episode termination rules shared by the Mountain Car
// tasks. Episodes end after a step limit or when the car passes the
// goal x position.
type goal struct {
	env.Starter
	goalEnder *env.IntervalLimit
	stepEnder *env.StepLimit
	goalX     float64
}

func newGoal(s env.Starter, episodeSteps int, goalX float64) goal {
	interval := []r1.Interval{{Min: math.Inf(-1), Max: goalX}}
	goalEnder := env.NewIntervalLimit(interval, []int{0},
		ts.TerminalStateReached)

	return goal{s, goalEnder, env.NewStepLimit(episodeSteps), goalX}
}

// End determines if a timestep is the last timestep in the episode.
// If so, it changes the TimeStep's StepType to timestep.Last and
// returns true.
func (g *goal) End(t *ts.TimeStep) bool {
	if end := g.goalEnder.End(t); end {
		return true
	}
	return g.stepEnder.End(t)
}

// AtGoal returns whether the car is at or past the goal in state
func (g *goal) AtGoal(state *mat.VecDense) bool {
	return state.AtVec(0) >= g.goalX
}

// GoalX returns the x position of the goal
func (g *goal) GoalX() float64 { return g.goalX }

// Goal implements the classic control task of reaching a goal on
// Mountain Car. Since the car is underpowered, it must rock back and
// forth from hill to hill until it reaches the goal.
//
// Rewards are -1 on each timestep and 0 for the action which
// transitions the car to the goal.
type Goal struct {
	goal
}

// NewGoal creates and returns a new Goal task given a Starter, the
// maximum number of episode steps, and the goal x position.
func NewGoal(s env.Starter, episodeSteps int, goalX float64) *Goal {
	return &Goal{newGoal(s, episodeSteps, goalX)}
}

// GetReward returns the reward for transitioning to nextState
func (g *Goal) GetReward(_, _, nextState *mat.VecDense) float64 {
	if g.AtGoal(nextState) {
		return 0.0
	}
	return -1.0
}

// Min returns the minimum attainable reward over all timesteps
func (g *Goal) Min() float64 { return -1.0 }

// Max returns the maximum attainable reward over all timesteps
func (g *Goal) Max() float64 { return 0.0 }

// RewardSpec returns the reward specification of the Task
func (g *Goal) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{g.Min()})
	upperBound := mat.NewVecDense(1, []float64{g.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Discrete)
}

// EfficientGoal implements the Mountain Car task of reaching the goal
// while spending as little energy as possible. Each step costs
// 0.1 a² for the action a in [-1, 1], and reaching the goal gives a
// bonus of GoalBonus.
type EfficientGoal struct {
	goal
}

// NewEfficientGoal creates and returns a new EfficientGoal task given
// a Starter, the maximum number of episode steps, and the goal x
// position.
func NewEfficientGoal(s env.Starter, episodeSteps int,
	goalX float64) *EfficientGoal {
	return &EfficientGoal{newGoal(s, episodeSteps, goalX)}
}

// GetReward returns the reward for taking action and transitioning
// to nextState
func (e *EfficientGoal) GetReward(_, action, nextState *mat.VecDense) float64 {
	a := action.AtVec(0)
	reward := -0.1 * a * a
	if e.AtGoal(nextState) {
		reward += GoalBonus
	}
	return reward
}

// Min returns the minimum attainable reward over all timesteps
func (e *EfficientGoal) Min() float64 {
	return -0.1 * MaxContinuousAction * MaxContinuousAction
}

// Max returns the maximum attainable reward over all timesteps
func (e *EfficientGoal) Max() float64 { return GoalBonus }

// RewardSpec returns the reward specification of the Task
func (e *EfficientGoal) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{e.Min()})
	upperBound := mat.NewVecDense(1, []float64{e.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}
