// Package pendulum implements the pendulum classic control environment
package pendulum

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	MaxContinuousAction float64 = TorqueBound
	MinContinuousAction float64 = -MaxContinuousAction

	dt              float64 = 0.05
	Gravity         float64 = 10.0
	Mass            float64 = 1.0
	Length          float64 = 1.0
	ActionDims      int     = 1
	StateDims       int     = 2
	ObservationDims int     = 3
)

// base implements the physics shared by all Pendulum environments. A
// pendulum is attached to a fixed base. An agent can swing the
// pendulum back and forth, but the torque it can apply is
// underpowered, so it must first be rocked back and forth, using the
// momentum to gradually climb higher until the pendulum can point
// straight up.
//
// The underlying state is the angle θ of the pendulum from the
// positive y-axis and its angular velocity. The angular velocity is
// clipped to [-SpeedBound, SpeedBound]. Observations are
// [cos(θ), sin(θ), θ̇].
//
// The Task's Starter must return underlying states [θ, θ̇], and the
// Task's reward function receives underlying states as well as the
// clipped torque applied.
type base struct {
	env.Task
	dt           float64
	gravity      float64
	mass         float64
	length       float64
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	state        *mat.VecDense
	lastStep     ts.TimeStep
	discount     float64
}

// newBase creates and returns a new base environment
func newBase(t env.Task, d float64) (*base, ts.TimeStep) {
	p := &base{
		Task:         t,
		dt:           dt,
		gravity:      Gravity,
		mass:         Mass,
		length:       Length,
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
		discount:     d,
	}
	p.state = t.Start()
	p.lastStep = ts.New(ts.First, 0.0, d, observation(p.state), 0)

	return p, p.lastStep
}

// observation converts an underlying state [θ, θ̇] to an
// observation [cos(θ), sin(θ), θ̇]
func observation(state *mat.VecDense) *mat.VecDense {
	th, thdot := state.AtVec(0), state.AtVec(1)
	return mat.NewVecDense(ObservationDims, []float64{math.Cos(th),
		math.Sin(th), thdot})
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment
func (p *base) CurrentTimeStep() ts.TimeStep {
	return p.lastStep
}

// Reset resets the environment and returns a starting state drawn from the
// Starter
func (p *base) Reset() (ts.TimeStep, error) {
	state := p.Start()
	if state.Len() != StateDims {
		return ts.TimeStep{}, fmt.Errorf("reset: starter returned state "+
			"with %v features, expected %v", state.Len(), StateDims)
	}
	p.state = state

	p.lastStep = ts.New(ts.First, 0, p.discount, observation(state), 0)
	return p.lastStep, nil
}

// nextState computes the next underlying state of the environment
// when torque is applied to the fixed base of the pendulum. The torque
// must already be clipped to the torque bounds.
func (p *base) nextState(torque float64) *mat.VecDense {
	th, thdot := p.state.AtVec(0), p.state.AtVec(1)

	newthdot := thdot + (-3*p.gravity/(2*p.length)*math.Sin(th+math.Pi)+
		3.0/(p.mass*math.Pow(p.length, 2))*torque)*p.dt
	newth := th + newthdot*p.dt

	newthdot = floats.Min([]float64{newthdot, p.speedBounds.Max})
	newthdot = floats.Max([]float64{newthdot, p.speedBounds.Min})

	return mat.NewVecDense(StateDims, []float64{newth, newthdot})
}

// update moves the environment to newState after applying torque,
// returning the next TimeStep
func (p *base) update(torque float64, newState *mat.VecDense) (ts.TimeStep,
	bool, error) {
	action := mat.NewVecDense(ActionDims, []float64{torque})
	reward := p.GetReward(p.state, action, newState)

	nextStep := ts.New(ts.Mid, reward, p.discount, observation(newState),
		p.lastStep.Number+1)
	p.End(&nextStep)

	p.state = newState
	p.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// clipTorque clips torque to the legal torque bounds
func (p *base) clipTorque(torque float64) float64 {
	return math.Max(p.torqueBounds.Min, math.Min(p.torqueBounds.Max, torque))
}

// DiscountSpec returns the discount specification of the environment
func (p *base) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{p.discount})

	return env.NewSpec(shape, env.Discount, bound, bound, env.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *base) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims, []float64{-1, -1,
		p.speedBounds.Min})
	upperBound := mat.NewVecDense(ObservationDims, []float64{1, 1,
		p.speedBounds.Max})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// Close implements the environment.Environment interface
func (p *base) Close() error { return nil }

// String converts the environment to a string representation
func (p *base) String() string {
	str := "Pendulum  |  theta: %v  |  theta dot: %v"
	return fmt.Sprintf(str, p.state.AtVec(0), p.state.AtVec(1))
}

// normalizeAngle normalizes an angle to be in [-π, π)
func normalizeAngle(th float64) float64 {
	return math.Mod(math.Mod(th+math.Pi, 2*math.Pi)+2*math.Pi,
		2*math.Pi) - math.Pi
}
