// Package acrobot implements the Acrobot classic control environment
package acrobot

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"github.com/samuelfneumann/rlzoo/utils/floatutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	dt float64 = 0.2

	// Physical constants
	LinkLength1 float64 = 1.0 // Metres, length of link 1
	LinkLength2 float64 = 1.0 // Metres, length of link 2
	LinkMass1   float64 = 1.0 // Kg, mass of link 1
	LinkMass2   float64 = 1.0 // Kg, mass of link 2
	LinkCOMPos1 float64 = 0.5 // Metres, centre of mass of link 1
	LinkCOMPos2 float64 = 0.5 // Metres, centre of mass of link 2
	LinkMOI     float64 = 1.0 // Moments of inertia for both links
	MaxVel1     float64 = 4 * math.Pi
	MaxVel2     float64 = 9 * math.Pi
	Gravity     float64 = 9.8
	MaxTorque   float64 = 1.0

	ActionDims      int = 1
	StateDims       int = 4
	ObservationDims int = 6
)

// base implements the physics shared by the Discrete and Continuous
// Acrobot environments. A chain of two links hangs from a fixed base,
// and torque can only be applied at the joint between the links. The
// agent must swing the tip of the second link upwards.
//
// The underlying state is [θ1, θ2, θ̇1, θ̇2], where θ1 is the angle of
// the first link from the negative y-axis and θ2 is the angle of the
// second link relative to the first. Angles are wrapped to [-π, π)
// and angular velocities are clipped to [-MaxVel1, MaxVel1] and
// [-MaxVel2, MaxVel2]. Observations are
//
//	[cos(θ1), sin(θ1), cos(θ2), sin(θ2), θ̇1, θ̇2]
//
// The Task's Starter must return underlying states, and the Task's
// reward function receives underlying states as well as the clipped
// torque applied.
type base struct {
	env.Task
	state           *mat.VecDense
	lastStep        ts.TimeStep
	discount        float64
	velocity1Bounds r1.Interval
	velocity2Bounds r1.Interval
}

// newBase returns a new base Acrobot environment
func newBase(t env.Task, discount float64) (*base, ts.TimeStep) {
	a := &base{
		Task:            t,
		discount:        discount,
		velocity1Bounds: r1.Interval{Min: -MaxVel1, Max: MaxVel1},
		velocity2Bounds: r1.Interval{Min: -MaxVel2, Max: MaxVel2},
	}
	a.state = t.Start()
	a.lastStep = ts.New(ts.First, 0.0, discount, observation(a.state), 0)

	return a, a.lastStep
}

// observation converts an underlying state to an observation
func observation(state *mat.VecDense) *mat.VecDense {
	th1, th2 := state.AtVec(0), state.AtVec(1)
	return mat.NewVecDense(ObservationDims, []float64{
		math.Cos(th1), math.Sin(th1),
		math.Cos(th2), math.Sin(th2),
		state.AtVec(2), state.AtVec(3),
	})
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (a *base) Reset() (ts.TimeStep, error) {
	state := a.Start()
	if state.Len() != StateDims {
		return ts.TimeStep{}, fmt.Errorf("reset: starter returned state "+
			"with %v features, expected %v", state.Len(), StateDims)
	}
	a.state = state

	a.lastStep = ts.New(ts.First, 0, a.discount, observation(state), 0)
	return a.lastStep, nil
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment
func (a *base) CurrentTimeStep() ts.TimeStep {
	return a.lastStep
}

// ObservationSpec returns the observation specification of the
// environment
func (a *base) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims, []float64{-1, -1, -1, -1,
		a.velocity1Bounds.Min, a.velocity2Bounds.Min})
	upperBound := mat.NewVecDense(ObservationDims, []float64{1, 1, 1, 1,
		a.velocity1Bounds.Max, a.velocity2Bounds.Max})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (a *base) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{a.discount})

	return env.NewSpec(shape, env.Discount, bound, bound, env.Continuous)
}

// Close implements the environment.Environment interface
func (a *base) Close() error { return nil }

// nextState integrates the dynamics over one timestep while torque is
// applied at the joint between the links
func (a *base) nextState(torque float64) *mat.VecDense {
	ns := rk4(a.state.RawVector().Data, torque, dt)

	ns[0] = wrap(ns[0])
	ns[1] = wrap(ns[1])
	ns[2] = floatutils.Clip(ns[2], a.velocity1Bounds.Min,
		a.velocity1Bounds.Max)
	ns[3] = floatutils.Clip(ns[3], a.velocity2Bounds.Min,
		a.velocity2Bounds.Max)

	return mat.NewVecDense(StateDims, ns)
}

// update moves the environment to newState after applying torque,
// returning the next TimeStep
func (a *base) update(torque float64, newState *mat.VecDense) (ts.TimeStep,
	bool, error) {
	action := mat.NewVecDense(ActionDims, []float64{torque})
	reward := a.GetReward(a.state, action, newState)

	nextStep := ts.New(ts.Mid, reward, a.discount, observation(newState),
		a.lastStep.Number+1)
	a.End(&nextStep)

	a.state = newState
	a.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

func (a *base) String() string {
	return fmt.Sprintf("Acrobot  |  θ1: %v  |  θ2: %v  |  θ̇1: %v  |  θ̇2: %v",
		a.state.AtVec(0), a.state.AtVec(1), a.state.AtVec(2),
		a.state.AtVec(3))
}

// dsdt returns the time derivative of state s when torque is applied
func dsdt(s []float64, torque float64) []float64 {
	m1, m2 := LinkMass1, LinkMass2
	l1 := LinkLength1
	lc1, lc2 := LinkCOMPos1, LinkCOMPos2
	i1, i2 := LinkMOI, LinkMOI
	g := Gravity

	theta1, theta2 := s[0], s[1]
	dtheta1, dtheta2 := s[2], s[3]

	d1 := m1*lc1*lc1 + m2*(l1*l1+lc2*lc2+2*l1*lc2*math.Cos(theta2)) + i1 + i2
	d2 := m2*(lc2*lc2+l1*lc2*math.Cos(theta2)) + i2

	phi2 := m2 * lc2 * g * math.Cos(theta1+theta2-math.Pi/2)
	phi1 := -m2*l1*lc2*dtheta2*dtheta2*math.Sin(theta2) -
		2*m2*l1*lc2*dtheta2*dtheta1*math.Sin(theta2) +
		(m1*lc1+m2*l1)*g*math.Cos(theta1-math.Pi/2) + phi2

	// Dynamics of the RL book
	ddtheta2 := (torque + d2/d1*phi1 -
		m2*l1*lc2*dtheta1*dtheta1*math.Sin(theta2) - phi2) /
		(m2*lc2*lc2 + i2 - d2*d2/d1)
	ddtheta1 := -(d2*ddtheta2 + phi1) / d1

	return []float64{dtheta1, dtheta2, ddtheta1, ddtheta2}
}

// rk4 integrates the dynamics from state y0 over a single step of
// length h using 4th order Runge-Kutta
func rk4(y0 []float64, torque, h float64) []float64 {
	k1 := dsdt(y0, torque)

	y := make([]float64, len(y0))
	floats.AddScaledTo(y, y0, h/2, k1)
	k2 := dsdt(y, torque)

	floats.AddScaledTo(y, y0, h/2, k2)
	k3 := dsdt(y, torque)

	floats.AddScaledTo(y, y0, h, k3)
	k4 := dsdt(y, torque)

	out := make([]float64, len(y0))
	copy(out, k1)
	floats.AddScaled(out, 2, k2)
	floats.AddScaled(out, 2, k3)
	floats.Add(out, k4)
	floats.AddScaledTo(out, y0, h/6, out)

	return out
}

// wrap wraps an angle to [-π, π)
func wrap(th float64) float64 {
	return math.Mod(math.Mod(th+math.Pi, 2*math.Pi)+2*math.Pi,
		2*math.Pi) - math.Pi
}
