// Package gym provides access to OpenAI Gym environments for any
// environment that has no native implementation in package
// environment.
//
// This is made possible through the Go bindings for OpenAI Gym,
// found at https://github.com/samuelfneumann/GoGym. Environments keep
// their default tasks and episode cutoffs.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	environment gogym.Environment
	name        string

	currentStep ts.TimeStep
	discount    float64
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite.
func New(name string, discount float64, seed uint64) (*GymEnv,
	ts.TimeStep, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"environment %v: %v", name, err)
	}

	goGymEnv.Seed(int(seed))
	gymEnv := &GymEnv{
		environment: goGymEnv,
		name:        name,
		discount:    discount,
	}

	t, err := gymEnv.Reset()
	if err != nil {
		goGymEnv.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	return gymEnv, t, nil
}

// Step takes a single environmental step. When the underlying
// environment signals that the episode is done, the returned TimeStep
// is marked as the last step with a terminal end.
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	obs, reward, done, err := g.environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, g.discount, obs, g.currentStep.Number+1)
	if done {
		t.StepType = ts.Last
		t.SetEnd(ts.TerminalStateReached)
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, g.discount, obs, 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	return spaceToSpec(g.environment.ObservationSpace(), env.Observation)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	return spaceToSpec(g.environment.ActionSpace(), env.Action)
}

// space is the part of a GoGym space needed to construct a Spec
type space interface {
	Low() []*mat.VecDense
	High() []*mat.VecDense
}

// spaceToSpec converts a GoGym space to a Spec. Box spaces result in
// continuous Specs, discrete spaces in discrete Specs.
func spaceToSpec(s space, t env.SpecType) env.Spec {
	var cardinality env.Cardinality
	switch s.(type) {
	case *gogym.BoxSpace:
		cardinality = env.Continuous
	case *gogym.DiscreteSpace:
		cardinality = env.Discrete
	default:
		panic(fmt.Sprintf("spaceToSpec: invalid %v space type %T, package "+
			"gym supports only GoGym's BoxSpace or DiscreteSpace", t, s))
	}

	low := s.Low()[0]
	high := s.High()[0]
	shape := mat.NewVecDense(low.Len(), nil)

	return env.NewSpec(shape, t, low, high, cardinality)
}

// DiscountSpec returns the discount specification of the environment
func (g *GymEnv) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{g.discount})

	return env.NewSpec(shape, env.Discount, low, low, env.Continuous)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.environment.Close()
	return nil
}

// String returns the name of the underlying environment
func (g *GymEnv) String() string {
	return fmt.Sprintf("GymEnv(%v)", g.name)
}

// Shutdown releases the embedded Python interpreter. No GymEnv can be
// used after Shutdown is called.
func Shutdown() {
	gogym.Close()
}
