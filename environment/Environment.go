// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"errors"
	"image"

	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes should end
type Ender interface {
	// End checks whether the argument TimeStep should end the
	// episode. If so, the TimeStep is altered so that it is the last
	// in the episode and true is returned.
	End(*ts.TimeStep) bool
}

// Task implements the reward scheme, start state distribution, and
// episode termination rules for some environment
type Task interface {
	Starter
	Ender
	GetReward(state, action, nextState *mat.VecDense) float64
	AtGoal(state *mat.VecDense) bool
	Min() float64 // Minimum attainable reward
	Max() float64 // Maximum attainable reward
	RewardSpec() Spec
}

// Environment implements a simulated environment
type Environment interface {
	Reset() (ts.TimeStep, error)
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)
	CurrentTimeStep() ts.TimeStep
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
	Close() error
}

// ErrNotRenderable is returned by Render when the environment cannot
// draw itself, such as a wrapper around a non-Renderer environment
var ErrNotRenderable = errors.New("environment is not renderable")

// Renderer is an Environment which can draw its current state
type Renderer interface {
	Environment
	Render() (image.Image, error)
}
