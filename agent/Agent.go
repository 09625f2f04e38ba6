// Package agent defines an agent interface
package agent

import (
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
	Saver
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// Observe records that an action lead to some timestep
	Observe(action *mat.VecDense, nextStep timestep.TimeStep) error

	// Step performs the update that follows each environment step
	Step() error

	// EndEpisode performs the update that follows the end of an
	// episode
	EndEpisode() error
}

// Policy represents a policy that an agent can have.
//
// In evaluation mode a Policy acts greedily with respect to what it has
// learned. In training mode it explores.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// Saver saves and loads the networks of an agent. Each network is
// stored in its own file in the argument directory.
type Saver interface {
	Save(dir string) error
	Load(dir string) error
}

// NNPolicy represents a policy that uses neural network function
// approximation.
type NNPolicy interface {
	Policy
	Network() network.NeuralNet
}

// EGreedyNNPolicy implements an epsilon greedy policy using neural
// network function approximation.
type EGreedyNNPolicy interface {
	NNPolicy
	SetEpsilon(float64)
	Epsilon() float64
}

// LogPdfOfer implements a policy type that can calculate the log
// of the probability density function of the policy for taking some
// (externally inputted) action in some (externally inputted) state.
// Because of this, the gradient will not be computed through the
// action selection process.
type LogPdfOfer interface {
	NNPolicy

	// LogPdfNode returns the node that calculates the log probability
	// of the actions set with LogPdfOf
	LogPdfNode() *G.Node

	// LogPdfOf sets the inputs of the policy's graph so that the node
	// returned by LogPdfNode computes the log probability of taking
	// the argument actions in the argument states. Inputs should be
	// constructed in row major order.
	LogPdfOf(states, actions []float64) (*G.Node, error)
}
