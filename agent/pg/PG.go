// Package pg implements the Vanilla Policy Gradient (REINFORCE)
// algorithm
package pg

import (
	"fmt"

	"github.com/samuelfneumann/rlzoo/agent"
	"github.com/samuelfneumann/rlzoo/agent/policy"
	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/network"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"github.com/samuelfneumann/rlzoo/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Checkpoint file names
const PolicyFile = "pg_policy"

// normEps offsets the standard deviation when normalizing returns
const normEps = 1e-8

// PG implements the Vanilla Policy Gradient algorithm, also known as
// REINFORCE. The agent records the states, actions, and rewards of an
// episode, and when the episode ends it takes a single gradient step
// on the loss
//
//	L = -1/T Σ_t log π(A_t|S_t) G_t
//
// where G_t is the discounted return from step t normalized over the
// episode.
//
// The training policy has a fixed batch size of MaxSteps. Shorter
// episodes are padded with states and actions that are given zero
// weight in the loss.
type PG struct {
	behaviour   agent.LogPdfOfer // Selects actions, batch size 1
	trainPolicy agent.LogPdfOfer // Learns weights, batch size maxSteps
	trainer     *network.Trainer
	weights     *G.Node // Per-step weight G_t / T

	gamma      float64
	maxSteps   int
	features   int
	actionDims int

	states   []float64
	actions  []float64
	rewards  []float64
	prevStep ts.TimeStep
}

// New creates and returns a new PG agent
func New(env environment.Environment, c Config, seed uint64) (*PG, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	behaviour, err := policy.NewStochastic(env, 1, G.NewGraph(),
		c.PolicyLayers, c.PolicyBiases, c.PolicyActivations,
		c.InitWFn.InitWFn(), "policy", seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %v",
			err)
	}

	g := G.NewGraph()
	trainPolicy, err := policy.NewStochastic(env, c.MaxSteps, g,
		c.PolicyLayers, c.PolicyBiases, c.PolicyActivations,
		c.InitWFn.InitWFn(), "policy", seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create train policy: %v", err)
	}
	if err := trainPolicy.Network().Set(behaviour.Network()); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	weights := G.NewVector(
		g,
		tensor.Float64,
		G.WithName("weights"),
		G.WithShape(c.MaxSteps),
		G.WithInit(G.Zeroes()),
	)
	loss := G.Must(G.HadamardProd(trainPolicy.LogPdfNode(), weights))
	loss = G.Must(G.Sum(loss))
	loss = G.Must(G.Neg(loss))

	trainer, err := network.NewTrainer(trainPolicy.Network(), loss,
		c.Solver.Reset())
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	actionDims := env.ActionSpec().Shape.Len()
	return &PG{
		behaviour:   behaviour,
		trainPolicy: trainPolicy,
		trainer:     trainer,
		weights:     weights,
		gamma:       c.Gamma,
		maxSteps:    c.MaxSteps,
		features:    env.ObservationSpec().Shape.Len(),
		actionDims:  actionDims,
	}, nil
}

// ObserveFirst observes and records the first timestep in an episode
func (p *PG) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		agent.Warnf("ObserveFirst() should only be called on the first "+
			"timestep (current timestep = %d)", t.Number)
	}
	p.clear()
	p.prevStep = t
	return nil
}

// Observe records the transition from the previous timestep to
// nextStep after taking action
func (p *PG) Observe(action *mat.VecDense, nextStep ts.TimeStep) error {
	if p.IsEval() {
		p.prevStep = nextStep
		return nil
	}
	if action.Len() != p.actionDims {
		return fmt.Errorf("observe: expected %v-dimensional action but got "+
			"%v", p.actionDims, action.Len())
	}

	p.states = append(p.states, p.prevStep.Observation.RawVector().Data...)
	p.actions = append(p.actions, action.RawVector().Data...)
	p.rewards = append(p.rewards, nextStep.Reward)

	p.prevStep = nextStep
	return nil
}

// Step is a no-op since PG only updates at the end of episodes
func (p *PG) Step() error { return nil }

// EndEpisode updates the policy using the episode that just ended
func (p *PG) EndEpisode() error {
	defer p.clear()

	steps := len(p.rewards)
	if p.IsEval() || steps < 2 {
		return nil
	}
	if steps > p.maxSteps {
		return fmt.Errorf("endEpisode: episode of %v steps exceeds the "+
			"maximum of %v steps", steps, p.maxSteps)
	}

	returns := floatutils.DiscountedReturns(p.rewards, p.gamma)
	floatutils.Normalize(returns, normEps)

	// Pad to the training batch size
	weights := make([]float64, p.maxSteps)
	for i := range returns {
		weights[i] = returns[i] / float64(steps)
	}
	states := make([]float64, p.maxSteps*p.features)
	copy(states, p.states)
	actions := make([]float64, p.maxSteps*p.actionDims)
	copy(actions, p.actions)

	if _, err := p.trainPolicy.LogPdfOf(states, actions); err != nil {
		return fmt.Errorf("endEpisode: %v", err)
	}
	weightsTensor := tensor.New(
		tensor.WithShape(p.maxSteps),
		tensor.WithBacking(weights),
	)
	if err := G.Let(p.weights, weightsTensor); err != nil {
		return fmt.Errorf("endEpisode: could not set weights: %v", err)
	}

	if err := p.trainer.Step(); err != nil {
		return fmt.Errorf("endEpisode: %v", err)
	}
	return p.behaviour.Network().Set(p.trainPolicy.Network())
}

// clear clears the episode buffer
func (p *PG) clear() {
	p.states = p.states[:0]
	p.actions = p.actions[:0]
	p.rewards = p.rewards[:0]
}

// SelectAction selects an action at timestep t
func (p *PG) SelectAction(t ts.TimeStep) *mat.VecDense {
	return p.behaviour.SelectAction(t)
}

// Eval sets the agent to evaluation mode
func (p *PG) Eval() { p.behaviour.Eval() }

// Train sets the agent to training mode
func (p *PG) Train() { p.behaviour.Train() }

// IsEval returns whether the agent is in evaluation mode
func (p *PG) IsEval() bool { return p.behaviour.IsEval() }

// Save saves the policy to dir
func (p *PG) Save(dir string) error {
	return agent.Checkpoint{PolicyFile: p.behaviour.Network()}.Save(dir)
}

// Load loads the policy from dir
func (p *PG) Load(dir string) error {
	if err := (agent.Checkpoint{PolicyFile: p.behaviour.Network()}).Load(dir); err != nil {
		return err
	}
	return p.trainPolicy.Network().Set(p.behaviour.Network())
}
