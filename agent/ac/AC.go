// Package ac implements the one-step Actor-Critic algorithm
package ac

import (
	"fmt"

	"github.com/samuelfneumann/rlzoo/agent"
	"github.com/samuelfneumann/rlzoo/agent/policy"
	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/network"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Checkpoint file names
const (
	ActorFile  = "ac_actor"
	CriticFile = "ac_critic"
)

// AC implements the one-step Actor-Critic algorithm. After each
// environment step, the TD error of the latest transition
//
//	δ = R + γ V(S') - V(S)
//
// is used to update both the critic, which minimizes δ², and the
// actor, which minimizes -δ log π(A|S) with δ held constant.
type AC struct {
	behaviour    agent.LogPdfOfer // Selects actions
	trainActor   agent.LogPdfOfer
	actorTrainer *network.Trainer
	tdError      *G.Node

	critic        network.NeuralNet
	criticTrainer *network.Trainer
	criticEval    *network.Predictor // Batch of 2 to predict V(S), V(S')
	target        *G.Node

	gamma      float64
	actionDims int

	prevStep   ts.TimeStep
	transition *ts.Transition // Latest transition, nil once learned from
}

// New creates and returns a new AC agent
func New(env environment.Environment, c Config, seed uint64) (*AC, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	// Actor
	behaviour, err := policy.NewStochastic(env, 1, G.NewGraph(),
		c.ActorLayers, c.ActorBiases, c.ActorActivations,
		c.InitWFn.InitWFn(), "actor", seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %v",
			err)
	}

	actorGraph := G.NewGraph()
	trainActor, err := policy.NewStochastic(env, 1, actorGraph,
		c.ActorLayers, c.ActorBiases, c.ActorActivations,
		c.InitWFn.InitWFn(), "actor", seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create train policy: %v", err)
	}
	if err := trainActor.Network().Set(behaviour.Network()); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	tdError := G.NewVector(
		actorGraph,
		tensor.Float64,
		G.WithName("tdError"),
		G.WithShape(1),
		G.WithInit(G.Zeroes()),
	)
	actorLoss := G.Must(G.HadamardProd(trainActor.LogPdfNode(), tdError))
	actorLoss = G.Must(G.Neg(G.Must(G.Sum(actorLoss))))

	actorTrainer, err := network.NewTrainer(trainActor.Network(), actorLoss,
		c.ActorSolver.Reset())
	if err != nil {
		return nil, fmt.Errorf("new: actor: %v", err)
	}

	// Critic
	features := env.ObservationSpec().Shape.Len()
	criticGraph := G.NewGraph()
	critic, err := network.NewMLP(features, 1, 1, criticGraph,
		c.CriticLayers, c.CriticBiases, c.InitWFn.InitWFn(),
		c.CriticActivations, "critic")
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic: %v", err)
	}

	target := G.NewMatrix(
		criticGraph,
		tensor.Float64,
		G.WithName("target"),
		G.WithShape(1, 1),
		G.WithInit(G.Zeroes()),
	)
	criticLoss := G.Must(G.Sub(critic.Prediction(), target))
	criticLoss = G.Must(G.Mean(G.Must(G.Square(criticLoss))))

	criticTrainer, err := network.NewTrainer(critic, criticLoss,
		c.CriticSolver.Reset())
	if err != nil {
		return nil, fmt.Errorf("new: critic: %v", err)
	}

	evalNet, err := critic.CloneWithBatch(2)
	if err != nil {
		return nil, fmt.Errorf("new: could not clone critic: %v", err)
	}
	criticEval, err := network.NewPredictor(evalNet, nil)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &AC{
		behaviour:     behaviour,
		trainActor:    trainActor,
		actorTrainer:  actorTrainer,
		tdError:       tdError,
		critic:        critic,
		criticTrainer: criticTrainer,
		criticEval:    criticEval,
		target:        target,
		gamma:         c.Gamma,
		actionDims:    env.ActionSpec().Shape.Len(),
	}, nil
}

// ObserveFirst observes and records the first timestep in an episode
func (a *AC) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		agent.Warnf("ObserveFirst() should only be called on the first "+
			"timestep (current timestep = %d)", t.Number)
	}
	a.prevStep = t
	a.transition = nil
	return nil
}

// Observe records the transition from the previous timestep to
// nextStep after taking action
func (a *AC) Observe(action *mat.VecDense, nextStep ts.TimeStep) error {
	if action.Len() != a.actionDims {
		return fmt.Errorf("observe: expected %v-dimensional action but got "+
			"%v", a.actionDims, action.Len())
	}

	if !a.IsEval() {
		transition := ts.NewTransition(a.prevStep, action, nextStep, nil)
		a.transition = &transition
	}
	a.prevStep = nextStep
	return nil
}

// Step updates the critic and actor using the latest transition
func (a *AC) Step() error {
	if a.IsEval() || a.transition == nil {
		return nil
	}
	t := a.transition
	a.transition = nil

	input := append(append([]float64{}, t.State.RawVector().Data...),
		t.NextState.RawVector().Data...)
	values, err := a.criticEval.Predict(input)
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}
	target := t.Reward + a.gamma*t.Discount*values[1]
	td := target - values[0]

	// Critic
	if err := G.Let(a.target, tensor.New(
		tensor.WithShape(1, 1),
		tensor.WithBacking([]float64{target}),
	)); err != nil {
		return fmt.Errorf("step: could not set critic target: %v", err)
	}
	if err := a.critic.SetInput(t.State.RawVector().Data); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if err := a.criticTrainer.Step(); err != nil {
		return fmt.Errorf("step: critic: %v", err)
	}
	if err := a.criticEval.Network().Set(a.critic); err != nil {
		return fmt.Errorf("step: %v", err)
	}

	// Actor
	if _, err := a.trainActor.LogPdfOf(t.State.RawVector().Data,
		t.Action.RawVector().Data); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if err := G.Let(a.tdError, tensor.New(
		tensor.WithShape(1),
		tensor.WithBacking([]float64{td}),
	)); err != nil {
		return fmt.Errorf("step: could not set td error: %v", err)
	}
	if err := a.actorTrainer.Step(); err != nil {
		return fmt.Errorf("step: actor: %v", err)
	}
	return a.behaviour.Network().Set(a.trainActor.Network())
}

// EndEpisode is a no-op since AC updates after each step
func (a *AC) EndEpisode() error {
	a.transition = nil
	return nil
}

// SelectAction selects an action at timestep t
func (a *AC) SelectAction(t ts.TimeStep) *mat.VecDense {
	return a.behaviour.SelectAction(t)
}

// Eval sets the agent to evaluation mode
func (a *AC) Eval() { a.behaviour.Eval() }

// Train sets the agent to training mode
func (a *AC) Train() { a.behaviour.Train() }

// IsEval returns whether the agent is in evaluation mode
func (a *AC) IsEval() bool { return a.behaviour.IsEval() }

// checkpoint returns the networks saved by the agent
func (a *AC) checkpoint() agent.Checkpoint {
	return agent.Checkpoint{
		ActorFile:  a.behaviour.Network(),
		CriticFile: a.critic,
	}
}

// Save saves the actor and critic to dir
func (a *AC) Save(dir string) error {
	return a.checkpoint().Save(dir)
}

// Load loads the actor and critic from dir
func (a *AC) Load(dir string) error {
	if err := a.checkpoint().Load(dir); err != nil {
		return err
	}
	if err := a.trainActor.Network().Set(a.behaviour.Network()); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	return a.criticEval.Network().Set(a.critic)
}
