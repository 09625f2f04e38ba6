// Package td3 implements the Twin Delayed Deep Deterministic policy
// gradient algorithm
package td3

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/rlzoo/agent"
	"github.com/samuelfneumann/rlzoo/agent/policy"
	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/expreplay"
	"github.com/samuelfneumann/rlzoo/network"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"github.com/samuelfneumann/rlzoo/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Checkpoint file names
const (
	Q1File           = "td3_q1"
	Q2File           = "td3_q2"
	TargetQ1File     = "td3_target_q1"
	TargetQ2File     = "td3_target_q2"
	PolicyFile       = "td3_policy"
	TargetPolicyFile = "td3_target_policy"
)

// rewardEps offsets the standard deviation when normalizing rewards
const rewardEps = 1e-6

// critic is an action value function Q(s, a) together with the nodes
// used to train it
type critic struct {
	net     network.NeuralNet
	trainer *network.Trainer
	target  *G.Node
}

// TD3 implements the Twin Delayed Deep Deterministic policy gradient
// algorithm. Two action value functions are regressed towards
//
//	R + γ min(Q1'(S', A'), Q2'(S', A'))
//
// where A' is the target policy's action in S' with clipped Gaussian
// smoothing noise. Every PolicyTargetUpdateInterval updates, the policy
// ascends Q1(S, π(S)) and the target networks are moved towards their
// online networks by Polyak averaging.
type TD3 struct {
	behaviour    *policy.Deterministic // Selects actions, batch size 1
	trainPolicy  *policy.Deterministic
	policyQ1     network.NeuralNet // Copy of Q1 on the train policy's actions
	policyTrain  *network.Trainer
	targetPolicy *policy.Deterministic

	q1, q2             critic
	targetQ1, targetQ2 *network.Predictor

	replay expreplay.ExperienceReplayer

	features   int
	actionDims int
	batchSize  int

	updateItr      int
	updateInterval int
	exploreSteps   int
	rewardScale    float64
	evalNoise      float64
	gamma          float64
	tau            float64

	steps   int
	updates int

	prevStep ts.TimeStep
}

// New creates and returns a new TD3 agent
func New(env environment.Environment, c Config, seed uint64) (*TD3,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	newPolicy := func(batch int, g *G.ExprGraph, prefix string) (
		*policy.Deterministic, error) {
		return policy.NewDeterministic(env, batch, g, c.Layers, c.Biases,
			c.Activations, c.InitWFn.InitWFn(), c.ActionRange,
			c.ExploreNoiseScale, prefix, seed)
	}

	// Policies
	behaviour, err := newPolicy(1, G.NewGraph(), "policy")
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %v",
			err)
	}
	policyGraph := G.NewGraph()
	trainPolicy, err := newPolicy(c.BatchSize, policyGraph, "policy")
	if err != nil {
		return nil, fmt.Errorf("new: could not create train policy: %v", err)
	}
	targetPolicy, err := newPolicy(c.BatchSize, G.NewGraph(), "targetPolicy")
	if err != nil {
		return nil, fmt.Errorf("new: could not create target policy: %v",
			err)
	}
	for _, p := range []*policy.Deterministic{behaviour, targetPolicy} {
		if err := p.Network().Set(trainPolicy.Network()); err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
	}

	// Action value functions
	features := env.ObservationSpec().Shape.Len()
	actionDims := env.ActionSpec().Shape.Len()
	newQ := func(prefix string) (network.NeuralNet, error) {
		return network.NewMLP(features+actionDims, c.BatchSize, 1,
			G.NewGraph(), c.Layers, c.Biases, c.InitWFn.InitWFn(),
			c.Activations, prefix)
	}

	q1, err := newCritic(newQ, "q1", c)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	q2, err := newCritic(newQ, "q2", c)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	targetQ1, err := newTarget(newQ, "targetQ1", q1.net)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	targetQ2, err := newTarget(newQ, "targetQ2", q2.net)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	// Policy loss -mean(Q1(S, π(S))) through a copy of Q1 whose input
	// is the train policy's state input and actions
	mlp, ok := trainPolicy.Network().(*network.MLP)
	if !ok {
		return nil, fmt.Errorf("new: policy network must be an MLP")
	}
	policyQ1, err := q1.net.CloneWithInputTo(1, []*G.Node{mlp.Input(),
		trainPolicy.ActionNode()}, policyGraph, "policyQ1")
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy loss: %v", err)
	}
	loss := G.Must(G.Neg(G.Must(G.Mean(policyQ1.Prediction()))))
	policyTrain, err := network.NewTrainer(trainPolicy.Network(), loss,
		c.PolicySolver.Reset())
	if err != nil {
		return nil, fmt.Errorf("new: policy: %v", err)
	}

	replay, err := expreplay.NewUniform(c.BatchSize, c.ReplayBufferCapacity,
		features, actionDims, c.BatchSize, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create replay buffer: %v",
			err)
	}

	return &TD3{
		behaviour:      behaviour,
		trainPolicy:    trainPolicy,
		policyQ1:       policyQ1,
		policyTrain:    policyTrain,
		targetPolicy:   targetPolicy,
		q1:             q1,
		q2:             q2,
		targetQ1:       targetQ1,
		targetQ2:       targetQ2,
		replay:         replay,
		features:       features,
		actionDims:     actionDims,
		batchSize:      c.BatchSize,
		updateItr:      c.UpdateItr,
		updateInterval: c.PolicyTargetUpdateInterval,
		exploreSteps:   c.ExploreSteps,
		rewardScale:    c.RewardScale,
		evalNoise:      c.EvalNoiseScale,
		gamma:          c.Gamma,
		tau:            c.Tau,
	}, nil
}

// newCritic returns an action value function trained to minimize the
// mean squared error to a target node
func newCritic(newQ func(string) (network.NeuralNet, error), prefix string,
	c Config) (critic, error) {
	net, err := newQ(prefix)
	if err != nil {
		return critic{}, fmt.Errorf("could not create %v: %v", prefix, err)
	}

	target := G.NewMatrix(net.Graph(), tensor.Float64,
		G.WithName(prefix+"Target"), G.WithShape(c.BatchSize, 1),
		G.WithInit(G.Zeroes()))
	loss := G.Must(G.Sub(net.Prediction(), target))
	loss = G.Must(G.Mean(G.Must(G.Square(loss))))

	trainer, err := network.NewTrainer(net, loss, c.QSolver.Reset())
	if err != nil {
		return critic{}, fmt.Errorf("%v: %v", prefix, err)
	}
	return critic{net: net, trainer: trainer, target: target}, nil
}

// newTarget returns a predictor of a target network with the weights
// of source
func newTarget(newQ func(string) (network.NeuralNet, error), prefix string,
	source network.NeuralNet) (*network.Predictor, error) {
	net, err := newQ(prefix)
	if err != nil {
		return nil, fmt.Errorf("could not create %v: %v", prefix, err)
	}
	if err := net.Set(source); err != nil {
		return nil, fmt.Errorf("%v: %v", prefix, err)
	}
	return network.NewPredictor(net, nil)
}

// ObserveFirst observes and records the first timestep in an episode
func (t *TD3) ObserveFirst(step ts.TimeStep) error {
	if !step.First() {
		agent.Warnf("ObserveFirst() should only be called on the first "+
			"timestep (current timestep = %d)", step.Number)
	}
	t.prevStep = step
	return nil
}

// Observe adds the transition from the previous timestep to nextStep
// to the replay buffer
func (t *TD3) Observe(action *mat.VecDense, nextStep ts.TimeStep) error {
	if !t.IsEval() {
		transition := ts.NewTransition(t.prevStep, action, nextStep, nil)
		if err := t.replay.Add(transition); err != nil {
			return fmt.Errorf("observe: %v", err)
		}
	}
	t.prevStep = nextStep
	return nil
}

// Step runs UpdateItr updates once the replay buffer holds a batch
func (t *TD3) Step() error {
	if t.IsEval() {
		return nil
	}
	t.steps++

	if t.replay.Len() <= t.batchSize {
		return nil
	}
	for i := 0; i < t.updateItr; i++ {
		if err := t.update(); err != nil {
			return fmt.Errorf("step: %v", err)
		}
	}
	return nil
}

// update updates the action value functions on a batch from the replay
// buffer, followed by the policy and target networks when due
func (t *TD3) update() error {
	batch, err := t.replay.Sample()
	if err != nil {
		return err
	}

	rewards := append([]float64{}, batch.Reward...)
	floatutils.Normalize(rewards, rewardEps)
	for i := range rewards {
		rewards[i] *= t.rewardScale
	}

	targets, err := t.updateTargets(batch, rewards)
	if err != nil {
		return err
	}

	input := concatRows(batch.State, t.features, batch.Action, t.actionDims)
	for _, q := range []critic{t.q1, t.q2} {
		if err := G.Let(q.target, tensor.New(
			tensor.WithShape(t.batchSize, 1),
			tensor.WithBacking(targets),
		)); err != nil {
			return fmt.Errorf("could not set targets: %v", err)
		}
		if err := q.net.SetInput(input); err != nil {
			return err
		}
		if err := q.trainer.Step(); err != nil {
			return err
		}
	}

	t.updates++
	if t.updates%t.updateInterval != 0 {
		return nil
	}

	// Delayed policy and target updates
	if err := t.policyQ1.Set(t.q1.net); err != nil {
		return err
	}
	if err := t.trainPolicy.Network().SetInput(batch.State); err != nil {
		return err
	}
	if err := t.policyTrain.Step(); err != nil {
		return fmt.Errorf("policy: %v", err)
	}
	if err := t.behaviour.Network().Set(t.trainPolicy.Network()); err != nil {
		return err
	}

	return t.polyak()
}

// updateTargets returns the update targets of a batch of transitions
// with rewards replaced by normalized rewards
func (t *TD3) updateTargets(batch expreplay.Batch,
	rewards []float64) ([]float64, error) {
	nextActions, err := t.targetPolicy.Actions(batch.NextState)
	if err != nil {
		return nil, err
	}
	for i := range nextActions {
		nextActions[i] += t.targetPolicy.Noise(t.evalNoise, 2*t.evalNoise)
	}
	t.targetPolicy.Clip(nextActions)

	input := concatRows(batch.NextState, t.features, nextActions,
		t.actionDims)
	q1, err := t.targetQ1.Predict(input)
	if err != nil {
		return nil, err
	}
	q2, err := t.targetQ2.Predict(input)
	if err != nil {
		return nil, err
	}

	targets := make([]float64, t.batchSize)
	for i := range targets {
		targets[i] = rewards[i] + t.gamma*batch.Discount[i]*
			math.Min(q1[i], q2[i])
	}
	return targets, nil
}

// polyak moves each target network towards its online network
func (t *TD3) polyak() error {
	pairs := []struct{ target, source network.NeuralNet }{
		{t.targetQ1.Network(), t.q1.net},
		{t.targetQ2.Network(), t.q2.net},
		{t.targetPolicy.Network(), t.trainPolicy.Network()},
	}
	for _, pair := range pairs {
		if err := pair.target.Polyak(pair.source, t.tau); err != nil {
			return fmt.Errorf("polyak: %v", err)
		}
	}
	return nil
}

// concatRows concatenates the rows of two row-major matrices with the
// same number of rows
func concatRows(a []float64, aCols int, b []float64, bCols int) []float64 {
	rows := len(a) / aCols
	out := make([]float64, 0, rows*(aCols+bCols))
	for i := 0; i < rows; i++ {
		out = append(out, a[i*aCols:(i+1)*aCols]...)
		out = append(out, b[i*bCols:(i+1)*bCols]...)
	}
	return out
}

// EndEpisode is a no-op since TD3 updates after each step
func (t *TD3) EndEpisode() error { return nil }

// SelectAction selects an action at timestep step. During the first
// ExploreSteps training steps, actions are uniform random.
func (t *TD3) SelectAction(step ts.TimeStep) *mat.VecDense {
	if !t.IsEval() && t.steps < t.exploreSteps {
		return t.behaviour.RandomAction()
	}
	return t.behaviour.SelectAction(step)
}

// Eval sets the agent to evaluation mode
func (t *TD3) Eval() { t.behaviour.Eval() }

// Train sets the agent to training mode
func (t *TD3) Train() { t.behaviour.Train() }

// IsEval returns whether the agent is in evaluation mode
func (t *TD3) IsEval() bool { return t.behaviour.IsEval() }

// checkpoint returns the networks saved by the agent
func (t *TD3) checkpoint() agent.Checkpoint {
	return agent.Checkpoint{
		Q1File:           t.q1.net,
		Q2File:           t.q2.net,
		TargetQ1File:     t.targetQ1.Network(),
		TargetQ2File:     t.targetQ2.Network(),
		PolicyFile:       t.trainPolicy.Network(),
		TargetPolicyFile: t.targetPolicy.Network(),
	}
}

// Save saves all networks to dir
func (t *TD3) Save(dir string) error {
	return t.checkpoint().Save(dir)
}

// Load loads all networks from dir
func (t *TD3) Load(dir string) error {
	if err := t.checkpoint().Load(dir); err != nil {
		return err
	}
	return t.behaviour.Network().Set(t.trainPolicy.Network())
}
