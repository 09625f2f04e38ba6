// Package dqn implements the Deep Q-Network algorithm with optional
// double Q-learning, dueling networks, and prioritized experience
// replay
package dqn

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/rlzoo/agent"
	"github.com/samuelfneumann/rlzoo/agent/policy"
	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/expreplay"
	"github.com/samuelfneumann/rlzoo/network"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Checkpoint file names
const QNetFile = "dqn_q_net"

// priorityEps is added to absolute TD errors to give priorities
const priorityEps = 1e-6

// DQN implements the Deep Q-Network algorithm. Transitions are stored
// in a replay buffer, and every TrainFreq steps a batch is sampled to
// minimize the (importance weighted) Huber loss between Q(S, A) and the
// target
//
//	R + γ Q_target(S', argmax_a Q(S', a))   with double Q-learning
//	R + γ max_a Q_target(S', a)             otherwise
//
// The target network is a hard copy of the online network, refreshed
// every TargetNetworkUpdateFreq steps.
type DQN struct {
	behaviour *policy.EGreedy

	trainNet network.NeuralNet
	trainer  *network.Trainer
	online   *network.Predictor // Batch Q(S', ·) for double Q-learning
	target   *network.Predictor // Batch Q_target(S', ·)

	actions  *G.Node // One-hot actions of the batch
	targets  *G.Node
	weights  *G.Node // Importance sampling weights
	tdErrors G.Value

	replay      expreplay.ExperienceReplayer
	prioritized *expreplay.Prioritized // Nil without prioritized replay

	numActions int
	batchSize  int
	gamma      float64
	doubleQ    bool

	steps            int
	explorationSteps float64
	finalEps         float64
	totalSteps       int
	beta0            float64
	trainFreq        int
	learningStarts   int
	targetUpdateFreq int

	prevStep ts.TimeStep
}

// New creates and returns a new DQN agent
func New(env environment.Environment, c Config, seed uint64) (*DQN,
	error) {
	if env.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("new: cannot use non-discrete actions")
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	features := env.ObservationSpec().Shape.Len()
	numActions := env.ActionSpec().NumActions()
	outputs := numActions
	if c.Dueling {
		outputs++
	}
	newNet := func(batch int, prefix string) (network.NeuralNet, *G.Node,
		error) {
		net, err := network.NewMLP(features, batch, outputs, G.NewGraph(),
			c.Layers, c.Biases, c.InitWFn.InitWFn(), c.Activations, prefix)
		if err != nil {
			return nil, nil, err
		}
		return net, actionValues(net, numActions, c.Dueling, prefix), nil
	}

	// Behaviour network
	behaviourNet, behaviourQ, err := newNet(1, "q")
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour "+
			"network: %v", err)
	}
	behaviour, err := policy.NewEGreedy(1.0, behaviourNet, behaviourQ, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	// Online and target networks which predict next state action values
	onlineNet, onlineQ, err := newNet(c.BatchSize, "q")
	if err != nil {
		return nil, fmt.Errorf("new: could not create online network: %v",
			err)
	}
	online, err := network.NewPredictor(onlineNet, onlineQ)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	targetNet, targetQ, err := newNet(c.BatchSize, "targetQ")
	if err != nil {
		return nil, fmt.Errorf("new: could not create target network: %v",
			err)
	}
	target, err := network.NewPredictor(targetNet, targetQ)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	// Network which learns the weights
	trainNet, trainQ, err := newNet(c.BatchSize, "q")
	if err != nil {
		return nil, fmt.Errorf("new: could not create train network: %v",
			err)
	}
	for _, net := range []network.NeuralNet{behaviourNet, onlineNet,
		targetNet} {
		if err := net.Set(trainNet); err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
	}

	g := trainNet.Graph()
	actions := G.NewMatrix(g, tensor.Float64, G.WithName("actions"),
		G.WithShape(c.BatchSize, numActions), G.WithInit(G.Zeroes()))
	targets := G.NewVector(g, tensor.Float64, G.WithName("targets"),
		G.WithShape(c.BatchSize), G.WithInit(G.Zeroes()))
	weights := G.NewVector(g, tensor.Float64, G.WithName("weights"),
		G.WithShape(c.BatchSize), G.WithInit(G.Zeroes()))

	selected := G.Must(G.HadamardProd(trainQ, actions))
	selected = G.Must(G.Sum(selected, 1))
	tdErrors := G.Must(G.Sub(targets, selected))

	loss := G.Must(G.HadamardProd(weights, huber(tdErrors)))
	loss = G.Must(G.Mean(loss))

	d := &DQN{
		behaviour:        behaviour,
		trainNet:         trainNet,
		online:           online,
		target:           target,
		actions:          actions,
		targets:          targets,
		weights:          weights,
		numActions:       numActions,
		batchSize:        c.BatchSize,
		gamma:            c.Gamma,
		doubleQ:          c.DoubleQ,
		explorationSteps: c.ExplorationRate * float64(c.TotalSteps),
		finalEps:         c.ExplorationFinalEps,
		totalSteps:       c.TotalSteps,
		beta0:            c.PrioritizedBeta0,
		trainFreq:        c.TrainFreq,
		learningStarts:   c.LearningStarts,
		targetUpdateFreq: c.TargetNetworkUpdateFreq,
	}
	G.Read(tdErrors, &d.tdErrors)

	d.trainer, err = network.NewTrainer(trainNet, loss, c.Solver.Reset())
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	// The replay buffer stores action indices
	d.replay, err = c.replay().Create(features, 1, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create replay buffer: %v",
			err)
	}
	if c.PrioritizedReplay {
		d.prioritized = d.replay.(*expreplay.Prioritized)
	}

	return d, nil
}

// actionValues adds nodes to compute the action values from the
// prediction of net. With a dueling architecture the network predicts
// a state value v followed by n advantages a, and
//
//	Q(s, i) = v + a_i - mean(a)
//
// is computed by multiplying with a constant (n+1, n) matrix.
func actionValues(net network.NeuralNet, n int, dueling bool,
	prefix string) *G.Node {
	if !dueling {
		return net.Prediction()
	}

	data := make([]float64, (n+1)*n)
	for j := 0; j < n; j++ {
		data[j] = 1.0
		for i := 0; i < n; i++ {
			data[(i+1)*n+j] = -1.0 / float64(n)
		}
		data[(j+1)*n+j] += 1.0
	}
	combine := G.NewConstant(
		tensor.New(tensor.WithShape(n+1, n), tensor.WithBacking(data)),
		G.WithName(prefix+"Dueling"),
	)
	return G.Must(G.Mul(net.Prediction(), combine))
}

// huber adds nodes to compute the element-wise Huber loss with
// threshold 1:
//
//	0.5 x²         if |x| <= 1
//	|x| - 0.5      otherwise
func huber(x *G.Node) *G.Node {
	abs := G.Must(G.Abs(x))
	excess := G.Must(G.Rectify(G.Must(G.Sub(abs, G.NewConstant(1.0)))))
	quadratic := G.Must(G.Sub(abs, excess))

	loss := G.Must(G.Square(quadratic))
	loss = G.Must(G.HadamardProd(loss, G.NewConstant(0.5)))
	return G.Must(G.Add(loss, excess))
}

// ObserveFirst observes and records the first timestep in an episode
func (d *DQN) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		agent.Warnf("ObserveFirst() should only be called on the first "+
			"timestep (current timestep = %d)", t.Number)
	}
	d.prevStep = t
	return nil
}

// Observe adds the transition from the previous timestep to nextStep
// to the replay buffer
func (d *DQN) Observe(action *mat.VecDense, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: value-based methods cannot have "+
			"multi-dimensional actions (action dim = %d)", action.Len())
	}

	if !d.IsEval() {
		transition := ts.NewTransition(d.prevStep, action, nextStep, nil)
		if err := d.replay.Add(transition); err != nil {
			return fmt.Errorf("observe: %v", err)
		}
	}
	d.prevStep = nextStep
	return nil
}

// Step advances the exploration and importance sampling schedules, and
// updates the online and target networks when they are due
func (d *DQN) Step() error {
	if d.IsEval() {
		return nil
	}
	d.steps++

	frac := 1.0
	if d.explorationSteps > 0 {
		frac = math.Min(1.0, float64(d.steps)/d.explorationSteps)
	}
	d.behaviour.SetEpsilon(1.0 + frac*(d.finalEps-1.0))

	if d.prioritized != nil {
		frac := math.Min(1.0, float64(d.steps)/float64(d.totalSteps))
		d.prioritized.SetBeta(d.beta0 + frac*(1.0-d.beta0))
	}

	if d.steps > d.learningStarts && d.steps%d.trainFreq == 0 {
		if err := d.train(); err != nil {
			return fmt.Errorf("step: %v", err)
		}
	}

	if d.steps%d.targetUpdateFreq == 0 {
		if err := d.target.Network().Set(d.trainNet); err != nil {
			return fmt.Errorf("step: could not update target network: %v",
				err)
		}
	}
	return nil
}

// train takes a single gradient step on a batch sampled from the
// replay buffer
func (d *DQN) train() error {
	batch, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return err
	}

	targets, err := d.updateTargets(batch)
	if err != nil {
		return err
	}

	oneHot := make([]float64, d.batchSize*d.numActions)
	for i, a := range batch.Action {
		oneHot[i*d.numActions+int(a)] = 1.0
	}

	if err := G.Let(d.actions, tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(oneHot),
	)); err != nil {
		return fmt.Errorf("could not set actions: %v", err)
	}
	if err := G.Let(d.targets, tensor.New(
		tensor.WithShape(d.batchSize),
		tensor.WithBacking(targets),
	)); err != nil {
		return fmt.Errorf("could not set targets: %v", err)
	}
	if err := G.Let(d.weights, tensor.New(
		tensor.WithShape(d.batchSize),
		tensor.WithBacking(batch.Weights),
	)); err != nil {
		return fmt.Errorf("could not set weights: %v", err)
	}
	if err := d.trainNet.SetInput(batch.State); err != nil {
		return err
	}

	if err := d.trainer.Step(); err != nil {
		return err
	}

	if d.prioritized != nil {
		priorities := append([]float64{}, network.Values(d.tdErrors)...)
		for i := range priorities {
			priorities[i] = math.Abs(priorities[i]) + priorityEps
		}
		if err := d.prioritized.UpdatePriorities(batch.Indices,
			priorities); err != nil {
			return err
		}
	}

	if err := d.online.Network().Set(d.trainNet); err != nil {
		return err
	}
	return d.behaviour.Network().Set(d.trainNet)
}

// updateTargets returns the update targets of a batch of transitions
func (d *DQN) updateTargets(batch expreplay.Batch) ([]float64, error) {
	nextValues, err := d.target.Predict(batch.NextState)
	if err != nil {
		return nil, err
	}

	var onlineValues []float64
	if d.doubleQ {
		onlineValues, err = d.online.Predict(batch.NextState)
		if err != nil {
			return nil, err
		}
	}

	targets := make([]float64, d.batchSize)
	for i := range targets {
		row := nextValues[i*d.numActions : (i+1)*d.numActions]

		var next float64
		if d.doubleQ {
			onlineRow := onlineValues[i*d.numActions : (i+1)*d.numActions]
			next = row[floats.MaxIdx(onlineRow)]
		} else {
			next = floats.Max(row)
		}
		targets[i] = batch.Reward[i] + d.gamma*batch.Discount[i]*next
	}
	return targets, nil
}

// EndEpisode is a no-op since DQN updates after each step
func (d *DQN) EndEpisode() error { return nil }

// SelectAction selects an action at timestep t
func (d *DQN) SelectAction(t ts.TimeStep) *mat.VecDense {
	return d.behaviour.SelectAction(t)
}

// Epsilon returns the current exploration probability
func (d *DQN) Epsilon() float64 { return d.behaviour.Epsilon() }

// Eval sets the agent to evaluation mode
func (d *DQN) Eval() { d.behaviour.Eval() }

// Train sets the agent to training mode
func (d *DQN) Train() { d.behaviour.Train() }

// IsEval returns whether the agent is in evaluation mode
func (d *DQN) IsEval() bool { return d.behaviour.IsEval() }

// Save saves the Q network to dir
func (d *DQN) Save(dir string) error {
	return agent.Checkpoint{QNetFile: d.trainNet}.Save(dir)
}

// Load loads the Q network from dir. The target network is set to the
// loaded weights.
func (d *DQN) Load(dir string) error {
	if err := (agent.Checkpoint{QNetFile: d.trainNet}).Load(dir); err != nil {
		return err
	}
	for _, net := range []network.NeuralNet{d.behaviour.Network(),
		d.online.Network(), d.target.Network()} {
		if err := net.Set(d.trainNet); err != nil {
			return fmt.Errorf("load: %v", err)
		}
	}
	return nil
}
