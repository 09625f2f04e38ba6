// Package policy implements policies which use neural network function
// approximation in Gorgonia.
package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/timestep"
	"github.com/samuelfneumann/rlzoo/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Categorical implements a softmax policy over discrete actions. An
// MLP predicts one logit for each action and the probability of
// selecting action a is softmax(logits)[a].
//
// In training mode actions are sampled from the softmax distribution.
// In evaluation mode the action with the largest logit is selected,
// breaking ties randomly.
//
// A Categorical policy with batch size B can calculate the log
// probability of B actions at once using LogPdfOf, but can only select
// actions with SelectAction if B = 1.
type Categorical struct {
	net       network.NeuralNet
	predictor *network.Predictor

	logits  *G.Node
	actions *G.Node // One-hot actions for LogPdfOf
	logPdf  *G.Node

	numActions int
	eval       bool

	source rand.Source
	rng    *rand.Rand
}

// NewCategorical returns a new Categorical policy for environment env,
// which must have discrete actions. The policy's network is built into
// graph g with all node names prefixed by prefix.
func NewCategorical(env environment.Environment, batch int,
	g *G.ExprGraph, hiddenSizes []int, biases []bool,
	activations []*network.Activation, init G.InitWFn, prefix string,
	seed uint64) (*Categorical, error) {
	if env.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("newCategorical: softmax policy cannot be " +
			"used with continuous actions")
	}

	features := env.ObservationSpec().Shape.Len()
	numActions := env.ActionSpec().NumActions()

	net, err := network.NewMLP(features, batch, numActions, g, hiddenSizes,
		biases, init, activations, prefix)
	if err != nil {
		return nil, fmt.Errorf("newCategorical: could not create policy "+
			"network: %v", err)
	}
	logits := net.Prediction()

	// Log probability of actions inputted with LogPdfOf
	actions := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(logits.Shape()...),
		G.WithInit(G.Zeroes()),
		G.WithName(prefix+"Actions"),
	)
	selected := G.Must(G.HadamardProd(actions, logits))
	selected = G.Must(G.Sum(selected, 1))
	logPdf := G.Must(G.Sub(selected, LogSumExp(logits, 1)))

	source := rand.NewSource(seed)
	return &Categorical{
		net:        net,
		logits:     logits,
		actions:    actions,
		logPdf:     logPdf,
		numActions: numActions,
		source:     source,
		rng:        rand.New(source),
	}, nil
}

// LogSumExp adds nodes to compute log(Σ exp(logits)) along an axis.
// The maximum logit is subtracted before exponentiating.
func LogSumExp(logits *G.Node, along int) *G.Node {
	max := G.Must(G.Max(logits, along))

	exponent := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}

// SelectAction selects an action at timestep t
func (c *Categorical) SelectAction(t timestep.TimeStep) *mat.VecDense {
	logits, err := predict(&c.predictor, c.net, nil, t)
	if err != nil {
		panic(fmt.Sprintf("selectAction: %v", err))
	}

	var action int
	if c.eval {
		action = ArgMax(logits, c.rng)
	} else {
		action = int(distuv.NewCategorical(Softmax(logits), c.source).Rand())
	}
	return mat.NewVecDense(1, []float64{float64(action)})
}

// LogPdfOf sets the inputs of the policy's graph so that the node
// returned by LogPdfNode computes the log probability of the discrete
// actions a taken in states s.
func (c *Categorical) LogPdfOf(s, a []float64) (*G.Node, error) {
	batch := c.net.BatchSize()
	if len(a) != batch {
		return nil, fmt.Errorf("logPdfOf: expected %v actions but got %v",
			batch, len(a))
	}
	if err := c.net.SetInput(s); err != nil {
		return nil, fmt.Errorf("logPdfOf: %v", err)
	}

	oneHot := make([]float64, batch*c.numActions)
	for i := range a {
		action := int(a[i])
		if action < 0 || action >= c.numActions {
			return nil, fmt.Errorf("logPdfOf: illegal action %v", action)
		}
		oneHot[i*c.numActions+action] = 1.0
	}
	oneHotTensor := tensor.New(
		tensor.WithShape(batch, c.numActions),
		tensor.WithBacking(oneHot),
	)
	if err := G.Let(c.actions, oneHotTensor); err != nil {
		return nil, fmt.Errorf("logPdfOf: could not set actions: %v", err)
	}

	return c.logPdf, nil
}

// LogPdfNode returns the node that computes the log probability of
// actions set with LogPdfOf
func (c *Categorical) LogPdfNode() *G.Node { return c.logPdf }

// Network returns the network of the policy
func (c *Categorical) Network() network.NeuralNet { return c.net }

// Eval sets the policy to evaluation mode
func (c *Categorical) Eval() { c.eval = true }

// Train sets the policy to training mode
func (c *Categorical) Train() { c.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (c *Categorical) IsEval() bool { return c.eval }

// Softmax returns the softmax of logits
func Softmax(logits []float64) []float64 {
	lse := floats.LogSumExp(logits)
	probs := make([]float64, len(logits))
	for i := range logits {
		probs[i] = math.Exp(logits[i] - lse)
	}
	return probs
}

// ArgMax returns the index of the largest value in values. Ties are
// broken randomly with rng.
func ArgMax(values []float64, rng *rand.Rand) int {
	_, indices := floatutils.MaxSlice(values)
	return indices[rng.Intn(len(indices))]
}

// predict runs the forward pass of net on the observation of t, lazily
// creating the predictor of out
func predict(p **network.Predictor, net network.NeuralNet, out *G.Node,
	t timestep.TimeStep) ([]float64, error) {
	if net.BatchSize() != 1 {
		return nil, fmt.Errorf("cannot select actions with batch size %v",
			net.BatchSize())
	}
	return forward(p, net, out, t.Observation.RawVector().Data)
}

// forward runs the forward pass of net on input, lazily creating the
// predictor of out
func forward(p **network.Predictor, net network.NeuralNet, out *G.Node,
	input []float64) ([]float64, error) {
	if *p == nil {
		predictor, err := network.NewPredictor(net, out)
		if err != nil {
			return nil, err
		}
		*p = predictor
	}
	return (*p).Predict(input)
}
