package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/timestep"
	"github.com/samuelfneumann/rlzoo/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Bounds on the log standard deviation of Gaussian policies
const (
	LogStdMin float64 = -20.0
	LogStdMax float64 = 2.0
)

// Gaussian implements a Gaussian policy with diagonal covariance over
// continuous actions. An MLP predicts 2N values for N dimensional
// actions. The first N are squashed with tanh to give the mean of the
// policy, and the last N are squashed with tanh into
// [LogStdMin, LogStdMax] to give the log standard deviation.
//
// In training mode actions are sampled from the policy and clipped to
// the action bounds of the environment. In evaluation mode the mean
// action is selected.
type Gaussian struct {
	net       network.NeuralNet
	predictor *network.Predictor

	params  *G.Node // [mean, std] concatenated along columns
	actions *G.Node
	logPdf  *G.Node

	actionDims int
	minAction  []float64
	maxAction  []float64
	eval       bool

	normal distuv.Normal
}

// NewGaussian returns a new Gaussian policy for environment env, which
// must have continuous actions. The policy's network is built into
// graph g with all node names prefixed by prefix.
func NewGaussian(env environment.Environment, batch int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, activations []*network.Activation,
	init G.InitWFn, prefix string, seed uint64) (*Gaussian, error) {
	if env.ActionSpec().Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newGaussian: actions should be continuous")
	}

	features := env.ObservationSpec().Shape.Len()
	actionDims := env.ActionSpec().Shape.Len()

	net, err := network.NewMLP(features, batch, 2*actionDims, g,
		hiddenSizes, biases, init, activations, prefix)
	if err != nil {
		return nil, fmt.Errorf("newGaussian: could not create policy "+
			"network: %v", err)
	}

	// Split the network prediction into the mean and log standard
	// deviation by multiplying with constant selection matrices
	meanSelect, logStdSelect := selectors(actionDims, prefix)
	mean := G.Must(G.Mul(net.Prediction(), meanSelect))
	mean = G.Must(G.Tanh(mean))

	logStd := G.Must(G.Mul(net.Prediction(), logStdSelect))
	logStd = G.Must(G.Tanh(logStd))
	logStd = G.Must(G.Add(logStd, G.NewConstant(1.0)))
	logStd = G.Must(G.HadamardProd(logStd,
		G.NewConstant((LogStdMax-LogStdMin)/2.0)))
	logStd = G.Must(G.Add(logStd, G.NewConstant(LogStdMin)))
	std := G.Must(G.Exp(logStd))

	actions := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithName(prefix+"Actions"),
		G.WithShape(batch, actionDims),
		G.WithInit(G.Zeroes()),
	)

	source := rand.NewSource(seed)
	return &Gaussian{
		net:        net,
		params:     G.Must(G.Concat(1, mean, std)),
		actions:    actions,
		logPdf:     logPdf(mean, std, logStd, actions),
		actionDims: actionDims,
		minAction:  env.ActionSpec().LowerBound.RawVector().Data,
		maxAction:  env.ActionSpec().UpperBound.RawVector().Data,
		normal:     distuv.Normal{Mu: 0, Sigma: 1, Src: source},
	}, nil
}

// selectors returns constant matrices which select the first and last
// n columns of a matrix with 2n columns
func selectors(n int, prefix string) (first, last *G.Node) {
	firstData := make([]float64, 2*n*n)
	lastData := make([]float64, 2*n*n)
	for i := 0; i < n; i++ {
		firstData[i*n+i] = 1.0
		lastData[(n+i)*n+i] = 1.0
	}

	first = G.NewConstant(
		tensor.New(tensor.WithShape(2*n, n), tensor.WithBacking(firstData)),
		G.WithName(prefix+"SelectFirst"),
	)
	last = G.NewConstant(
		tensor.New(tensor.WithShape(2*n, n), tensor.WithBacking(lastData)),
		G.WithName(prefix+"SelectLast"),
	)
	return first, last
}

// logPdf adds nodes to compute the log density of a diagonal Gaussian
// for each row of actions, summed over action dimensions
func logPdf(mean, std, logStd, actions *G.Node) *G.Node {
	z := G.Must(G.Sub(actions, mean))
	z = G.Must(G.HadamardDiv(z, std))
	z = G.Must(G.Square(z))
	z = G.Must(G.HadamardProd(z, G.NewConstant(-0.5)))

	z = G.Must(G.Sub(z, logStd))
	z = G.Must(G.Sub(z, G.NewConstant(0.5*math.Log(2*math.Pi))))

	return G.Must(G.Sum(z, 1))
}

// SelectAction selects an action at timestep t
func (g *Gaussian) SelectAction(t timestep.TimeStep) *mat.VecDense {
	params, err := predict(&g.predictor, g.net, g.params, t)
	if err != nil {
		panic(fmt.Sprintf("selectAction: %v", err))
	}
	mean, std := params[:g.actionDims], params[g.actionDims:]

	action := make([]float64, g.actionDims)
	for i := range action {
		action[i] = mean[i]
		if !g.eval {
			action[i] += std[i] * g.normal.Rand()
		}
		action[i] = floatutils.Clip(action[i], g.minAction[i], g.maxAction[i])
	}
	return mat.NewVecDense(g.actionDims, action)
}

// LogPdfOf sets the inputs of the policy's graph so that the node
// returned by LogPdfNode computes the log probability of actions a
// taken in states s.
func (g *Gaussian) LogPdfOf(s, a []float64) (*G.Node, error) {
	batch := g.net.BatchSize()
	if len(a) != batch*g.actionDims {
		return nil, fmt.Errorf("logPdfOf: expected %v action values but "+
			"got %v", batch*g.actionDims, len(a))
	}
	if err := g.net.SetInput(s); err != nil {
		return nil, fmt.Errorf("logPdfOf: %v", err)
	}

	actions := tensor.New(
		tensor.WithShape(batch, g.actionDims),
		tensor.WithBacking(a),
	)
	if err := G.Let(g.actions, actions); err != nil {
		return nil, fmt.Errorf("logPdfOf: could not set actions: %v", err)
	}

	return g.logPdf, nil
}

// LogPdfNode returns the node that computes the log probability of
// actions set with LogPdfOf
func (g *Gaussian) LogPdfNode() *G.Node { return g.logPdf }

// Network returns the network of the policy
func (g *Gaussian) Network() network.NeuralNet { return g.net }

// Eval sets the policy to evaluation mode
func (g *Gaussian) Eval() { g.eval = true }

// Train sets the policy to training mode
func (g *Gaussian) Train() { g.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (g *Gaussian) IsEval() bool { return g.eval }
