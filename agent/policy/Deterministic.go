package policy

import (
	"fmt"

	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/timestep"
	"github.com/samuelfneumann/rlzoo/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
)

// Deterministic implements a deterministic policy over continuous
// actions:
//
//	π(s) = actionRange * tanh(MLP(s))
//
// In training mode Gaussian noise with standard deviation noiseScale
// is added to actions, which are then clipped to
// [-actionRange, actionRange]. In evaluation mode no noise is added.
type Deterministic struct {
	net       network.NeuralNet
	predictor *network.Predictor
	action    *G.Node

	actionDims  int
	actionRange float64
	noiseScale  float64
	eval        bool

	normal  distuv.Normal
	uniform distuv.Uniform
}

// NewDeterministic returns a new Deterministic policy for environment
// env, which must have continuous actions. The policy's network is
// built into graph g with all node names prefixed by prefix.
func NewDeterministic(env environment.Environment, batch int,
	g *G.ExprGraph, hiddenSizes []int, biases []bool,
	activations []*network.Activation, init G.InitWFn, actionRange,
	noiseScale float64, prefix string, seed uint64) (*Deterministic,
	error) {
	if env.ActionSpec().Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newDeterministic: actions should be " +
			"continuous")
	}
	if actionRange <= 0 {
		return nil, fmt.Errorf("newDeterministic: action range must be "+
			"positive but got %v", actionRange)
	}

	features := env.ObservationSpec().Shape.Len()
	actionDims := env.ActionSpec().Shape.Len()

	net, err := network.NewMLP(features, batch, actionDims, g, hiddenSizes,
		biases, init, activations, prefix)
	if err != nil {
		return nil, fmt.Errorf("newDeterministic: could not create policy "+
			"network: %v", err)
	}

	action := G.Must(G.Tanh(net.Prediction()))
	action = G.Must(G.HadamardProd(action, G.NewConstant(actionRange)))

	source := rand.NewSource(seed)
	return &Deterministic{
		net:         net,
		action:      action,
		actionDims:  actionDims,
		actionRange: actionRange,
		noiseScale:  noiseScale,
		normal:      distuv.Normal{Mu: 0, Sigma: 1, Src: source},
		uniform:     distuv.Uniform{Min: -actionRange, Max: actionRange, Src: source},
	}, nil
}

// SelectAction selects an action at timestep t
func (d *Deterministic) SelectAction(t timestep.TimeStep) *mat.VecDense {
	action, err := predict(&d.predictor, d.net, d.action, t)
	if err != nil {
		panic(fmt.Sprintf("selectAction: %v", err))
	}

	if !d.eval {
		for i := range action {
			action[i] += d.noiseScale * d.normal.Rand()
			action[i] = d.clip(action[i])
		}
	}
	return mat.NewVecDense(d.actionDims, action)
}

// Actions returns the noiseless actions of the policy in a batch of
// states stored in row-major order
func (d *Deterministic) Actions(states []float64) ([]float64, error) {
	return forward(&d.predictor, d.net, d.action, states)
}

// RandomAction returns an action sampled uniformly from
// [-actionRange, actionRange]
func (d *Deterministic) RandomAction() *mat.VecDense {
	action := make([]float64, d.actionDims)
	for i := range action {
		action[i] = d.uniform.Rand()
	}
	return mat.NewVecDense(d.actionDims, action)
}

// Noise returns a sample of Gaussian noise with standard deviation
// scale, clipped to [-clip, clip]
func (d *Deterministic) Noise(scale, clip float64) float64 {
	return floatutils.Clip(scale*d.normal.Rand(), -clip, clip)
}

// clip clips an action to [-actionRange, actionRange]
func (d *Deterministic) clip(a float64) float64 {
	return floatutils.Clip(a, -d.actionRange, d.actionRange)
}

// Clip clips each action in actions to [-actionRange, actionRange]
func (d *Deterministic) Clip(actions []float64) {
	for i := range actions {
		actions[i] = d.clip(actions[i])
	}
}

// ActionNode returns the node which computes the policy's actions
func (d *Deterministic) ActionNode() *G.Node { return d.action }

// ActionRange returns the bound on the magnitude of actions
func (d *Deterministic) ActionRange() float64 { return d.actionRange }

// SetNoiseScale sets the standard deviation of exploration noise
func (d *Deterministic) SetNoiseScale(scale float64) { d.noiseScale = scale }

// Network returns the network of the policy
func (d *Deterministic) Network() network.NeuralNet { return d.net }

// Eval sets the policy to evaluation mode
func (d *Deterministic) Eval() { d.eval = true }

// Train sets the policy to training mode
func (d *Deterministic) Train() { d.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (d *Deterministic) IsEval() bool { return d.eval }
