package policy

import (
	"fmt"

	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// EGreedy implements an epsilon greedy policy over action values
// predicted by a neural network. With probability epsilon a uniform
// random action is selected, otherwise the action of largest value is
// selected, breaking ties randomly. In evaluation mode the policy is
// greedy.
type EGreedy struct {
	net       network.NeuralNet
	predictor *network.Predictor

	epsilon    float64
	numActions int
	eval       bool

	rng *rand.Rand
}

// NewEGreedy returns a new EGreedy policy. The node q holds the action
// values predicted by net and must be a (1, N) matrix in net's graph
// for N actions. If q is nil, the network's prediction is used.
func NewEGreedy(epsilon float64, net network.NeuralNet, q *G.Node,
	seed uint64) (*EGreedy, error) {
	if net.BatchSize() != 1 {
		return nil, fmt.Errorf("newEGreedy: network must have batch size 1")
	}
	if q == nil {
		q = net.Prediction()
	}
	if !q.IsMatrix() || q.Shape()[0] != 1 {
		return nil, fmt.Errorf("newEGreedy: action values must have shape "+
			"(1, N) but got %v", q.Shape())
	}

	predictor, err := network.NewPredictor(net, q)
	if err != nil {
		return nil, fmt.Errorf("newEGreedy: %v", err)
	}

	return &EGreedy{
		net:        net,
		predictor:  predictor,
		epsilon:    epsilon,
		numActions: q.Shape()[1],
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// SelectAction selects an action at timestep t
func (e *EGreedy) SelectAction(t timestep.TimeStep) *mat.VecDense {
	var action int
	if !e.eval && e.rng.Float64() < e.epsilon {
		action = e.rng.Intn(e.numActions)
	} else {
		values, err := e.ActionValues(t.Observation.RawVector().Data)
		if err != nil {
			panic(fmt.Sprintf("selectAction: %v", err))
		}
		action = ArgMax(values, e.rng)
	}
	return mat.NewVecDense(1, []float64{float64(action)})
}

// ActionValues returns the values of each action in state obs
func (e *EGreedy) ActionValues(obs []float64) ([]float64, error) {
	return e.predictor.Predict(obs)
}

// SetEpsilon sets the probability of selecting a random action
func (e *EGreedy) SetEpsilon(epsilon float64) { e.epsilon = epsilon }

// Epsilon returns the probability of selecting a random action
func (e *EGreedy) Epsilon() float64 { return e.epsilon }

// Network returns the network of the policy
func (e *EGreedy) Network() network.NeuralNet { return e.net }

// Eval sets the policy to evaluation mode
func (e *EGreedy) Eval() { e.eval = true }

// Train sets the policy to training mode
func (e *EGreedy) Train() { e.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (e *EGreedy) IsEval() bool { return e.eval }
