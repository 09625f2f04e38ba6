package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Trainer adapts the weights of a NeuralNet by minimizing a scalar
// loss node in the network's graph using a Gorgonia Solver.
//
// The nodes that the loss depends on, other than the network's
// learnables, must be set with G.Let before each call to Step.
type Trainer struct {
	net     NeuralNet
	vm      G.VM
	solver  G.Solver
	loss    *G.Node
	lossVal G.Value
}

// NewTrainer returns a new Trainer which minimizes loss with respect
// to the learnables of net. The gradient nodes are added to the
// network's graph, so no other VM should run the graph afterwards.
func NewTrainer(net NeuralNet, loss *G.Node, solver G.Solver) (*Trainer,
	error) {
	if loss.Graph() != net.Graph() {
		return nil, fmt.Errorf("newTrainer: loss is not in the network's " +
			"graph")
	}
	if !loss.IsScalar() {
		return nil, fmt.Errorf("newTrainer: loss must be a scalar, got "+
			"shape %v", loss.Shape())
	}

	if _, err := G.Grad(loss, net.Learnables()...); err != nil {
		return nil, fmt.Errorf("newTrainer: could not compute gradient: %v",
			err)
	}

	t := &Trainer{
		net:    net,
		solver: solver,
		loss:   loss,
	}
	G.Read(loss, &t.lossVal)
	t.vm = G.NewTapeMachine(net.Graph(),
		G.BindDualValues(net.Learnables()...))

	return t, nil
}

// Step runs the forward and backward passes of the graph and then
// takes a single solver step
func (t *Trainer) Step() error {
	defer t.vm.Reset()

	if err := t.vm.RunAll(); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if err := t.solver.Step(t.net.Model()); err != nil {
		return fmt.Errorf("step: could not step solver: %v", err)
	}
	return nil
}

// Loss returns the loss computed at the last call to Step
func (t *Trainer) Loss() float64 {
	if t.lossVal == nil {
		return 0
	}
	return Values(t.lossVal)[0]
}

// Network returns the network being trained
func (t *Trainer) Network() NeuralNet {
	return t.net
}

// Close releases the resources held by the Trainer's VM
func (t *Trainer) Close() error {
	return t.vm.Close()
}
