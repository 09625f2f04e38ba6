package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Predictor runs the forward pass of a NeuralNet on demand. It owns a
// VM compiled over the network's graph and reads the value of a single
// output node, which defaults to the network's prediction.
//
// A Predictor should only be created for graphs which contain no
// gradient nodes, since its VM does not bind dual values.
type Predictor struct {
	net NeuralNet
	vm  G.VM
	out *G.Node
	val G.Value
}

// NewPredictor returns a new Predictor of out. If out is nil, the
// network's prediction node is used. No nodes should be added to the
// network's graph after the Predictor has been created.
func NewPredictor(net NeuralNet, out *G.Node) (*Predictor, error) {
	if out == nil {
		out = net.Prediction()
	}
	if out.Graph() != net.Graph() {
		return nil, fmt.Errorf("newPredictor: output node is not in the " +
			"network's graph")
	}

	p := &Predictor{net: net, out: out}
	G.Read(out, &p.val)
	p.vm = G.NewTapeMachine(net.Graph())

	return p, nil
}

// Predict runs the network on input and returns a copy of the output
// node's value in row-major order
func (p *Predictor) Predict(input []float64) ([]float64, error) {
	if err := p.net.SetInput(input); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	defer p.vm.Reset()

	if err := p.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	return append([]float64{}, Values(p.val)...), nil
}

// Network returns the network that the Predictor runs
func (p *Predictor) Network() NeuralNet {
	return p.net
}

// Close releases the resources held by the Predictor's VM
func (p *Predictor) Close() error {
	return p.vm.Close()
}
