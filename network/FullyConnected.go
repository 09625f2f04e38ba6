package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newfcLayer adds a new fully connected layer of shape (in, out) to
// the graph g. Weights are initialized with init, and biases, if used,
// are initialized to zero.
func newfcLayer(g *G.ExprGraph, in, out int, bias bool, init G.InitWFn,
	act *Activation, name string) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(in, out),
		G.WithName(name+"W"),
		G.WithInit(init),
	)

	var b *G.Node
	if bias {
		b = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, out),
			G.WithName(name+"b"),
			G.WithInit(G.Zeroes()),
		)
	}

	return &fcLayer{weights: weights, bias: b, act: act}
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not multiply weights: %v", err)
	}

	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0})
		if err != nil {
			return nil, fmt.Errorf("fwd: could not add bias: %v", err)
		}
	}

	return f.act.fwd(x)
}

// cloneTo clones an fcLayer to a new computational graph. The clone
// has new learnable nodes named with the name prefix which hold a copy
// of the fcLayer's weights.
func (f *fcLayer) cloneTo(g *G.ExprGraph, name string) *fcLayer {
	weights := cloneNode(g, f.weights, name+"W")

	var bias *G.Node
	if f.bias != nil {
		bias = cloneNode(g, f.bias, name+"b")
	}

	return &fcLayer{
		weights: weights,
		bias:    bias,
		act:     f.act,
	}
}

// cloneNode creates a new matrix node in g with a copy of the value of
// node n
func cloneNode(g *G.ExprGraph, n *G.Node, name string) *G.Node {
	value := n.Value().(*tensor.Dense).Clone().(*tensor.Dense)
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(n.Shape()...),
		G.WithName(name),
		G.WithValue(value),
	)
}

func (f *fcLayer) Activation() *Activation {
	return f.act
}

func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

func (f *fcLayer) Weights() *G.Node {
	return f.weights
}
