// Package network implements function approximators as gorgonia
// computational graphs
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet implements a neural network function approximator
//
// Each NeuralNet owns a set of learnable nodes in some computational
// graph. Networks in different graphs (for example the same network
// with different batch sizes) are kept in sync explicitly using Set or
// Polyak.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)

	// CloneWithInputTo clones the network into graph, using inputs
	// concatenated along axis as the input node. The clone has its own
	// learnable nodes, named with prefix, which hold copies of the
	// weights of the original network.
	CloneWithInputTo(axis int, inputs []*G.Node, graph *G.ExprGraph,
		prefix string) (NeuralNet, error)

	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Polyak(NeuralNet, float64) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
}

// Values returns the data of a gorgonia Value as a slice of float64.
// For tensor values the backing slice is returned.
func Values(v G.Value) []float64 {
	if v == nil {
		return nil
	}
	if t, ok := v.(*tensor.Dense); ok {
		return t.Float64s()
	}

	switch data := v.Data().(type) {
	case []float64:
		return data
	case float64:
		return []float64{data}
	default:
		panic(fmt.Sprintf("values: unsupported data type %T", data))
	}
}
