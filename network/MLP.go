package network

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP implements a multi-layered perceptron with a number of output
// heads, one for each value that should be predicted.
type MLP struct {
	g          *G.ExprGraph
	prefix     string
	layers     []*fcLayer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron with
// outputs output heads. The graph parameter g is populated with the
// MLP, and each node of the MLP is named with the given prefix so that
// many networks can share a single graph.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. A final
// layer is always added such that given any input, the output will
// be outputs. The final layer also contains a bias unit, and bias units
// for each additional hidden layer is specified by biases. The final
// layer will contain no activations, and the activations of additional
// hidden layers is specified by activations. The parameter init
// determines the weight initialization scheme. Biases are always
// initialized to zero.
//
// The function works such that for index i, hiddenSizes[i] is the
// number of nodes in hidden layer i; biases[i] is true if the
// hidden layer will contain a bias unit and false otherwise; and
// activations[i] is the activation function for hidden layer i.
func NewMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (NeuralNet, error) {
	if features <= 0 || batch <= 0 || outputs <= 0 {
		return nil, fmt.Errorf("newMLP: features (%v), batch (%v), and "+
			"outputs (%v) must be positive", features, batch, outputs)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName(prefix+"Input"), G.WithInit(G.Zeroes()))

	return NewMLPFromInput([]*G.Node{input}, outputs, g, hiddenSizes,
		biases, init, activations, prefix)
}

// NewMLPFromInput returns a new MLP that has a specific node as its
// input node. If multiple input nodes are given, they are first
// concatenated along the feature (column) dimension.
func NewMLPFromInput(inputs []*G.Node, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (NeuralNet, error) {
	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newMLPFromInput: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newMLPFromInput: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	input, err := concatInputs(1, inputs, g)
	if err != nil {
		return nil, fmt.Errorf("newMLPFromInput: %v", err)
	}
	batch := input.Shape()[0]
	features := input.Shape()[1]

	// Add a final linear layer with no activation to ensure
	// outputs heads are predicted by the network
	sizes := append(append([]int{}, hiddenSizes...), outputs)
	bs := append(append([]bool{}, biases...), true)
	acts := append(append([]*Activation{}, activations...), Identity())

	layers := make([]*fcLayer, len(sizes))
	in := features
	for i := range sizes {
		name := fmt.Sprintf("%vL%v", prefix, i)
		layers[i] = newfcLayer(g, in, sizes[i], bs[i], init, acts[i], name)
		in = sizes[i]
	}

	// Create the network and run the forward pass on the input node
	network := &MLP{
		g:           g,
		prefix:      prefix,
		layers:      layers,
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: sizes,
		biases:      bs,
		activations: acts,
	}
	if _, err := network.fwd(input); err != nil {
		msg := "newMLPFromInput: could not compute forward pass: %v"
		return nil, fmt.Errorf(msg, err)
	}

	return network, nil
}

// concatInputs concatenates input nodes along axis, ensuring they
// belong to graph and result in a matrix
func concatInputs(axis int, inputs []*G.Node, graph *G.ExprGraph) (*G.Node,
	error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("concatInputs: no input nodes")
	}

	for _, input := range inputs {
		if input.Graph() != graph {
			return nil, fmt.Errorf("concatInputs: not all inputs " +
				"have the same graph")
		}
	}

	var input *G.Node
	if len(inputs) > 1 {
		var err error
		input, err = G.Concat(axis, inputs...)
		if err != nil {
			return nil, fmt.Errorf("concatInputs: %v", err)
		}
	} else {
		input = inputs[0]
	}

	if !input.IsMatrix() {
		return nil, fmt.Errorf("concatInputs: input must be a matrix node")
	}
	return input, nil
}

// Graph returns the computational graph of the MLP.
func (e *MLP) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones an MLP
func (e *MLP) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithInputTo clones an MLP to a specific computational graph
// with a specified input node. If multiple input nodes are given, then
// they are first concatenated along the specified axis.
func (e *MLP) CloneWithInputTo(axis int, inputs []*G.Node,
	graph *G.ExprGraph, prefix string) (NeuralNet, error) {
	input, err := concatInputs(axis, inputs, graph)
	if err != nil {
		return nil, fmt.Errorf("cloneWithInputTo: %v", err)
	}
	if input.Shape()[1] != e.numInputs {
		return nil, fmt.Errorf("cloneWithInputTo: invalid number of "+
			"input features \n\twant(%v) \n\thave(%v)", e.numInputs,
			input.Shape()[1])
	}

	// Copy fully connected layers
	l := make([]*fcLayer, len(e.layers))
	for i := range e.layers {
		l[i] = e.layers[i].cloneTo(graph, fmt.Sprintf("%vL%v", prefix, i))
	}

	network := &MLP{
		g:           graph,
		prefix:      prefix,
		layers:      l,
		input:       input,
		numOutputs:  e.numOutputs,
		numInputs:   e.numInputs,
		batchSize:   input.Shape()[0],
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
	}
	if _, err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("cloneWithInputTo: could not compute "+
			"forward pass: %v", err)
	}

	return network, nil
}

// CloneWithBatch clones an MLP to a new graph with a new input batch
// size.
func (e *MLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	graph := G.NewGraph()

	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, e.numInputs),
		G.WithName(e.prefix+"Input"),
		G.WithInit(G.Zeroes()),
	)

	return e.CloneWithInputTo(-1, []*G.Node{input}, graph, e.prefix)
}

// BatchSize returns the batch size of inputs to the network
func (e *MLP) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single observation
// vector that the network takes as input.
func (e *MLP) Features() int {
	return e.numInputs
}

// Outputs returns the number of outputs from the network
func (e *MLP) Outputs() int {
	return e.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass.
func (e *MLP) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of an MLP to be equal to the weights of another
// network
func (dest *MLP) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if err := compatible(nodes, sourceNodes); err != nil {
		return fmt.Errorf("set: %v", err)
	}

	for i := range nodes {
		copy(Values(nodes[i].Value()), Values(sourceNodes[i].Value()))
	}
	return nil
}

// Polyak sets the weights of an MLP to be a polyak average between its
// existing weights and the weights of another network:
//
//	dest <- (1 - tau) * dest + tau * source
func (dest *MLP) Polyak(source NeuralNet, tau float64) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if err := compatible(nodes, sourceNodes); err != nil {
		return fmt.Errorf("polyak: %v", err)
	}

	for i := range nodes {
		weights := Values(nodes[i].Value())
		floats.Scale(1-tau, weights)
		floats.AddScaled(weights, tau, Values(sourceNodes[i].Value()))
	}
	return nil
}

// compatible returns an error if two sets of learnables differ in
// number or shape
func compatible(dest, source G.Nodes) error {
	if len(dest) != len(source) {
		return fmt.Errorf("networks have different number of learnables "+
			"\n\twant(%v) \n\thave(%v)", len(dest), len(source))
	}
	for i := range dest {
		if !dest[i].Shape().Eq(source[i].Shape()) {
			return fmt.Errorf("learnable %v has incompatible shape "+
				"\n\twant(%v) \n\thave(%v)", i, dest[i].Shape(),
				source[i].Shape())
		}
	}
	return nil
}

// Learnables returns the learnable nodes in an MLP
func (e *MLP) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		learnables := make([]*G.Node, 0, 2*len(e.layers))
		for i := range e.layers {
			learnables = append(learnables, e.layers[i].Weights())
			if bias := e.layers[i].Bias(); bias != nil {
				learnables = append(learnables, bias)
			}
		}
		e.learnables = G.Nodes(learnables)
	}
	return e.learnables
}

// Model returns the learnables nodes with their gradients.
func (e *MLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		e.model = make([]G.ValueGrad, 0, 2*len(e.layers))
		for _, node := range e.Learnables() {
			e.model = append(e.model, node)
		}
	}
	return e.model
}

// fwd performs the forward pass of the MLP on the input node
func (e *MLP) fwd(input *G.Node) (*G.Node, error) {
	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)

	return pred, nil
}

// Output returns the output of the MLP. The output is only available
// after a VM has run the MLP's graph.
func (e *MLP) Output() G.Value {
	return e.predVal
}

// Prediction returns the node of the computational graph the stores
// the output of the MLP
func (e *MLP) Prediction() *G.Node {
	return e.prediction
}

// Input returns the input node of the MLP
func (e *MLP) Input() *G.Node {
	return e.input
}
