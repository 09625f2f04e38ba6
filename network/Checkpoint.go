package network

import (
	"encoding/gob"
	"fmt"
	"os"

	"gorgonia.org/tensor"
)

// weights is the serialized form of a single learnable node
type weights struct {
	Shape []int
	Data  []float64
}

// Save saves the learnable weights of net to filename
func Save(net NeuralNet, filename string) error {
	learnables := net.Learnables()
	saved := make([]weights, len(learnables))
	for i, node := range learnables {
		data := Values(node.Value())
		saved[i] = weights{
			Shape: append([]int{}, node.Shape()...),
			Data:  append([]float64{}, data...),
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}

	if err := gob.NewEncoder(file).Encode(saved); err != nil {
		file.Close()
		return fmt.Errorf("save: could not encode weights: %v", err)
	}
	return file.Close()
}

// Load loads learnable weights from filename into net. The network
// must have the same architecture as the network which was saved.
func Load(net NeuralNet, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open file: %v", err)
	}
	defer file.Close()

	var saved []weights
	if err := gob.NewDecoder(file).Decode(&saved); err != nil {
		return fmt.Errorf("load: could not decode weights: %v", err)
	}

	learnables := net.Learnables()
	if len(saved) != len(learnables) {
		return fmt.Errorf("load: expected %v layers of weights but file "+
			"has %v", len(learnables), len(saved))
	}
	for i, node := range learnables {
		if !node.Shape().Eq(tensor.Shape(saved[i].Shape)) {
			return fmt.Errorf("load: weights %v have shape %v but file "+
				"has shape %v", i, node.Shape(), saved[i].Shape)
		}
	}

	for i, node := range learnables {
		copy(Values(node.Value()), saved[i].Data)
	}
	return nil
}
