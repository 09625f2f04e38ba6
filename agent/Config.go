package agent

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/network"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the algorithm that the Config describes
	Type() Type
}

// Checkpoint maps file names to the networks saved under them
type Checkpoint map[string]network.NeuralNet

// Save saves each network in the Checkpoint to its own file in dir,
// creating dir if needed
func (c Checkpoint) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("save: could not create directory: %v", err)
	}

	for name, net := range c {
		if err := network.Save(net, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("save: %v: %v", name, err)
		}
	}
	return nil
}

// Load loads each network in the Checkpoint from its file in dir
func (c Checkpoint) Load(dir string) error {
	for name, net := range c {
		if err := network.Load(net, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("load: %v: %v", name, err)
		}
	}
	return nil
}

// ValidateLayers returns an error if a network described by
// hiddenSizes, biases, and activations does not have exactly one bias
// and one activation for each hidden layer
func ValidateLayers(name string, hiddenSizes []int, biases []bool,
	activations []*network.Activation) error {
	if len(hiddenSizes) != len(biases) {
		return fmt.Errorf("%v: expected %v biases but got %v", name,
			len(hiddenSizes), len(biases))
	}
	if len(hiddenSizes) != len(activations) {
		return fmt.Errorf("%v: expected %v activations but got %v", name,
			len(hiddenSizes), len(activations))
	}
	for i, size := range hiddenSizes {
		if size <= 0 {
			return fmt.Errorf("%v: hidden layer %v has size %v", name, i,
				size)
		}
	}
	return nil
}

// Biases returns a slice of n true values
func Biases(n int) []bool {
	biases := make([]bool, n)
	for i := range biases {
		biases[i] = true
	}
	return biases
}

// Warnf prints a warning to stderr
func Warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
