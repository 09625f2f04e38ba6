package expreplay

import (
	"github.com/samuelfneumann/rlzoo/timestep"
	"golang.org/x/exp/rand"
)

// Uniform implements an experience replay buffer where transitions are
// removed in a FIFO manner when the buffer is full, and batches are
// sampled uniformly at random with replacement.
type Uniform struct {
	*storage
	rng     *rand.Rand
	weights []float64
}

// NewUniform returns a new Uniform replay buffer. The featureSize and
// actionSize parameters define the size of the feature and action
// vectors. The minCapacity parameter determines the minimum number of
// samples that should be in the buffer before sampling is allowed.
// The maxCapacity parameter determines the maximum number of samples
// allowed in the buffer at any given time.
func NewUniform(minCapacity, maxCapacity, featureSize, actionSize,
	batchSize int, seed uint64) (*Uniform, error) {
	s, err := newStorage(minCapacity, maxCapacity, featureSize, actionSize,
		batchSize)
	if err != nil {
		return nil, err
	}

	weights := make([]float64, batchSize)
	for i := range weights {
		weights[i] = 1.0
	}

	return &Uniform{
		storage: s,
		rng:     rand.New(rand.NewSource(seed)),
		weights: weights,
	}, nil
}

// Add adds a transition to the buffer
func (u *Uniform) Add(t timestep.Transition) error {
	_, err := u.add(t)
	return err
}

// Sample samples and returns a batch of transitions from the replay
// buffer. All importance sampling weights are 1.
func (u *Uniform) Sample() (Batch, error) {
	if err := u.canSample(); err != nil {
		return Batch{}, err
	}

	indices := make([]int, u.BatchSize())
	for i := range indices {
		indices[i] = u.rng.Intn(u.Len())
	}

	return u.batch(indices, append([]float64{}, u.weights...)), nil
}
