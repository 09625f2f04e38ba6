// Package expreplay implements experience replay buffers
package expreplay

import (
	"fmt"

	"github.com/samuelfneumann/rlzoo/timestep"
)

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t timestep.Transition) error

	// Sample samples a batch of experience from the buffer
	Sample() (Batch, error)

	// Len returns the current number of samples in the buffer
	Len() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// Batch is a batch of transitions sampled from a replay buffer. States,
// actions, and next states are stored in row-major order, one row per
// transition.
type Batch struct {
	State     []float64
	Action    []float64
	Reward    []float64
	Discount  []float64
	NextState []float64

	// Indices are the buffer positions of each sampled transition
	Indices []int

	// Weights are the importance sampling weights of each sampled
	// transition
	Weights []float64
}

// Size returns the number of transitions in the batch
func (b Batch) Size() int {
	return len(b.Reward)
}

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	Capacity    int
	MinCapacity int
	BatchSize   int

	// Prioritized replay
	Prioritized bool
	Alpha       float64
	Beta        float64
}

// Validate returns an error if the Config is invalid
func (c Config) Validate() error {
	if c.MinCapacity <= 0 {
		return fmt.Errorf("validate: minCapacity must be > 0")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("validate: batch size must be > 0")
	}
	if c.Capacity < c.BatchSize || c.Capacity < c.MinCapacity {
		return fmt.Errorf("validate: cannot have batch size (%v) or "+
			"minimum capacity (%v) > max buffer capacity (%v)", c.BatchSize,
			c.MinCapacity, c.Capacity)
	}
	if c.Prioritized && c.Alpha < 0 {
		return fmt.Errorf("validate: alpha must be >= 0")
	}
	return nil
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(featureSize, actionSize int,
	seed uint64) (ExperienceReplayer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	if c.Prioritized {
		return NewPrioritized(c.MinCapacity, c.Capacity, featureSize,
			actionSize, c.BatchSize, c.Alpha, c.Beta, seed)
	}
	return NewUniform(c.MinCapacity, c.Capacity, featureSize, actionSize,
		c.BatchSize, seed)
}

// storage is a fixed-capacity FIFO store of transitions. When full,
// the oldest transition is overwritten.
type storage struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	discountCache  []float64
	nextStateCache []float64

	currentInUsePos int
	isFull          bool

	minCapacity int
	maxCapacity int
	featureSize int
	actionSize  int
	batchSize   int
}

// newStorage returns a new storage
func newStorage(minCapacity, maxCapacity, featureSize, actionSize,
	batchSize int) (*storage, error) {
	if featureSize <= 0 || actionSize <= 0 {
		return nil, fmt.Errorf("newStorage: feature size (%v) and action "+
			"size (%v) must be positive", featureSize, actionSize)
	}
	if minCapacity <= 0 || batchSize <= 0 {
		return nil, fmt.Errorf("newStorage: minCapacity and batch size " +
			"must be > 0")
	}
	if maxCapacity < batchSize || maxCapacity < minCapacity {
		return nil, fmt.Errorf("newStorage: cannot have batch size (%v) "+
			"or minimum capacity (%v) > max buffer capacity (%v)",
			batchSize, minCapacity, maxCapacity)
	}

	return &storage{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]float64, maxCapacity*actionSize),
		rewardCache:    make([]float64, maxCapacity),
		discountCache:  make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
		batchSize:   batchSize,
	}, nil
}

// add adds a transition to the storage and returns the index at which
// it was stored
func (s *storage) add(t timestep.Transition) (int, error) {
	if t.State == nil || t.NextState == nil || t.Action == nil {
		return 0, fmt.Errorf("add: transition must have a state, action, " +
			"and next state")
	}
	if t.State.Len() != s.featureSize || t.NextState.Len() != s.featureSize {
		return 0, fmt.Errorf("add: invalid feature size \n\twant(%v)"+
			"\n\thave(%v)", s.featureSize, t.State.Len())
	}
	if t.Action.Len() != s.actionSize {
		return 0, fmt.Errorf("add: invalid action size \n\twant(%v)"+
			"\n\thave(%v)", s.actionSize, t.Action.Len())
	}

	index := s.currentInUsePos

	stateInd := index * s.featureSize
	for i := 0; i < s.featureSize; i++ {
		s.stateCache[stateInd+i] = t.State.AtVec(i)
		s.nextStateCache[stateInd+i] = t.NextState.AtVec(i)
	}

	actionInd := index * s.actionSize
	for i := 0; i < s.actionSize; i++ {
		s.actionCache[actionInd+i] = t.Action.AtVec(i)
	}

	s.rewardCache[index] = t.Reward
	s.discountCache[index] = t.Discount

	if index+1 == s.maxCapacity {
		s.isFull = true
	}
	s.currentInUsePos = (s.currentInUsePos + 1) % s.maxCapacity

	return index, nil
}

// canSample returns an error if the storage cannot yet be sampled
func (s *storage) canSample() error {
	if s.Len() == 0 {
		return &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if s.Len() < s.MinCapacity() {
		return &ExpReplayError{Op: "sample", Err: errInsufficientSamples}
	}
	return nil
}

// batch gathers the transitions at indices into a Batch
func (s *storage) batch(indices []int, weights []float64) Batch {
	n := len(indices)
	b := Batch{
		State:     make([]float64, n*s.featureSize),
		Action:    make([]float64, n*s.actionSize),
		Reward:    make([]float64, n),
		Discount:  make([]float64, n),
		NextState: make([]float64, n*s.featureSize),
		Indices:   indices,
		Weights:   weights,
	}

	for i, index := range indices {
		batchStartInd := i * s.featureSize
		expStartInd := index * s.featureSize
		copy(b.State[batchStartInd:batchStartInd+s.featureSize],
			s.stateCache[expStartInd:expStartInd+s.featureSize])
		copy(b.NextState[batchStartInd:batchStartInd+s.featureSize],
			s.nextStateCache[expStartInd:expStartInd+s.featureSize])

		batchStartInd = i * s.actionSize
		expStartInd = index * s.actionSize
		copy(b.Action[batchStartInd:batchStartInd+s.actionSize],
			s.actionCache[expStartInd:expStartInd+s.actionSize])

		b.Reward[i] = s.rewardCache[index]
		b.Discount[i] = s.discountCache[index]
	}

	return b
}

// Len returns the current number of elements in the storage that
// are available for sampling
func (s *storage) Len() int {
	if s.isFull {
		return s.maxCapacity
	}
	return s.currentInUsePos
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the storage
func (s *storage) MaxCapacity() int {
	return s.maxCapacity
}

// MinCapacity returns the minimum number of elements required in the
// storage before sampling is allowed
func (s *storage) MinCapacity() int {
	return s.minCapacity
}

// BatchSize returns the number of samples sampled using Sample()
func (s *storage) BatchSize() int {
	return s.batchSize
}

// String returns the string representation of the storage
func (s *storage) String() string {
	baseStr := "Samples: %v/%v \nStates: %v \nActions: %v \nRewards: %v " +
		"\nDiscounts: %v \nNext States: %v"
	n := s.Len()
	return fmt.Sprintf(baseStr, n, s.maxCapacity,
		s.stateCache[:n*s.featureSize], s.actionCache[:n*s.actionSize],
		s.rewardCache[:n], s.discountCache[:n],
		s.nextStateCache[:n*s.featureSize])
}
