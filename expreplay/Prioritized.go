package expreplay

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/rlzoo/timestep"
	"golang.org/x/exp/rand"
)

// Prioritized implements a prioritized experience replay buffer.
// Transitions are sampled with probability
//
//	P(i) = p_i^α / Σ_k p_k^α
//
// for priorities p_i, and each sampled transition is given the
// importance sampling weight
//
//	w_i = (N * P(i))^-β / max_j w_j
//
// New transitions are given the maximum priority seen so far so that
// they are sampled at least once. Sampling is proportional, drawing one
// transition from each of BatchSize equal segments of the total
// priority mass.
type Prioritized struct {
	*storage
	alpha       float64
	beta        float64
	maxPriority float64

	sum sumTree
	min minTree

	rng *rand.Rand
}

// NewPrioritized returns a new prioritized replay buffer with priority
// exponent alpha and initial importance sampling exponent beta
func NewPrioritized(minCapacity, maxCapacity, featureSize, actionSize,
	batchSize int, alpha, beta float64, seed uint64) (*Prioritized, error) {
	if alpha < 0 {
		return nil, fmt.Errorf("newPrioritized: alpha must be >= 0")
	}

	s, err := newStorage(minCapacity, maxCapacity, featureSize, actionSize,
		batchSize)
	if err != nil {
		return nil, err
	}

	return &Prioritized{
		storage:     s,
		alpha:       alpha,
		beta:        beta,
		maxPriority: 1.0,
		sum:         newSumTree(maxCapacity),
		min:         newMinTree(maxCapacity),
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// Add adds a transition to the buffer with maximal priority
func (p *Prioritized) Add(t timestep.Transition) error {
	index, err := p.add(t)
	if err != nil {
		return err
	}

	priority := math.Pow(p.maxPriority, p.alpha)
	p.sum.set(index, priority)
	p.min.set(index, priority)

	return nil
}

// Sample samples a batch of transitions proportional to their
// priorities and returns them along with their importance sampling
// weights
func (p *Prioritized) Sample() (Batch, error) {
	if err := p.canSample(); err != nil {
		return Batch{}, err
	}

	total := p.sum.reduce()
	segment := total / float64(p.BatchSize())
	n := float64(p.Len())

	// Maximum weight is given to the transition of least priority
	minProb := p.min.reduce() / total
	maxWeight := math.Pow(minProb*n, -p.beta)

	indices := make([]int, p.BatchSize())
	weights := make([]float64, p.BatchSize())
	for i := range indices {
		mass := (p.rng.Float64() + float64(i)) * segment
		index := p.sum.find(mass)
		if index >= p.Len() {
			index = p.Len() - 1
		}
		indices[i] = index

		prob := p.sum.get(index) / total
		weights[i] = math.Pow(prob*n, -p.beta) / maxWeight
	}

	return p.batch(indices, weights), nil
}

// UpdatePriorities sets the priorities of the transitions at indices.
// Priorities must be positive.
func (p *Prioritized) UpdatePriorities(indices []int,
	priorities []float64) error {
	if len(indices) != len(priorities) {
		return fmt.Errorf("updatePriorities: have %v indices but %v "+
			"priorities", len(indices), len(priorities))
	}

	for i, index := range indices {
		if index < 0 || index >= p.Len() {
			return fmt.Errorf("updatePriorities: index %v out of range "+
				"[0, %v)", index, p.Len())
		}
		if priorities[i] <= 0 {
			return fmt.Errorf("updatePriorities: priority %v must be "+
				"positive", priorities[i])
		}

		priority := math.Pow(priorities[i], p.alpha)
		p.sum.set(index, priority)
		p.min.set(index, priority)
		p.maxPriority = math.Max(p.maxPriority, priorities[i])
	}
	return nil
}

// SetBeta sets the importance sampling exponent
func (p *Prioritized) SetBeta(beta float64) {
	p.beta = beta
}

// Beta returns the importance sampling exponent
func (p *Prioritized) Beta() float64 {
	return p.beta
}
