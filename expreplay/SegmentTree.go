package expreplay

import "math"

// segmentTree is a binary tree over a fixed number of leaves where
// each internal node stores op applied to its children. Leaves are
// stored at positions [capacity, 2*capacity) of values.
type segmentTree struct {
	capacity int
	values   []float64
	op       func(a, b float64) float64
	neutral  float64
}

// newSegmentTree returns a new segmentTree with at least size leaves
func newSegmentTree(size int, op func(a, b float64) float64,
	neutral float64) *segmentTree {
	capacity := 1
	for capacity < size {
		capacity *= 2
	}

	values := make([]float64, 2*capacity)
	for i := range values {
		values[i] = neutral
	}

	return &segmentTree{
		capacity: capacity,
		values:   values,
		op:       op,
		neutral:  neutral,
	}
}

// set sets the value of leaf index and updates all its ancestors
func (s *segmentTree) set(index int, value float64) {
	i := index + s.capacity
	s.values[i] = value
	for i /= 2; i >= 1; i /= 2 {
		s.values[i] = s.op(s.values[2*i], s.values[2*i+1])
	}
}

// get returns the value of leaf index
func (s *segmentTree) get(index int) float64 {
	return s.values[index+s.capacity]
}

// reduce returns op applied over all leaves
func (s *segmentTree) reduce() float64 {
	return s.values[1]
}

// sumTree is a segmentTree that stores sums
type sumTree struct {
	*segmentTree
}

func newSumTree(size int) sumTree {
	return sumTree{newSegmentTree(size, func(a, b float64) float64 {
		return a + b
	}, 0)}
}

// find returns the highest leaf index i such that the sum of leaves
// [0, i) is <= mass
func (s sumTree) find(mass float64) int {
	i := 1
	for i < s.capacity {
		left := 2 * i
		if s.values[left] > mass {
			i = left
		} else {
			mass -= s.values[left]
			i = left + 1
		}
	}
	return i - s.capacity
}

// minTree is a segmentTree that stores minimums
type minTree struct {
	*segmentTree
}

func newMinTree(size int) minTree {
	return minTree{newSegmentTree(size, math.Min, math.Inf(1))}
}
