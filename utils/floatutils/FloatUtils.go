// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// MaxSlice gets the maximum value and indices of the maximum values in
// a slice of float64.
func MaxSlice(values []float64) (max float64, indices []int) {
	max, indices = values[0], []int{0}

	for i, value := range values[1:] {
		if value > max {
			max = value
			indices = []int{i + 1}
		} else if value == max {
			indices = append(indices, i+1)
		}
	}
	return
}

// DiscountedReturns returns the discounted sum of future rewards from
// each step of an episode:
//
//	G_t = r_t + γ G_{t+1}
func DiscountedReturns(rewards []float64, gamma float64) []float64 {
	returns := make([]float64, len(rewards))
	var cumulative float64
	for i := len(rewards) - 1; i >= 0; i-- {
		cumulative = rewards[i] + gamma*cumulative
		returns[i] = cumulative
	}
	return returns
}

// Normalize normalizes values in place to (x - mean) / (std + eps),
// where std is the population standard deviation
func Normalize(values []float64, eps float64) {
	mean, std := PopMeanStdDev(values)
	for i := range values {
		values[i] = (values[i] - mean) / (std + eps)
	}
}

// PopMeanStdDev returns the mean and population standard deviation of
// values
func PopMeanStdDev(values []float64) (mean, std float64) {
	n := float64(len(values))
	if n < 2 {
		return stat.Mean(values, nil), 0
	}
	mean, variance := stat.MeanVariance(values, nil)
	return mean, math.Sqrt(variance * (n - 1) / n)
}
