package floatutils

import (
	"math"
	"testing"
)

func TestDiscountedReturns(t *testing.T) {
	returns := DiscountedReturns([]float64{1, 1, 1}, 0.5)
	want := []float64{1.75, 1.5, 1}

	for i := range want {
		if math.Abs(returns[i]-want[i]) > 1e-12 {
			t.Errorf("discountedReturns: expected %v but got %v", want, returns)
			break
		}
	}

	if len(DiscountedReturns(nil, 0.9)) != 0 {
		t.Errorf("discountedReturns: expected no returns for no rewards")
	}
}

func TestNormalize(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	Normalize(values, 0)

	mean, std := PopMeanStdDev(values)
	if math.Abs(mean) > 1e-12 || math.Abs(std-1) > 1e-12 {
		t.Errorf("normalize: expected mean 0 and std 1 but got %v and %v",
			mean, std)
	}

	constant := []float64{3, 3, 3}
	Normalize(constant, 1e-8)
	for _, v := range constant {
		if v != 0 {
			t.Errorf("normalize: expected constant values to be 0 but "+
				"got %v", constant)
		}
	}
}

func TestPopMeanStdDev(t *testing.T) {
	mean, std := PopMeanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || math.Abs(std-2) > 1e-12 {
		t.Errorf("popMeanStdDev: expected (5, 2) but got (%v, %v)", mean, std)
	}

	if _, std := PopMeanStdDev([]float64{1}); std != 0 {
		t.Errorf("popMeanStdDev: expected std 0 for one value but got %v", std)
	}
}

func TestMaxSlice(t *testing.T) {
	max, indices := MaxSlice([]float64{3, 1, 3, 2})
	if max != 3 || len(indices) != 2 || indices[0] != 0 || indices[1] != 2 {
		t.Errorf("maxSlice: expected (3, [0 2]) but got (%v, %v)", max,
			indices)
	}
}

func TestClip(t *testing.T) {
	tests := []struct{ in, want float64 }{{-2, -1}, {0.5, 0.5}, {3, 1}}
	for _, test := range tests {
		if got := Clip(test.in, -1, 1); got != test.want {
			t.Errorf("clip(%v): expected %v but got %v", test.in, test.want,
				got)
		}
	}
}
