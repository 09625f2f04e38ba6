package wrappers

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

// recorder is an Environment which records the last action taken
type recorder struct {
	low, high *mat.VecDense
	last      *mat.VecDense
	discrete  bool
}

func (r *recorder) Reset() (timestep.TimeStep, error) {
	return timestep.New(timestep.First, 0, 1, mat.NewVecDense(1, nil), 0), nil
}

func (r *recorder) Step(a *mat.VecDense) (timestep.TimeStep, bool, error) {
	r.last = mat.VecDenseCopyOf(a)
	return timestep.New(timestep.Mid, 0, 1, mat.NewVecDense(1, nil), 1),
		false, nil
}

func (r *recorder) CurrentTimeStep() timestep.TimeStep { return timestep.TimeStep{} }
func (r *recorder) DiscountSpec() environment.Spec     { return environment.Spec{} }
func (r *recorder) ObservationSpec() environment.Spec  { return environment.Spec{} }
func (r *recorder) Close() error                       { return nil }

func (r *recorder) ActionSpec() environment.Spec {
	c := environment.Continuous
	if r.discrete {
		c = environment.Discrete
	}
	return environment.NewSpec(mat.NewVecDense(r.low.Len(), nil),
		environment.Action, r.low, r.high, c)
}

func TestNormalizedActions(t *testing.T) {
	r := &recorder{
		low:  mat.NewVecDense(2, []float64{-2, 0}),
		high: mat.NewVecDense(2, []float64{2, 10}),
	}
	n, err := NewNormalizedActions(r)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in, want []float64
	}{
		{[]float64{-1, -1}, []float64{-2, 0}},
		{[]float64{1, 1}, []float64{2, 10}},
		{[]float64{0, 0}, []float64{0, 5}},
		{[]float64{0.5, -0.5}, []float64{1, 2.5}},
		{[]float64{3, -7}, []float64{2, 0}},
	}

	for _, test := range tests {
		if _, _, err := n.Step(mat.NewVecDense(2, test.in)); err != nil {
			t.Fatal(err)
		}
		for i := range test.want {
			if math.Abs(r.last.AtVec(i)-test.want[i]) > 1e-12 {
				t.Errorf("action %v mapped to %v, want %v", test.in,
					mat.Formatted(r.last.T()), test.want)
				break
			}
		}
	}

	spec := n.ActionSpec()
	for i := 0; i < 2; i++ {
		if spec.LowerBound.AtVec(i) != -1 || spec.UpperBound.AtVec(i) != 1 {
			t.Errorf("normalized bounds are [%v, %v]",
				spec.LowerBound.AtVec(i), spec.UpperBound.AtVec(i))
		}
	}

	if _, _, err := n.Step(mat.NewVecDense(1, nil)); err == nil {
		t.Error("wrong action dimension should return an error")
	}
}

func TestNormalizedActionsErrors(t *testing.T) {
	discrete := &recorder{
		low:      mat.NewVecDense(1, []float64{0}),
		high:     mat.NewVecDense(1, []float64{1}),
		discrete: true,
	}
	if _, err := NewNormalizedActions(discrete); err == nil {
		t.Error("discrete actions should not be normalized")
	}

	unbounded := &recorder{
		low:  mat.NewVecDense(1, []float64{math.Inf(-1)}),
		high: mat.NewVecDense(1, []float64{1}),
	}
	if _, err := NewNormalizedActions(unbounded); err == nil {
		t.Error("unbounded actions should not be normalized")
	}

	n, err := NewNormalizedActions(&recorder{
		low:  mat.NewVecDense(1, []float64{0}),
		high: mat.NewVecDense(1, []float64{1}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := n.Render(); !errors.Is(err, environment.ErrNotRenderable) {
		t.Errorf("rendering a non-Renderer should return "+
			"ErrNotRenderable, have %v", err)
	}
}
