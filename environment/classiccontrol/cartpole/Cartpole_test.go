package cartpole

import (
	"math"
	"testing"

	env "github.com/samuelfneumann/rlzoo/environment"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func newTestDiscrete(t *testing.T, cutoff int) *Discrete {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := env.NewUniformStarter([]r1.Interval{bounds, bounds, bounds,
		bounds}, 11)
	task := NewBalance(s, cutoff, FailAngle)
	c, step := NewDiscrete(task, 0.99)
	if !step.First() {
		t.Fatalf("first step has type %v", step.StepType)
	}
	return c
}

func TestDiscreteFallsOver(t *testing.T) {
	c := newTestDiscrete(t, 500)

	// Always pushing right eventually drops the pole
	push := mat.NewVecDense(1, []float64{1})
	var step ts.TimeStep
	var done bool
	var err error
	for i := 0; i < 500 && !done; i++ {
		step, done, err = c.Step(push)
		if err != nil {
			t.Fatal(err)
		}
		if step.Reward != 1.0 {
			t.Errorf("step %v: reward = %v, want 1", i, step.Reward)
		}
	}

	if !done {
		t.Fatal("episode should end when always pushing right")
	}
	if !step.TerminalEnd() {
		t.Errorf("episode should end in a terminal state, have %v",
			step.EndType())
	}

	obs := step.Observation
	if math.Abs(obs.AtVec(2)) <= FailAngle &&
		math.Abs(obs.AtVec(0)) <= FailPosition {
		t.Errorf("terminal state %v is within bounds",
			mat.Formatted(obs.T()))
	}
}

func TestDiscreteCutoff(t *testing.T) {
	c := newTestDiscrete(t, 3)

	var step ts.TimeStep
	for i := 0; i < 3; i++ {
		var err error
		// Alternate pushes keep the pole up for a few steps
		step, _, err = c.Step(mat.NewVecDense(1, []float64{float64(i % 2)}))
		if err != nil {
			t.Fatal(err)
		}
	}

	if !step.Last() || step.EndType() != ts.Timeout {
		t.Errorf("step %v should time out, have %v with %v", step.Number,
			step.StepType, step.EndType())
	}
}

func TestDiscreteIllegalAction(t *testing.T) {
	c := newTestDiscrete(t, 10)

	if _, _, err := c.Step(mat.NewVecDense(1, []float64{2})); err == nil {
		t.Error("action 2 should be illegal")
	}
}

func TestRender(t *testing.T) {
	c := newTestDiscrete(t, 10)

	img, err := c.Render()
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != screenWidth || b.Dy() != screenHeight {
		t.Errorf("image bounds = %v", b)
	}
}
