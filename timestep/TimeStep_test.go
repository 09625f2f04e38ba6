package timestep

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestEndType(t *testing.T) {
	obs := mat.NewVecDense(2, nil)

	tests := []struct {
		name     string
		stepType StepType
		end      EndType
		want     EndType
		terminal bool
	}{
		{"first", First, TerminalStateReached, Unknown, false},
		{"mid", Mid, Timeout, Unknown, false},
		{"lastTerminal", Last, TerminalStateReached, TerminalStateReached,
			true},
		{"lastTimeout", Last, Timeout, Timeout, false},
	}

	for _, test := range tests {
		step := New(test.stepType, 1.0, 0.99, obs, 3)
		step.SetEnd(test.end)

		if got := step.EndType(); got != test.want {
			t.Errorf("%v: EndType() = %v, want %v", test.name, got,
				test.want)
		}
		if got := step.TerminalEnd(); got != test.terminal {
			t.Errorf("%v: TerminalEnd() = %v, want %v", test.name, got,
				test.terminal)
		}
	}
}

func TestNewTransition(t *testing.T) {
	s := mat.NewVecDense(1, []float64{0})
	next := mat.NewVecDense(1, []float64{1})
	action := mat.NewVecDense(1, []float64{2})

	step := New(First, 0, 0.9, s, 0)

	timeout := New(Last, 1.0, 0.9, next, 1)
	timeout.SetEnd(Timeout)
	if tr := NewTransition(step, action, timeout, nil); tr.Discount != 0.9 {
		t.Errorf("timeout transition discount = %v, want 0.9", tr.Discount)
	}

	terminal := New(Last, 1.0, 0.9, next, 1)
	terminal.SetEnd(TerminalStateReached)
	tr := NewTransition(step, action, terminal, nil)
	if tr.Discount != 0.0 {
		t.Errorf("terminal transition discount = %v, want 0", tr.Discount)
	}
	if tr.Reward != 1.0 {
		t.Errorf("transition reward = %v, want 1", tr.Reward)
	}
	if tr.NextState.AtVec(0) != 1.0 {
		t.Errorf("transition next state = %v, want 1",
			tr.NextState.AtVec(0))
	}
}
