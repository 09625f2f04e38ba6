package expreplay

import (
	"math"
	"testing"

	"github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

// transition returns a transition where every value encodes i
func transition(i int) timestep.Transition {
	f := float64(i)
	return timestep.Transition{
		State:     mat.NewVecDense(2, []float64{f, -f}),
		Action:    mat.NewVecDense(1, []float64{f}),
		Reward:    f,
		Discount:  0.99,
		NextState: mat.NewVecDense(2, []float64{f + 1, -f - 1}),
	}
}

func TestUniformErrors(t *testing.T) {
	u, err := NewUniform(3, 5, 2, 1, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := u.Sample(); !IsEmptyBuffer(err) {
		t.Errorf("sampling an empty buffer returned %v", err)
	}

	if err := u.Add(transition(0)); err != nil {
		t.Fatal(err)
	}
	if _, err := u.Sample(); !IsInsufficientSamples(err) || !IsNotReady(err) {
		t.Errorf("sampling below minimum capacity returned %v", err)
	}

	bad := transition(1)
	bad.State = mat.NewVecDense(3, nil)
	if err := u.Add(bad); err == nil {
		t.Error("adding a transition with the wrong state size should fail")
	}
	bad = transition(1)
	bad.Action = mat.NewVecDense(2, nil)
	if err := u.Add(bad); err == nil {
		t.Error("adding a transition with the wrong action size should fail")
	}
	if u.Len() != 1 {
		t.Errorf("rejected transitions were stored, length %v", u.Len())
	}

	if _, err := NewUniform(1, 2, 2, 1, 3, 1); err == nil {
		t.Error("batch size larger than capacity should fail")
	}
}

func TestUniformFIFO(t *testing.T) {
	u, err := NewUniform(1, 5, 2, 1, 64, 1)
	if err == nil {
		t.Fatal("batch size larger than capacity should fail")
	}

	u, err = NewUniform(1, 5, 2, 1, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		if err := u.Add(transition(i)); err != nil {
			t.Fatal(err)
		}
	}
	if u.Len() != 5 {
		t.Fatalf("length = %v, want 5", u.Len())
	}

	// Transitions 0, 1, 2 have been overwritten
	for i := 0; i < 50; i++ {
		b, err := u.Sample()
		if err != nil {
			t.Fatal(err)
		}
		if b.Size() != 4 {
			t.Fatalf("batch size = %v, want 4", b.Size())
		}

		for j := 0; j < b.Size(); j++ {
			r := b.Reward[j]
			if r < 3 {
				t.Fatalf("sampled overwritten transition %v", r)
			}
			if b.State[2*j] != r || b.State[2*j+1] != -r ||
				b.Action[j] != r || b.NextState[2*j] != r+1 ||
				b.Discount[j] != 0.99 || b.Weights[j] != 1 {
				t.Fatalf("transition %v was not stored correctly", r)
			}
		}
	}
}

func TestPrioritized(t *testing.T) {
	p, err := NewPrioritized(1, 4, 2, 1, 2, 1.0, 1.0, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if err := p.Add(transition(i)); err != nil {
			t.Fatal(err)
		}
	}

	// With equal priorities all weights are 1
	b, err := p.Sample()
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range b.Weights {
		if math.Abs(w-1) > 1e-12 {
			t.Fatalf("weights %v should all be 1", b.Weights)
		}
	}

	// Transition 3 gets almost all the mass
	err = p.UpdatePriorities([]int{0, 1, 2, 3}, []float64{1e-6, 1e-6, 1e-6,
		100})
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for i := 0; i < 100; i++ {
		b, err := p.Sample()
		if err != nil {
			t.Fatal(err)
		}
		for j, index := range b.Indices {
			if index == 3 {
				count++
				if b.Reward[j] != 3 {
					t.Fatalf("index 3 holds reward %v", b.Reward[j])
				}
				if b.Weights[j] >= 1 {
					t.Errorf("high priority weight %v should be < 1",
						b.Weights[j])
				}
			}
		}
	}
	if count < 195 {
		t.Errorf("high priority transition sampled %v/200 times", count)
	}

	// New transitions receive the maximum priority
	if err := p.Add(transition(4)); err != nil {
		t.Fatal(err)
	}
	if got := p.sum.get(0); got != 100 {
		t.Errorf("new transition priority = %v, want 100", got)
	}

	if err := p.UpdatePriorities([]int{0}, []float64{0}); err == nil {
		t.Error("non-positive priorities should fail")
	}
	if err := p.UpdatePriorities([]int{10}, []float64{1}); err == nil {
		t.Error("out of range indices should fail")
	}

	p.SetBeta(0.5)
	if p.Beta() != 0.5 {
		t.Errorf("beta = %v, want 0.5", p.Beta())
	}
}

func TestSumTree(t *testing.T) {
	s := newSumTree(5)
	values := []float64{1, 2, 3, 4, 5}
	for i, v := range values {
		s.set(i, v)
	}
	if s.reduce() != 15 {
		t.Errorf("sum = %v, want 15", s.reduce())
	}

	tests := []struct {
		mass float64
		want int
	}{
		{0, 0},
		{0.99, 0},
		{1, 1},
		{2.5, 1},
		{3, 2},
		{9.5, 3},
		{14.9, 4},
	}
	for _, test := range tests {
		if got := s.find(test.mass); got != test.want {
			t.Errorf("find(%v) = %v, want %v", test.mass, got, test.want)
		}
	}

	m := newMinTree(5)
	for i, v := range values {
		m.set(i, v)
	}
	m.set(2, 0.5)
	if m.reduce() != 0.5 {
		t.Errorf("min = %v, want 0.5", m.reduce())
	}
}

func TestConfig(t *testing.T) {
	c := Config{Capacity: 10, MinCapacity: 2, BatchSize: 4}
	r, err := c.Create(2, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*Uniform); !ok {
		t.Errorf("created %T, want *Uniform", r)
	}

	c.Prioritized = true
	c.Alpha = 0.6
	c.Beta = 0.4
	r, err = c.Create(2, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*Prioritized); !ok {
		t.Errorf("created %T, want *Prioritized", r)
	}

	c.MinCapacity = 0
	if _, err := c.Create(2, 1, 1); err == nil {
		t.Error("zero minimum capacity should fail")
	}
}

func BenchmarkUniformSample(b *testing.B) {
	u, err := NewUniform(1, 10000, 2, 1, 64, 1)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 10000; i++ {
		u.Add(transition(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		u.Sample()
	}
}

func BenchmarkPrioritizedSample(b *testing.B) {
	p, err := NewPrioritized(1, 10000, 2, 1, 64, 0.6, 0.4, 1)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 10000; i++ {
		p.Add(transition(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		batch, _ := p.Sample()
		priorities := make([]float64, len(batch.Indices))
		for j := range priorities {
			priorities[j] = float64(j + 1)
		}
		p.UpdatePriorities(batch.Indices, priorities)
	}
}
