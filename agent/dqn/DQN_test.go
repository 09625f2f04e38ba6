package dqn

import (
	"math"
	"testing"

	"github.com/samuelfneumann/rlzoo/expreplay"
	"github.com/samuelfneumann/rlzoo/initwfn"
	"github.com/samuelfneumann/rlzoo/internal/envtest"
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/solver"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const tol = 1e-6

func newConfig(t *testing.T) *Config {
	init, err := initwfn.NewOrthogonal(1.0, 1)
	if err != nil {
		t.Fatal(err)
	}
	s, err := solver.NewAdam(5e-3, 1e-5, 0.9, 0.999, 1, 0)
	if err != nil {
		t.Fatal(err)
	}

	return &Config{
		Layers:                  []int{16},
		Biases:                  []bool{true},
		Activations:             []*network.Activation{network.TanH()},
		InitWFn:                 init,
		Solver:                  s,
		BatchSize:               8,
		BufferSize:              100,
		DoubleQ:                 true,
		Dueling:                 true,
		ExplorationRate:         0.5,
		ExplorationFinalEps:     0.01,
		TotalSteps:              100,
		TrainFreq:               2,
		LearningStarts:          10,
		TargetNetworkUpdateFreq: 5,
		Gamma:                   0.99,
		PrioritizedAlpha:        0.6,
		PrioritizedBeta0:        0.4,
	}
}

// setBias sets the bias of the final layer of a network
func setBias(t *testing.T, net network.NeuralNet, bias []float64) {
	learnables := net.Learnables()
	b := network.Values(learnables[len(learnables)-1].Value())
	if len(b) != len(bias) {
		t.Fatalf("setBias: expected %v biases but got %v", len(b), len(bias))
	}
	copy(b, bias)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"batch size":       func(c *Config) { c.BatchSize = 0 },
		"buffer size":      func(c *Config) { c.BufferSize = 4 },
		"exploration rate": func(c *Config) { c.ExplorationRate = 2 },
		"final epsilon":    func(c *Config) { c.ExplorationFinalEps = -1 },
		"total steps":      func(c *Config) { c.TotalSteps = 0 },
		"train frequency":  func(c *Config) { c.TrainFreq = 0 },
		"target frequency": func(c *Config) { c.TargetNetworkUpdateFreq = 0 },
		"gamma":            func(c *Config) { c.Gamma = 1.1 },
		"beta0": func(c *Config) {
			c.PrioritizedReplay = true
			c.PrioritizedBeta0 = 1.5
		},
	}

	for name, modify := range tests {
		c := newConfig(t)
		modify(c)
		if err := c.Validate(); err == nil {
			t.Errorf("validate: expected error for invalid %v", name)
		}
	}
}

func TestDueling(t *testing.T) {
	net, err := network.NewMLP(2, 1, 4, G.NewGraph(), []int{}, []bool{},
		G.Zeroes(), []*network.Activation{}, "q")
	if err != nil {
		t.Fatal(err)
	}
	q := actionValues(net, 3, true, "q")
	setBias(t, net, []float64{1, 1, 2, 3})

	p, err := network.NewPredictor(net, q)
	if err != nil {
		t.Fatal(err)
	}
	values, err := p.Predict([]float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0, 1, 2}
	for i := range want {
		if math.Abs(values[i]-want[i]) > tol {
			t.Errorf("actionValues: expected %v but got %v", want, values)
			break
		}
	}
}

func TestHuber(t *testing.T) {
	g := G.NewGraph()
	x := G.NewVector(g, tensor.Float64, G.WithShape(5),
		G.WithValue(tensor.New(tensor.WithShape(5),
			tensor.WithBacking([]float64{-3, -0.5, 0, 0.5, 2}))))
	loss := huber(x)

	var out G.Value
	G.Read(loss, &out)
	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	want := []float64{2.5, 0.125, 0, 0.125, 1.5}
	got := network.Values(out)
	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("huber: expected %v but got %v", want, got)
			break
		}
	}
}

func TestUpdateTargets(t *testing.T) {
	tests := []struct {
		doubleQ bool
		want    []float64
	}{
		{doubleQ: true, want: []float64{1 + 0.5*3, 2}},
		{doubleQ: false, want: []float64{1 + 0.5*5, 2}},
	}

	for _, test := range tests {
		e := envtest.Cartpole(t, 10, 1)
		c := newConfig(t)
		c.Layers, c.Biases, c.Activations = nil, nil, nil
		c.Dueling = false
		c.DoubleQ = test.doubleQ
		c.BatchSize = 2
		c.Gamma = 0.5
		c.InitWFn, _ = initwfn.NewZeroes()

		d, err := New(e, *c, 1)
		if err != nil {
			t.Fatal(err)
		}
		setBias(t, d.target.Network(), []float64{5, 3})
		setBias(t, d.online.Network(), []float64{0, 9})

		batch := expreplay.Batch{
			Reward:    []float64{1, 2},
			Discount:  []float64{1, 0},
			NextState: make([]float64, 8),
		}
		targets, err := d.updateTargets(batch)
		if err != nil {
			t.Fatal(err)
		}
		for i := range test.want {
			if math.Abs(targets[i]-test.want[i]) > tol {
				t.Errorf("updateTargets (double Q = %v): expected %v but "+
					"got %v", test.doubleQ, test.want, targets)
				break
			}
		}
	}
}

func TestEpsilonSchedule(t *testing.T) {
	e := envtest.Cartpole(t, 10, 1)
	c := newConfig(t)
	c.LearningStarts = 1000
	d, err := New(e, *c, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 25; i++ {
		if err := d.Step(); err != nil {
			t.Fatal(err)
		}
	}
	want := 1.0 + 0.5*(c.ExplorationFinalEps-1.0)
	if math.Abs(d.Epsilon()-want) > tol {
		t.Errorf("epsilon: expected %v after 25 steps but got %v", want,
			d.Epsilon())
	}

	for i := 0; i < 50; i++ {
		d.Step()
	}
	if math.Abs(d.Epsilon()-c.ExplorationFinalEps) > tol {
		t.Errorf("epsilon: expected %v after exploration but got %v",
			c.ExplorationFinalEps, d.Epsilon())
	}

	// Evaluation steps do not advance the schedule
	d.Eval()
	steps := d.steps
	d.Step()
	if d.steps != steps {
		t.Errorf("step: evaluation step advanced the step count")
	}
}

func TestLearns(t *testing.T) {
	for _, prioritized := range []bool{false, true} {
		e := envtest.Cartpole(t, 50, 1)
		c := newConfig(t)
		c.PrioritizedReplay = prioritized
		d, err := New(e, *c, 1)
		if err != nil {
			t.Fatal(err)
		}

		before := envtest.Weights(d.trainNet)
		target := envtest.Weights(d.target.Network())
		for d.steps < c.LearningStarts+c.TargetNetworkUpdateFreq {
			envtest.RunEpisode(t, d, e, 50)
		}

		after := envtest.Weights(d.trainNet)
		if !envtest.Changed(before, after) {
			t.Errorf("learn (prioritized = %v): weights unchanged",
				prioritized)
		}
		if !envtest.Changed(target, envtest.Weights(d.target.Network())) {
			t.Errorf("learn (prioritized = %v): target network never "+
				"updated", prioritized)
		}
		if envtest.Changed(after, envtest.Weights(d.behaviour.Network())) ||
			envtest.Changed(after, envtest.Weights(d.online.Network())) {
			t.Errorf("learn (prioritized = %v): online networks out of sync",
				prioritized)
		}

		if prioritized {
			beta := c.PrioritizedBeta0 + float64(d.steps)/
				float64(c.TotalSteps)*(1-c.PrioritizedBeta0)
			beta = math.Min(beta, 1.0)
			if math.Abs(d.prioritized.Beta()-beta) > tol {
				t.Errorf("learn: expected beta %v but got %v", beta,
					d.prioritized.Beta())
			}
		}
	}
}

func TestContinuousActions(t *testing.T) {
	e := envtest.Pendulum(t, 10, 1)
	if _, err := New(e, *newConfig(t), 1); err == nil {
		t.Errorf("new: expected error for continuous actions")
	}
}

func TestSaveLoad(t *testing.T) {
	e := envtest.Cartpole(t, 50, 1)
	c := newConfig(t)
	d, err := New(e, *c, 1)
	if err != nil {
		t.Fatal(err)
	}
	for d.steps <= c.LearningStarts+c.TrainFreq {
		envtest.RunEpisode(t, d, e, 50)
	}

	dir := t.TempDir()
	if err := d.Save(dir); err != nil {
		t.Fatal(err)
	}

	loaded, err := New(e, *newConfig(t), 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := loaded.Load(dir); err != nil {
		t.Fatal(err)
	}

	want := envtest.Weights(d.trainNet)
	for _, net := range []network.NeuralNet{loaded.trainNet,
		loaded.behaviour.Network(), loaded.target.Network()} {
		if envtest.Changed(want, envtest.Weights(net)) {
			t.Errorf("load: weights differ from saved weights")
		}
	}
}
