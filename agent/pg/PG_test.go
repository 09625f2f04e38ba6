package pg

import (
	"testing"

	env "github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/initwfn"
	"github.com/samuelfneumann/rlzoo/internal/envtest"
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/solver"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/mat"
)

const maxSteps = 30

func newConfig(t *testing.T) *Config {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := solver.NewDefaultAdam(1e-2, 1)
	if err != nil {
		t.Fatal(err)
	}

	return &Config{
		PolicyLayers:      []int{8},
		PolicyBiases:      []bool{true},
		PolicyActivations: []*network.Activation{network.TanH()},
		InitWFn:           init,
		Solver:            s,
		Gamma:             0.95,
		MaxSteps:          maxSteps,
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"gamma":       func(c *Config) { c.Gamma = 1.5 },
		"max steps":   func(c *Config) { c.MaxSteps = 1 },
		"activations": func(c *Config) { c.PolicyActivations = nil },
		"solver":      func(c *Config) { c.Solver = nil },
	}

	for name, modify := range tests {
		c := newConfig(t)
		modify(c)
		if err := c.Validate(); err == nil {
			t.Errorf("validate: expected error for invalid %v", name)
		}
	}

	if err := newConfig(t).Validate(); err != nil {
		t.Errorf("validate: unexpected error: %v", err)
	}
}

func TestLearnsEachEpisode(t *testing.T) {
	tests := map[string]func(*testing.T) env.Environment{
		"Categorical": func(t *testing.T) env.Environment {
			return envtest.Cartpole(t, maxSteps, 1)
		},
		"Gaussian": func(t *testing.T) env.Environment {
			return envtest.Pendulum(t, maxSteps, 1)
		},
	}

	for name, newEnv := range tests {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			a, err := newConfig(t).CreateAgent(e, 1)
			if err != nil {
				t.Fatal(err)
			}
			p := a.(*PG)

			for i := 0; i < 3; i++ {
				before := envtest.Weights(p.behaviour.Network())
				_, steps := envtest.RunEpisode(t, a, e, maxSteps)
				after := envtest.Weights(p.behaviour.Network())

				if steps > 1 && !envtest.Changed(before, after) {
					t.Errorf("episode %v: weights unchanged after %v steps", i,
						steps)
				}

				train := envtest.Weights(p.trainPolicy.Network())
				if envtest.Changed(after, train) {
					t.Errorf("episode %v: behaviour and train policies "+
						"differ", i)
				}
				if len(p.rewards) != 0 {
					t.Errorf("episode %v: buffer not cleared", i)
				}
			}
		})
	}
}

func TestEvalDoesNotLearn(t *testing.T) {
	e := envtest.Cartpole(t, maxSteps, 1)
	a, err := New(e, *newConfig(t), 1)
	if err != nil {
		t.Fatal(err)
	}

	a.Eval()
	before := envtest.Weights(a.behaviour.Network())
	envtest.RunEpisode(t, a, e, maxSteps)
	if envtest.Changed(before, envtest.Weights(a.behaviour.Network())) {
		t.Errorf("eval: weights changed in evaluation mode")
	}
}

func TestShortEpisodeSkipped(t *testing.T) {
	e := envtest.Cartpole(t, maxSteps, 1)
	a, err := New(e, *newConfig(t), 1)
	if err != nil {
		t.Fatal(err)
	}
	before := envtest.Weights(a.behaviour.Network())

	step, _ := e.Reset()
	if err := a.ObserveFirst(step); err != nil {
		t.Fatal(err)
	}
	if err := a.EndEpisode(); err != nil {
		t.Errorf("endEpisode: unexpected error on empty episode: %v", err)
	}

	action := a.SelectAction(step)
	next, _, _ := e.Step(action)
	a.ObserveFirst(step)
	a.Observe(action, next)
	if err := a.EndEpisode(); err != nil {
		t.Errorf("endEpisode: unexpected error on one-step episode: %v", err)
	}

	if envtest.Changed(before, envtest.Weights(a.behaviour.Network())) {
		t.Errorf("endEpisode: weights changed on short episode")
	}
}

func TestEpisodeTooLong(t *testing.T) {
	e := envtest.Cartpole(t, maxSteps, 1)
	a, err := New(e, *newConfig(t), 1)
	if err != nil {
		t.Fatal(err)
	}

	obs := mat.NewVecDense(4, nil)
	a.ObserveFirst(ts.New(ts.First, 0, 1, obs, 0))
	for i := 0; i <= maxSteps; i++ {
		next := ts.New(ts.Mid, 1, 1, obs, i+1)
		if err := a.Observe(mat.NewVecDense(1, []float64{0}), next); err != nil {
			t.Fatal(err)
		}
	}

	if err := a.EndEpisode(); err == nil {
		t.Errorf("endEpisode: expected error for episode longer than "+
			"%v steps", maxSteps)
	}
}

func TestSaveLoad(t *testing.T) {
	e := envtest.Cartpole(t, maxSteps, 1)
	a, err := New(e, *newConfig(t), 1)
	if err != nil {
		t.Fatal(err)
	}
	envtest.RunEpisode(t, a, e, maxSteps)

	dir := t.TempDir()
	if err := a.Save(dir); err != nil {
		t.Fatal(err)
	}

	loaded, err := New(e, *newConfig(t), 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := loaded.Load(dir); err != nil {
		t.Fatal(err)
	}

	want := envtest.Weights(a.behaviour.Network())
	if envtest.Changed(want, envtest.Weights(loaded.behaviour.Network())) {
		t.Errorf("load: behaviour policy weights differ from saved weights")
	}
	if envtest.Changed(want, envtest.Weights(loaded.trainPolicy.Network())) {
		t.Errorf("load: train policy weights differ from saved weights")
	}
}
