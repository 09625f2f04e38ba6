// Package envtest provides small native environments and an episode
// runner for testing agents without the gym adapter
package envtest

import (
	"math"
	"testing"

	"github.com/samuelfneumann/rlzoo/agent"
	env "github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/rlzoo/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/rlzoo/environment/wrappers"
	"github.com/samuelfneumann/rlzoo/network"
	"gonum.org/v1/gonum/spatial/r1"
)

// Cartpole returns a discrete-action Cartpole environment with episodes
// of at most cutoff steps
func Cartpole(t testing.TB, cutoff int, seed uint64) env.Environment {
	t.Helper()
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := env.NewUniformStarter([]r1.Interval{bounds, bounds, bounds,
		bounds}, seed)

	e, _ := cartpole.NewDiscrete(cartpole.NewBalance(s, cutoff,
		cartpole.FailAngle), 1.0)
	return e
}

// Pendulum returns a continuous-action Pendulum environment with
// actions normalized to [-1, 1] and episodes of exactly cutoff steps
func Pendulum(t testing.TB, cutoff int, seed uint64) env.Environment {
	t.Helper()
	s := env.NewUniformStarter([]r1.Interval{
		{Min: -math.Pi, Max: math.Pi},
		{Min: -1, Max: 1},
	}, seed)

	e, _ := pendulum.NewContinuous(pendulum.NewSwingUp(s, cutoff), 1.0)
	wrapped, err := wrappers.NewNormalizedActions(e)
	if err != nil {
		t.Fatal(err)
	}
	return wrapped
}

// RunEpisode runs a single episode of at most maxSteps steps in e,
// calling every agent hook along the way, and returns the episodic
// return and number of steps
func RunEpisode(t testing.TB, a agent.Agent, e env.Environment,
	maxSteps int) (float64, int) {
	t.Helper()

	step, err := e.Reset()
	if err != nil {
		t.Fatal(err)
	}
	if err := a.ObserveFirst(step); err != nil {
		t.Fatal(err)
	}

	var ret float64
	var steps int
	for steps < maxSteps {
		action := a.SelectAction(step)

		var done bool
		step, done, err = e.Step(action)
		if err != nil {
			t.Fatal(err)
		}
		if err := a.Observe(action, step); err != nil {
			t.Fatal(err)
		}
		if err := a.Step(); err != nil {
			t.Fatal(err)
		}

		ret += step.Reward
		steps++
		if done {
			break
		}
	}

	if err := a.EndEpisode(); err != nil {
		t.Fatal(err)
	}
	return ret, steps
}

// Weights returns a copy of the weights of all learnables of nets
func Weights(nets ...network.NeuralNet) []float64 {
	var weights []float64
	for _, net := range nets {
		for _, node := range net.Learnables() {
			weights = append(weights, network.Values(node.Value())...)
		}
	}
	return weights
}

// Changed returns whether two sets of weights differ
func Changed(before, after []float64) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i] != after[i] {
			return true
		}
	}
	return false
}
