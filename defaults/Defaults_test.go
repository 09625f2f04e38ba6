package defaults

import (
	"testing"

	"github.com/samuelfneumann/rlzoo/agent"
	"github.com/samuelfneumann/rlzoo/agent/dqn"
	"github.com/samuelfneumann/rlzoo/agent/td3"
	"github.com/samuelfneumann/rlzoo/environment/envconfig"
	"github.com/samuelfneumann/rlzoo/experiment"
)

func TestParamsValid(t *testing.T) {
	tests := []struct {
		alg     agent.Type
		envType envconfig.EnvType
	}{
		{agent.PG, envconfig.ClassicControl},
		{agent.PG, envconfig.Box2D},
		{agent.AC, envconfig.ClassicControl},
		{agent.DQN, envconfig.ClassicControl},
		{agent.TD3, envconfig.ClassicControl},
		{agent.TD3, envconfig.Mujoco},
		{agent.TD3, envconfig.RLBench},
	}

	for _, test := range tests {
		c, learn, err := Params(test.alg, test.envType)
		if err != nil {
			t.Errorf("params: %v", err)
			continue
		}
		if c.Type() != test.alg {
			t.Errorf("params: expected %v config but got %v", test.alg,
				c.Type())
		}
		if err := c.Validate(); err != nil {
			t.Errorf("params (%v, %v): %v", test.alg, test.envType, err)
		}
		for _, mode := range []experiment.Mode{experiment.Train,
			experiment.Test} {
			if err := learn.Validate(mode); err != nil {
				t.Errorf("params (%v, %v): %v", test.alg, test.envType, err)
			}
		}
		if learn.Seed != Seed {
			t.Errorf("params: expected seed %v but got %v", Seed, learn.Seed)
		}
	}
}

func TestParamsUnsupported(t *testing.T) {
	tests := []struct {
		alg     agent.Type
		envType envconfig.EnvType
	}{
		{agent.DQN, envconfig.Atari},
		{agent.DQN, envconfig.Mujoco},
		{agent.TD3, envconfig.Atari},
		{agent.Type("PPO"), envconfig.ClassicControl},
	}

	for _, test := range tests {
		if _, _, err := Params(test.alg, test.envType); err == nil {
			t.Errorf("params: expected error for %v with %v", test.alg,
				test.envType)
		}
	}
}

func TestTD3ActionRange(t *testing.T) {
	c, _, err := Params(agent.TD3, envconfig.RLBench)
	if err != nil {
		t.Fatal(err)
	}
	if r := c.(*td3.Config).ActionRange; r != 0.1 {
		t.Errorf("params: expected rlbench action range 0.1 but got %v", r)
	}

	c, learn, err := Params(agent.TD3, envconfig.DMControl)
	if err != nil {
		t.Fatal(err)
	}
	if r := c.(*td3.Config).ActionRange; r != 1.0 {
		t.Errorf("params: expected action range 1.0 but got %v", r)
	}
	if learn.MaxSteps != 150 {
		t.Errorf("params: expected 150 max steps but got %v", learn.MaxSteps)
	}
}

func TestDQNTotalSteps(t *testing.T) {
	c, learn, err := Params(agent.DQN, envconfig.ClassicControl)
	if err != nil {
		t.Fatal(err)
	}
	want := learn.TrainEpisodes * learn.MaxSteps
	if got := c.(*dqn.Config).TotalSteps; got != want {
		t.Errorf("params: expected %v total steps but got %v", want, got)
	}
}
