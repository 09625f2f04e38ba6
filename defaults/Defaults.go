// Package defaults provides the default hyperparameters of each
// algorithm for each environment type
package defaults

import (
	"fmt"

	"github.com/samuelfneumann/rlzoo/agent"
	"github.com/samuelfneumann/rlzoo/agent/ac"
	"github.com/samuelfneumann/rlzoo/agent/dqn"
	"github.com/samuelfneumann/rlzoo/agent/pg"
	"github.com/samuelfneumann/rlzoo/agent/td3"
	"github.com/samuelfneumann/rlzoo/environment/envconfig"
	"github.com/samuelfneumann/rlzoo/experiment"
	"github.com/samuelfneumann/rlzoo/initwfn"
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/solver"
)

// Seed is the default seed of experiments
const Seed uint64 = 2

// Params returns the default configuration of algorithm alg and the
// default learn parameters of the experiment for environments of type
// envType
func Params(alg agent.Type, envType envconfig.EnvType) (agent.Config,
	experiment.Config, error) {
	var c agent.Config
	var learn experiment.Config
	var err error

	switch alg {
	case agent.PG:
		c, learn, err = pgParams()

	case agent.AC:
		c, learn, err = acParams()

	case agent.DQN:
		switch envType {
		case envconfig.ClassicControl:
			c, learn, err = dqnClassicControl()
		default:
			err = fmt.Errorf("no default parameters")
		}

	case agent.TD3:
		switch envType {
		case envconfig.ClassicControl, envconfig.Box2D, envconfig.Mujoco,
			envconfig.Robotics, envconfig.DMControl:
			c, learn, err = td3Params(1.0)
		case envconfig.RLBench:
			c, learn, err = td3Params(0.1)
		default:
			err = fmt.Errorf("no default parameters")
		}

	default:
		err = fmt.Errorf("unknown algorithm")
	}

	if err != nil {
		return nil, experiment.Config{}, fmt.Errorf("params: %v with %v "+
			"environments: %v", alg, envType, err)
	}
	return c, learn, nil
}

func pgParams() (agent.Config, experiment.Config, error) {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return nil, experiment.Config{}, err
	}
	s, err := solver.NewDefaultAdam(2e-2, 1)
	if err != nil {
		return nil, experiment.Config{}, err
	}

	learn := experiment.Config{
		TrainEpisodes: 300,
		TestEpisodes:  200,
		MaxSteps:      200,
		SaveInterval:  100,
		Seed:          Seed,
	}
	return &pg.Config{
		PolicyLayers:      []int{30},
		PolicyBiases:      agent.Biases(1),
		PolicyActivations: []*network.Activation{network.TanH()},
		InitWFn:           init,
		Solver:            s,
		Gamma:             0.95,
		MaxSteps:          learn.MaxSteps,
	}, learn, nil
}

func acParams() (agent.Config, experiment.Config, error) {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return nil, experiment.Config{}, err
	}
	actorSolver, err := solver.NewDefaultAdam(1e-4, 1)
	if err != nil {
		return nil, experiment.Config{}, err
	}
	criticSolver, err := solver.NewDefaultAdam(1e-2, 1)
	if err != nil {
		return nil, experiment.Config{}, err
	}

	return &ac.Config{
			ActorLayers:       []int{32},
			ActorBiases:       agent.Biases(1),
			ActorActivations:  []*network.Activation{network.TanH()},
			ActorSolver:       actorSolver,
			CriticLayers:      []int{32},
			CriticBiases:      agent.Biases(1),
			CriticActivations: []*network.Activation{network.ReLU()},
			CriticSolver:      criticSolver,
			InitWFn:           init,
			Gamma:             0.9,
		}, experiment.Config{
			TrainEpisodes: 500,
			TestEpisodes:  100,
			MaxSteps:      200,
			SaveInterval:  50,
			Seed:          Seed,
		}, nil
}

func dqnClassicControl() (agent.Config, experiment.Config, error) {
	init, err := initwfn.NewOrthogonal(1.0, Seed)
	if err != nil {
		return nil, experiment.Config{}, err
	}
	s, err := solver.NewAdam(5e-3, 1e-5, 0.9, 0.999, 1, 0)
	if err != nil {
		return nil, experiment.Config{}, err
	}

	learn := experiment.Config{
		TrainEpisodes: 1000,
		TestEpisodes:  10,
		MaxSteps:      200,
		SaveInterval:  100,
		Seed:          Seed,
	}
	return &dqn.Config{
		Layers:                  []int{64},
		Biases:                  agent.Biases(1),
		Activations:             []*network.Activation{network.TanH()},
		InitWFn:                 init,
		Solver:                  s,
		BatchSize:               32,
		BufferSize:              1000,
		DoubleQ:                 true,
		Dueling:                 true,
		ExplorationRate:         0.2,
		ExplorationFinalEps:     0.01,
		TotalSteps:              learn.TrainEpisodes * learn.MaxSteps,
		TrainFreq:               4,
		LearningStarts:          200,
		TargetNetworkUpdateFreq: 50,
		Gamma:                   0.99,
		PrioritizedReplay:       false,
		PrioritizedAlpha:        0.6,
		PrioritizedBeta0:        0.4,
	}, learn, nil
}

func td3Params(actionRange float64) (agent.Config, experiment.Config,
	error) {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return nil, experiment.Config{}, err
	}
	qSolver, err := solver.NewDefaultAdam(3e-4, 1)
	if err != nil {
		return nil, experiment.Config{}, err
	}
	policySolver, err := solver.NewDefaultAdam(3e-4, 1)
	if err != nil {
		return nil, experiment.Config{}, err
	}

	return &td3.Config{
			Layers:                     []int{64, 64, 64, 64},
			Biases:                     agent.Biases(4),
			Activations:                network.Repeat(network.ReLU, 4),
			InitWFn:                    init,
			QSolver:                    qSolver,
			PolicySolver:               policySolver,
			ReplayBufferCapacity:       500_000,
			BatchSize:                  64,
			PolicyTargetUpdateInterval: 5,
			ActionRange:                actionRange,
			ExploreSteps:               500,
			UpdateItr:                  3,
			RewardScale:                1.0,
			ExploreNoiseScale:          1.0,
			EvalNoiseScale:             0.5,
			Gamma:                      0.9,
			Tau:                        1e-2,
		}, experiment.Config{
			TrainEpisodes: 1000,
			TestEpisodes:  10,
			MaxSteps:      150,
			SaveInterval:  100,
			Seed:          Seed,
		}, nil
}
