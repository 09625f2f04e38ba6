// Package envconfig provides configuration structs for creating
// environments by name and environment type, using native
// implementations where they exist and OpenAI Gym otherwise.
// Environment configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"
	"math"
	"strings"

	env "github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/environment/classiccontrol/acrobot"
	"github.com/samuelfneumann/rlzoo/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/rlzoo/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/rlzoo/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/rlzoo/environment/gym"
	"github.com/samuelfneumann/rlzoo/environment/wrappers"
	ts "github.com/samuelfneumann/rlzoo/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

// EnvType is the suite an environment belongs to. Default
// hyperparameters are chosen by environment type.
type EnvType string

// Environment types
const (
	ClassicControl EnvType = "classic_control"
	Box2D          EnvType = "box2d"
	Mujoco         EnvType = "mujoco"
	Robotics       EnvType = "robotics"
	DMControl      EnvType = "dm_control"
	RLBench        EnvType = "rlbench"
	Atari          EnvType = "atari"
)

// EnvTypes lists all known environment types
var EnvTypes = []EnvType{ClassicControl, Box2D, Mujoco, Robotics,
	DMControl, RLBench, Atari}

// ParseEnvType returns the EnvType named by s
func ParseEnvType(s string) (EnvType, error) {
	for _, t := range EnvTypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("parseEnvType: unknown environment type %q", s)
}

// Environments with native implementations
const (
	CartPoleV0 = "CartPole-v0"
	CartPoleV1 = "CartPole-v1"
	PendulumV0 = "Pendulum-v0"
	PendulumV1 = "Pendulum-v1"

	MountainCarV0           = "MountainCar-v0"
	MountainCarContinuousV0 = "MountainCarContinuous-v0"
	AcrobotV1               = "Acrobot-v1"
)

// defaultCutoffs are the default episode cutoffs of the native
// environments
var defaultCutoffs = map[string]int{
	CartPoleV0: 200,
	CartPoleV1: 500,
	PendulumV0: 200,
	PendulumV1: 200,

	MountainCarV0:           200,
	MountainCarContinuousV0: 999,
	AcrobotV1:               500,
}

// Config implements a specific configuration of a specific environment
type Config struct {
	Name string
	Type EnvType

	Discount float64

	// EpisodeCutoff is the step limit of native environments. If 0,
	// the default step limit of the environment is used. Gym
	// environments always use their default cutoffs.
	EpisodeCutoff int

	// ContinuousActions selects the action variant of native
	// environments
	ContinuousActions bool

	// Gym forces the OpenAI Gym implementation of an environment even
	// when a native one exists
	Gym bool
}

// NewConfig returns a new environment Config using the native action
// type of the environment
func NewConfig(name string, envType EnvType, discount float64) Config {
	return Config{
		Name:              name,
		Type:              envType,
		Discount:          discount,
		ContinuousActions: continuousByDefault(name),
	}
}

// continuousByDefault returns whether the named environment has
// continuous actions in OpenAI Gym
func continuousByDefault(name string) bool {
	return strings.HasPrefix(name, "Pendulum") ||
		strings.Contains(name, "Continuous")
}

// Native returns whether the Config describes an environment with a
// native implementation
func (c Config) Native() bool {
	_, ok := defaultCutoffs[c.Name]
	return ok && !c.Gym && c.Type == ClassicControl
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment. Environments with continuous
// actions are wrapped so that agents act in [-1, 1].
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	if c.Type == Atari {
		return nil, ts.TimeStep{}, fmt.Errorf("create: environment type "+
			"%v is not supported", Atari)
	}

	var e env.Environment
	var err error
	if c.Native() {
		e = c.createNative(seed)
	} else {
		e, _, err = gym.New(c.Name, c.Discount, seed)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
		}
	}

	if e.ActionSpec().Cardinality == env.Continuous {
		wrapped, err := wrappers.NewNormalizedActions(e)
		if err != nil {
			e.Close()
			return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
		}
		e = wrapped
	}

	step, err := e.Reset()
	if err != nil {
		e.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
	}
	return e, step, nil
}

// createNative creates a natively implemented environment
func (c Config) createNative(seed uint64) env.Environment {
	cutoff := c.EpisodeCutoff
	if cutoff <= 0 {
		cutoff = defaultCutoffs[c.Name]
	}

	switch c.Name {
	case CartPoleV0, CartPoleV1:
		return CreateCartpole(c.ContinuousActions, cutoff, seed, c.Discount)

	case MountainCarV0, MountainCarContinuousV0:
		return CreateMountainCar(c.ContinuousActions, cutoff, seed,
			c.Discount)

	case AcrobotV1:
		return CreateAcrobot(c.ContinuousActions, cutoff, seed, c.Discount)

	default:
		return CreatePendulum(c.ContinuousActions, cutoff, seed, c.Discount)
	}
}

// CreateCartpole is a factory for creating the Cartpole environment
// with default physical parameters and the Balance task
func CreateCartpole(continuousActions bool, cutoff int, seed uint64,
	discount float64) env.Environment {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := env.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)

	task := cartpole.NewBalance(s, cutoff, cartpole.FailAngle)

	if continuousActions {
		e, _ := cartpole.NewContinuous(task, discount)
		return e
	}
	e, _ := cartpole.NewDiscrete(task, discount)
	return e
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and the SwingUp task
func CreatePendulum(continuousActions bool, cutoff int, seed uint64,
	discount float64) env.Environment {
	angle := r1.Interval{Min: -math.Pi, Max: math.Pi}
	speed := r1.Interval{Min: -1.0, Max: 1.0}

	s := env.NewUniformStarter([]r1.Interval{angle, speed}, seed)
	task := pendulum.NewSwingUp(s, cutoff)

	if continuousActions {
		e, _ := pendulum.NewContinuous(task, discount)
		return e
	}
	e, _ := pendulum.NewDiscrete(task, discount)
	return e
}

// CreateMountainCar is a factory for creating the MountainCar
// environment with default physical parameters. Discrete actions use
// the Goal task and continuous actions use the EfficientGoal task.
func CreateMountainCar(continuousActions bool, cutoff int, seed uint64,
	discount float64) env.Environment {
	position := r1.Interval{Min: -0.6, Max: -0.4}
	velocity := r1.Interval{Min: 0.0, Max: 0.0}
	s := env.NewUniformStarter([]r1.Interval{position, velocity}, seed)

	if continuousActions {
		task := mountaincar.NewEfficientGoal(s, cutoff,
			mountaincar.ContinuousGoalPosition)
		e, _ := mountaincar.NewContinuous(task, discount)
		return e
	}
	task := mountaincar.NewGoal(s, cutoff, mountaincar.GoalPosition)
	e, _ := mountaincar.NewDiscrete(task, discount)
	return e
}

// CreateAcrobot is a factory for creating the Acrobot environment
// with default physical parameters and the SwingUp task
func CreateAcrobot(continuousActions bool, cutoff int, seed uint64,
	discount float64) env.Environment {
	bounds := r1.Interval{Min: -0.1, Max: 0.1}
	s := env.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)

	task := acrobot.NewSwingUp(s, cutoff, acrobot.GoalHeight)

	if continuousActions {
		e, _ := acrobot.NewContinuous(task, discount)
		return e
	}
	e, _ := acrobot.NewDiscrete(task, discount)
	return e
}
