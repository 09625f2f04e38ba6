package td3

import (
	"fmt"

	"github.com/samuelfneumann/rlzoo/agent"
	env "github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/initwfn"
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/solver"
)

// Config implements a configuration of a TD3 agent. The policy and
// both action value functions share the same hidden layers.
type Config struct {
	Layers       []int                 `mapstructure:"-"`
	Biases       []bool                `mapstructure:"-"`
	Activations  []*network.Activation `mapstructure:"-"`
	InitWFn      *initwfn.InitWFn      `mapstructure:"-"`
	QSolver      *solver.Solver        `mapstructure:"-"`
	PolicySolver *solver.Solver        `mapstructure:"-"`

	ReplayBufferCapacity int `mapstructure:"replay_buffer_capacity"`
	BatchSize            int `mapstructure:"batch_size"`

	// Number of updates to the action value functions per update to
	// the policy and target networks
	PolicyTargetUpdateInterval int     `mapstructure:"policy_target_update_interval"`
	ActionRange                float64 `mapstructure:"action_range"`

	// Number of uniform random actions taken before the policy acts
	ExploreSteps int `mapstructure:"explore_steps"`

	UpdateItr         int     `mapstructure:"update_itr"`
	RewardScale       float64 `mapstructure:"reward_scale"`
	ExploreNoiseScale float64 `mapstructure:"explore_noise_scale"`
	EvalNoiseScale    float64 `mapstructure:"eval_noise_scale"`
	Gamma             float64 `mapstructure:"gamma"`
	Tau               float64 `mapstructure:"tau"`
}

// Validate checks a Config to ensure it is a valid configuration
func (c *Config) Validate() error {
	if err := agent.ValidateLayers("td3", c.Layers, c.Biases,
		c.Activations); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if c.InitWFn == nil || c.QSolver == nil || c.PolicySolver == nil {
		return fmt.Errorf("validate: InitWFn, QSolver, and PolicySolver " +
			"must be set")
	}
	if c.BatchSize <= 0 || c.ReplayBufferCapacity < c.BatchSize {
		return fmt.Errorf("validate: cannot have batch size %v with "+
			"replay buffer capacity %v", c.BatchSize, c.ReplayBufferCapacity)
	}
	if c.PolicyTargetUpdateInterval <= 0 || c.UpdateItr <= 0 {
		return fmt.Errorf("validate: policy target update interval (%v) "+
			"and update iterations (%v) must be positive",
			c.PolicyTargetUpdateInterval, c.UpdateItr)
	}
	if c.ActionRange <= 0 {
		return fmt.Errorf("validate: action range must be positive")
	}
	if c.ExploreSteps < 0 {
		return fmt.Errorf("validate: explore steps must be >= 0")
	}
	if c.ExploreNoiseScale < 0 || c.EvalNoiseScale < 0 {
		return fmt.Errorf("validate: noise scales must be >= 0")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1] but got %v",
			c.Gamma)
	}
	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("validate: tau must be in (0, 1] but got %v",
			c.Tau)
	}
	return nil
}

// Type returns the type of the configuration
func (c *Config) Type() agent.Type {
	return agent.TD3
}

// CreateAgent creates and returns the agent determined by the
// configuration
func (c *Config) CreateAgent(e env.Environment, seed uint64) (agent.Agent,
	error) {
	return New(e, *c, seed)
}
