package pg

import (
	"fmt"

	"github.com/samuelfneumann/rlzoo/agent"
	env "github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/initwfn"
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/solver"
)

// Config implements a configuration of a PG agent. The policy is
// Categorical for environments with discrete actions and Gaussian
// otherwise.
type Config struct {
	PolicyLayers      []int                 `mapstructure:"-"`
	PolicyBiases      []bool                `mapstructure:"-"`
	PolicyActivations []*network.Activation `mapstructure:"-"`

	InitWFn *initwfn.InitWFn `mapstructure:"-"`
	Solver  *solver.Solver   `mapstructure:"-"`

	Gamma float64 `mapstructure:"gamma"`

	// MaxSteps is the longest episode that can be learned from
	MaxSteps int `mapstructure:"max_steps"`
}

// Validate checks a Config to ensure it is a valid configuration
func (c *Config) Validate() error {
	if err := agent.ValidateLayers("policy", c.PolicyLayers, c.PolicyBiases,
		c.PolicyActivations); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if c.InitWFn == nil || c.Solver == nil {
		return fmt.Errorf("validate: InitWFn and Solver must be set")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1] but got %v",
			c.Gamma)
	}
	if c.MaxSteps <= 1 {
		return fmt.Errorf("validate: max steps must be > 1 but got %v",
			c.MaxSteps)
	}
	return nil
}

// Type returns the type of the configuration
func (c *Config) Type() agent.Type {
	return agent.PG
}

// CreateAgent creates and returns the agent determined by the
// configuration
func (c *Config) CreateAgent(e env.Environment, seed uint64) (agent.Agent,
	error) {
	return New(e, *c, seed)
}
