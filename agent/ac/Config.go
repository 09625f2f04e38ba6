package ac

import (
	"fmt"

	"github.com/samuelfneumann/rlzoo/agent"
	env "github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/initwfn"
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/solver"
)

// Config implements a configuration of a one-step Actor-Critic agent
type Config struct {
	// Actor
	ActorLayers      []int                 `mapstructure:"-"`
	ActorBiases      []bool                `mapstructure:"-"`
	ActorActivations []*network.Activation `mapstructure:"-"`
	ActorSolver      *solver.Solver        `mapstructure:"-"`

	// State value function
	CriticLayers      []int                 `mapstructure:"-"`
	CriticBiases      []bool                `mapstructure:"-"`
	CriticActivations []*network.Activation `mapstructure:"-"`
	CriticSolver      *solver.Solver        `mapstructure:"-"`

	InitWFn *initwfn.InitWFn `mapstructure:"-"`

	Gamma float64 `mapstructure:"gamma"`
}

// Validate checks a Config to ensure it is a valid configuration
func (c *Config) Validate() error {
	if err := agent.ValidateLayers("actor", c.ActorLayers, c.ActorBiases,
		c.ActorActivations); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := agent.ValidateLayers("critic", c.CriticLayers, c.CriticBiases,
		c.CriticActivations); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if c.ActorSolver == nil || c.CriticSolver == nil {
		return fmt.Errorf("validate: actor and critic solvers must be set")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: InitWFn must be set")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1] but got %v",
			c.Gamma)
	}
	return nil
}

// Type returns the type of the configuration
func (c *Config) Type() agent.Type {
	return agent.AC
}

// CreateAgent creates and returns the agent determined by the
// configuration
func (c *Config) CreateAgent(e env.Environment, seed uint64) (agent.Agent,
	error) {
	return New(e, *c, seed)
}
