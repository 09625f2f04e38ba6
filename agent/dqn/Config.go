package dqn

import (
	"fmt"

	"github.com/samuelfneumann/rlzoo/agent"
	env "github.com/samuelfneumann/rlzoo/environment"
	"github.com/samuelfneumann/rlzoo/expreplay"
	"github.com/samuelfneumann/rlzoo/initwfn"
	"github.com/samuelfneumann/rlzoo/network"
	"github.com/samuelfneumann/rlzoo/solver"
)

// Config implements a configuration of a DQN agent
type Config struct {
	Layers      []int                 `mapstructure:"-"`
	Biases      []bool                `mapstructure:"-"`
	Activations []*network.Activation `mapstructure:"-"`
	InitWFn     *initwfn.InitWFn      `mapstructure:"-"`
	Solver      *solver.Solver        `mapstructure:"-"`

	BatchSize  int  `mapstructure:"batch_size"`
	BufferSize int  `mapstructure:"buffer_size"`
	DoubleQ    bool `mapstructure:"double_q"`
	Dueling    bool `mapstructure:"dueling"`

	// Epsilon decays linearly from 1 to ExplorationFinalEps over the
	// first ExplorationRate * TotalSteps steps
	ExplorationRate     float64 `mapstructure:"exploration_rate"`
	ExplorationFinalEps float64 `mapstructure:"exploration_final_eps"`
	TotalSteps          int     `mapstructure:"total_steps"`

	TrainFreq               int     `mapstructure:"train_freq"`
	LearningStarts          int     `mapstructure:"learning_starts"`
	TargetNetworkUpdateFreq int     `mapstructure:"target_network_update_freq"`
	Gamma                   float64 `mapstructure:"gamma"`

	PrioritizedReplay bool    `mapstructure:"prioritized_replay"`
	PrioritizedAlpha  float64 `mapstructure:"prioritized_alpha"`
	PrioritizedBeta0  float64 `mapstructure:"prioritized_beta0"`
}

// Validate checks a Config to ensure it is a valid configuration
func (c *Config) Validate() error {
	if err := agent.ValidateLayers("q network", c.Layers, c.Biases,
		c.Activations); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if c.InitWFn == nil || c.Solver == nil {
		return fmt.Errorf("validate: InitWFn and Solver must be set")
	}
	if err := c.replay().Validate(); err != nil {
		return fmt.Errorf("validate: replay: %v", err)
	}
	if c.ExplorationRate < 0 || c.ExplorationRate > 1 {
		return fmt.Errorf("validate: exploration rate must be in [0, 1] "+
			"but got %v", c.ExplorationRate)
	}
	if c.ExplorationFinalEps < 0 || c.ExplorationFinalEps > 1 {
		return fmt.Errorf("validate: final epsilon must be in [0, 1] but "+
			"got %v", c.ExplorationFinalEps)
	}
	if c.TotalSteps <= 0 {
		return fmt.Errorf("validate: total steps must be positive")
	}
	if c.TrainFreq <= 0 || c.TargetNetworkUpdateFreq <= 0 {
		return fmt.Errorf("validate: train frequency (%v) and target "+
			"update frequency (%v) must be positive", c.TrainFreq,
			c.TargetNetworkUpdateFreq)
	}
	if c.LearningStarts < 0 {
		return fmt.Errorf("validate: learning starts must be >= 0")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1] but got %v",
			c.Gamma)
	}
	if c.PrioritizedReplay && (c.PrioritizedBeta0 < 0 ||
		c.PrioritizedBeta0 > 1) {
		return fmt.Errorf("validate: beta0 must be in [0, 1] but got %v",
			c.PrioritizedBeta0)
	}
	return nil
}

// replay returns the configuration of the agent's replay buffer
func (c *Config) replay() expreplay.Config {
	return expreplay.Config{
		Capacity:    c.BufferSize,
		MinCapacity: c.BatchSize,
		BatchSize:   c.BatchSize,
		Prioritized: c.PrioritizedReplay,
		Alpha:       c.PrioritizedAlpha,
		Beta:        c.PrioritizedBeta0,
	}
}

// Type returns the type of the configuration
func (c *Config) Type() agent.Type {
	return agent.DQN
}

// CreateAgent creates and returns the agent determined by the
// configuration
func (c *Config) CreateAgent(e env.Environment, seed uint64) (agent.Agent,
	error) {
	return New(e, *c, seed)
}
