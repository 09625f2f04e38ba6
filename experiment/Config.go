// Package experiment runs the learn loop of an agent in an environment
package experiment

import (
	"fmt"
	"strings"
)

// Mode determines whether an agent is trained or tested
type Mode string

const (
	Train Mode = "train"
	Test  Mode = "test"
)

// ParseMode returns the Mode named by s
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case Train, Test:
		return m, nil
	}
	return "", fmt.Errorf("parseMode: unknown mode %q", s)
}

// Config holds the learn parameters of an experiment
type Config struct {
	TrainEpisodes int    `mapstructure:"train_episodes" json:"train_episodes"`
	TestEpisodes  int    `mapstructure:"test_episodes" json:"test_episodes"`
	MaxSteps      int    `mapstructure:"max_steps" json:"max_steps"`
	SaveInterval  int    `mapstructure:"save_interval" json:"save_interval"`
	Seed          uint64 `mapstructure:"seed" json:"seed"`

	// Render saves a frame of each step of the experiment
	Render bool `mapstructure:"render" json:"render"`
}

// Validate checks a Config for the given mode
func (c Config) Validate(mode Mode) error {
	if c.MaxSteps <= 0 {
		return fmt.Errorf("validate: max steps must be positive but got %v",
			c.MaxSteps)
	}

	switch mode {
	case Train:
		if c.TrainEpisodes <= 0 {
			return fmt.Errorf("validate: train episodes must be positive "+
				"but got %v", c.TrainEpisodes)
		}
		if c.SaveInterval <= 0 {
			return fmt.Errorf("validate: save interval must be positive "+
				"but got %v", c.SaveInterval)
		}

	case Test:
		if c.TestEpisodes <= 0 {
			return fmt.Errorf("validate: test episodes must be positive "+
				"but got %v", c.TestEpisodes)
		}

	default:
		return fmt.Errorf("validate: unknown mode %q", mode)
	}
	return nil
}
