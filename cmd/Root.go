// Package cmd implements the rlzoo command line interface
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// options holds the flags shared by the rlzoo commands
type options struct {
	alg        string
	env        string
	envType    string
	config     string
	dir        string
	seed       uint64
	color      bool
	render     bool
	continuous bool
}

// NewRootCommand returns the rlzoo command with all subcommands
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "rlzoo",
		Short: "Train and test reinforcement learning baselines",
		Long: "rlzoo trains and tests PG, AC, DQN, and TD3 agents with " +
			"default hyperparameters for each environment type.\n\n" +
			"Hyperparameters may be overridden by a config file and by " +
			"--key value pairs after --, for example:\n\n" +
			"  rlzoo train --alg DQN --env CartPole-v0 -- --gamma 0.95\n\n" +
			"DQN needs discrete actions and TD3 needs continuous actions. " +
			"Native classic control environments take the action type " +
			"of their Gym counterpart unless --continuous is set, for " +
			"example:\n\n" +
			"  rlzoo train --alg TD3 --env CartPole-v0 --continuous",
		SilenceUsage: true,
	}

	root.AddCommand(
		learnCommand(train),
		learnCommand(test),
		paramsCommand(),
	)
	return root
}

// Execute runs the rlzoo command, stopping any running experiment on
// interrupt
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}

// addAlgFlags adds the flags that select an algorithm and its default
// hyperparameters
func addAlgFlags(flags *pflag.FlagSet, o *options) {
	flags.StringVar(&o.alg, "alg", "DQN", "algorithm: PG, AC, DQN, or TD3")
	flags.StringVar(&o.envType, "env-type", "classic_control",
		"environment type: classic_control, box2d, mujoco, robotics, "+
			"dm_control, rlbench, or atari")
}
