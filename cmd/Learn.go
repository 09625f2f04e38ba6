package cmd

import (
	"fmt"
	"log"

	"github.com/samuelfneumann/rlzoo/environment/envconfig"
	"github.com/samuelfneumann/rlzoo/experiment"
	"github.com/spf13/cobra"
)

const (
	train = experiment.Train
	test  = experiment.Test
)

// learnCommand returns the command that runs an experiment in the
// argument mode
func learnCommand(mode experiment.Mode) *cobra.Command {
	o := &options{}
	c := &cobra.Command{
		Use:   fmt.Sprintf("%v [flags] [-- --key value ...]", mode),
		Short: fmt.Sprintf("%v an agent", titles[mode]),
		RunE: func(cmd *cobra.Command, args []string) error {
			return learn(cmd, o, mode, args)
		},
	}

	flags := c.Flags()
	addAlgFlags(flags, o)
	flags.StringVar(&o.env, "env", envconfig.CartPoleV0, "environment name")
	flags.StringVar(&o.config, "config", "", "config file of "+
		"hyperparameter overrides")
	flags.StringVar(&o.dir, "dir", ".", "root directory of models, logs, "+
		"and images")
	flags.Uint64Var(&o.seed, "seed", 0, "seed of the experiment (default "+
		"from the algorithm defaults)")
	flags.BoolVar(&o.color, "color", false, "colour log lines")
	flags.BoolVar(&o.continuous, "continuous", false, "use continuous "+
		"actions in native environments (default from the environment)")
	if mode == test {
		flags.BoolVar(&o.render, "render", false, "save a frame of each "+
			"step")
	}
	return c
}

var titles = map[experiment.Mode]string{
	train: "Train",
	test:  "Test",
}

// learn creates the environment, agent, and experiment described by
// the flags and overrides and runs the experiment
func learn(cmd *cobra.Command, o *options, mode experiment.Mode,
	args []string) error {
	envType, err := envconfig.ParseEnvType(o.envType)
	if err != nil {
		return err
	}
	c, learnConf, err := configure(cmd.Flags(), o, args)
	if err != nil {
		return err
	}

	envConf := envconfig.NewConfig(o.env, envType, 1.0)
	if cmd.Flags().Changed("continuous") {
		envConf.ContinuousActions = o.continuous
	}
	e, _, err := envConf.Create(learnConf.Seed)
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := c.CreateAgent(e, learnConf.Seed)
	if err != nil {
		return err
	}

	logger := log.New(cmd.OutOrStdout(), "", 0)
	exp := experiment.NewEpisodic(e, a, c.Type(), o.env, learnConf, o.dir,
		logger, o.color)
	return exp.Learn(cmd.Context(), mode)
}
