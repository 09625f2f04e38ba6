package cmd

import (
	"encoding/json"

	"github.com/samuelfneumann/rlzoo/agent"
	"github.com/samuelfneumann/rlzoo/environment/envconfig"
	"github.com/samuelfneumann/rlzoo/experiment"
	"github.com/spf13/cobra"
)

// params is the printed form of a configuration
type params struct {
	Alg     agent.Type        `json:"alg"`
	EnvType envconfig.EnvType `json:"env_type"`
	Agent   agent.Config      `json:"agent"`
	Learn   experiment.Config `json:"learn"`
}

// paramsCommand returns the command that prints the configuration an
// experiment would use as JSON
func paramsCommand() *cobra.Command {
	o := &options{}
	c := &cobra.Command{
		Use:   "params [flags] [-- --key value ...]",
		Short: "Print the hyperparameters of an algorithm",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, learnConf, err := configure(cmd.Flags(), o, args)
			if err != nil {
				return err
			}
			envType, _ := envconfig.ParseEnvType(o.envType)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(params{
				Alg:     conf.Type(),
				EnvType: envType,
				Agent:   conf,
				Learn:   learnConf,
			})
		},
	}

	flags := c.Flags()
	addAlgFlags(flags, o)
	flags.StringVar(&o.config, "config", "", "config file of "+
		"hyperparameter overrides")
	return c
}
