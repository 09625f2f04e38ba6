package cmd

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samuelfneumann/rlzoo/agent"
	"github.com/samuelfneumann/rlzoo/agent/dqn"
	"github.com/samuelfneumann/rlzoo/defaults"
	"github.com/samuelfneumann/rlzoo/environment/envconfig"
	"github.com/samuelfneumann/rlzoo/experiment"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ParseOverrides parses --key=value and --key value pairs. Numeric
// values become float64, or int if they are integral. All other values
// are kept as strings.
func ParseOverrides(args []string) (map[string]interface{}, error) {
	overrides := make(map[string]interface{})
	for i := 0; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "--") {
			return nil, fmt.Errorf("parseOverrides: expected --key but "+
				"got %q", args[i])
		}

		key, value, found := strings.Cut(args[i][2:], "=")
		if !found {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("parseOverrides: no value for %q",
					args[i])
			}
			i++
			value = args[i]
		}
		if key == "" {
			return nil, fmt.Errorf("parseOverrides: empty key in %q",
				args[i])
		}

		overrides[key] = parseValue(value)
	}
	return overrides, nil
}

// maxInt is the largest integer exactly representable by a float64
const maxInt = 1 << 53

// parseValue converts a numeric string to an int or float64
func parseValue(s string) interface{} {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if f == math.Trunc(f) && math.Abs(f) <= maxInt {
		return int(f)
	}
	return f
}

// configure returns the default configuration selected by the flags
// with the config file, seed and render flags, and overrides laid
// over it
func configure(flags *pflag.FlagSet, o *options, args []string) (
	agent.Config, experiment.Config, error) {
	alg, err := agent.ParseType(o.alg)
	if err != nil {
		return nil, experiment.Config{}, err
	}
	envType, err := envconfig.ParseEnvType(o.envType)
	if err != nil {
		return nil, experiment.Config{}, err
	}
	c, learn, err := defaults.Params(alg, envType)
	if err != nil {
		return nil, experiment.Config{}, err
	}

	v := viper.New()
	if o.config != "" {
		v.SetConfigFile(o.config)
		if err := v.ReadInConfig(); err != nil {
			return nil, experiment.Config{}, fmt.Errorf("configure: "+
				"could not read config: %v", err)
		}
	}

	overrides, err := ParseOverrides(args)
	if err != nil {
		return nil, experiment.Config{}, err
	}
	for key, value := range overrides {
		v.Set(key, value)
	}
	if flags.Changed("seed") {
		v.Set("seed", o.seed)
	}
	if o.render {
		v.Set("render", true)
	}

	if err := overlay(v, c, &learn); err != nil {
		return nil, experiment.Config{}, err
	}
	if err := c.Validate(); err != nil {
		return nil, experiment.Config{}, fmt.Errorf("configure: %v", err)
	}
	return c, learn, nil
}

// overlay decodes the settings of v onto the agent configuration and
// the learn parameters. Settings used by neither are an error.
func overlay(v *viper.Viper, c agent.Config, learn *experiment.Config) error {
	var learnMeta, agentMeta mapstructure.Metadata
	if err := v.Unmarshal(learn, withMetadata(&learnMeta)); err != nil {
		return fmt.Errorf("overlay: learn parameters: %v", err)
	}
	if err := v.Unmarshal(c, withMetadata(&agentMeta)); err != nil {
		return fmt.Errorf("overlay: %v parameters: %v", c.Type(), err)
	}

	unusedByAgent := make(map[string]bool)
	for _, key := range agentMeta.Unused {
		unusedByAgent[key] = true
	}
	var unknown []string
	for _, key := range learnMeta.Unused {
		if unusedByAgent[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("overlay: unknown %v parameters: %v", c.Type(),
			strings.Join(unknown, ", "))
	}

	if d, ok := c.(*dqn.Config); ok && !v.IsSet("total_steps") {
		d.TotalSteps = learn.TrainEpisodes * learn.MaxSteps
	}
	return nil
}

// withMetadata records decoding metadata in md
func withMetadata(md *mapstructure.Metadata) viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.Metadata = md
	}
}
