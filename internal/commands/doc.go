// Package commands provides the command-line interface for the truecopy tool.
//
// It implements commands for:
//   - registering uploaded documents as records
//   - stamping, encrypting and finalizing records
//   - consent, appointment and action item lookups
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through cobra and viper.
package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flourishbhp/truecopy/internal/config"
)

// EnvPrefix prefixes the environment variables bound to flags.
const EnvPrefix = "TRUECOPY"

// ErrShown is returned after --show printed the configuration.
var ErrShown = errors.New("configuration shown")

// load merges the config file, TRUECOPY_* environment variables and flags into cfg.
func load(cmd *cobra.Command, cfg *config.Config) error {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file, _ := cmd.Flags().GetString("config"); file != "" {
		v.SetConfigFile(file)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decoding configuration: %w", err)
	}

	return nil
}

// preRun returns a PreRunE handler that loads the configuration, stores the positional
// args and validates the result.
func preRun(cfg *config.Config) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := load(cmd, cfg); err != nil {
			return err
		}

		cfg.Args = args

		if show, _ := cmd.Flags().GetBool("show"); show {
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}

			fmt.Fprint(os.Stdout, string(out))

			return ErrShown
		}

		return cfg.Validate()
	}
}
