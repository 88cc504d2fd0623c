package main

import (
	"fmt"

	"submitbox/internal/config"
	"submitbox/internal/security"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// configFlags are the flags shared by commands that read the submission config
type configFlags struct {
	file    string
	envFile string
	timeout string
}

func (f *configFlags) register(cmd *cobra.Command) {
	f.registerSources(cmd)
	cmd.Flags().StringVar(&f.timeout, "timeout", "", "HTTP timeout, e.g. 30s (overrides PAYLOAD_TIMEOUT)")
}

// registerSources adds only the flags that choose where configuration is read from
func (f *configFlags) registerSources(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "config", "c", "", "Path to submitbox.yaml (default: search ./, ./config, /etc/submitbox)")
	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Path to a dotenv file (default: ./.env if present)")
}

func (f *configFlags) options(cmd *cobra.Command) config.Options {
	return config.Options{
		ConfigFile: f.file,
		EnvFile:    f.envFile,
		Flags:      cmd.Flags(),
	}
}

// load reads and validates the configuration. Any missing value is fatal.
func (f *configFlags) load(cmd *cobra.Command, log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load(f.options(cmd))
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if err := security.CheckSecret(cfg.Secret); err != nil {
		log.Warn().Err(err).Msg("signing secret looks weak")
	}

	return cfg, nil
}
