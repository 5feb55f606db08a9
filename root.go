package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/isdelr/murmur/internal/config"
	"github.com/isdelr/murmur/internal/logger"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the murmur CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "murmur",
		Short: "murmur - a minimal social posting site",
		Long: `murmur serves a single page where users sign up, sign in and
post short messages everyone can read.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	cmd.PersistentFlags().String("database-path", "./murmur.db", "SQLite database file")
	cmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig loads the configuration for cmd and initializes logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("config_file", configFile).Wrap(err)
	}
	if err := logger.Init(cfg.LogLevel, !cfg.IsProduction()); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("log_level", cfg.LogLevel).Wrap(err)
	}
	return cfg, nil
}
