package main

import (
	"github.com/spf13/cobra"

	"github.com/yasinhessnawi1/authflow/internal/config"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authflow",
		Short: "authflow - email and password authentication service",
		Long: `authflow serves a session based authentication API with registration,
login, logout and password reset, and ships a command line client for it.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "./configs/config.yaml", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())
	cmd.AddCommand(NewClientCmd())

	return cmd
}

// loadConfig loads the configuration and initializes logging and validation.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	if version != "dev" {
		cfg.App.Version = version
	}

	utils.InitLogger(cfg)
	utils.InitValidator()
	return cfg, nil
}
