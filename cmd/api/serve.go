package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yasinhessnawi1/authflow/internal/server"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Connect to the database, apply pending migrations and serve the
authentication API until interrupted.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Info().
		Str("version", cfg.App.Version).
		Str("environment", cfg.App.Environment).
		Msg("Starting authflow API server")

	srv, err := server.NewServer(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	return srv.Start()
}
