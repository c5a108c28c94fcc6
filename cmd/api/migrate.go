package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yasinhessnawi1/authflow/internal/database"
	"github.com/yasinhessnawi1/authflow/migrations"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply, roll back or inspect the embedded schema migrations.`,
		RunE: migrateAction(func(ctx context.Context, _ *cobra.Command, m *migrations.Migrator) error {
			return m.Up(ctx)
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: migrateAction(func(ctx context.Context, _ *cobra.Command, m *migrations.Migrator) error {
			return m.Up(ctx)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: migrateAction(func(ctx context.Context, _ *cobra.Command, m *migrations.Migrator) error {
			return m.Down(ctx)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of every migration",
		RunE: migrateAction(func(ctx context.Context, _ *cobra.Command, m *migrations.Migrator) error {
			return m.Status(ctx)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: migrateAction(func(ctx context.Context, cmd *cobra.Command, m *migrations.Migrator) error {
			v, err := m.Version(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("schema version: %d\n", v)
			return nil
		}),
	})

	return cmd
}

type migrateFunc func(ctx context.Context, cmd *cobra.Command, m *migrations.Migrator) error

func migrateAction(fn migrateFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		cmd.Println("Connecting to database...")
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		if err := fn(ctx, cmd, migrations.NewMigrator(pool)); err != nil {
			return err
		}

		cmd.Println("Migrations completed successfully")
		return nil
	}
}
