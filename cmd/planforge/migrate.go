package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Strob0t/PlanForge/internal/adapter/postgres"
	"github.com/Strob0t/PlanForge/internal/config"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.LoadWithCLI(cliFlags(cmd))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := postgres.RunMigrations(cmd.Context(), cfg.Postgres.DSN); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			cfg, _, err := config.LoadWithCLI(cliFlags(cmd))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := postgres.RollbackMigrations(cmd.Context(), cfg.Postgres.DSN, steps); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.LoadWithCLI(cliFlags(cmd))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			v, err := postgres.MigrationVersion(cmd.Context(), cfg.Postgres.DSN)
			if err != nil {
				return fmt.Errorf("migrate version: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
