package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/database/postgres"
)

var migrateSteps int

// NewMigrateCmd creates the migrate command group.  Unlike the other
// commands it talks to the database directly using the service configuration.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the result-store schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, path, err := migrationTarget(cmd)
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(dsn, path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the given number of migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, path, err := migrationTarget(cmd)
			if err != nil {
				return err
			}
			if err := postgres.RollbackMigration(dsn, path, migrateSteps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", migrateSteps)
			return nil
		},
	}
	downCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, path, err := migrationTarget(cmd)
			if err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationVersion(dsn, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d (dirty: %v)\n", version, dirty)
			return nil
		},
	}

	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}

// migrationTarget resolves the database DSN and migration source from the
// configured config file.
func migrationTarget(cmd *cobra.Command) (dsn, path string, err error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return "", "", err
	}
	cfg, err := config.Load(cliCtx.Options.ConfigPath)
	if err != nil {
		return "", "", err
	}
	if cfg.Database.MigrationPath == "" {
		return "", "", fmt.Errorf("database.migration_path is not configured")
	}
	return postgres.BuildDSN(cfg.Database), cfg.Database.MigrationPath, nil
}
