package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matrixise/coinfolio/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
	Long:  `Run, rollback, or check the status of the PostgreSQL storage migrations.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Rollback the last migration",
	RunE:  runMigrateDown,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

// databaseURL reads storage.database_url (or DATABASE_URL) from the config
func databaseURL(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.Storage.DatabaseURL == "" {
		return "", errors.New("storage.database_url (or DATABASE_URL) is required")
	}
	return cfg.Storage.DatabaseURL, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	dsn, err := databaseURL(cmd)
	if err != nil {
		return err
	}

	if err := storage.RunMigrations(cmd.Context(), dsn); err != nil {
		slog.Error("Migration failed", "error", err)
		return err
	}

	slog.Info("Migrations applied successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	dsn, err := databaseURL(cmd)
	if err != nil {
		return err
	}

	if err := storage.MigrateDown(cmd.Context(), dsn); err != nil {
		slog.Error("Rollback failed", "error", err)
		return err
	}

	slog.Info("Migration rolled back successfully")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	dsn, err := databaseURL(cmd)
	if err != nil {
		return err
	}

	if err := storage.MigrateStatus(cmd.Context(), dsn); err != nil {
		slog.Error("Failed to get migration status", "error", err)
		return err
	}

	return nil
}
