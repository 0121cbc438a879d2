package main

import (
	"errors"
	"log/slog"

	"github.com/SscSPs/community_billing/internal/platform/config"
	"github.com/SscSPs/community_billing/pkg/database"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if appCfg.StoreDriver != config.StoreDriverPostgres {
			return errors.New("migrate requires STORE_DRIVER=postgres")
		}
		return runMigrations(appCfg)
	},
}

func runMigrations(cfg *config.Config) error {
	slog.Info("Running database migrations...", slog.String("source", cfg.MigrationsPath))
	applied, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		slog.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}
	if applied {
		slog.Info("Database migrations applied successfully.")
	} else {
		slog.Info("No new migrations to apply.")
	}
	return nil
}
