package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/core/services"
	"github.com/SscSPs/community_billing/internal/platform/config"
	"github.com/SscSPs/community_billing/internal/repositories/database/pgsql"
	"github.com/SscSPs/community_billing/internal/repositories/memory"
	"github.com/SscSPs/community_billing/pkg/database"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "billing_core",
	Short:         "Community billing core: ledger, referrals, earnings and payouts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			slog.Error("Failed to load config", slog.String("error", err.Error()))
			return err
		}
		appCfg = cfg
		slog.SetDefault(newLogger(cfg))
		return nil
	},
}

// appCfg is loaded once before any subcommand runs.
var appCfg *config.Config

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
}

// buildServices opens the configured store and wires the services against it.
// The returned cleanup releases the store.
func buildServices(ctx context.Context, cfg *config.Config) (*portssvc.ServiceContainer, func(), error) {
	opts := []services.ServiceOption{services.WithPolicy(cfg.Policy())}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		slog.Warn("Using the in-memory store; state is lost on exit")
		return services.NewServiceContainer(memory.NewStore(), opts...), func() {}, nil
	case config.StoreDriverPostgres:
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return nil, nil, err
		}
		return services.NewServiceContainer(pgsql.NewTxManager(pool), opts...), func() { database.ClosePgxPool(pool) }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
