package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/community_billing/internal/handlers"
	"github.com/SscSPs/community_billing/internal/jobs"
	"github.com/SscSPs/community_billing/internal/middleware"
	"github.com/SscSPs/community_billing/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func init() {
	serveCmd.Flags().Bool("skip-migrations", false, "Do not apply migrations on start-up")
	serveCmd.Flags().Bool("no-scheduler", false, "Do not run the settlement sweep in this process")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the internal billing API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	logger := slog.Default()
	skipMigrations, _ := cmd.Flags().GetBool("skip-migrations")
	noScheduler, _ := cmd.Flags().GetBool("no-scheduler")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.StoreDriver == config.StoreDriverPostgres && !skipMigrations {
		if err := runMigrations(cfg); err != nil {
			return err
		}
	}

	container, cleanup, err := buildServices(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize services", slog.String("error", err.Error()))
		return err
	}
	defer cleanup()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		return err
	}

	if err := handlers.RegisterRoutes(r, cfg, container); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		return err
	}

	if !noScheduler {
		scheduler := jobs.NewScheduler(container.Earnings, logger)
		if err := scheduler.Start(ctx, cfg.SettlementSchedule); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}
