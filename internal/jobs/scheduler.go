// Package jobs runs the billing core's background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/middleware"
	"github.com/robfig/cron/v3"
)

// Scheduler owns the cron runner.
type Scheduler struct {
	cron     *cron.Cron
	earnings portssvc.EarningsSvcFacade
	logger   *slog.Logger
	timeout  time.Duration
}

// NewScheduler creates a UTC scheduler. A sweep still running when its next
// tick fires is not started twice.
func NewScheduler(earnings portssvc.EarningsSvcFacade, logger *slog.Logger) *Scheduler {
	cronLogger := slogCronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		earnings: earnings,
		logger:   logger,
		timeout:  5 * time.Minute,
	}
}

// Start schedules the settlement sweep and starts the runner. ctx bounds
// every run; cancel it and call Stop to shut down.
func (s *Scheduler) Start(ctx context.Context, settlementSchedule string) error {
	if _, err := s.cron.AddFunc(settlementSchedule, func() {
		if _, err := s.RunSettlement(ctx); err != nil {
			s.logger.Error("[CRON] Settlement sweep failed", slog.String("error", err.Error()))
		}
	}); err != nil {
		return fmt.Errorf("invalid settlement schedule %q: %w", settlementSchedule, err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", slog.String("settlement_schedule", settlementSchedule))
	return nil
}

// RunSettlement settles every bonus that is due now and returns how many it settled.
func (s *Scheduler) RunSettlement(ctx context.Context) (int, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger := s.logger.With(slog.String("job", "settlement"))
	settled, err := s.earnings.SettleEarnings(middleware.WithLogger(runCtx, logger), nil)
	if err != nil {
		return 0, err
	}
	logger.Info("[CRON] Settlement sweep finished", slog.Int("settled", len(settled)))
	return len(settled), nil
}

// Stop stops the runner and waits for a running sweep to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)...)
}
