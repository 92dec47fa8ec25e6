package retention

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/config"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/store"
)

// Scheduler runs retention passes on a cron schedule.
type Scheduler struct {
	pruner *Pruner
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler builds a scheduler from the retention config. The schedule
// uses the standard five-field cron syntax.
func NewScheduler(st store.Store, cfg config.RetentionConfig, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "retention_scheduler")

	s := &Scheduler{
		pruner: NewPruner(st, cfg, logger),
		cron:   cron.New(),
		logger: logger,
	}

	_, err := s.cron.AddFunc(cfg.Schedule, func() {
		// Each pass gets a fresh context; retention must not block shutdown.
		if err := s.pruner.Run(context.Background()); err != nil {
			s.logger.Error("retention pass failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", cfg.Schedule, err)
	}

	return s, nil
}

// Start begins the schedule and runs an initial pass to catch up after a
// restart.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("retention scheduler started")

	go func() {
		if err := s.pruner.Run(ctx); err != nil {
			s.logger.Error("initial retention pass failed", "error", err)
		}
	}()
}

// Stop halts the schedule and waits for any in-flight pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("retention scheduler stopped")
}
