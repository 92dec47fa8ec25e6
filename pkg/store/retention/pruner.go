// Package retention ages out summary request records: completed records are
// deleted once they exceed the retention window, and records that never
// reached a terminal event are marked failed after a stale window.
package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/config"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/store"
)

// abandonedMessage is stamped onto records whose stream never terminated,
// typically because the process died mid-stream.
const abandonedMessage = "request abandoned"

// Pruner applies the retention policy to a store.
type Pruner struct {
	store  store.Store
	cfg    config.RetentionConfig
	logger *slog.Logger
}

// NewPruner builds a pruner over the given store.
func NewPruner(st store.Store, cfg config.RetentionConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:  st,
		cfg:    cfg,
		logger: logger.With("component", "retention"),
	}
}

// Run performs one retention pass. Failures are logged and returned but never
// interrupt the serving path.
func (p *Pruner) Run(ctx context.Context) error {
	now := time.Now().UTC()

	if p.cfg.StaleAfter > 0 {
		marked, err := p.store.MarkAbandonedBefore(ctx, now.Add(-p.cfg.StaleAfter), abandonedMessage)
		if err != nil {
			p.logger.Error("failed to mark abandoned records", "error", err)
			return err
		}
		if marked > 0 {
			p.logger.Info("marked abandoned records", "count", marked)
		}
	}

	if p.cfg.MaxAge > 0 {
		deleted, err := p.store.DeleteCompletedBefore(ctx, now.Add(-p.cfg.MaxAge))
		if err != nil {
			p.logger.Error("failed to delete expired records", "error", err)
			return err
		}
		if deleted > 0 {
			p.logger.Info("deleted expired records", "count", deleted)
		}
	}

	return nil
}
