package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// PricingWatcher watches the configuration file for changes and reloads the
// pricing table, so price updates take effect without a restart. Only the
// pricing section is hot-reloaded; other sections require a restart.
type PricingWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
}

// NewPricingWatcher creates a watcher for the configuration file at path.
func NewPricingWatcher(path string, logger *slog.Logger) (*PricingWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", path, err)
	}

	return &PricingWatcher{
		path:     path,
		watcher:  watcher,
		logger:   logger.With("component", "config.watcher"),
		debounce: 100 * time.Millisecond,
	}, nil
}

// Watch blocks until ctx is cancelled, invoking onReload with the freshly
// loaded pricing table after each file change. Reload failures are logged and
// the previous table stays in effect.
func (w *PricingWatcher) Watch(ctx context.Context, onReload func(PricingConfig)) error {
	defer w.watcher.Close()

	w.logger.Info("pricing watcher started", "path", w.path)

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("pricing watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Editors often produce bursts of writes; debounce them.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Error("pricing reload failed, keeping previous table",
					"path", w.path,
					"error", err,
				)
				continue
			}
			w.logger.Info("pricing table reloaded", "path", w.path)
			onReload(cfg.Pricing)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}
