package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/api"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/config"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/processing/costs"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/providers"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/providers/anthropic"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/providers/openai"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/server"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/store"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/store/retention"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/summarize"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/telemetry/logging"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the summarization proxy server",
	Long: `Start the summarization proxy server with the specified configuration.

Examples:
  # Start with default config
  summaryd run

  # Start with custom config
  summaryd run --config /etc/summaryd/config.yaml

  # Override listen address
  summaryd run --listen 0.0.0.0:8080

  # Validate config without starting server
  summaryd run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(cfg.Telemetry.Metrics, prometheus.NewRegistry())
	calc := costs.NewCalculator(cfg.Pricing)

	st, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	var primary, fallback providers.Client
	if cfg.Providers.OpenAI.APIKey != "" {
		primary = openai.New(openai.Config{
			APIKey:  cfg.Providers.OpenAI.APIKey,
			BaseURL: cfg.Providers.OpenAI.BaseURL,
			Model:   cfg.Providers.OpenAI.Model,
			Timeout: cfg.Providers.OpenAI.Timeout,
			Calc:    calc,
			Logger:  logger,
			Metrics: m,
		})
	}
	if cfg.Providers.Anthropic.APIKey != "" {
		fallback = anthropic.New(anthropic.Config{
			APIKey:  cfg.Providers.Anthropic.APIKey,
			BaseURL: cfg.Providers.Anthropic.BaseURL,
			Model:   cfg.Providers.Anthropic.Model,
			Timeout: cfg.Providers.Anthropic.Timeout,
			Calc:    calc,
			Logger:  logger,
			Metrics: m,
		})
	}
	if primary == nil && fallback == nil {
		logger.Warn("no providers configured, all requests will fail")
	}

	orch := summarize.NewOrchestrator(primary, fallback, logger, m)
	svc := summarize.NewService(orch, st, logger, m)
	defer svc.Close()

	if cfg.Retention.Schedule != "" {
		sched, err := retention.NewScheduler(st, cfg.Retention, logger)
		if err != nil {
			return err
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	// Pricing edits take effect without a restart.
	watcher, err := config.NewPricingWatcher(cfgFile, logger)
	if err != nil {
		logger.Warn("pricing hot reload disabled", "error", err)
	} else {
		go func() {
			if err := watcher.Watch(ctx, calc.UpdatePricing); err != nil {
				logger.Warn("pricing watcher stopped", "error", err)
			}
		}()
	}

	handler := api.NewHandler(svc, st, cfg.Server, logger, m)
	srv := server.New(cfg.Server, handler.Routes(), logger)
	return srv.Run(ctx)
}

func buildStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		return store.NewSQLiteStore(cfg.Storage.SQLite, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
