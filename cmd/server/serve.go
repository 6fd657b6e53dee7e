package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/carbontracker/internal/catalog"
	"github.com/mamadbah2/carbontracker/internal/config"
	"github.com/mamadbah2/carbontracker/internal/metrics"
	"github.com/mamadbah2/carbontracker/internal/repository"
	"github.com/mamadbah2/carbontracker/internal/repository/gormstore"
	"github.com/mamadbah2/carbontracker/internal/repository/mongodb"
	"github.com/mamadbah2/carbontracker/internal/repository/sheets"
	"github.com/mamadbah2/carbontracker/internal/scheduler"
	"github.com/mamadbah2/carbontracker/internal/server/handlers"
	"github.com/mamadbah2/carbontracker/internal/server/router"
	"github.com/mamadbah2/carbontracker/internal/service/aggregation"
	"github.com/mamadbah2/carbontracker/internal/service/assistant"
	"github.com/mamadbah2/carbontracker/internal/service/emissions"
	"github.com/mamadbah2/carbontracker/pkg/clients/anthropic"
	"github.com/mamadbah2/carbontracker/pkg/clients/openai"
	"github.com/mamadbah2/carbontracker/pkg/logger"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	baseLogger, err := logger.New(cfg.Server.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	cat, err := catalog.Load(factorSources(cfg, opts))
	if err != nil {
		baseLogger.Error("failed to load emission factors", zap.Error(err))
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	m.SetCatalogSizes(cat.Sizes())
	baseLogger.Info("emission factors loaded", zap.Any("sizes", cat.Sizes()))

	store, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Error("failed to init store", zap.Error(err))
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	aggregationSvc := aggregation.NewService(store, m, logger.Named(baseLogger, "svc.aggregation"))
	emissionSvc := emissions.NewService(store, cat, aggregationSvc, m, logger.Named(baseLogger, "svc.emissions"))

	generator, err := newGenerator(cfg.AI)
	if err != nil {
		return err
	}
	if generator == nil {
		baseLogger.Warn("ai provider not configured, suggestions disabled")
	}
	assistantSvc := assistant.NewService(emissionSvc, generator, cfg.AI.CacheTTL, logger.Named(baseLogger, "svc.assistant"))

	var exporter scheduler.Exporter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Error("failed to init sheets repository", zap.Error(err))
			return err
		}
		exporter = sheets.NewExporter(sheetsRepo, store, logger.Named(baseLogger, "svc.export"))
	}

	sched, err := scheduler.NewScheduler(cfg.Scheduler, aggregationSvc, exporter, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	engine := router.New(router.Dependencies{
		Emissions:      handlers.NewEmissionHandler(emissionSvc, logger.Named(baseLogger, "handlers.emissions")),
		Factors:        handlers.NewFactorHandler(cat),
		Suggestions:    handlers.NewSuggestionHandler(assistantSvc, logger.Named(baseLogger, "handlers.suggestions")),
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		IdentityHeader: cfg.Server.IdentityHeader,
	}, logger.Named(baseLogger, "router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		baseLogger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			baseLogger.Error("http server crashed", zap.Error(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, base *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMongoDB:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, cfg.MongoDB.Transactions, logger.Named(base, "repo.mongodb"))
	case config.StoreSQLite:
		return gormstore.OpenSQLite(cfg.Store.SQLitePath, logger.Named(base, "repo.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func newGenerator(cfg config.AIConfig) (assistant.TextGenerator, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case config.ProviderAnthropic:
		return anthropic.NewClient(cfg.AnthropicKey, anthropic.WithModel(cfg.Model)), nil
	case config.ProviderOpenAI:
		return openai.NewClient(cfg.OpenAIKey, cfg.Model, cfg.OpenAIURL), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}
