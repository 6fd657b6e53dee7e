package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/carbontracker/internal/config"
	"github.com/mamadbah2/carbontracker/internal/service/aggregation"
)

const (
	reconcileTimeout = 30 * time.Minute
	exportTimeout    = 5 * time.Minute
)

// Reconciler re-sums every stored log.
type Reconciler interface {
	RecomputeAll(ctx context.Context) (aggregation.SweepResult, error)
}

// Exporter pushes log totals to an external sheet.
type Exporter interface {
	Export(ctx context.Context) (int, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	exporter   Exporter
	cfg        config.SchedulerConfig
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler instance. exporter may be nil when
// spreadsheet export is not configured.
func NewScheduler(cfg config.SchedulerConfig, reconciler Reconciler, exporter Exporter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		reconciler: reconciler,
		exporter:   exporter,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.ReconcileSchedule, s.runReconcile); err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}

	if s.exporter != nil && s.cfg.ExportSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.ExportSchedule, s.runExport); err != nil {
			return fmt.Errorf("failed to schedule export: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Jobs returns how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()
	s.Reconcile(ctx)
}

func (s *Scheduler) runExport() {
	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()
	s.Export(ctx)
}

// Reconcile runs one reconciliation sweep.
func (s *Scheduler) Reconcile(ctx context.Context) {
	s.logger.Info("reconciling emission totals")

	result, err := s.reconciler.RecomputeAll(ctx)
	if err != nil {
		s.logger.Error("reconciliation interrupted", zap.Error(err),
			zap.Int("processed", result.Processed), zap.Int("failed", result.Failed))
		return
	}

	s.logger.Info("reconciliation finished",
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
}

// Export runs one spreadsheet export.
func (s *Scheduler) Export(ctx context.Context) {
	if s.exporter == nil {
		return
	}

	rows, err := s.exporter.Export(ctx)
	if err != nil {
		s.logger.Error("failed to export emission logs", zap.Error(err))
		return
	}
	s.logger.Info("emission logs exported", zap.Int("rows", rows))
}
