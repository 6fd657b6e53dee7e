// Package aggregation keeps each emission log's stored total equal to the sum
// of its children. Totals are always re-summed from the stored children,
// never adjusted by deltas.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/carbontracker/internal/domain/models"
	"github.com/mamadbah2/carbontracker/internal/metrics"
	"github.com/mamadbah2/carbontracker/internal/repository"
)

// Scale is the number of decimal places stored for kilogram values.
const Scale = 4

// Service recomputes log totals.
type Service struct {
	store   repository.Store
	locks   *LockManager
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// SweepResult summarizes a RecomputeAll run.
type SweepResult struct {
	Processed int
	Skipped   int
	Failed    int
}

// NewService wires a new aggregation service instance.
func NewService(store repository.Store, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		locks:   NewLockManager(),
		metrics: m,
		logger:  logger,
	}
}

// RecomputeTotal re-sums every child of the log and stores the result. The
// read and the write happen under the log's lock and inside one store
// transaction, so concurrent callers cannot lose each other's updates.
// A log without children keeps its stored total.
func (s *Service) RecomputeTotal(ctx context.Context, logID string) (models.EmissionLog, error) {
	log, _, err := s.recompute(ctx, logID)
	return log, err
}

func (s *Service) recompute(ctx context.Context, logID string) (models.EmissionLog, bool, error) {
	start := time.Now()

	unlock := s.locks.Lock(logID)
	defer unlock()

	var (
		updated models.EmissionLog
		summed  bool
	)
	err := s.store.Atomically(ctx, func(ctx context.Context, tx repository.Store) error {
		log, err := tx.GetLog(ctx, logID)
		if err != nil {
			return err
		}

		activities, err := tx.Activities(ctx, logID)
		if err != nil {
			return err
		}

		updated = log
		if activities.Len() == 0 {
			// Itemized totals supplied by the caller have nothing to re-sum.
			return nil
		}

		updated.TotalEmissionsKg = Total(activities)
		if err := tx.SaveLog(ctx, updated); err != nil {
			return err
		}
		summed = true
		return nil
	})
	s.metrics.RecomputeObserved(time.Since(start), err, repository.ErrNotFound)
	if err != nil {
		return models.EmissionLog{}, false, fmt.Errorf("recompute total for log %s: %w", logID, err)
	}

	s.logger.Debug("log total recomputed",
		zap.String("log_id", logID),
		zap.Float64("total_kg", updated.TotalEmissionsKg),
		zap.Bool("summed", summed),
		zap.Duration("duration", time.Since(start)))
	return updated, summed, nil
}

// RecomputeAll recomputes every stored log. Logs without children are
// skipped. Failures are logged and counted; the sweep only stops early when
// ctx is done or the log IDs cannot be listed.
func (s *Service) RecomputeAll(ctx context.Context) (SweepResult, error) {
	ids, err := s.store.ListLogIDs(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list logs for sweep: %w", err)
	}

	var result SweepResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		_, summed, err := s.recompute(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Deleted between listing and recompute.
				continue
			}
			result.Failed++
			s.logger.Warn("sweep recompute failed", zap.String("log_id", id), zap.Error(err))
			continue
		}
		if !summed {
			result.Skipped++
			continue
		}
		result.Processed++
	}

	s.logger.Info("sweep completed",
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

// Total sums the children's emissions (absent values count as zero) and
// rounds half-up to Scale decimals. The sum is exact in decimal, so the
// result does not depend on the order of the children.
func Total(set models.ActivitySet) float64 {
	sum := decimal.Zero
	add := func(kg *float64) {
		if kg != nil {
			sum = sum.Add(decimal.NewFromFloat(*kg))
		}
	}

	for _, t := range set.VehicleTrips {
		add(t.EmissionsKg)
	}
	for _, u := range set.ElectricityUses {
		add(u.EmissionsKg)
	}
	for _, w := range set.WasteDisposals {
		add(w.EmissionsKg)
	}
	for _, f := range set.FuelCombustions {
		add(f.EmissionsKg)
	}

	return sum.Round(Scale).InexactFloat64()
}

// RoundKg rounds a kilogram value half-up to Scale decimals.
func RoundKg(kg float64) float64 {
	return decimal.NewFromFloat(kg).Round(Scale).InexactFloat64()
}
