// Package gormstore implements repository.Store on top of gorm. SQLite is the
// default driver; every Atomically call runs inside a database transaction.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/carbontracker/internal/domain/models"
	"github.com/mamadbah2/carbontracker/internal/repository"
)

// Store is a gorm-backed repository.Store.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ repository.Store = (*Store)(nil)

// OpenSQLite opens (or creates) the SQLite database at path and migrates the schema.
func OpenSQLite(path string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite handle: %w", err)
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY
	// between concurrent transactions and keeps ":memory:" databases shared.
	sqlDB.SetMaxOpenConns(1)

	return New(db, logger)
}

// New wraps an open gorm handle and migrates the schema.
func New(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := db.AutoMigrate(
		&models.EmissionLog{},
		&models.VehicleTrip{},
		&models.ElectricityUse{},
		&models.WasteDisposal{},
		&models.FuelCombustion{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Debug("schema migrated")
	return &Store{db: db, logger: logger}, nil
}

// CreateLog inserts a new emission log.
func (s *Store) CreateLog(ctx context.Context, log *models.EmissionLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to insert emission log: %w", err)
	}
	return nil
}

// GetLog loads a log by ID.
func (s *Store) GetLog(ctx context.Context, id string) (models.EmissionLog, error) {
	var log models.EmissionLog
	err := s.db.WithContext(ctx).First(&log, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.EmissionLog{}, fmt.Errorf("emission log %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return models.EmissionLog{}, fmt.Errorf("failed to load emission log %s: %w", id, err)
	}
	return log, nil
}

// SaveLog overwrites every column of an existing log.
func (s *Store) SaveLog(ctx context.Context, log models.EmissionLog) error {
	result := s.db.WithContext(ctx).
		Model(&models.EmissionLog{ID: log.ID}).
		Select("*").
		Updates(&log)
	if result.Error != nil {
		return fmt.Errorf("failed to update emission log %s: %w", log.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("emission log %s: %w", log.ID, repository.ErrNotFound)
	}
	return nil
}

// ListLogsByUser returns the user's logs, newest first.
func (s *Store) ListLogsByUser(ctx context.Context, userID string) ([]models.EmissionLog, error) {
	var logs []models.EmissionLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list emission logs for user %s: %w", userID, err)
	}
	return logs, nil
}

// ListLogIDs returns every log ID in creation order.
func (s *Store) ListLogIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.EmissionLog{}).
		Order("created_at").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list emission log ids: %w", err)
	}
	return ids, nil
}

// AddVehicleTrip inserts a vehicle trip.
func (s *Store) AddVehicleTrip(ctx context.Context, trip *models.VehicleTrip) error {
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	return s.insert(ctx, "vehicle trip", trip)
}

// AddElectricityUse inserts an electricity reading.
func (s *Store) AddElectricityUse(ctx context.Context, use *models.ElectricityUse) error {
	if use.ID == "" {
		use.ID = uuid.NewString()
	}
	return s.insert(ctx, "electricity use", use)
}

// AddWasteDisposal inserts a waste batch.
func (s *Store) AddWasteDisposal(ctx context.Context, disposal *models.WasteDisposal) error {
	if disposal.ID == "" {
		disposal.ID = uuid.NewString()
	}
	return s.insert(ctx, "waste disposal", disposal)
}

// AddFuelCombustion inserts a fuel combustion record.
func (s *Store) AddFuelCombustion(ctx context.Context, combustion *models.FuelCombustion) error {
	if combustion.ID == "" {
		combustion.ID = uuid.NewString()
	}
	return s.insert(ctx, "fuel combustion", combustion)
}

func (s *Store) insert(ctx context.Context, kind string, record any) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert %s: %w", kind, err)
	}
	return nil
}

// Activities loads the four child collections of a log.
func (s *Store) Activities(ctx context.Context, logID string) (models.ActivitySet, error) {
	var set models.ActivitySet
	db := s.db.WithContext(ctx)

	if err := db.Where("emission_log_id = ?", logID).Find(&set.VehicleTrips).Error; err != nil {
		return models.ActivitySet{}, fmt.Errorf("failed to load vehicle trips for %s: %w", logID, err)
	}
	if err := db.Where("emission_log_id = ?", logID).Find(&set.ElectricityUses).Error; err != nil {
		return models.ActivitySet{}, fmt.Errorf("failed to load electricity uses for %s: %w", logID, err)
	}
	if err := db.Where("emission_log_id = ?", logID).Find(&set.WasteDisposals).Error; err != nil {
		return models.ActivitySet{}, fmt.Errorf("failed to load waste disposals for %s: %w", logID, err)
	}
	if err := db.Where("emission_log_id = ?", logID).Find(&set.FuelCombustions).Error; err != nil {
		return models.ActivitySet{}, fmt.Errorf("failed to load fuel combustions for %s: %w", logID, err)
	}

	return set, nil
}

// Atomically runs fn inside a transaction.
func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx, logger: s.logger})
	})
}

// Close releases the underlying connection pool.
func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
