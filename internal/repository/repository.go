// Package repository defines the persistence contract shared by the store
// backends.
package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/carbontracker/internal/domain/models"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store persists emission logs and their child activities. IDs are assigned
// by the store when a record arrives without one.
type Store interface {
	CreateLog(ctx context.Context, log *models.EmissionLog) error
	GetLog(ctx context.Context, id string) (models.EmissionLog, error)
	SaveLog(ctx context.Context, log models.EmissionLog) error
	ListLogsByUser(ctx context.Context, userID string) ([]models.EmissionLog, error)
	ListLogIDs(ctx context.Context) ([]string, error)

	AddVehicleTrip(ctx context.Context, trip *models.VehicleTrip) error
	AddElectricityUse(ctx context.Context, use *models.ElectricityUse) error
	AddWasteDisposal(ctx context.Context, disposal *models.WasteDisposal) error
	AddFuelCombustion(ctx context.Context, combustion *models.FuelCombustion) error

	// Activities loads every child of the log.
	Activities(ctx context.Context, logID string) (models.ActivitySet, error)

	// Atomically runs fn against a Store whose reads and writes commit
	// together. Backends without transactions run fn directly.
	Atomically(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Close(ctx context.Context) error
}
