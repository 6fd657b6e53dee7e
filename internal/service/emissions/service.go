package emissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/carbontracker/internal/calculator"
	"github.com/mamadbah2/carbontracker/internal/catalog"
	"github.com/mamadbah2/carbontracker/internal/domain/models"
	"github.com/mamadbah2/carbontracker/internal/metrics"
	"github.com/mamadbah2/carbontracker/internal/repository"
	"github.com/mamadbah2/carbontracker/internal/service/aggregation"
)

// ErrForbidden indicates the log exists but belongs to another user.
var ErrForbidden = errors.New("emission log belongs to another user")

// Aggregator recomputes a log's total after its children change.
type Aggregator interface {
	RecomputeTotal(ctx context.Context, logID string) (models.EmissionLog, error)
}

// LogInput is the itemized log payload. Zero Date means today and zero
// CreatedAt means now; a missing CO2e falls back to the total.
type LogInput struct {
	Date             time.Time
	TotalEmissionsKg *float64
	CO2e             *float64
	Category         string
	Description      string
	CreatedAt        time.Time
}

// VehicleTripInput adds a trip to a log.
type VehicleTripInput struct {
	EmissionLogID string   `json:"emissionLogId"`
	VehicleType   string   `json:"vehicleType"`
	FuelType      string   `json:"fuelType"`
	DistanceKm    *float64 `json:"distanceKm"`
}

// ElectricityUseInput adds electricity consumption to a log.
type ElectricityUseInput struct {
	EmissionLogID string   `json:"emissionLogId"`
	Country       string   `json:"country"`
	KWh           *float64 `json:"kwh"`
}

// WasteDisposalInput adds a waste batch to a log.
type WasteDisposalInput struct {
	EmissionLogID  string   `json:"emissionLogId"`
	WasteType      string   `json:"wasteType"`
	DisposalMethod string   `json:"disposalMethod"`
	WeightKg       *float64 `json:"weightKg"`
}

// FuelCombustionInput adds burned fuel to a log.
type FuelCombustionInput struct {
	EmissionLogID string   `json:"emissionLogId"`
	FuelType      string   `json:"fuelType"`
	Unit          string   `json:"unit"`
	Quantity      *float64 `json:"quantity"`
}

// Service implements the emission log use cases.
type Service struct {
	store      repository.Store
	catalog    *catalog.Catalog
	calc       *calculator.Calculator
	aggregator Aggregator
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewService constructs the emission log service.
func NewService(store repository.Store, cat *catalog.Catalog, aggregator Aggregator, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		catalog:    cat,
		calc:       calculator.New(cat),
		aggregator: aggregator,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateLog stores an itemized log with a caller-supplied total.
func (s *Service) CreateLog(ctx context.Context, userID string, in LogInput) (models.EmissionLog, error) {
	now := s.now().UTC()

	total := aggregation.RoundKg(models.Value(in.TotalEmissionsKg))
	co2e := total
	if in.CO2e != nil {
		co2e = aggregation.RoundKg(*in.CO2e)
	}

	log := models.EmissionLog{
		UserID:           userID,
		Date:             dateOrToday(in.Date, now),
		TotalEmissionsKg: total,
		CO2e:             co2e,
		Category:         in.Category,
		Description:      in.Description,
		CreatedAt:        in.CreatedAt,
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}

	if err := s.store.CreateLog(ctx, &log); err != nil {
		return models.EmissionLog{}, err
	}

	s.logger.Info("emission log created", zap.String("log_id", log.ID), zap.String("user_id", userID))
	return log, nil
}

// CreateQuick computes a single category's emissions and stores them as a new
// log holding that one activity. The log and its child are written in the
// same transaction, so the stored total always equals the child's emissions.
func (s *Service) CreateQuick(ctx context.Context, userID string, req models.QuickEntryRequest) (models.EmissionLog, error) {
	entry, err := req.Entry()
	if err != nil {
		return models.EmissionLog{}, err
	}

	var (
		kg      float64
		details string
		addTo   func(ctx context.Context, tx repository.Store, logID string) error
	)

	switch e := entry.(type) {
	case models.VehicleTripEntry:
		kg = aggregation.RoundKg(s.vehicleEmissions(e.VehicleType, e.FuelType, e.DistanceKm))
		details = fmt.Sprintf("Vehicle %s (%s), distance=%.3f km", orDash(e.VehicleType), orDash(e.FuelType), e.DistanceKm)
		addTo = func(ctx context.Context, tx repository.Store, logID string) error {
			return tx.AddVehicleTrip(ctx, &models.VehicleTrip{
				EmissionLogID: logID,
				VehicleType:   e.VehicleType,
				FuelType:      e.FuelType,
				DistanceKm:    models.Float(e.DistanceKm),
				EmissionsKg:   models.Float(kg),
			})
		}
	case models.ElectricityUseEntry:
		kg = aggregation.RoundKg(s.electricityEmissions(e.Country, e.KWh))
		details = fmt.Sprintf("Electricity, country=%s, kWh=%.3f", orDash(e.Country), e.KWh)
		addTo = func(ctx context.Context, tx repository.Store, logID string) error {
			return tx.AddElectricityUse(ctx, &models.ElectricityUse{
				EmissionLogID: logID,
				Country:       catalog.CountryCode(e.Country),
				KWh:           models.Float(e.KWh),
				EmissionsKg:   models.Float(kg),
			})
		}
	case models.WasteDisposalEntry:
		kg = aggregation.RoundKg(s.wasteEmissions(e.WasteType, e.Method, e.WeightKg))
		details = fmt.Sprintf("Waste %s via %s, weight=%.3f kg", orDash(e.WasteType), orDash(e.Method), e.WeightKg)
		addTo = func(ctx context.Context, tx repository.Store, logID string) error {
			return tx.AddWasteDisposal(ctx, &models.WasteDisposal{
				EmissionLogID:  logID,
				WasteType:      e.WasteType,
				DisposalMethod: e.Method,
				WeightKg:       models.Float(e.WeightKg),
				EmissionsKg:    models.Float(kg),
			})
		}
	case models.FuelCombustionEntry:
		kg = aggregation.RoundKg(s.fuelEmissions(e.FuelType, e.Unit, e.Quantity))
		details = fmt.Sprintf("Fuel %s (%s), qty=%.3f", orDash(e.FuelType), orDash(e.Unit), e.Quantity)
		addTo = func(ctx context.Context, tx repository.Store, logID string) error {
			return tx.AddFuelCombustion(ctx, &models.FuelCombustion{
				EmissionLogID: logID,
				FuelType:      e.FuelType,
				Unit:          e.Unit,
				Quantity:      models.Float(e.Quantity),
				EmissionsKg:   models.Float(kg),
			})
		}
	default:
		return models.EmissionLog{}, fmt.Errorf("%w: %T", models.ErrUnknownCategory, entry)
	}

	now := s.now().UTC()
	log := models.EmissionLog{
		UserID:           userID,
		Date:             dateOrToday(time.Time{}, now),
		TotalEmissionsKg: kg,
		CO2e:             kg,
		Category:         req.Category,
		Description:      details,
		CreatedAt:        now,
	}

	err = s.store.Atomically(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.CreateLog(ctx, &log); err != nil {
			return err
		}
		return addTo(ctx, tx, log.ID)
	})
	if err != nil {
		return models.EmissionLog{}, err
	}
	s.metrics.ActivityRecorded(string(entry.Category()))

	s.logger.Info("quick emission log created",
		zap.String("log_id", log.ID),
		zap.String("category", string(entry.Category())),
		zap.Float64("co2e_kg", kg))
	return log, nil
}

// ListLogs returns the user's logs, newest first.
func (s *Service) ListLogs(ctx context.Context, userID string) ([]models.EmissionLog, error) {
	return s.store.ListLogsByUser(ctx, userID)
}

// GetLog returns a log with all of its activities.
func (s *Service) GetLog(ctx context.Context, userID, logID string) (models.LogDetail, error) {
	log, err := s.ownedLog(ctx, userID, logID)
	if err != nil {
		return models.LogDetail{}, err
	}

	activities, err := s.store.Activities(ctx, logID)
	if err != nil {
		return models.LogDetail{}, err
	}
	return models.LogDetail{Log: log, Activities: activities}, nil
}

// Recompute re-sums a log the user owns.
func (s *Service) Recompute(ctx context.Context, userID, logID string) (models.EmissionLog, error) {
	if _, err := s.ownedLog(ctx, userID, logID); err != nil {
		return models.EmissionLog{}, err
	}
	return s.aggregator.RecomputeTotal(ctx, logID)
}

// AddVehicleTrip records a trip and refreshes the log total.
func (s *Service) AddVehicleTrip(ctx context.Context, userID string, in VehicleTripInput) (models.VehicleTrip, error) {
	log, err := s.ownedLog(ctx, userID, in.EmissionLogID)
	if err != nil {
		return models.VehicleTrip{}, err
	}

	kg := aggregation.RoundKg(s.vehicleEmissions(in.VehicleType, in.FuelType, models.Quantity(in.DistanceKm)))
	trip := models.VehicleTrip{
		EmissionLogID: log.ID,
		VehicleType:   in.VehicleType,
		FuelType:      in.FuelType,
		DistanceKm:    in.DistanceKm,
		EmissionsKg:   &kg,
	}
	if err := s.store.AddVehicleTrip(ctx, &trip); err != nil {
		return models.VehicleTrip{}, err
	}

	return trip, s.afterInsert(ctx, log.ID, models.CategoryVehicleTrip)
}

// AddElectricityUse records consumption and refreshes the log total.
func (s *Service) AddElectricityUse(ctx context.Context, userID string, in ElectricityUseInput) (models.ElectricityUse, error) {
	log, err := s.ownedLog(ctx, userID, in.EmissionLogID)
	if err != nil {
		return models.ElectricityUse{}, err
	}

	kg := aggregation.RoundKg(s.electricityEmissions(in.Country, models.Quantity(in.KWh)))
	use := models.ElectricityUse{
		EmissionLogID: log.ID,
		Country:       catalog.CountryCode(in.Country),
		KWh:           in.KWh,
		EmissionsKg:   &kg,
	}
	if err := s.store.AddElectricityUse(ctx, &use); err != nil {
		return models.ElectricityUse{}, err
	}

	return use, s.afterInsert(ctx, log.ID, models.CategoryElectricityUse)
}

// AddWasteDisposal records a waste batch and refreshes the log total.
func (s *Service) AddWasteDisposal(ctx context.Context, userID string, in WasteDisposalInput) (models.WasteDisposal, error) {
	log, err := s.ownedLog(ctx, userID, in.EmissionLogID)
	if err != nil {
		return models.WasteDisposal{}, err
	}

	kg := aggregation.RoundKg(s.wasteEmissions(in.WasteType, in.DisposalMethod, models.Value(in.WeightKg)))
	disposal := models.WasteDisposal{
		EmissionLogID:  log.ID,
		WasteType:      in.WasteType,
		DisposalMethod: in.DisposalMethod,
		WeightKg:       in.WeightKg,
		EmissionsKg:    &kg,
	}
	if err := s.store.AddWasteDisposal(ctx, &disposal); err != nil {
		return models.WasteDisposal{}, err
	}

	return disposal, s.afterInsert(ctx, log.ID, models.CategoryWasteDisposal)
}

// AddFuelCombustion records burned fuel and refreshes the log total.
func (s *Service) AddFuelCombustion(ctx context.Context, userID string, in FuelCombustionInput) (models.FuelCombustion, error) {
	log, err := s.ownedLog(ctx, userID, in.EmissionLogID)
	if err != nil {
		return models.FuelCombustion{}, err
	}

	kg := aggregation.RoundKg(s.fuelEmissions(in.FuelType, in.Unit, models.Quantity(in.Quantity)))
	combustion := models.FuelCombustion{
		EmissionLogID: log.ID,
		FuelType:      in.FuelType,
		Unit:          in.Unit,
		Quantity:      in.Quantity,
		EmissionsKg:   &kg,
	}
	if err := s.store.AddFuelCombustion(ctx, &combustion); err != nil {
		return models.FuelCombustion{}, err
	}

	return combustion, s.afterInsert(ctx, log.ID, models.CategoryFuelCombustion)
}

// ListVehicleTrips returns the trips of a log the user owns.
func (s *Service) ListVehicleTrips(ctx context.Context, userID, logID string) ([]models.VehicleTrip, error) {
	set, err := s.activities(ctx, userID, logID)
	return set.VehicleTrips, err
}

// ListElectricityUses returns the electricity readings of a log the user owns.
func (s *Service) ListElectricityUses(ctx context.Context, userID, logID string) ([]models.ElectricityUse, error) {
	set, err := s.activities(ctx, userID, logID)
	return set.ElectricityUses, err
}

// ListWasteDisposals returns the waste batches of a log the user owns.
func (s *Service) ListWasteDisposals(ctx context.Context, userID, logID string) ([]models.WasteDisposal, error) {
	set, err := s.activities(ctx, userID, logID)
	return set.WasteDisposals, err
}

// ListFuelCombustions returns the fuel records of a log the user owns.
func (s *Service) ListFuelCombustions(ctx context.Context, userID, logID string) ([]models.FuelCombustion, error) {
	set, err := s.activities(ctx, userID, logID)
	return set.FuelCombustions, err
}

func (s *Service) activities(ctx context.Context, userID, logID string) (models.ActivitySet, error) {
	if _, err := s.ownedLog(ctx, userID, logID); err != nil {
		return models.ActivitySet{}, err
	}
	return s.store.Activities(ctx, logID)
}

func (s *Service) ownedLog(ctx context.Context, userID, logID string) (models.EmissionLog, error) {
	if strings.TrimSpace(logID) == "" {
		return models.EmissionLog{}, fmt.Errorf("emission log id is empty: %w", repository.ErrNotFound)
	}

	log, err := s.store.GetLog(ctx, logID)
	if err != nil {
		return models.EmissionLog{}, err
	}
	if log.UserID != userID {
		return models.EmissionLog{}, ErrForbidden
	}
	return log, nil
}

// afterInsert runs once the child is persisted. A failed recompute leaves the
// child stored; the next recompute or the reconciliation sweep picks it up.
func (s *Service) afterInsert(ctx context.Context, logID string, category models.Category) error {
	s.metrics.ActivityRecorded(string(category))

	if _, err := s.aggregator.RecomputeTotal(ctx, logID); err != nil {
		s.logger.Error("failed to recompute log total", zap.String("log_id", logID), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) vehicleEmissions(vehicleType, fuelType string, distanceKm float64) float64 {
	if _, ok := s.catalog.LookupVehicle(vehicleType, fuelType); !ok {
		s.logger.Debug("unknown vehicle factor", zap.String("key", catalog.Key(vehicleType, fuelType)))
	}
	return s.calc.VehicleEmissions(vehicleType, fuelType, distanceKm)
}

func (s *Service) electricityEmissions(country string, kwh float64) float64 {
	if _, ok := s.catalog.LookupElectricity(country); !ok {
		s.logger.Debug("electricity country not found, using default factor", zap.String("country", catalog.CountryCode(country)))
	}
	return s.calc.ElectricityEmissions(country, kwh)
}

func (s *Service) wasteEmissions(wasteType, method string, weightKg float64) float64 {
	if weightKg > 0 {
		if _, ok := s.catalog.LookupWaste(wasteType, method); !ok {
			s.logger.Debug("unknown waste factor", zap.String("type", catalog.Normalize(wasteType)), zap.String("method", catalog.Normalize(method)))
		}
	}
	return s.calc.WasteEmissions(wasteType, method, weightKg)
}

func (s *Service) fuelEmissions(fuelType, unit string, quantity float64) float64 {
	if _, ok := s.catalog.LookupFuel(fuelType, unit); !ok {
		s.logger.Debug("unknown fuel factor", zap.String("key", catalog.Key(fuelType, unit)))
	}
	return s.calc.FuelEmissions(fuelType, unit, quantity)
}

func dateOrToday(d, now time.Time) time.Time {
	if d.IsZero() {
		d = now
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
