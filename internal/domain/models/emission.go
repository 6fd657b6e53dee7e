package models

import "time"

// EmissionLog is the aggregate root. TotalEmissionsKg is derived from the
// children and recomputed after every change to them.
type EmissionLog struct {
	ID               string    `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	UserID           string    `bson:"user_id" json:"userId" gorm:"index;not null;size:191"`
	Date             time.Time `bson:"date" json:"date" gorm:"not null"`
	TotalEmissionsKg float64   `bson:"total_emissions_kg" json:"totalEmissionsKg"`
	CO2e             float64   `bson:"co2e" json:"co2e"`
	Category         string    `bson:"category,omitempty" json:"category,omitempty" gorm:"size:50"`
	Description      string    `bson:"description,omitempty" json:"description,omitempty" gorm:"size:255"`
	CreatedAt        time.Time `bson:"created_at" json:"createdAt"`
}

// TableName pins the table/collection name.
func (EmissionLog) TableName() string { return "emission_logs" }

// VehicleTrip is a single trip recorded against a log.
type VehicleTrip struct {
	ID            string   `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	EmissionLogID string   `bson:"emission_log_id" json:"emissionLogId" gorm:"index;not null;size:36"`
	VehicleType   string   `bson:"vehicle_type" json:"vehicleType" gorm:"size:50"`
	FuelType      string   `bson:"fuel_type" json:"fuelType" gorm:"size:50"`
	DistanceKm    *float64 `bson:"distance_km" json:"distanceKm"`
	EmissionsKg   *float64 `bson:"emissions_kg" json:"emissionsKg"`
}

func (VehicleTrip) TableName() string { return "vehicle_trips" }

// ElectricityUse is metered consumption recorded against a log.
type ElectricityUse struct {
	ID            string   `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	EmissionLogID string   `bson:"emission_log_id" json:"emissionLogId" gorm:"index;not null;size:36"`
	Country       string   `bson:"country" json:"country" gorm:"size:8"`
	KWh           *float64 `bson:"kwh" json:"kwh"`
	EmissionsKg   *float64 `bson:"emissions_kg" json:"emissionsKg"`
}

func (ElectricityUse) TableName() string { return "electricity_uses" }

// WasteDisposal is a waste batch recorded against a log.
type WasteDisposal struct {
	ID             string   `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	EmissionLogID  string   `bson:"emission_log_id" json:"emissionLogId" gorm:"index;not null;size:36"`
	WasteType      string   `bson:"waste_type" json:"wasteType" gorm:"size:100"`
	DisposalMethod string   `bson:"disposal_method" json:"disposalMethod" gorm:"size:50"`
	WeightKg       *float64 `bson:"weight_kg" json:"weightKg"`
	EmissionsKg    *float64 `bson:"emissions_kg" json:"emissionsKg"`
}

func (WasteDisposal) TableName() string { return "waste_entries" }

// FuelCombustion is burned fuel recorded against a log.
type FuelCombustion struct {
	ID            string   `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	EmissionLogID string   `bson:"emission_log_id" json:"emissionLogId" gorm:"index;not null;size:36"`
	FuelType      string   `bson:"fuel_type" json:"fuelType" gorm:"size:50"`
	Unit          string   `bson:"unit" json:"unit" gorm:"size:20"`
	Quantity      *float64 `bson:"quantity" json:"quantity"`
	EmissionsKg   *float64 `bson:"emissions_kg" json:"emissionsKg"`
}

func (FuelCombustion) TableName() string { return "fuel_combustions" }

// ActivitySet is the full current set of a log's children.
type ActivitySet struct {
	VehicleTrips    []VehicleTrip    `json:"vehicleTrips"`
	ElectricityUses []ElectricityUse `json:"electricityUses"`
	WasteDisposals  []WasteDisposal  `json:"wasteDisposals"`
	FuelCombustions []FuelCombustion `json:"fuelCombustions"`
}

// Len returns the number of children across all four kinds.
func (s ActivitySet) Len() int {
	return len(s.VehicleTrips) + len(s.ElectricityUses) + len(s.WasteDisposals) + len(s.FuelCombustions)
}

// LogDetail bundles a log with its children.
type LogDetail struct {
	Log        EmissionLog `json:"log"`
	Activities ActivitySet `json:"activities"`
}

// Float returns a pointer to v. Handy for optional quantities.
func Float(v float64) *float64 {
	return &v
}

// Quantity reads an optional quantity; absent or negative values count as 0.
func Quantity(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

// Value reads an optional number, 0 when absent.
func Value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
