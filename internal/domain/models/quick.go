package models

import (
	"errors"
	"fmt"
	"strings"
)

// Category enumerates the activity kinds a log can hold.
type Category string

const (
	CategoryVehicleTrip    Category = "vehicle trip"
	CategoryElectricityUse Category = "electricity use"
	CategoryWasteDisposal  Category = "waste disposal"
	CategoryFuelCombustion Category = "fuel combustion"
)

// Categories lists every supported category.
var Categories = []Category{
	CategoryVehicleTrip,
	CategoryElectricityUse,
	CategoryWasteDisposal,
	CategoryFuelCombustion,
}

var (
	// ErrMissingCategory indicates a quick entry without a category.
	ErrMissingCategory = errors.New("category is required")
	// ErrUnknownCategory indicates a quick entry whose category is not supported.
	ErrUnknownCategory = errors.New("unknown category")
)

// ParseCategory matches free text such as " Vehicle  Trip" against the known categories.
func ParseCategory(raw string) (Category, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if normalized == "" {
		return "", ErrMissingCategory
	}

	for _, c := range Categories {
		if normalized == string(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
}

// QuickEntryRequest is the flat quick-entry payload. Only the fields of the
// named category are read.
type QuickEntryRequest struct {
	Category string `json:"category"`

	VehicleType string   `json:"vehicleType,omitempty"`
	VehicleFuel string   `json:"vehicleFuel,omitempty"`
	DistanceKm  *float64 `json:"distanceKm,omitempty"`

	ElectricityCountry string   `json:"electricityCountry,omitempty"`
	KWh                *float64 `json:"kwh,omitempty"`

	WasteType   string   `json:"wasteType,omitempty"`
	WasteMethod string   `json:"wasteMethod,omitempty"`
	WasteKg     *float64 `json:"wasteKg,omitempty"`

	FuelType     string   `json:"fuelType,omitempty"`
	FuelUnit     string   `json:"fuelUnit,omitempty"`
	FuelQuantity *float64 `json:"fuelQuantity,omitempty"`
}

// QuickEntry is one of VehicleTripEntry, ElectricityUseEntry,
// WasteDisposalEntry or FuelCombustionEntry.
type QuickEntry interface {
	Category() Category
	isQuickEntry()
}

// VehicleTripEntry carries a quick vehicle trip.
type VehicleTripEntry struct {
	VehicleType string
	FuelType    string
	DistanceKm  float64
}

// ElectricityUseEntry carries quick electricity consumption.
type ElectricityUseEntry struct {
	Country string
	KWh     float64
}

// WasteDisposalEntry carries a quick waste batch. WeightKg is passed through
// unclamped; the calculator ignores non-positive weights.
type WasteDisposalEntry struct {
	WasteType string
	Method    string
	WeightKg  float64
}

// FuelCombustionEntry carries quick fuel combustion.
type FuelCombustionEntry struct {
	FuelType string
	Unit     string
	Quantity float64
}

func (VehicleTripEntry) Category() Category    { return CategoryVehicleTrip }
func (ElectricityUseEntry) Category() Category { return CategoryElectricityUse }
func (WasteDisposalEntry) Category() Category  { return CategoryWasteDisposal }
func (FuelCombustionEntry) Category() Category { return CategoryFuelCombustion }

func (VehicleTripEntry) isQuickEntry()    {}
func (ElectricityUseEntry) isQuickEntry() {}
func (WasteDisposalEntry) isQuickEntry()  {}
func (FuelCombustionEntry) isQuickEntry() {}

// Entry validates the category and builds the matching variant. Missing
// quantities become 0; negative ones too, except waste weight.
func (r QuickEntryRequest) Entry() (QuickEntry, error) {
	category, err := ParseCategory(r.Category)
	if err != nil {
		return nil, err
	}

	switch category {
	case CategoryVehicleTrip:
		return VehicleTripEntry{VehicleType: r.VehicleType, FuelType: r.VehicleFuel, DistanceKm: Quantity(r.DistanceKm)}, nil
	case CategoryElectricityUse:
		return ElectricityUseEntry{Country: r.ElectricityCountry, KWh: Quantity(r.KWh)}, nil
	case CategoryWasteDisposal:
		return WasteDisposalEntry{WasteType: r.WasteType, Method: r.WasteMethod, WeightKg: Value(r.WasteKg)}, nil
	case CategoryFuelCombustion:
		return FuelCombustionEntry{FuelType: r.FuelType, Unit: r.FuelUnit, Quantity: Quantity(r.FuelQuantity)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, r.Category)
	}
}
