// Package calculator converts activity quantities into kilograms of CO2e.
// Every method is a pure function of its inputs and the catalog.
package calculator

import "github.com/mamadbah2/carbontracker/internal/catalog"

// KgPerTonne converts a waste weight in kilograms to tonnes.
const KgPerTonne = 1000.0

// Factors is the catalog view the calculator depends on.
type Factors interface {
	VehicleFactor(vehicleType, fuelType string) float64
	ElectricityFactor(countryCode string) float64
	WasteFactor(wasteType, method string) float64
	FuelFactor(fuelType, unit string) float64
}

var _ Factors = (*catalog.Catalog)(nil)

// Calculator computes per-activity emissions.
type Calculator struct {
	factors Factors
}

// New returns a Calculator over the given factor tables.
func New(factors Factors) *Calculator {
	return &Calculator{factors: factors}
}

// VehicleEmissions returns kg CO2e for a trip of distanceKm.
func (c *Calculator) VehicleEmissions(vehicleType, fuelType string, distanceKm float64) float64 {
	return c.factors.VehicleFactor(vehicleType, fuelType) * distanceKm
}

// ElectricityEmissions returns kg CO2e for kwh consumed in the given country.
func (c *Calculator) ElectricityEmissions(countryCode string, kwh float64) float64 {
	return c.factors.ElectricityFactor(countryCode) * kwh
}

// WasteEmissions returns kg CO2e for weightKg of waste. Factors are per tonne.
// Zero and negative weights short-circuit to 0 without a lookup.
func (c *Calculator) WasteEmissions(wasteType, method string, weightKg float64) float64 {
	if weightKg <= 0 {
		return 0
	}
	return c.factors.WasteFactor(wasteType, method) * (weightKg / KgPerTonne)
}

// FuelEmissions returns kg CO2e for quantity units of fuel burned.
func (c *Calculator) FuelEmissions(fuelType, unit string, quantity float64) float64 {
	return c.factors.FuelFactor(fuelType, unit) * quantity
}
