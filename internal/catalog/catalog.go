// Package catalog holds the emission factor reference tables. A Catalog is
// built once at startup and never mutated afterwards, so it is safe for
// concurrent readers without locking.
package catalog

import (
	"slices"
	"sort"
	"strings"
)

const (
	// ElectricityDefaultKey is the reserved electricity entry holding the
	// factor used for countries absent from the table.
	ElectricityDefaultKey = "ELECTRICITY_DEFAULT"

	// DefaultElectricityFactor is used when the source provides no default (kg CO2e per kWh).
	DefaultElectricityFactor = 0.5

	// WasteDefaultMethod is the reserved disposal method carrying a waste type's fallback factor.
	WasteDefaultMethod = "default"
)

// Table names used in errors and metrics.
const (
	TableVehicle     = "vehicle"
	TableElectricity = "electricity"
	TableWaste       = "waste"
	TableFuel        = "fuel"
)

// Catalog serves read-only factor lookups.
type Catalog struct {
	vehicles    map[string]float64            // normalize(vehicle_fuel) -> kg CO2e per km
	electricity map[string]float64            // COUNTRY -> kg CO2e per kWh, plus ElectricityDefaultKey
	waste       map[string]map[string]float64 // type -> method -> kg CO2e per tonne
	fuels       map[string]float64            // normalize(fuel_unit) -> kg CO2e per unit

	listing Listing
}

// Listing is the catalog of available keys handed to presentation layers.
type Listing struct {
	Vehicles             []string            `json:"vehicles"`
	ElectricityCountries []string            `json:"electricityCountries"`
	Fuels                []string            `json:"fuels"`
	Waste                map[string][]string `json:"waste"`
}

// Tables carries already-keyed factor tables into New.
type Tables struct {
	Vehicles    map[string]float64
	Electricity map[string]float64
	Waste       map[string]map[string]float64
	Fuels       map[string]float64
}

// New builds a Catalog from the supplied tables. Keys are canonicalized and
// the maps are copied, so later changes to t do not leak into the Catalog.
// A missing electricity default is filled with DefaultElectricityFactor.
func New(t Tables) *Catalog {
	c := &Catalog{
		vehicles:    make(map[string]float64, len(t.Vehicles)),
		electricity: make(map[string]float64, len(t.Electricity)+1),
		waste:       make(map[string]map[string]float64, len(t.Waste)),
		fuels:       make(map[string]float64, len(t.Fuels)),
	}

	for k, v := range t.Vehicles {
		c.vehicles[Normalize(k)] = v
	}
	for k, v := range t.Electricity {
		c.electricity[CountryCode(k)] = v
	}
	if _, ok := c.electricity[ElectricityDefaultKey]; !ok {
		c.electricity[ElectricityDefaultKey] = DefaultElectricityFactor
	}
	for wasteType, methods := range t.Waste {
		typeKey := Normalize(wasteType)
		inner, ok := c.waste[typeKey]
		if !ok {
			inner = make(map[string]float64, len(methods))
			c.waste[typeKey] = inner
		}
		for method, v := range methods {
			inner[Normalize(method)] = v
		}
	}
	for k, v := range t.Fuels {
		c.fuels[Normalize(k)] = v
	}

	c.listing = c.buildListing()
	return c
}

// LookupVehicle returns the per-km factor and whether the combination is known.
func (c *Catalog) LookupVehicle(vehicleType, fuelType string) (float64, bool) {
	factor, ok := c.vehicles[Key(vehicleType, fuelType)]
	return factor, ok
}

// VehicleFactor returns the per-km factor, 0 for unknown combinations.
func (c *Catalog) VehicleFactor(vehicleType, fuelType string) float64 {
	factor, _ := c.LookupVehicle(vehicleType, fuelType)
	return factor
}

// LookupElectricity returns the per-kWh factor for the country and whether the
// country itself was found. Unknown countries get the default factor.
func (c *Catalog) LookupElectricity(countryCode string) (float64, bool) {
	if factor, ok := c.electricity[CountryCode(countryCode)]; ok {
		return factor, true
	}
	return c.electricity[ElectricityDefaultKey], false
}

// ElectricityFactor returns the per-kWh factor, falling back to the default.
func (c *Catalog) ElectricityFactor(countryCode string) float64 {
	factor, _ := c.LookupElectricity(countryCode)
	return factor
}

// DefaultElectricity returns the fallback electricity factor.
func (c *Catalog) DefaultElectricity() float64 {
	return c.electricity[ElectricityDefaultKey]
}

// LookupWaste resolves (type, method), falling back to the type's default
// method. The boolean is false only when nothing could be resolved.
func (c *Catalog) LookupWaste(wasteType, method string) (float64, bool) {
	methods, ok := c.waste[Normalize(wasteType)]
	if !ok {
		return 0, false
	}
	if factor, ok := methods[Normalize(method)]; ok {
		return factor, true
	}
	factor, ok := methods[WasteDefaultMethod]
	return factor, ok
}

// WasteFactor returns the per-tonne factor, 0 when the waste type is unknown.
func (c *Catalog) WasteFactor(wasteType, method string) float64 {
	factor, _ := c.LookupWaste(wasteType, method)
	return factor
}

// LookupFuel returns the per-unit factor and whether the combination is known.
func (c *Catalog) LookupFuel(fuelType, unit string) (float64, bool) {
	factor, ok := c.fuels[Key(fuelType, unit)]
	return factor, ok
}

// FuelFactor returns the per-unit factor, 0 for unknown combinations.
func (c *Catalog) FuelFactor(fuelType, unit string) float64 {
	factor, _ := c.LookupFuel(fuelType, unit)
	return factor
}

// VehicleKeys returns the sorted vehicle keys.
func (c *Catalog) VehicleKeys() []string {
	return slices.Clone(c.listing.Vehicles)
}

// ElectricityCountryCodes returns the sorted country codes without the default marker.
func (c *Catalog) ElectricityCountryCodes() []string {
	return slices.Clone(c.listing.ElectricityCountries)
}

// FuelKeys returns the sorted fuel keys.
func (c *Catalog) FuelKeys() []string {
	return slices.Clone(c.listing.Fuels)
}

// WasteTypes returns waste type -> sorted disposal methods.
func (c *Catalog) WasteTypes() map[string][]string {
	out := make(map[string][]string, len(c.listing.Waste))
	for k, v := range c.listing.Waste {
		out[k] = slices.Clone(v)
	}
	return out
}

// Listing returns a snapshot of every listing. The result is a copy.
func (c *Catalog) Listing() Listing {
	return Listing{
		Vehicles:             c.VehicleKeys(),
		ElectricityCountries: c.ElectricityCountryCodes(),
		Fuels:                c.FuelKeys(),
		Waste:                c.WasteTypes(),
	}
}

// Sizes reports the number of factors per table.
func (c *Catalog) Sizes() map[string]int {
	wasteFactors := 0
	for _, methods := range c.waste {
		wasteFactors += len(methods)
	}
	return map[string]int{
		TableVehicle:     len(c.vehicles),
		TableElectricity: len(c.listing.ElectricityCountries),
		TableWaste:       wasteFactors,
		TableFuel:        len(c.fuels),
	}
}

func (c *Catalog) buildListing() Listing {
	countries := make([]string, 0, len(c.electricity))
	for k := range c.electricity {
		if strings.EqualFold(k, ElectricityDefaultKey) {
			continue
		}
		countries = append(countries, k)
	}
	sort.Strings(countries)

	waste := make(map[string][]string, len(c.waste))
	for wasteType, methods := range c.waste {
		waste[wasteType] = sortedKeys(methods)
	}

	return Listing{
		Vehicles:             sortedKeys(c.vehicles),
		ElectricityCountries: countries,
		Fuels:                sortedKeys(c.fuels),
		Waste:                waste,
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
