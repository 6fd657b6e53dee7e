package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	flatVehicles     = `{"car_petrol": 0.192, "Car Diesel": "0.171", "motorbike_petrol": 1}`
	flatElectricity  = `{"de": 0.38, "FR": 0.056, "ELECTRICITY_DEFAULT": 0.3}`
	flatWaste        = `{"waste_disposal_factors": {"paper_recycle": 21.1, "paper_landfill": 1041.8, "household_residual_waste_landfill": 497}}`
	flatFuels        = `{"diesel_litre": 2.68, "natural_gas_kwh": 0.18}`
	wrappedVehicles  = `{"vehicle_factors": {"car_petrol": 0.192}}`
	wrappedFuels     = `{"fuel_combustion_factors": {"Diesel Litre": 2.68}}`
	wrappedElectric  = `{"electricity_per_country": {"de": 0.38}, "electricity_default": "0.45"}`
	nestedWaste      = `{"paper": {"recycle": 21.1, "default": 500}, "textiles": 300, "glass_recycle": 21}`
	yamlVehicleTable = "vehicle_factors:\n  car_petrol: 0.192\n  van_diesel: 0.25\n"
)

func docs(vehicle, electricity, waste, fuel string) Documents {
	return Documents{
		Vehicle:     []byte(vehicle),
		Electricity: []byte(electricity),
		Waste:       []byte(waste),
		Fuel:        []byte(fuel),
	}
}

func TestParseFlatShapes(t *testing.T) {
	c, err := Parse(docs(flatVehicles, flatElectricity, flatWaste, flatFuels))
	require.NoError(t, err)

	assert.InDelta(t, 0.192, c.VehicleFactor("car", "petrol"), 1e-12)
	assert.InDelta(t, 0.171, c.VehicleFactor("car", "diesel"), 1e-12, "numeric string coerced")
	assert.InDelta(t, 1.0, c.VehicleFactor("motorbike", "petrol"), 1e-12, "integer coerced")

	assert.InDelta(t, 0.38, c.ElectricityFactor("DE"), 1e-12)
	assert.InDelta(t, 0.3, c.DefaultElectricity(), 1e-12)
	assert.Equal(t, []string{"DE", "FR"}, c.ElectricityCountryCodes())

	assert.InDelta(t, 21.1, c.WasteFactor("paper", "recycle"), 1e-12)
	assert.InDelta(t, 497, c.WasteFactor("Household residual waste", "Landfill"), 1e-12)
	assert.Zero(t, c.WasteFactor("paper", "compost"), "flat shape carries no default")

	assert.InDelta(t, 2.68, c.FuelFactor("diesel", "litre"), 1e-12)
}

func TestParseWrappedShapes(t *testing.T) {
	c, err := Parse(docs(wrappedVehicles, wrappedElectric, nestedWaste, wrappedFuels))
	require.NoError(t, err)

	assert.InDelta(t, 0.192, c.VehicleFactor("Car", "Petrol"), 1e-12)
	assert.InDelta(t, 2.68, c.FuelFactor("diesel", "LITRE"), 1e-12)
	assert.InDelta(t, 0.45, c.ElectricityFactor("zz"), 1e-12)

	assert.InDelta(t, 21.1, c.WasteFactor("paper", "recycle"), 1e-12)
	assert.InDelta(t, 500, c.WasteFactor("paper", "unknown"), 1e-12)
	assert.InDelta(t, 300, c.WasteFactor("textiles", "landfill"), 1e-12, "bare number is the type default")
	assert.InDelta(t, 21, c.WasteFactor("glass", "recycle"), 1e-12)

	assert.Equal(t, map[string][]string{
		"glass":    {"recycle"},
		"paper":    {"default", "recycle"},
		"textiles": {"default"},
	}, c.WasteTypes())
}

func TestParseSingleEntryWrapperAndYAML(t *testing.T) {
	c, err := Parse(docs(yamlVehicleTable, `{"grid": {"DE": 0.38, "default": 0.6}}`, nestedWaste, `{"fuels": {"diesel_litre": 2.68}}`))
	require.NoError(t, err)

	assert.InDelta(t, 0.25, c.VehicleFactor("van", "diesel"), 1e-12)
	assert.InDelta(t, 0.6, c.ElectricityFactor("PL"), 1e-12)
	assert.InDelta(t, 2.68, c.FuelFactor("diesel", "litre"), 1e-12)
}

func TestParseElectricityDefaultsWhenAbsent(t *testing.T) {
	c, err := Parse(docs(flatVehicles, `{"electricity_per_country": {"DE": 0.38}}`, flatWaste, flatFuels))
	require.NoError(t, err)
	assert.InDelta(t, DefaultElectricityFactor, c.ElectricityFactor("ZZ"), 1e-12)
}

func TestParseRejectsBadSources(t *testing.T) {
	tests := []struct {
		name string
		docs Documents
		kind error
	}{
		{
			name: "non numeric vehicle factor",
			docs: docs(`{"car_petrol": "fast"}`, flatElectricity, flatWaste, flatFuels),
			kind: ErrNonNumeric,
		},
		{
			name: "null fuel factor",
			docs: docs(flatVehicles, flatElectricity, flatWaste, `{"diesel_litre": null}`),
			kind: ErrNonNumeric,
		},
		{
			name: "boolean electricity factor",
			docs: docs(flatVehicles, `{"DE": true}`, flatWaste, flatFuels),
			kind: ErrNonNumeric,
		},
		{
			name: "nested list in waste",
			docs: docs(flatVehicles, flatElectricity, `{"paper": [1, 2]}`, flatFuels),
			kind: ErrNonNumeric,
		},
		{
			name: "empty vehicle document",
			docs: docs(``, flatElectricity, flatWaste, flatFuels),
			kind: ErrMissingSection,
		},
		{
			name: "empty wrapped fuel section",
			docs: docs(flatVehicles, flatElectricity, flatWaste, `{"fuel_combustion_factors": {}}`),
			kind: ErrMissingSection,
		},
		{
			name: "electricity section not an object",
			docs: docs(flatVehicles, `{"electricity_per_country": 3}`, flatWaste, flatFuels),
			kind: ErrMissingSection,
		},
		{
			name: "electricity without countries",
			docs: docs(flatVehicles, `{"default": 0.4}`, flatWaste, flatFuels),
			kind: ErrMissingSection,
		},
		{
			name: "waste wrapper not an object",
			docs: docs(flatVehicles, flatElectricity, `{"waste_disposal_factors": "none"}`, flatFuels),
			kind: ErrMissingSection,
		},
		{
			name: "top level array",
			docs: docs(`[0.192]`, flatElectricity, flatWaste, flatFuels),
			kind: ErrInvalidShape,
		},
		{
			name: "malformed json",
			docs: docs(`{"car_petrol": `, flatElectricity, flatWaste, flatFuels),
			kind: ErrInvalidShape,
		},
		{
			name: "nested object in flat vehicle table",
			docs: docs(`{"car_petrol": 0.19, "van": {"diesel": 0.25}}`, flatElectricity, flatWaste, flatFuels),
			kind: ErrNonNumeric,
		},
		{
			name: "conflicting keys after normalization",
			docs: docs(`{"car_petrol": 0.19, "Car Petrol": 0.2}`, flatElectricity, flatWaste, flatFuels),
			kind: ErrDuplicateKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(tt.docs)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, ErrInvalidSource)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestParseAllowsIdenticalDuplicates(t *testing.T) {
	c, err := Parse(docs(`{"car_petrol": 0.192, "Car-Petrol": 0.192}`, flatElectricity, flatWaste, flatFuels))
	require.NoError(t, err)
	assert.Equal(t, []string{"car_petrol"}, c.VehicleKeys())
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	src := Sources{
		Vehicle:     write("vehicle.json", flatVehicles),
		Electricity: write("electricity.json", wrappedElectric),
		Waste:       write("waste.yaml", "paper:\n  recycle: 21.1\n"),
		Fuel:        write("fuel.json", flatFuels),
	}

	c, err := Load(src)
	require.NoError(t, err)
	assert.InDelta(t, 21.1, c.WasteFactor("paper", "recycle"), 1e-12)

	src.Fuel = filepath.Join(dir, "missing.json")
	_, err = Load(src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSource)
	assert.ErrorIs(t, err, os.ErrNotExist)

	src.Fuel = ""
	_, err = Load(src)
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestLoadBundledData(t *testing.T) {
	c, err := Load(SourcesIn(filepath.Join("..", "..", "data")))
	require.NoError(t, err)

	assert.InDelta(t, 0.192, c.VehicleFactor("car", "petrol"), 1e-12)
	assert.InDelta(t, 21.1, c.WasteFactor("paper", "recycle"), 1e-12)
	assert.NotEmpty(t, c.ElectricityCountryCodes())
	assert.NotContains(t, c.ElectricityCountryCodes(), ElectricityDefaultKey)
}
