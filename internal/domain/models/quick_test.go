package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw     string
		want    Category
		wantErr error
	}{
		{raw: "vehicle trip", want: CategoryVehicleTrip},
		{raw: "  Electricity   Use ", want: CategoryElectricityUse},
		{raw: "WASTE DISPOSAL", want: CategoryWasteDisposal},
		{raw: "fuel combustion", want: CategoryFuelCombustion},
		{raw: "", wantErr: ErrMissingCategory},
		{raw: "   ", wantErr: ErrMissingCategory},
		{raw: "flights", wantErr: ErrUnknownCategory},
		{raw: "vehicle_trip", wantErr: ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCategory(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuickEntryRequestEntry(t *testing.T) {
	tests := []struct {
		name string
		req  QuickEntryRequest
		want QuickEntry
	}{
		{
			name: "vehicle",
			req:  QuickEntryRequest{Category: "Vehicle Trip", VehicleType: "car", VehicleFuel: "petrol", DistanceKm: Float(12.5), KWh: Float(99)},
			want: VehicleTripEntry{VehicleType: "car", FuelType: "petrol", DistanceKm: 12.5},
		},
		{
			name: "electricity missing kwh",
			req:  QuickEntryRequest{Category: "electricity use", ElectricityCountry: "DE"},
			want: ElectricityUseEntry{Country: "DE", KWh: 0},
		},
		{
			name: "waste keeps negative weight",
			req:  QuickEntryRequest{Category: "waste disposal", WasteType: "paper", WasteMethod: "recycle", WasteKg: Float(-5)},
			want: WasteDisposalEntry{WasteType: "paper", Method: "recycle", WeightKg: -5},
		},
		{
			name: "fuel clamps negative quantity",
			req:  QuickEntryRequest{Category: "fuel combustion", FuelType: "diesel", FuelUnit: "litre", FuelQuantity: Float(-3)},
			want: FuelCombustionEntry{FuelType: "diesel", Unit: "litre", Quantity: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.Entry()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuickEntryRequestRejectsUnknownCategory(t *testing.T) {
	_, err := QuickEntryRequest{Category: "teleportation"}.Entry()
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = QuickEntryRequest{}.Entry()
	assert.ErrorIs(t, err, ErrMissingCategory)
}

func TestQuantity(t *testing.T) {
	assert.Zero(t, Quantity(nil))
	assert.Zero(t, Quantity(Float(-1)))
	assert.Equal(t, 2.5, Quantity(Float(2.5)))
	assert.Equal(t, -1.0, Value(Float(-1)))
	assert.Zero(t, Value(nil))
}

func TestActivitySetLen(t *testing.T) {
	set := ActivitySet{
		VehicleTrips:   []VehicleTrip{{}, {}},
		WasteDisposals: []WasteDisposal{{}},
	}
	assert.Equal(t, 3, set.Len())
}
