package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/carbontracker/internal/catalog"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestCatalogCheckBundledData(t *testing.T) {
	out, err := runCLI(t, "catalog", "check", "--factors-dir", filepath.Join("..", "..", "data"))
	require.NoError(t, err)
	assert.Contains(t, out, "vehicle")
	assert.Contains(t, out, "ok")
}

func TestCatalogList(t *testing.T) {
	out, err := runCLI(t, "catalog", "list", "--factors-dir", filepath.Join("..", "..", "data"))
	require.NoError(t, err)

	var listing catalog.Listing
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	assert.Contains(t, listing.Vehicles, "car_petrol")
	assert.Contains(t, listing.ElectricityCountries, "DE")
}

func TestCatalogCheckRejectsBrokenSource(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"vehicle_factors.json":     `{"car_petrol": "fast"}`,
		"electricity_factors.json": `{"DE": 0.38}`,
		"waste_factors.json":       `{"paper_recycle": 21.1}`,
		"fuel_factors.json":        `{"diesel_litre": 2.68}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}

	_, err := runCLI(t, "catalog", "check", "--factors-dir", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrInvalidSource)
	assert.ErrorIs(t, err, catalog.ErrNonNumeric)
}
