package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/carbontracker/internal/domain/models"
	"github.com/mamadbah2/carbontracker/internal/repository"
)

type fakeLogs struct {
	details map[string]models.LogDetail
}

func (f *fakeLogs) GetLog(_ context.Context, _ string, logID string) (models.LogDetail, error) {
	d, ok := f.details[logID]
	if !ok {
		return models.LogDetail{}, repository.ErrNotFound
	}
	return d, nil
}

type fakeGenerator struct {
	calls   int
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("missing deadline")
	}
	return f.reply, f.err
}

func sampleDetail() models.LogDetail {
	return models.LogDetail{
		Log: models.EmissionLog{ID: "log-1", TotalEmissionsKg: 24.2, Category: "itemized"},
		Activities: models.ActivitySet{
			VehicleTrips:    []models.VehicleTrip{{}, {}},
			ElectricityUses: []models.ElectricityUse{{}},
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	want := "Based on the following carbon emission log, give advice to reduce emissions:\n" +
		"Total emissions: 24.2000 kg\n" +
		"Category: itemized\n" +
		"Description: -\n" +
		"Trips: 2, Electricity: 1, Waste: 0, Fuel: 0"
	assert.Equal(t, want, BuildPrompt(sampleDetail()))
}

func TestSuggestCachesByTotal(t *testing.T) {
	logs := &fakeLogs{details: map[string]models.LogDetail{"log-1": sampleDetail()}}
	gen := &fakeGenerator{reply: "Drive less."}
	svc := NewService(logs, gen, time.Minute, nil)
	ctx := context.Background()

	first, err := svc.Suggest(ctx, "user-1", "log-1")
	require.NoError(t, err)
	assert.Equal(t, Suggestion{LogID: "log-1", Advice: "Drive less."}, first)

	second, err := svc.Suggest(ctx, "user-1", "log-1")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, gen.calls)

	changed := sampleDetail()
	changed.Log.TotalEmissionsKg = 30
	logs.details["log-1"] = changed

	_, err = svc.Suggest(ctx, "user-1", "log-1")
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls, "a new total misses the cache")
	assert.Contains(t, gen.prompts[1], "Total emissions: 30.0000 kg")
}

func TestSuggestErrors(t *testing.T) {
	ctx := context.Background()
	logs := &fakeLogs{details: map[string]models.LogDetail{"log-1": sampleDetail()}}

	_, err := NewService(logs, nil, 0, nil).Suggest(ctx, "user-1", "log-1")
	assert.ErrorIs(t, err, ErrNoGenerator)

	gen := &fakeGenerator{}
	_, err = NewService(logs, gen, 0, nil).Suggest(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NotErrorIs(t, err, ErrGeneration, "store failures are not provider failures")
	assert.Zero(t, gen.calls)

	boom := errors.New("provider down")
	failing := &fakeGenerator{err: boom}
	svc := NewService(logs, failing, 0, nil)
	_, err = svc.Suggest(ctx, "user-1", "log-1")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrGeneration)

	_, err = svc.Suggest(ctx, "user-1", "log-1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, failing.calls, "failures are not cached")
}
