package mongodb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/carbontracker/internal/domain/models"
	"github.com/mamadbah2/carbontracker/internal/repository"
)

// setupTestRepository connects to MONGODB_TEST_URI using a throwaway database.
func setupTestRepository(t *testing.T, transactions bool) *MongoDBRepository {
	t.Helper()

	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewMongoDBRepository(ctx, uri, "carbontracker_test_"+uuid.NewString()[:8], transactions, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.db.Drop(context.Background())
		_ = repo.Close(context.Background())
	})
	return repo
}

func TestLogLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepository(t, false)

	log := &models.EmissionLog{UserID: "user-1", Date: time.Now().UTC().Truncate(time.Millisecond), CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateLog(ctx, log))

	require.NoError(t, repo.AddVehicleTrip(ctx, &models.VehicleTrip{EmissionLogID: log.ID, EmissionsKg: models.Float(19.2)}))
	require.NoError(t, repo.AddFuelCombustion(ctx, &models.FuelCombustion{EmissionLogID: log.ID, EmissionsKg: models.Float(8.04)}))

	set, err := repo.Activities(ctx, log.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	updated := *log
	updated.TotalEmissionsKg = 27.24
	require.NoError(t, repo.SaveLog(ctx, updated))

	got, err := repo.GetLog(ctx, log.ID)
	require.NoError(t, err)
	assert.Equal(t, 27.24, got.TotalEmissionsKg)

	_, err = repo.GetLog(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.SaveLog(ctx, models.EmissionLog{ID: "missing"}), repository.ErrNotFound)

	ids, err := repo.ListLogIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{log.ID}, ids)
}

func TestAtomicallyWithTransactions(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepository(t, true)

	log := &models.EmissionLog{UserID: "user-1", Date: time.Now().UTC(), CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateLog(ctx, log))

	boom := errors.New("boom")
	err := repo.Atomically(ctx, func(ctx context.Context, tx repository.Store) error {
		updated := *log
		updated.TotalEmissionsKg = 99
		if err := tx.SaveLog(ctx, updated); err != nil {
			return err
		}
		if _, err := tx.Activities(ctx, log.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetLog(ctx, log.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalEmissionsKg)
}
