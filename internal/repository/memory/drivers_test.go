package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/domain/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDriver(license string) *driver.Driver {
	return driver.New(uuid.New(), "+919800000000", license, time.Now().AddDate(1, 0, 0), driver.Vehicle{
		Make:  "Maruti",
		Model: "Dzire",
		Type:  driver.VehicleSedan,
		Plate: "DL01AB" + license,
	})
}

func TestDriverRepository_ListAvailable(t *testing.T) {
	repo := NewDriverRepository()
	ctx := context.Background()

	located := newDriver("L1")
	located.Status = driver.StatusAvailable
	require.NoError(t, located.SetLocation(12.97, 77.59))

	noLocation := newDriver("L2")
	noLocation.Status = driver.StatusAvailable

	offline := newDriver("L3")
	require.NoError(t, offline.SetLocation(12.97, 77.60))

	for _, d := range []*driver.Driver{located, noLocation, offline} {
		require.NoError(t, repo.Create(ctx, d))
	}

	got, err := repo.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, located.ID, got[0].ID)

	// mutate the returned snapshot; the store must not change
	*got[0].CurrentLatitude = 0
	again, err := repo.GetByID(ctx, located.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.97, *again.CurrentLatitude)
}

func TestDriverRepository_TransitionStatus(t *testing.T) {
	repo := NewDriverRepository()
	ctx := context.Background()

	d := newDriver("L9")
	require.NoError(t, repo.Create(ctx, d))

	assert.ErrorIs(t, repo.TransitionStatus(ctx, d.ID, driver.StatusAvailable, driver.StatusOnTrip), driver.ErrDriverNotAvailable)
	require.NoError(t, repo.TransitionStatus(ctx, d.ID, driver.StatusOffline, driver.StatusAvailable))

	got, err := repo.GetByUserID(ctx, d.UserID)
	require.NoError(t, err)
	assert.Equal(t, driver.StatusAvailable, got.Status)

	assert.ErrorIs(t, repo.TransitionStatus(ctx, uuid.New(), driver.StatusOffline, driver.StatusAvailable), driver.ErrDriverNotFound)
}

func TestDriverRepository_DuplicateLicense(t *testing.T) {
	repo := NewDriverRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newDriver("DUP")))
	assert.ErrorIs(t, repo.Create(ctx, newDriver("DUP")), driver.ErrDuplicateLicense)
}
