package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
	"github.com/stretchr/testify/assert"
)

type fixture struct {
	ride     *ride.Ride
	rider    *Caller
	driver   *Caller
	admin    *Caller
	stranger *Caller
	other    *Caller // driver not assigned to the ride
}

func newFixture() fixture {
	riderID := uuid.New()
	driverID := uuid.New()
	otherDriverID := uuid.New()

	r := ride.New(riderID,
		"RIDE-ABCD2345",
		geo.Point{Latitude: 12.9352, Longitude: 77.6245},
		geo.Point{Latitude: 12.9591, Longitude: 77.6974},
		ride.DefaultSurge,
	)
	r.DriverID = &driverID

	return fixture{
		ride:     r,
		rider:    &Caller{UserID: uuid.New(), RiderID: &riderID},
		driver:   &Caller{UserID: uuid.New(), DriverID: &driverID},
		admin:    &Caller{UserID: uuid.New(), IsAdmin: true},
		stranger: &Caller{UserID: uuid.New()},
		other:    &Caller{UserID: uuid.New(), DriverID: &otherDriverID},
	}
}

func TestCanCalculateFareAndMarkPaid(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name    string
		caller  *Caller
		wantErr error
	}{
		{"rider of the ride", f.rider, nil},
		{"assigned driver", f.driver, nil},
		{"administrator", f.admin, nil},
		{"unrelated user", f.stranger, apperrors.ErrForbidden},
		{"other driver", f.other, apperrors.ErrForbidden},
		{"unauthenticated", nil, apperrors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, check := range []func(*Caller, *ride.Ride) error{CanCalculateFare, CanMarkPaid, CanCancelRide} {
				err := check(tt.caller, f.ride)
				if tt.wantErr == nil {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			}
		})
	}
}

func TestIsRideParticipant_UnassignedRide(t *testing.T) {
	f := newFixture()
	f.ride.DriverID = nil

	assert.False(t, IsRideParticipant(f.driver, f.ride))
	assert.True(t, IsRideParticipant(f.rider, f.ride))
	assert.False(t, IsRideParticipant(nil, f.ride))
}

func TestCanCompleteRide(t *testing.T) {
	f := newFixture()

	assert.NoError(t, CanCompleteRide(f.driver, f.ride))
	assert.NoError(t, CanCompleteRide(f.admin, f.ride))
	assert.ErrorIs(t, CanCompleteRide(f.rider, f.ride), apperrors.ErrForbidden)
	assert.ErrorIs(t, CanCompleteRide(nil, f.ride), apperrors.ErrUnauthorized)
}

func TestCanQueryNearbyDrivers(t *testing.T) {
	f := newFixture()
	riderID := uuid.New()
	driverID := uuid.New()
	both := &Caller{UserID: uuid.New(), RiderID: &riderID, DriverID: &driverID}

	assert.NoError(t, CanQueryNearbyDrivers(f.rider))
	assert.NoError(t, CanQueryNearbyDrivers(both))
	assert.ErrorIs(t, CanQueryNearbyDrivers(f.driver), apperrors.ErrForbidden)
	assert.ErrorIs(t, CanQueryNearbyDrivers(f.stranger), apperrors.ErrForbidden)
	assert.ErrorIs(t, CanQueryNearbyDrivers(f.admin), apperrors.ErrForbidden)
	assert.ErrorIs(t, CanQueryNearbyDrivers(nil), apperrors.ErrUnauthorized)
}

func TestProfileRequirements(t *testing.T) {
	f := newFixture()

	assert.NoError(t, CanRequestRide(f.rider))
	assert.ErrorIs(t, CanRequestRide(f.driver), apperrors.ErrNoRiderProfile)

	assert.NoError(t, CanActAsDriver(f.driver))
	assert.ErrorIs(t, CanActAsDriver(f.rider), apperrors.ErrNoDriverProfile)
	assert.ErrorIs(t, CanActAsDriver(nil), apperrors.ErrUnauthorized)

	assert.NoError(t, RequireAdmin(f.admin))
	assert.ErrorIs(t, RequireAdmin(f.rider), apperrors.ErrForbidden)
}
