package rides

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/internal/domain/driver"
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/perpexbistro/ride-hailing/internal/domain/rider"
	"github.com/perpexbistro/ride-hailing/internal/identifier"
	"github.com/perpexbistro/ride-hailing/internal/repository/memory"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	indiranagar = geo.Point{Latitude: 12.9784, Longitude: 77.6408}
	whitefield  = geo.Point{Latitude: 12.9698, Longitude: 77.7500}
)

type harness struct {
	rides   *memory.RideRepository
	drivers *memory.DriverRepository
	riders  *memory.RiderRepository
	svc     *Service

	rider  *auth.Caller
	driver *auth.Caller
	admin  *auth.Caller

	riderProfile  *rider.Rider
	driverProfile *driver.Driver
}

func newHarness(t *testing.T, codes CodeGenerator) *harness {
	t.Helper()
	ctx := context.Background()

	h := &harness{
		rides:   memory.NewRideRepository(),
		drivers: memory.NewDriverRepository(),
		riders:  memory.NewRiderRepository(),
	}
	if codes == nil {
		codes = identifier.NewGenerator(identifier.Config{}, identifier.CheckerFunc(h.rides.CodeExists))
	}
	h.svc = NewService(h.rides, h.drivers, h.riders, codes, logger.NewNop(), nil, Config{})

	h.riderProfile = rider.New(uuid.New(), "+919800000001")
	require.NoError(t, h.riders.Create(ctx, h.riderProfile))

	h.driverProfile = availableDriver(t, h.drivers, "KA-DL-0001")

	h.rider = &auth.Caller{UserID: h.riderProfile.UserID, RiderID: &h.riderProfile.ID}
	h.driver = &auth.Caller{UserID: h.driverProfile.UserID, DriverID: &h.driverProfile.ID}
	h.admin = &auth.Caller{UserID: uuid.New(), IsAdmin: true}
	return h
}

func availableDriver(t *testing.T, repo *memory.DriverRepository, license string) *driver.Driver {
	t.Helper()
	d := driver.New(uuid.New(), "+919800000002", license, time.Now().AddDate(2, 0, 0), driver.Vehicle{
		Make: "Maruti", Model: "Dzire", Year: 2022, Color: "Silver", Type: driver.VehicleSedan, Plate: "PL-" + license,
	})
	d.IsVerified = true
	d.Status = driver.StatusAvailable
	require.NoError(t, d.SetLocation(12.9750, 77.6400))
	require.NoError(t, repo.Create(context.Background(), d))
	return d
}

func (h *harness) request(t *testing.T) *ride.Ride {
	t.Helper()
	rd, err := h.svc.Request(context.Background(), h.rider, RequestInput{Pickup: indiranagar, Dropoff: whitefield})
	require.NoError(t, err)
	return rd
}

func (h *harness) driverStatus(t *testing.T) driver.Status {
	t.Helper()
	d, err := h.drivers.GetByID(context.Background(), h.driverProfile.ID)
	require.NoError(t, err)
	return d.Status
}

type fixedCodes struct {
	mu    sync.Mutex
	codes []string
}

func (f *fixedCodes) Generate(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.codes[0]
	if len(f.codes) > 1 {
		f.codes = f.codes[1:]
	}
	return c, nil
}

func TestRequest(t *testing.T) {
	h := newHarness(t, nil)

	rd, err := h.svc.Request(context.Background(), h.rider, RequestInput{
		Pickup:         indiranagar,
		Dropoff:        whitefield,
		PickupAddress:  " 100ft Road ",
		DropoffAddress: "ITPL",
	})
	require.NoError(t, err)

	assert.Equal(t, ride.StatusRequested, rd.Status)
	assert.Equal(t, ride.PaymentUnpaid, rd.PaymentStatus)
	assert.Equal(t, h.riderProfile.ID, rd.RiderID)
	assert.True(t, rd.SurgeMultiplier.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "100ft Road", rd.PickupAddress)
	assert.True(t, identifier.Valid(rd.Code, DefaultCodePrefix, identifier.DefaultLength), rd.Code)
	assert.Nil(t, rd.Fare)

	exists, err := h.rides.CodeExists(context.Background(), rd.Code)
	require.NoError(t, err)
	assert.True(t, exists)
}

type fixedSurge string

func (f fixedSurge) Current() decimal.Decimal { return decimal.RequireFromString(string(f)) }

func TestRequest_SurgeFromPolicy(t *testing.T) {
	tests := []struct {
		name      string
		policy    SurgePolicy
		wantSurge string
		wantErr   *apperrors.AppError
	}{
		{"no policy", nil, "1", nil},
		{"peak", fixedSurge("1.5"), "1.5", nil},
		{"zero", fixedSurge("0"), "", apperrors.ErrInvalidRide},
		{"finer than cents", fixedSurge("1.255"), "", apperrors.ErrInvalidRide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.svc.config.Surge = tt.policy

			rd, err := h.svc.Request(context.Background(), h.rider, RequestInput{Pickup: indiranagar, Dropoff: whitefield})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, rd.SurgeMultiplier.Equal(decimal.RequireFromString(tt.wantSurge)), rd.SurgeMultiplier.String())
		})
	}
}

func TestRequest_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		caller  func(h *harness) *auth.Caller
		in      RequestInput
		wantErr *apperrors.AppError
	}{
		{"anonymous", func(*harness) *auth.Caller { return nil }, RequestInput{Pickup: indiranagar, Dropoff: whitefield}, apperrors.ErrUnauthorized},
		{"driver only", func(h *harness) *auth.Caller { return h.driver }, RequestInput{Pickup: indiranagar, Dropoff: whitefield}, apperrors.ErrNoRiderProfile},
		{"same endpoints", func(h *harness) *auth.Caller { return h.rider }, RequestInput{Pickup: indiranagar, Dropoff: indiranagar}, apperrors.ErrInvalidRide},
		{"null island", func(h *harness) *auth.Caller { return h.rider }, RequestInput{Pickup: geo.Point{}, Dropoff: whitefield}, apperrors.ErrInvalidLocation},
		{"latitude out of range", func(h *harness) *auth.Caller { return h.rider }, RequestInput{Pickup: geo.Point{Latitude: 91, Longitude: 10}, Dropoff: whitefield}, apperrors.ErrInvalidLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			_, err := h.svc.Request(context.Background(), tt.caller(h), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)

			all, err := h.rides.List(context.Background(), ride.Filter{})
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestRequest_GenerationExhausted(t *testing.T) {
	taken := identifier.CheckerFunc(func(context.Context, string) (bool, error) { return true, nil })
	h := newHarness(t, identifier.NewGenerator(identifier.Config{MaxAttempts: 3}, taken))

	_, err := h.svc.Request(context.Background(), h.rider, RequestInput{Pickup: indiranagar, Dropoff: whitefield})
	assert.ErrorIs(t, err, apperrors.ErrGenerationExhausted)
}

func TestRequest_RetriesInsertCollision(t *testing.T) {
	codes := &fixedCodes{codes: []string{"RIDE-AAAAAAAA", "RIDE-AAAAAAAA", "RIDE-BBBBBBBB"}}
	h := newHarness(t, codes)

	first := h.request(t)
	assert.Equal(t, "RIDE-AAAAAAAA", first.Code)

	second := h.request(t)
	assert.Equal(t, "RIDE-BBBBBBBB", second.Code)
}

func TestRequest_InsertCollisionsExhaust(t *testing.T) {
	codes := &fixedCodes{codes: []string{"RIDE-CCCCCCCC"}}
	h := newHarness(t, codes)
	h.request(t)

	_, err := h.svc.Request(context.Background(), h.rider, RequestInput{Pickup: indiranagar, Dropoff: whitefield})
	assert.ErrorIs(t, err, apperrors.ErrGenerationExhausted)
}

func TestLifecycle_AssignCompleteFreesDriver(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	rd := h.request(t)

	assigned, err := h.svc.Assign(ctx, h.admin, rd.ID, h.driverProfile.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusOngoing, assigned.Status)
	assert.True(t, assigned.HasDriver(h.driverProfile.ID))
	assert.Equal(t, driver.StatusOnTrip, h.driverStatus(t))

	completed, err := h.svc.Complete(ctx, h.driver, rd.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, driver.StatusAvailable, h.driverStatus(t))

	d, err := h.drivers.GetByID(ctx, h.driverProfile.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalRides)
	r, err := h.riders.GetByID(ctx, h.riderProfile.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, r.TotalRides)

	_, err = h.svc.Complete(ctx, h.driver, rd.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}

func TestAssign_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("not admin", func(t *testing.T) {
		h := newHarness(t, nil)
		rd := h.request(t)
		_, err := h.svc.Assign(ctx, h.rider, rd.ID, h.driverProfile.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("unknown driver", func(t *testing.T) {
		h := newHarness(t, nil)
		rd := h.request(t)
		_, err := h.svc.Assign(ctx, h.admin, rd.ID, uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrDriverNotFound)
	})

	t.Run("unverified driver", func(t *testing.T) {
		h := newHarness(t, nil)
		rd := h.request(t)
		d := driver.New(uuid.New(), "+919800000003", "KA-DL-0002", time.Now().AddDate(1, 0, 0), driver.Vehicle{Plate: "X", Type: driver.VehicleAuto})
		d.Status = driver.StatusAvailable
		require.NoError(t, d.SetLocation(12.9, 77.6))
		require.NoError(t, h.drivers.Create(ctx, d))

		_, err := h.svc.Assign(ctx, h.admin, rd.ID, d.ID)
		assert.ErrorIs(t, err, apperrors.ErrDriverNotAvailable)
	})

	t.Run("driver already on trip", func(t *testing.T) {
		h := newHarness(t, nil)
		first := h.request(t)
		second := h.request(t)
		_, err := h.svc.Assign(ctx, h.admin, first.ID, h.driverProfile.ID)
		require.NoError(t, err)

		_, err = h.svc.Assign(ctx, h.admin, second.ID, h.driverProfile.ID)
		assert.ErrorIs(t, err, apperrors.ErrDriverNotAvailable)

		stored, err := h.rides.GetByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, ride.StatusRequested, stored.Status)
	})

	t.Run("ride not requested", func(t *testing.T) {
		h := newHarness(t, nil)
		rd := h.request(t)
		_, err := h.svc.Cancel(ctx, h.rider, rd.ID)
		require.NoError(t, err)

		_, err = h.svc.Assign(ctx, h.admin, rd.ID, h.driverProfile.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
		assert.Equal(t, driver.StatusAvailable, h.driverStatus(t))
	})
}

func TestAssign_ConcurrentRidesOneDriver(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	const n = 10
	rideIDs := make([]uuid.UUID, n)
	for i := range rideIDs {
		rideIDs[i] = h.request(t).ID
	}

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Assign(ctx, h.admin, rideIDs[i], h.driverProfile.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	ongoing := ride.StatusOngoing
	held, err := h.rides.List(ctx, ride.Filter{Status: &ongoing})
	require.NoError(t, err)
	assert.Len(t, held, 1)
}

func TestComplete_Authorization(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	rd := h.request(t)
	_, err := h.svc.Assign(ctx, h.admin, rd.ID, h.driverProfile.ID)
	require.NoError(t, err)

	_, err = h.svc.Complete(ctx, h.rider, rd.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	other := availableDriver(t, h.drivers, "KA-DL-0009")
	_, err = h.svc.Complete(ctx, &auth.Caller{UserID: other.UserID, DriverID: &other.ID}, rd.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = h.svc.Complete(ctx, h.admin, rd.ID)
	assert.NoError(t, err)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("requested ride by rider", func(t *testing.T) {
		h := newHarness(t, nil)
		rd := h.request(t)

		cancelled, err := h.svc.Cancel(ctx, h.rider, rd.ID)
		require.NoError(t, err)
		assert.Equal(t, ride.StatusCancelled, cancelled.Status)
		assert.NotNil(t, cancelled.CancelledAt)
	})

	t.Run("ongoing ride releases driver", func(t *testing.T) {
		h := newHarness(t, nil)
		rd := h.request(t)
		_, err := h.svc.Assign(ctx, h.admin, rd.ID, h.driverProfile.ID)
		require.NoError(t, err)

		_, err = h.svc.Cancel(ctx, h.driver, rd.ID)
		require.NoError(t, err)
		assert.Equal(t, driver.StatusAvailable, h.driverStatus(t))
	})

	t.Run("terminal ride", func(t *testing.T) {
		h := newHarness(t, nil)
		rd := h.request(t)
		_, err := h.svc.Cancel(ctx, h.rider, rd.ID)
		require.NoError(t, err)

		_, err = h.svc.Cancel(ctx, h.rider, rd.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
	})

	t.Run("stranger", func(t *testing.T) {
		h := newHarness(t, nil)
		rd := h.request(t)
		otherRider := uuid.New()
		_, err := h.svc.Cancel(ctx, &auth.Caller{UserID: uuid.New(), RiderID: &otherRider}, rd.ID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestGet(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	rd := h.request(t)

	got, err := h.svc.Get(ctx, h.rider, rd.ID)
	require.NoError(t, err)
	assert.Equal(t, rd.Code, got.Code)

	_, err = h.svc.Get(ctx, h.driver, rd.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = h.svc.Get(ctx, h.admin, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrRideNotFound)
}
