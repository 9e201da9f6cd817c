package ride

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var (
	delhi = geo.Point{Latitude: 28.7041, Longitude: 77.1025}
	noida = geo.Point{Latitude: 28.5355, Longitude: 77.3910}
)

func TestNew_InitialState(t *testing.T) {
	r := New(uuid.New(), "RIDE-ABCD2345", delhi, noida, DefaultSurge)

	assert.Equal(t, StatusRequested, r.Status)
	assert.Equal(t, PaymentUnpaid, r.PaymentStatus)
	assert.Nil(t, r.DriverID)
	assert.Nil(t, r.Fare)
	assert.Nil(t, r.PaidAt)
	assert.True(t, r.SurgeMultiplier.Equal(decimal.NewFromInt(1)))
	assert.NoError(t, r.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		pickup  geo.Point
		dropoff geo.Point
		surge   decimal.Decimal
		wantErr error
	}{
		{"identical endpoints", delhi, delhi, DefaultSurge, ErrSameEndpoints},
		{"null island pickup", geo.Point{}, noida, DefaultSurge, geo.ErrNullIsland},
		{"dropoff out of range", delhi, geo.Point{Latitude: 12, Longitude: 200}, DefaultSurge, geo.ErrLongitudeOutOfRange},
		{"zero surge", delhi, noida, decimal.Zero, ErrInvalidSurge},
		{"negative surge", delhi, noida, decimal.NewFromFloat(-1.5), ErrInvalidSurge},
		{"surge finer than cents", delhi, noida, decimal.RequireFromString("1.255"), ErrSurgePrecision},
		{"two place surge", delhi, noida, decimal.RequireFromString("1.30"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(uuid.New(), "RIDE-X", tt.pickup, tt.dropoff, tt.surge)
			assert.ErrorIs(t, r.Validate(), tt.wantErr)
		})
	}
}

func TestCheckFareSettable_Order(t *testing.T) {
	fare := decimal.NewFromInt(100)

	r := New(uuid.New(), "RIDE-X", delhi, noida, DefaultSurge)
	r.Fare = &fare
	// Not completed wins even when a fare is already present.
	assert.ErrorIs(t, r.CheckFareSettable(), ErrNotCompleted)

	r.Status = StatusCompleted
	assert.ErrorIs(t, r.CheckFareSettable(), ErrFareAlreadySet)

	r.Fare = nil
	assert.NoError(t, r.CheckFareSettable())
}

func TestCheckPayable(t *testing.T) {
	r := New(uuid.New(), "RIDE-X", delhi, noida, DefaultSurge)
	assert.ErrorIs(t, r.CheckPayable(), ErrNotCompleted)

	r.Status = StatusCompleted
	assert.NoError(t, r.CheckPayable())

	r.PaymentStatus = PaymentPaid
	assert.ErrorIs(t, r.CheckPayable(), ErrAlreadyPaid)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		status      Status
		canAssign   bool
		canComplete bool
		canCancel   bool
	}{
		{StatusRequested, true, false, true},
		{StatusOngoing, false, true, true},
		{StatusCompleted, false, false, false},
		{StatusCancelled, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			r := &Ride{Status: tt.status}
			assert.Equal(t, tt.canAssign, r.CanAssignDriver())
			assert.Equal(t, tt.canComplete, r.CanComplete())
			assert.Equal(t, tt.canCancel, r.CanCancel())
		})
	}
}

func TestPaymentEnums(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentCash, PaymentCard, PaymentUPI, PaymentWallet} {
		assert.True(t, m.IsValid())
	}
	assert.False(t, PaymentMethod("BITCOIN").IsValid())
	assert.False(t, PaymentMethod("cash").IsValid())

	assert.True(t, PaymentPaid.IsValid())
	assert.True(t, PaymentUnpaid.IsValid())
	assert.False(t, PaymentStatus("REFUNDED").IsValid())
}

func TestClone_DoesNotSharePointers(t *testing.T) {
	driverID := uuid.New()
	fare := decimal.NewFromInt(388)
	method := PaymentUPI
	now := time.Now()

	r := New(uuid.New(), "RIDE-X", delhi, noida, DefaultSurge)
	r.DriverID = &driverID
	r.Fare = &fare
	r.PaymentMethod = &method
	r.PaidAt = &now

	c := r.Clone()
	*c.DriverID = uuid.New()
	*c.PaymentMethod = PaymentCash
	*c.PaidAt = now.Add(time.Hour)

	assert.Equal(t, driverID, *r.DriverID)
	assert.Equal(t, PaymentUPI, *r.PaymentMethod)
	assert.Equal(t, now, *r.PaidAt)
	assert.True(t, r.HasDriver(driverID))
	assert.False(t, c.HasDriver(driverID))
}
