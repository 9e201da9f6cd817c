package ride

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
	"github.com/shopspring/decimal"
)

// Status represents ride status
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusOngoing   Status = "ONGOING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// PaymentMethod is how the rider settled the fare
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentUPI    PaymentMethod = "UPI"
	PaymentWallet PaymentMethod = "WALLET"
)

// PaymentStatus is the payment sub-state of a ride
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

// DefaultSurge is applied when a ride is requested without demand pricing.
var DefaultSurge = decimal.NewFromInt(1)

// SurgePrecision matches the scale of the stored multiplier
const SurgePrecision = 2

// Ride represents a ride from request to settlement
type Ride struct {
	ID               uuid.UUID        `json:"id"`
	Code             string           `json:"code"`
	RiderID          uuid.UUID        `json:"rider_id"`
	DriverID         *uuid.UUID       `json:"driver_id,omitempty"`
	PickupAddress    string           `json:"pickup_address"`
	PickupLatitude   float64          `json:"pickup_latitude"`
	PickupLongitude  float64          `json:"pickup_longitude"`
	DropoffAddress   string           `json:"dropoff_address"`
	DropoffLatitude  float64          `json:"dropoff_latitude"`
	DropoffLongitude float64          `json:"dropoff_longitude"`
	Status           Status           `json:"status"`
	SurgeMultiplier  decimal.Decimal  `json:"surge_multiplier"`
	Fare             *decimal.Decimal `json:"fare,omitempty"`
	PaymentMethod    *PaymentMethod   `json:"payment_method,omitempty"`
	PaymentStatus    PaymentStatus    `json:"payment_status"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	CancelledAt      *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// PaymentUpdate carries the fields MarkPaid writes.
type PaymentUpdate struct {
	Method *PaymentMethod
	Status PaymentStatus
}

// Filter narrows a ride listing. Zero values mean no constraint; From and
// To bound created_at inclusively.
type Filter struct {
	Status   *Status
	DriverID *uuid.UUID
	From     *time.Time
	To       *time.Time
}

// Matches reports whether the ride satisfies every set constraint
func (f Filter) Matches(r *Ride) bool {
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.DriverID != nil && !r.HasDriver(*f.DriverID) {
		return false
	}
	if f.From != nil && r.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && r.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// Repository is the ride store. Every state-changing method performs its
// precondition check and its write as one atomic operation.
type Repository interface {
	Create(ctx context.Context, ride *Ride) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ride, error)

	// CodeExists reports whether a ride already uses the given code
	CodeExists(ctx context.Context, code string) (bool, error)

	// AssignDriver moves a REQUESTED ride to ONGOING with the given driver
	AssignDriver(ctx context.Context, id, driverID uuid.UUID) (*Ride, error)

	// Complete moves an ONGOING ride to COMPLETED and stamps completed_at
	Complete(ctx context.Context, id uuid.UUID) (*Ride, error)

	// Cancel moves a REQUESTED or ONGOING ride to CANCELLED
	Cancel(ctx context.Context, id uuid.UUID) (*Ride, error)

	// SetFare stores the fare only while the ride is COMPLETED and the fare is unset.
	// Fails with ErrNotCompleted or ErrFareAlreadySet, checked in that order.
	SetFare(ctx context.Context, id uuid.UUID, fare decimal.Decimal) (*Ride, error)

	// MarkPaid writes the payment fields only while the ride is COMPLETED and unpaid,
	// stamping paid_at at the moment of the write when the new status is PAID.
	MarkPaid(ctx context.Context, id uuid.UUID, update PaymentUpdate) (*Ride, error)

	// List returns rides matching the filter, newest first
	List(ctx context.Context, filter Filter) ([]*Ride, error)

	// ListPaidByDriver returns COMPLETED and PAID rides of a driver completed at or after since
	ListPaidByDriver(ctx context.Context, driverID uuid.UUID, since time.Time) ([]*Ride, error)
}

// New builds a REQUESTED, UNPAID ride.
func New(riderID uuid.UUID, code string, pickup, dropoff geo.Point, surge decimal.Decimal) *Ride {
	now := time.Now().UTC()
	return &Ride{
		ID:               uuid.New(),
		Code:             code,
		RiderID:          riderID,
		PickupLatitude:   pickup.Latitude,
		PickupLongitude:  pickup.Longitude,
		DropoffLatitude:  dropoff.Latitude,
		DropoffLongitude: dropoff.Longitude,
		Status:           StatusRequested,
		SurgeMultiplier:  surge,
		PaymentStatus:    PaymentUnpaid,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Pickup returns the pickup point
func (r *Ride) Pickup() geo.Point {
	return geo.Point{Latitude: r.PickupLatitude, Longitude: r.PickupLongitude}
}

// Dropoff returns the dropoff point
func (r *Ride) Dropoff() geo.Point {
	return geo.Point{Latitude: r.DropoffLatitude, Longitude: r.DropoffLongitude}
}

// Validate checks the endpoint and surge invariants of a ride.
func (r *Ride) Validate() error {
	if err := r.Pickup().Validate(); err != nil {
		return err
	}
	if err := r.Dropoff().Validate(); err != nil {
		return err
	}
	if r.Pickup().Equal(r.Dropoff()) {
		return ErrSameEndpoints
	}
	if !r.SurgeMultiplier.IsPositive() {
		return ErrInvalidSurge
	}
	if !r.SurgeMultiplier.Equal(r.SurgeMultiplier.Truncate(SurgePrecision)) {
		return ErrSurgePrecision
	}
	return nil
}

// IsTerminal reports whether no further status transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsValid validates the payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentWallet:
		return true
	}
	return false
}

// IsValid validates the payment status
func (s PaymentStatus) IsValid() bool {
	return s == PaymentUnpaid || s == PaymentPaid
}

// HasDriver reports whether the driver profile is assigned to this ride.
func (r *Ride) HasDriver(driverID uuid.UUID) bool {
	return r.DriverID != nil && *r.DriverID == driverID
}

// CheckFareSettable returns the first failing fare precondition.
func (r *Ride) CheckFareSettable() error {
	if r.Status != StatusCompleted {
		return ErrNotCompleted
	}
	if r.Fare != nil {
		return ErrFareAlreadySet
	}
	return nil
}

// CheckPayable returns the first failing payment precondition.
func (r *Ride) CheckPayable() error {
	if r.Status != StatusCompleted {
		return ErrNotCompleted
	}
	if r.PaymentStatus == PaymentPaid {
		return ErrAlreadyPaid
	}
	return nil
}

// CanAssignDriver checks if a driver can be assigned to this ride
func (r *Ride) CanAssignDriver() bool {
	return r.Status == StatusRequested
}

// CanComplete checks if ride can be completed
func (r *Ride) CanComplete() bool {
	return r.Status == StatusOngoing
}

// CanCancel checks if ride can be cancelled
func (r *Ride) CanCancel() bool {
	return !r.Status.IsTerminal()
}

// Clone returns a deep copy so callers never share pointers with a store.
func (r *Ride) Clone() *Ride {
	c := *r
	if r.DriverID != nil {
		id := *r.DriverID
		c.DriverID = &id
	}
	if r.Fare != nil {
		f := *r.Fare
		c.Fare = &f
	}
	if r.PaymentMethod != nil {
		m := *r.PaymentMethod
		c.PaymentMethod = &m
	}
	c.PaidAt = cloneTime(r.PaidAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	c.CancelledAt = cloneTime(r.CancelledAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
