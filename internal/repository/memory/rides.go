package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/shopspring/decimal"
)

// RideRepository is an in-process ride store. Each conditional write holds the
// lock across its check and its mutation.
type RideRepository struct {
	mu    sync.RWMutex
	rides map[uuid.UUID]*ride.Ride
	codes map[string]uuid.UUID
	now   func() time.Time
}

var _ ride.Repository = (*RideRepository)(nil)

// NewRideRepository creates an empty ride store
func NewRideRepository() *RideRepository {
	return &RideRepository{
		rides: make(map[uuid.UUID]*ride.Ride),
		codes: make(map[string]uuid.UUID),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for write timestamps
func (r *RideRepository) WithClock(now func() time.Time) *RideRepository {
	r.now = now
	return r
}

func (r *RideRepository) Create(_ context.Context, rd *ride.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[rd.Code]; ok {
		return ride.ErrDuplicateCode
	}
	r.rides[rd.ID] = rd.Clone()
	r.codes[rd.Code] = rd.ID
	return nil
}

func (r *RideRepository) GetByID(_ context.Context, id uuid.UUID) (*ride.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rd, ok := r.rides[id]
	if !ok {
		return nil, ride.ErrRideNotFound
	}
	return rd.Clone(), nil
}

func (r *RideRepository) CodeExists(_ context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.codes[code]
	return ok, nil
}

func (r *RideRepository) AssignDriver(_ context.Context, id, driverID uuid.UUID) (*ride.Ride, error) {
	return r.update(id, func(rd *ride.Ride, now time.Time) error {
		if !rd.CanAssignDriver() {
			return ride.ErrInvalidTransition
		}
		rd.DriverID = &driverID
		rd.Status = ride.StatusOngoing
		return nil
	})
}

func (r *RideRepository) Complete(_ context.Context, id uuid.UUID) (*ride.Ride, error) {
	return r.update(id, func(rd *ride.Ride, now time.Time) error {
		if !rd.CanComplete() {
			return ride.ErrInvalidTransition
		}
		rd.Status = ride.StatusCompleted
		rd.CompletedAt = &now
		return nil
	})
}

func (r *RideRepository) Cancel(_ context.Context, id uuid.UUID) (*ride.Ride, error) {
	return r.update(id, func(rd *ride.Ride, now time.Time) error {
		if !rd.CanCancel() {
			return ride.ErrInvalidTransition
		}
		rd.Status = ride.StatusCancelled
		rd.CancelledAt = &now
		return nil
	})
}

func (r *RideRepository) SetFare(_ context.Context, id uuid.UUID, fare decimal.Decimal) (*ride.Ride, error) {
	return r.update(id, func(rd *ride.Ride, _ time.Time) error {
		if err := rd.CheckFareSettable(); err != nil {
			return err
		}
		rd.Fare = &fare
		return nil
	})
}

func (r *RideRepository) MarkPaid(_ context.Context, id uuid.UUID, u ride.PaymentUpdate) (*ride.Ride, error) {
	return r.update(id, func(rd *ride.Ride, now time.Time) error {
		if err := rd.CheckPayable(); err != nil {
			return err
		}
		if u.Method != nil {
			m := *u.Method
			rd.PaymentMethod = &m
		}
		rd.PaymentStatus = u.Status
		if u.Status == ride.PaymentPaid {
			rd.PaidAt = &now
		}
		return nil
	})
}

func (r *RideRepository) List(_ context.Context, filter ride.Filter) ([]*ride.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ride.Ride, 0)
	for _, rd := range r.rides {
		if filter.Matches(rd) {
			out = append(out, rd.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *RideRepository) ListPaidByDriver(_ context.Context, driverID uuid.UUID, since time.Time) ([]*ride.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*ride.Ride
	for _, rd := range r.rides {
		if !rd.HasDriver(driverID) {
			continue
		}
		if rd.Status != ride.StatusCompleted || rd.PaymentStatus != ride.PaymentPaid {
			continue
		}
		if rd.CompletedAt == nil || rd.CompletedAt.Before(since) {
			continue
		}
		out = append(out, rd.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(*out[j].CompletedAt)
	})
	return out, nil
}

func (r *RideRepository) update(id uuid.UUID, apply func(rd *ride.Ride, now time.Time) error) (*ride.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rides[id]
	if !ok {
		return nil, ride.ErrRideNotFound
	}

	next := stored.Clone()
	now := r.now()
	if err := apply(next, now); err != nil {
		return nil, err
	}
	next.UpdatedAt = now
	r.rides[id] = next
	return next.Clone(), nil
}
