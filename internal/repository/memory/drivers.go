package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/domain/driver"
)

// DriverRepository is an in-process driver store
type DriverRepository struct {
	mu       sync.RWMutex
	drivers  map[uuid.UUID]*driver.Driver
	byUser   map[uuid.UUID]uuid.UUID
	licenses map[string]uuid.UUID
}

var _ driver.Repository = (*DriverRepository)(nil)

// NewDriverRepository creates an empty driver store
func NewDriverRepository() *DriverRepository {
	return &DriverRepository{
		drivers:  make(map[uuid.UUID]*driver.Driver),
		byUser:   make(map[uuid.UUID]uuid.UUID),
		licenses: make(map[string]uuid.UUID),
	}
}

func (r *DriverRepository) Create(_ context.Context, d *driver.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.licenses[d.LicenseNumber]; ok {
		return driver.ErrDuplicateLicense
	}
	r.drivers[d.ID] = cloneDriver(d)
	r.byUser[d.UserID] = d.ID
	r.licenses[d.LicenseNumber] = d.ID
	return nil
}

func (r *DriverRepository) GetByID(_ context.Context, id uuid.UUID) (*driver.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drivers[id]
	if !ok {
		return nil, driver.ErrDriverNotFound
	}
	return cloneDriver(d), nil
}

func (r *DriverRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*driver.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUser[userID]
	if !ok {
		return nil, driver.ErrDriverNotFound
	}
	return cloneDriver(r.drivers[id]), nil
}

func (r *DriverRepository) ListAvailable(_ context.Context) ([]*driver.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*driver.Driver, 0, len(r.drivers))
	for _, d := range r.drivers {
		if d.Status != driver.StatusAvailable || d.Location() == nil {
			continue
		}
		out = append(out, cloneDriver(d))
	}
	return out, nil
}

func (r *DriverRepository) UpdateLocation(_ context.Context, id uuid.UUID, lat, lng float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[id]
	if !ok {
		return driver.ErrDriverNotFound
	}
	return d.SetLocation(lat, lng)
}

func (r *DriverRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to driver.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[id]
	if !ok {
		return driver.ErrDriverNotFound
	}
	if d.Status != from {
		return driver.ErrDriverNotAvailable
	}
	d.Status = to
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *DriverRepository) IncrementRides(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[id]
	if !ok {
		return driver.ErrDriverNotFound
	}
	d.TotalRides++
	return nil
}

func cloneDriver(d *driver.Driver) *driver.Driver {
	c := *d
	if d.CurrentLatitude != nil {
		lat := *d.CurrentLatitude
		c.CurrentLatitude = &lat
	}
	if d.CurrentLongitude != nil {
		lng := *d.CurrentLongitude
		c.CurrentLongitude = &lng
	}
	return &c
}
