package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/domain/rider"
)

// RiderRepository is an in-process rider store
type RiderRepository struct {
	mu     sync.RWMutex
	riders map[uuid.UUID]*rider.Rider
	byUser map[uuid.UUID]uuid.UUID
}

var _ rider.Repository = (*RiderRepository)(nil)

// NewRiderRepository creates an empty rider store
func NewRiderRepository() *RiderRepository {
	return &RiderRepository{
		riders: make(map[uuid.UUID]*rider.Rider),
		byUser: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *RiderRepository) Create(_ context.Context, rd *rider.Rider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[rd.UserID]; ok {
		return rider.ErrRiderExists
	}
	r.riders[rd.ID] = cloneRider(rd)
	r.byUser[rd.UserID] = rd.ID
	return nil
}

func (r *RiderRepository) GetByID(_ context.Context, id uuid.UUID) (*rider.Rider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rd, ok := r.riders[id]
	if !ok {
		return nil, rider.ErrRiderNotFound
	}
	return cloneRider(rd), nil
}

func (r *RiderRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*rider.Rider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUser[userID]
	if !ok {
		return nil, rider.ErrRiderNotFound
	}
	return cloneRider(r.riders[id]), nil
}

func (r *RiderRepository) IncrementRides(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rd, ok := r.riders[id]
	if !ok {
		return rider.ErrRiderNotFound
	}
	rd.TotalRides++
	return nil
}

func cloneRider(rd *rider.Rider) *rider.Rider {
	c := *rd
	if rd.DefaultPickupLatitude != nil {
		lat := *rd.DefaultPickupLatitude
		c.DefaultPickupLatitude = &lat
	}
	if rd.DefaultPickupLongitude != nil {
		lng := *rd.DefaultPickupLongitude
		c.DefaultPickupLongitude = &lng
	}
	return &c
}
