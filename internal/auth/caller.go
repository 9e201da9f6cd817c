package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/domain/driver"
	"github.com/perpexbistro/ride-hailing/internal/domain/rider"
)

// Caller is an authenticated principal together with the profiles it holds.
// A nil *Caller means the request carried no valid credentials.
type Caller struct {
	UserID   uuid.UUID
	Username string
	IsAdmin  bool
	RiderID  *uuid.UUID
	DriverID *uuid.UUID
}

// IsRider reports whether the caller holds a rider profile
func (c *Caller) IsRider() bool {
	return c != nil && c.RiderID != nil
}

// IsDriver reports whether the caller holds a driver profile
func (c *Caller) IsDriver() bool {
	return c != nil && c.DriverID != nil
}

// Principal is what the transport layer proves about a request.
type Principal struct {
	UserID   uuid.UUID
	Username string
	IsAdmin  bool
}

// Resolver maps an authenticated principal to its Rider/Driver roles.
type Resolver interface {
	Resolve(ctx context.Context, principal Principal) (*Caller, error)
}

// ProfileResolver resolves roles by looking up rider and driver profiles by user id.
type ProfileResolver struct {
	riders  rider.Repository
	drivers driver.Repository
}

// NewProfileResolver creates a resolver backed by the profile repositories
func NewProfileResolver(riders rider.Repository, drivers driver.Repository) *ProfileResolver {
	return &ProfileResolver{riders: riders, drivers: drivers}
}

// Resolve builds the Caller for a principal. Missing profiles are not errors.
func (r *ProfileResolver) Resolve(ctx context.Context, principal Principal) (*Caller, error) {
	caller := &Caller{
		UserID:   principal.UserID,
		Username: principal.Username,
		IsAdmin:  principal.IsAdmin,
	}

	rp, err := r.riders.GetByUserID(ctx, principal.UserID)
	switch {
	case err == nil:
		if rp.IsActive {
			caller.RiderID = &rp.ID
		}
	case !errors.Is(err, rider.ErrRiderNotFound):
		return nil, err
	}

	dp, err := r.drivers.GetByUserID(ctx, principal.UserID)
	switch {
	case err == nil:
		caller.DriverID = &dp.ID
	case !errors.Is(err, driver.ErrDriverNotFound):
		return nil, err
	}

	return caller, nil
}
