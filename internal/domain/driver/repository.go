package driver

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for driver data access
type Repository interface {
	// Create creates a new driver
	Create(ctx context.Context, driver *Driver) error

	// GetByID retrieves a driver by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Driver, error)

	// GetByUserID retrieves the driver profile of a user identity
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Driver, error)

	// ListAvailable returns AVAILABLE drivers that have both coordinates set.
	// It is a snapshot read; drivers may change status right after.
	ListAvailable(ctx context.Context) ([]*Driver, error)

	// UpdateLocation updates driver location
	UpdateLocation(ctx context.Context, id uuid.UUID, lat, lng float64) error

	// TransitionStatus moves the driver from one status to another and fails with
	// ErrDriverNotAvailable when the stored status is not from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) error

	// IncrementRides adds a completed ride to the lifetime counter
	IncrementRides(ctx context.Context, id uuid.UUID) error
}
