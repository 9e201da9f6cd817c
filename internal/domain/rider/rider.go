package rider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
)

var (
	ErrRiderNotFound = errors.New("rider not found")
	ErrInvalidRider  = errors.New("invalid rider data")
	ErrRiderExists   = errors.New("user already has a rider profile")
)

// Rider represents a rider profile attached to a user identity
type Rider struct {
	ID                     uuid.UUID `json:"id"`
	UserID                 uuid.UUID `json:"user_id"`
	Username               string    `json:"username"`
	FullName               string    `json:"full_name"`
	Phone                  string    `json:"phone"`
	PreferredPaymentMethod string    `json:"preferred_payment_method,omitempty"`
	DefaultPickupLatitude  *float64  `json:"default_pickup_latitude,omitempty"`
	DefaultPickupLongitude *float64  `json:"default_pickup_longitude,omitempty"`
	Rating                 float64   `json:"rating"`
	TotalRides             int       `json:"total_rides"`
	IsActive               bool      `json:"is_active"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// New builds an active rider rated 5 with no rides.
func New(userID uuid.UUID, phone string) *Rider {
	now := time.Now().UTC()
	return &Rider{
		ID:        uuid.New(),
		UserID:    userID,
		Phone:     phone,
		Rating:    5,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks contact details, rating range and the default pickup pair.
func (r *Rider) Validate() error {
	if strings.TrimSpace(r.Phone) == "" {
		return ErrInvalidRider
	}
	if r.Rating < 0 || r.Rating > 5 {
		return ErrInvalidRider
	}
	return geo.ValidateOptional(r.DefaultPickupLatitude, r.DefaultPickupLongitude)
}

// DisplayName is the full name when known, falling back to the login handle.
func (r *Rider) DisplayName() string {
	if name := strings.TrimSpace(r.FullName); name != "" {
		return name
	}
	if r.Username != "" {
		return r.Username
	}
	return "Rider " + r.ID.String()[:8]
}

// FirstName is the first word of the full name, or the login handle.
func (r *Rider) FirstName() string {
	if f := strings.Fields(r.FullName); len(f) > 0 {
		return f[0]
	}
	return r.DisplayName()
}

// Repository defines the interface for rider data access
type Repository interface {
	Create(ctx context.Context, rider *Rider) error
	GetByID(ctx context.Context, id uuid.UUID) (*Rider, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Rider, error)
	IncrementRides(ctx context.Context, id uuid.UUID) error
}
