package driver

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
)

// Status represents driver availability status
type Status string

const (
	StatusOffline   Status = "OFFLINE"
	StatusAvailable Status = "AVAILABLE"
	StatusOnTrip    Status = "ON_TRIP"
)

// VehicleType represents the body type of the vehicle
type VehicleType string

const (
	VehicleSedan     VehicleType = "sedan"
	VehicleHatchback VehicleType = "hatchback"
	VehicleSUV       VehicleType = "suv"
	VehicleBike      VehicleType = "bike"
	VehicleAuto      VehicleType = "auto"
)

// Vehicle describes the car a driver operates
type Vehicle struct {
	Make  string      `json:"make"`
	Model string      `json:"model"`
	Year  int         `json:"year"`
	Color string      `json:"color"`
	Type  VehicleType `json:"type"`
	Plate string      `json:"plate"`
}

// Driver represents a driver profile attached to a user identity
type Driver struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Username         string    `json:"username"`
	FullName         string    `json:"full_name"`
	Phone            string    `json:"phone"`
	LicenseNumber    string    `json:"license_number"`
	LicenseExpiry    time.Time `json:"license_expiry"`
	Vehicle          Vehicle   `json:"vehicle"`
	CurrentLatitude  *float64  `json:"current_latitude,omitempty"`
	CurrentLongitude *float64  `json:"current_longitude,omitempty"`
	Status           Status    `json:"availability_status"`
	IsVerified       bool      `json:"is_verified"`
	IsActive         bool      `json:"is_active"`
	Rating           float64   `json:"rating"`
	TotalRides       int       `json:"total_rides"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// New builds a driver in its initial state: OFFLINE, unverified, active, rated 5.
func New(userID uuid.UUID, phone, licenseNumber string, licenseExpiry time.Time, vehicle Vehicle) *Driver {
	now := time.Now().UTC()
	return &Driver{
		ID:            uuid.New(),
		UserID:        userID,
		Phone:         phone,
		LicenseNumber: licenseNumber,
		LicenseExpiry: licenseExpiry,
		Vehicle:       vehicle,
		Status:        StatusOffline,
		IsActive:      true,
		Rating:        5,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate checks the invariants a new driver profile must satisfy at creation.
func (d *Driver) Validate(now time.Time) error {
	if strings.TrimSpace(d.Phone) == "" {
		return ErrInvalidDriverPhone
	}
	if strings.TrimSpace(d.LicenseNumber) == "" {
		return ErrInvalidLicense
	}
	if !d.LicenseExpiry.After(now) {
		return ErrLicenseExpired
	}
	if strings.TrimSpace(d.Vehicle.Plate) == "" {
		return ErrInvalidVehicle
	}
	if !d.Vehicle.Type.IsValid() {
		return ErrInvalidVehicleType
	}
	if !d.Status.IsValid() {
		return ErrInvalidDriverStatus
	}
	if d.Rating < 0 || d.Rating > 5 {
		return ErrInvalidRating
	}
	if err := geo.ValidateOptional(d.CurrentLatitude, d.CurrentLongitude); err != nil {
		return err
	}
	return nil
}

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusOffline, StatusAvailable, StatusOnTrip:
		return true
	}
	return false
}

// IsValid validates the vehicle type
func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleSedan, VehicleHatchback, VehicleSUV, VehicleBike, VehicleAuto:
		return true
	}
	return false
}

// IsEligibleForDispatch reports whether the driver may be assigned a ride.
func (d *Driver) IsEligibleForDispatch() bool {
	return d.IsActive && d.IsVerified && d.Status == StatusAvailable
}

// SetLocation updates the driver's current location
func (d *Driver) SetLocation(lat, lng float64) error {
	if err := geo.Validate(lat, lng); err != nil {
		return err
	}
	d.CurrentLatitude = &lat
	d.CurrentLongitude = &lng
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// ClearLocation drops both coordinates together.
func (d *Driver) ClearLocation() {
	d.CurrentLatitude = nil
	d.CurrentLongitude = nil
	d.UpdatedAt = time.Now().UTC()
}

// Location returns the driver's current location, or nil when unknown.
func (d *Driver) Location() *geo.Point {
	if d.CurrentLatitude == nil || d.CurrentLongitude == nil {
		return nil
	}
	return &geo.Point{
		Latitude:  *d.CurrentLatitude,
		Longitude: *d.CurrentLongitude,
	}
}

// DisplayName is the full name when known, then the login handle,
// then a short id so it is never empty.
func (d *Driver) DisplayName() string {
	if name := strings.TrimSpace(d.FullName); name != "" {
		return name
	}
	if d.Username != "" {
		return d.Username
	}
	return "Driver " + d.ID.String()[:8]
}

// FirstName is the first word of the full name, or DisplayName when unnamed.
func (d *Driver) FirstName() string {
	if f := strings.Fields(d.FullName); len(f) > 0 {
		return f[0]
	}
	return d.DisplayName()
}
