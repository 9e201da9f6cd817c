package driver

import "errors"

var (
	ErrDriverNotFound      = errors.New("driver not found")
	ErrInvalidDriverPhone  = errors.New("invalid driver phone")
	ErrInvalidLicense      = errors.New("invalid license number")
	ErrLicenseExpired      = errors.New("license expiry must be in the future")
	ErrInvalidVehicle      = errors.New("invalid vehicle descriptor")
	ErrInvalidDriverStatus = errors.New("invalid driver status")
	ErrInvalidVehicleType  = errors.New("invalid vehicle type")
	ErrInvalidRating       = errors.New("rating must be between 0 and 5")
	ErrDriverNotAvailable  = errors.New("driver is not available")
	ErrDriverOnTrip        = errors.New("driver is on a trip")
	ErrDuplicateLicense    = errors.New("license number or plate already registered")
)
