package ride

import "errors"

var (
	ErrRideNotFound      = errors.New("ride not found")
	ErrNotCompleted      = errors.New("ride is not completed")
	ErrFareAlreadySet    = errors.New("fare already set")
	ErrAlreadyPaid       = errors.New("ride already paid")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateCode     = errors.New("ride code already exists")
	ErrSameEndpoints     = errors.New("pickup and dropoff must differ")
	ErrInvalidSurge      = errors.New("surge multiplier must be greater than zero")
	ErrSurgePrecision    = errors.New("surge multiplier has more than two decimal places")
)
