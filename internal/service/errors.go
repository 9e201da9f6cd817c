// Package service holds what the ride services share: translation of
// repository errors into application errors.
package service

import (
	"errors"

	"github.com/perpexbistro/ride-hailing/internal/domain/driver"
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/perpexbistro/ride-hailing/internal/domain/rider"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
)

// Translate maps domain sentinels onto application errors. Anything it does
// not recognise is an infrastructure failure and becomes Internal with msg.
func Translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, ride.ErrRideNotFound):
		return apperrors.ErrRideNotFound
	case errors.Is(err, ride.ErrNotCompleted):
		return apperrors.ErrRideNotCompleted
	case errors.Is(err, ride.ErrFareAlreadySet):
		return apperrors.ErrFareAlreadySet
	case errors.Is(err, ride.ErrAlreadyPaid):
		return apperrors.ErrAlreadyPaid
	case errors.Is(err, ride.ErrInvalidTransition):
		return apperrors.ErrInvalidStatus
	case errors.Is(err, ride.ErrSameEndpoints):
		return apperrors.WithDetail(apperrors.ErrInvalidRide, "Pickup and dropoff locations must differ")
	case errors.Is(err, ride.ErrInvalidSurge):
		return apperrors.WithDetail(apperrors.ErrInvalidRide, "Surge multiplier must be greater than zero")
	case errors.Is(err, ride.ErrSurgePrecision):
		return apperrors.WithDetail(apperrors.ErrInvalidRide, "Surge multiplier allows at most two decimal places")
	case errors.Is(err, driver.ErrDriverNotFound):
		return apperrors.ErrDriverNotFound
	case errors.Is(err, driver.ErrDriverNotAvailable):
		return apperrors.ErrDriverNotAvailable
	case errors.Is(err, rider.ErrRiderNotFound):
		return apperrors.ErrNoRiderProfile
	case isLocationError(err):
		return apperrors.WithDetail(apperrors.ErrInvalidLocation, "Invalid location: %v", err)
	}

	return apperrors.Internal(msg, err)
}

func isLocationError(err error) bool {
	return errors.Is(err, geo.ErrLatitudeOutOfRange) ||
		errors.Is(err, geo.ErrLongitudeOutOfRange) ||
		errors.Is(err, geo.ErrNullIsland) ||
		errors.Is(err, geo.ErrPartialCoordinates)
}
