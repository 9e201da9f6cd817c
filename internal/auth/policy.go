package auth

import (
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
)

// The predicates below are pure: no I/O, no mutation. Services call them
// before any side effect and return their error unchanged.

// IsRideParticipant reports whether the caller is an admin, the ride's rider,
// or the ride's assigned driver.
func IsRideParticipant(caller *Caller, r *ride.Ride) bool {
	if caller == nil || r == nil {
		return false
	}
	if caller.IsAdmin {
		return true
	}
	if caller.RiderID != nil && *caller.RiderID == r.RiderID {
		return true
	}
	if caller.DriverID != nil && r.HasDriver(*caller.DriverID) {
		return true
	}
	return false
}

// RequireAuthenticated fails with Unauthorized for a nil caller.
func RequireAuthenticated(caller *Caller) error {
	if caller == nil {
		return apperrors.ErrUnauthorized
	}
	return nil
}

// CanCalculateFare allows admins and the ride's rider or assigned driver.
func CanCalculateFare(caller *Caller, r *ride.Ride) error {
	return requireParticipant(caller, r)
}

// CanMarkPaid follows the same rule as CanCalculateFare.
func CanMarkPaid(caller *Caller, r *ride.Ride) error {
	return requireParticipant(caller, r)
}

// CanCancelRide follows the same rule as CanCalculateFare.
func CanCancelRide(caller *Caller, r *ride.Ride) error {
	return requireParticipant(caller, r)
}

// CanCompleteRide allows admins and the ride's assigned driver.
func CanCompleteRide(caller *Caller, r *ride.Ride) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if caller.IsAdmin || (caller.DriverID != nil && r.HasDriver(*caller.DriverID)) {
		return nil
	}
	return apperrors.ErrForbidden
}

// CanQueryNearbyDrivers requires a rider profile; driver-only and profile-less
// identities are forbidden.
func CanQueryNearbyDrivers(caller *Caller) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if !caller.IsRider() {
		return apperrors.WithDetail(apperrors.ErrForbidden, "Only riders can search for nearby drivers")
	}
	return nil
}

// CanRequestRide requires a rider profile.
func CanRequestRide(caller *Caller) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if !caller.IsRider() {
		return apperrors.ErrNoRiderProfile
	}
	return nil
}

// CanActAsDriver requires a driver profile, for the driver self-service operations.
func CanActAsDriver(caller *Caller) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if !caller.IsDriver() {
		return apperrors.ErrNoDriverProfile
	}
	return nil
}

// RequireAdmin allows administrators only.
func RequireAdmin(caller *Caller) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if !caller.IsAdmin {
		return apperrors.ErrForbidden
	}
	return nil
}

func requireParticipant(caller *Caller, r *ride.Ride) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if !IsRideParticipant(caller, r) {
		return apperrors.ErrForbidden
	}
	return nil
}
