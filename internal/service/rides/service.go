package rides

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/internal/domain/driver"
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/perpexbistro/ride-hailing/internal/domain/rider"
	"github.com/perpexbistro/ride-hailing/internal/identifier"
	"github.com/perpexbistro/ride-hailing/internal/service"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
	"github.com/perpexbistro/ride-hailing/pkg/monitoring"
	"github.com/shopspring/decimal"
)

// DefaultCodePrefix is prepended to every generated ride code
const DefaultCodePrefix = "RIDE-"

// createAttempts bounds retries when a generated code loses a race at insert time
const createAttempts = 3

// CodeGenerator issues ride codes
type CodeGenerator interface {
	Generate(ctx context.Context, prefix string) (string, error)
}

// SurgePolicy decides the multiplier stamped on a new ride
type SurgePolicy interface {
	Current() decimal.Decimal
}

// Config holds ride lifecycle configuration
type Config struct {
	CodePrefix string
	// Surge is consulted once per request. Nil means every ride gets ride.DefaultSurge.
	Surge SurgePolicy
}

// Service drives a ride from request to completion or cancellation
type Service struct {
	rides    ride.Repository
	drivers  driver.Repository
	riders   rider.Repository
	codes    CodeGenerator
	logger   *logger.Logger
	recorder *monitoring.Recorder
	config   Config
}

// NewService creates a new ride service
func NewService(
	rides ride.Repository,
	drivers driver.Repository,
	riders rider.Repository,
	codes CodeGenerator,
	log *logger.Logger,
	recorder *monitoring.Recorder,
	config Config,
) *Service {
	if config.CodePrefix == "" {
		config.CodePrefix = DefaultCodePrefix
	}
	return &Service{
		rides:    rides,
		drivers:  drivers,
		riders:   riders,
		codes:    codes,
		logger:   log,
		recorder: recorder,
		config:   config,
	}
}

// RequestInput describes a new ride
type RequestInput struct {
	Pickup         geo.Point
	Dropoff        geo.Point
	PickupAddress  string
	DropoffAddress string
}

// Request creates a REQUESTED ride for the calling rider
func (s *Service) Request(ctx context.Context, caller *auth.Caller, in RequestInput) (*ride.Ride, error) {
	if err := auth.CanRequestRide(caller); err != nil {
		s.recorder.Rejected("request_ride", apperrors.GetAppError(err).Code)
		return nil, err
	}

	surge := ride.DefaultSurge
	if s.config.Surge != nil {
		surge = s.config.Surge.Current()
	}

	rd := ride.New(*caller.RiderID, "", in.Pickup, in.Dropoff, surge)
	rd.PickupAddress = strings.TrimSpace(in.PickupAddress)
	rd.DropoffAddress = strings.TrimSpace(in.DropoffAddress)
	if err := rd.Validate(); err != nil {
		translated := service.Translate(err, "Invalid ride request")
		s.recorder.Rejected("request_ride", apperrors.GetAppError(translated).Code)
		return nil, translated
	}

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		code, err := s.codes.Generate(ctx, s.config.CodePrefix)
		if err != nil {
			if errors.Is(err, identifier.ErrGenerationExhausted) {
				s.recorder.IdentifierExhausted()
				s.logger.Error("Ride code generation exhausted", logger.Err(err))
				return nil, apperrors.ErrGenerationExhausted
			}
			return nil, apperrors.Internal("Failed to generate ride code", err)
		}
		rd.Code = code

		err = s.rides.Create(ctx, rd)
		if errors.Is(err, ride.ErrDuplicateCode) {
			s.logger.Warn("Ride code collided at insert", logger.String("code", code))
			lastErr = err
			continue
		}
		if err != nil {
			s.logger.Error("Failed to create ride", logger.Err(err))
			return nil, apperrors.Internal("Failed to create ride", err)
		}

		s.recorder.RideTransition(rd.ID.String(), string(rd.Status))
		s.logger.Info("Ride requested",
			logger.String("ride_id", rd.ID.String()),
			logger.String("code", rd.Code),
			logger.String("rider_id", rd.RiderID.String()),
		)
		return rd, nil
	}

	s.recorder.IdentifierExhausted()
	return nil, apperrors.WrapAppError(apperrors.ErrGenerationExhausted, lastErr.Error())
}

// Get returns a ride visible to the caller
func (s *Service) Get(ctx context.Context, caller *auth.Caller, rideID uuid.UUID) (*ride.Ride, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	rd, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, service.Translate(err, "Failed to load ride")
	}
	if !auth.IsRideParticipant(caller, rd) {
		return nil, apperrors.ErrForbidden
	}
	return rd, nil
}

// Assign dispatches an eligible driver to a REQUESTED ride. The driver is
// reserved first so two rides can never hold the same driver.
func (s *Service) Assign(ctx context.Context, caller *auth.Caller, rideID, driverID uuid.UUID) (*ride.Ride, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		s.recorder.Rejected("assign_driver", apperrors.GetAppError(err).Code)
		return nil, err
	}

	current, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, service.Translate(err, "Failed to load ride")
	}
	if !current.CanAssignDriver() {
		return nil, s.reject("assign_driver", current, ride.ErrInvalidTransition)
	}

	d, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, s.reject("assign_driver", current, err)
	}
	if !d.IsEligibleForDispatch() || d.Location() == nil {
		return nil, s.reject("assign_driver", current, driver.ErrDriverNotAvailable)
	}

	if err := s.drivers.TransitionStatus(ctx, driverID, driver.StatusAvailable, driver.StatusOnTrip); err != nil {
		return nil, s.reject("assign_driver", current, err)
	}

	updated, err := s.rides.AssignDriver(ctx, rideID, driverID)
	if err != nil {
		s.releaseDriver(ctx, driverID)
		return nil, s.reject("assign_driver", current, err)
	}

	s.recorder.RideTransition(updated.ID.String(), string(updated.Status))
	s.logger.Info("Driver assigned",
		logger.String("ride_id", updated.ID.String()),
		logger.String("driver_id", driverID.String()),
	)
	return updated, nil
}

// Complete finishes an ONGOING ride, frees the driver and bumps ride counters
func (s *Service) Complete(ctx context.Context, caller *auth.Caller, rideID uuid.UUID) (*ride.Ride, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	current, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, service.Translate(err, "Failed to load ride")
	}
	if err := auth.CanCompleteRide(caller, current); err != nil {
		s.recorder.Rejected("complete_ride", apperrors.GetAppError(err).Code)
		return nil, err
	}
	if !current.CanComplete() {
		return nil, s.reject("complete_ride", current, ride.ErrInvalidTransition)
	}

	updated, err := s.rides.Complete(ctx, rideID)
	if err != nil {
		return nil, s.reject("complete_ride", current, err)
	}

	if updated.DriverID != nil {
		s.releaseDriver(ctx, *updated.DriverID)
		if err := s.drivers.IncrementRides(ctx, *updated.DriverID); err != nil {
			s.logger.Warn("Failed to increment driver rides", logger.String("driver_id", updated.DriverID.String()), logger.Err(err))
		}
	}
	if err := s.riders.IncrementRides(ctx, updated.RiderID); err != nil {
		s.logger.Warn("Failed to increment rider rides", logger.String("rider_id", updated.RiderID.String()), logger.Err(err))
	}

	s.recorder.RideTransition(updated.ID.String(), string(updated.Status))
	s.logger.Info("Ride completed", logger.String("ride_id", updated.ID.String()))
	return updated, nil
}

// Cancel stops a ride that has not finished. A driver already on the ride is released.
func (s *Service) Cancel(ctx context.Context, caller *auth.Caller, rideID uuid.UUID) (*ride.Ride, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	current, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, service.Translate(err, "Failed to load ride")
	}
	if err := auth.CanCancelRide(caller, current); err != nil {
		s.recorder.Rejected("cancel_ride", apperrors.GetAppError(err).Code)
		return nil, err
	}
	if !current.CanCancel() {
		return nil, s.reject("cancel_ride", current, ride.ErrInvalidTransition)
	}

	updated, err := s.rides.Cancel(ctx, rideID)
	if err != nil {
		return nil, s.reject("cancel_ride", current, err)
	}
	if updated.DriverID != nil {
		s.releaseDriver(ctx, *updated.DriverID)
	}

	s.recorder.RideTransition(updated.ID.String(), string(updated.Status))
	s.logger.Info("Ride cancelled", logger.String("ride_id", updated.ID.String()))
	return updated, nil
}

func (s *Service) releaseDriver(ctx context.Context, driverID uuid.UUID) {
	err := s.drivers.TransitionStatus(ctx, driverID, driver.StatusOnTrip, driver.StatusAvailable)
	if err != nil {
		s.logger.Warn("Failed to release driver",
			logger.String("driver_id", driverID.String()),
			logger.Err(err),
		)
	}
}

func (s *Service) reject(op string, r *ride.Ride, err error) error {
	translated := service.Translate(err, "Failed to update ride")
	appErr := apperrors.GetAppError(translated)
	if appErr.Status >= 500 {
		s.logger.Error("Ride update failed",
			logger.String("operation", op),
			logger.String("ride_id", r.ID.String()),
			logger.Err(err),
		)
	} else {
		s.logger.Warn("Ride update rejected",
			logger.String("operation", op),
			logger.String("ride_id", r.ID.String()),
			logger.String("status", string(r.Status)),
			logger.String("code", appErr.Code),
		)
	}
	s.recorder.Rejected(op, appErr.Code)
	return translated
}
