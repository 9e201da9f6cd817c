// Package earnings serves the driver self-service operations: the earnings
// summary, the availability toggle and location updates.
package earnings

import (
	"context"
	"errors"
	"time"

	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/internal/domain/driver"
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/perpexbistro/ride-hailing/internal/service"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
	"github.com/shopspring/decimal"
)

// DefaultWindowDays is the look-back of the earnings summary
const DefaultWindowDays = 7

// Config holds earnings configuration
type Config struct {
	WindowDays int
}

// Summary aggregates a driver's paid rides over the window
type Summary struct {
	DriverID         string                     `json:"driver_id"`
	WindowDays       int                        `json:"window_days"`
	From             time.Time                  `json:"from"`
	To               time.Time                  `json:"to"`
	TotalRides       int                        `json:"total_rides"`
	TotalEarnings    decimal.Decimal            `json:"total_earnings"`
	AverageFare      decimal.Decimal            `json:"average_fare"`
	PaymentBreakdown map[ride.PaymentMethod]int `json:"payment_breakdown"`
}

// Service implements the driver self-service operations
type Service struct {
	rides   ride.Repository
	drivers driver.Repository
	logger  *logger.Logger
	config  Config
	now     func() time.Time
}

// NewService creates a new earnings service
func NewService(rides ride.Repository, drivers driver.Repository, log *logger.Logger, config Config) *Service {
	if config.WindowDays <= 0 {
		config.WindowDays = DefaultWindowDays
	}
	return &Service{
		rides:   rides,
		drivers: drivers,
		logger:  log,
		config:  config,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Summary totals the caller's COMPLETED and PAID rides completed within the window.
func (s *Service) Summary(ctx context.Context, caller *auth.Caller) (*Summary, error) {
	if err := auth.CanActAsDriver(caller); err != nil {
		return nil, err
	}

	to := s.now()
	from := to.AddDate(0, 0, -s.config.WindowDays)

	paid, err := s.rides.ListPaidByDriver(ctx, *caller.DriverID, from)
	if err != nil {
		s.logger.Error("Failed to list paid rides", logger.String("driver_id", caller.DriverID.String()), logger.Err(err))
		return nil, apperrors.Internal("Failed to load earnings", err)
	}

	sum := Summarize(paid)
	sum.DriverID = caller.DriverID.String()
	sum.WindowDays = s.config.WindowDays
	sum.From = from
	sum.To = to
	return sum, nil
}

// Summarize folds rides into totals. Rides paid before a fare was set count
// toward the ride total with zero earnings.
func Summarize(rides []*ride.Ride) *Summary {
	sum := &Summary{
		TotalEarnings: decimal.Zero,
		AverageFare:   decimal.Zero,
		PaymentBreakdown: map[ride.PaymentMethod]int{
			ride.PaymentCash: 0,
			ride.PaymentUPI:  0,
			ride.PaymentCard: 0,
		},
	}

	for _, r := range rides {
		sum.TotalRides++
		if r.Fare != nil {
			sum.TotalEarnings = sum.TotalEarnings.Add(*r.Fare)
		}
		if r.PaymentMethod != nil {
			sum.PaymentBreakdown[*r.PaymentMethod]++
		}
	}

	if sum.TotalRides > 0 {
		sum.AverageFare = sum.TotalEarnings.Div(decimal.NewFromInt(int64(sum.TotalRides))).Round(2)
	}
	return sum
}

// SetAvailability moves the caller between AVAILABLE and OFFLINE. A driver on
// a trip cannot toggle.
func (s *Service) SetAvailability(ctx context.Context, caller *auth.Caller, available bool) (*driver.Driver, error) {
	if err := auth.CanActAsDriver(caller); err != nil {
		return nil, err
	}

	d, err := s.drivers.GetByID(ctx, *caller.DriverID)
	if err != nil {
		return nil, service.Translate(err, "Failed to load driver")
	}
	if d.Status == driver.StatusOnTrip {
		return nil, apperrors.WithDetail(apperrors.ErrInvalidStatus, "Cannot change availability while on a trip")
	}

	target := driver.StatusOffline
	if available {
		target = driver.StatusAvailable
	}
	if d.Status == target {
		return d, nil
	}

	if err := s.drivers.TransitionStatus(ctx, d.ID, d.Status, target); err != nil {
		if errors.Is(err, driver.ErrDriverNotAvailable) {
			return nil, apperrors.WithDetail(apperrors.ErrInvalidStatus, "Driver status changed concurrently")
		}
		return nil, service.Translate(err, "Failed to update availability")
	}
	d.Status = target

	s.logger.Info("Driver availability changed",
		logger.String("driver_id", d.ID.String()),
		logger.String("status", string(target)),
	)
	return d, nil
}

// UpdateLocation records the caller's current position.
func (s *Service) UpdateLocation(ctx context.Context, caller *auth.Caller, lat, lng float64) error {
	if err := auth.CanActAsDriver(caller); err != nil {
		return err
	}
	if err := s.drivers.UpdateLocation(ctx, *caller.DriverID, lat, lng); err != nil {
		return service.Translate(err, "Failed to update location")
	}
	s.logger.Debug("Driver location updated", logger.String("driver_id", caller.DriverID.String()))
	return nil
}
