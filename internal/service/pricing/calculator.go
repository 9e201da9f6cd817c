package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/perpexbistro/ride-hailing/internal/service"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
	"github.com/perpexbistro/ride-hailing/pkg/monitoring"
	"github.com/shopspring/decimal"
)

// FarePrecision is the number of fractional digits a stored fare keeps
const FarePrecision = 2

// Config holds pricing configuration
type Config struct {
	BaseFare  decimal.Decimal
	PerKMRate decimal.Decimal
}

// DefaultConfig returns base fare 50 and 10 per km
func DefaultConfig() Config {
	return Config{
		BaseFare:  decimal.NewFromInt(50),
		PerKMRate: decimal.NewFromInt(10),
	}
}

// FareBreakdown represents the breakdown of a fare
type FareBreakdown struct {
	DistanceKM      decimal.Decimal `json:"distance_km"`
	BaseFare        decimal.Decimal `json:"base_fare"`
	DistanceFare    decimal.Decimal `json:"distance_fare"`
	SurgeMultiplier decimal.Decimal `json:"surge_multiplier"`
	Total           decimal.Decimal `json:"total"`
}

// Service handles fare calculation
type Service struct {
	rides    ride.Repository
	logger   *logger.Logger
	recorder *monitoring.Recorder
	config   Config
}

// NewService creates a new pricing service
func NewService(rides ride.Repository, log *logger.Logger, recorder *monitoring.Recorder, config Config) *Service {
	return &Service{
		rides:    rides,
		logger:   log,
		recorder: recorder,
		config:   config,
	}
}

// Quote prices a trip between two points. Surge scales only the distance part.
func (c Config) Quote(pickup, dropoff geo.Point, surge decimal.Decimal) FareBreakdown {
	distance := decimal.NewFromFloat(geo.Distance(pickup, dropoff))
	distanceFare := distance.Mul(c.PerKMRate).Mul(surge)

	return FareBreakdown{
		DistanceKM:      distance.Round(FarePrecision),
		BaseFare:        c.BaseFare,
		DistanceFare:    distanceFare.Round(FarePrecision),
		SurgeMultiplier: surge,
		Total:           c.BaseFare.Add(distanceFare).Round(FarePrecision),
	}
}

// CalculateFare prices a completed ride and stores the fare exactly once.
// Concurrent callers race on the conditional write; one wins and the rest
// observe FARE_ALREADY_SET.
func (s *Service) CalculateFare(ctx context.Context, caller *auth.Caller, rideID uuid.UUID) (*ride.Ride, *FareBreakdown, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, nil, err
	}

	current, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, nil, service.Translate(err, "Failed to load ride")
	}

	if err := auth.CanCalculateFare(caller, current); err != nil {
		s.recorder.Rejected("calculate_fare", apperrors.GetAppError(err).Code)
		return nil, nil, err
	}

	if err := current.CheckFareSettable(); err != nil {
		return nil, nil, s.reject(current, err)
	}

	quote := s.config.Quote(current.Pickup(), current.Dropoff(), current.SurgeMultiplier)

	updated, err := s.rides.SetFare(ctx, rideID, quote.Total)
	if err != nil {
		return nil, nil, s.reject(current, err)
	}

	s.recorder.FareCalculated(updated.ID.String(), quote.Total, quote.DistanceKM.InexactFloat64(), quote.SurgeMultiplier)
	s.logger.Info("Fare calculated",
		logger.String("ride_id", updated.ID.String()),
		logger.String("fare", quote.Total.StringFixed(FarePrecision)),
		logger.String("distance_km", quote.DistanceKM.String()),
		logger.String("surge", quote.SurgeMultiplier.String()),
	)

	return updated, &quote, nil
}

func (s *Service) reject(r *ride.Ride, err error) error {
	translated := service.Translate(err, "Failed to store fare")
	appErr := apperrors.GetAppError(translated)
	if appErr.Status >= 500 {
		s.logger.Error("Fare write failed",
			logger.String("ride_id", r.ID.String()),
			logger.Err(err),
		)
	} else {
		s.logger.Warn("Fare calculation rejected",
			logger.String("ride_id", r.ID.String()),
			logger.String("status", string(r.Status)),
			logger.String("code", appErr.Code),
		)
	}
	s.recorder.Rejected("calculate_fare", appErr.Code)
	return translated
}
