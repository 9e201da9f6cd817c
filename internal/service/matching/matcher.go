package matching

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/internal/domain/driver"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
	"github.com/perpexbistro/ride-hailing/pkg/monitoring"
	"github.com/shopspring/decimal"
)

// DefaultMaxResults caps a search when no limit is configured
const DefaultMaxResults = 5

// Service finds available drivers around a pickup point
type Service struct {
	drivers  driver.Repository
	logger   *logger.Logger
	recorder *monitoring.Recorder
	config   Config
}

// Config holds matching configuration
type Config struct {
	MaxResults int
}

// Candidate is a ranked nearby driver
type Candidate struct {
	DriverID   uuid.UUID `json:"driver_id"`
	Name       string    `json:"name"`
	DistanceKM float64   `json:"distance_km"`
}

// NewService creates a new matching service
func NewService(drivers driver.Repository, log *logger.Logger, recorder *monitoring.Recorder, config Config) *Service {
	if config.MaxResults <= 0 {
		config.MaxResults = DefaultMaxResults
	}
	return &Service{
		drivers:  drivers,
		logger:   log,
		recorder: recorder,
		config:   config,
	}
}

// FindNearby returns up to MaxResults available drivers nearest to the pickup.
// An empty result is not an error.
func (s *Service) FindNearby(ctx context.Context, caller *auth.Caller, pickup geo.Point) ([]Candidate, error) {
	if err := auth.CanQueryNearbyDrivers(caller); err != nil {
		s.recorder.Rejected("find_nearby", apperrors.GetAppError(err).Code)
		return nil, err
	}
	if err := geo.ValidateRange(pickup.Latitude, pickup.Longitude); err != nil {
		return nil, apperrors.WithDetail(apperrors.ErrInvalidLocation, "Invalid pickup location: %v", err)
	}

	start := time.Now()

	available, err := s.drivers.ListAvailable(ctx)
	if err != nil {
		s.logger.Error("Failed to list available drivers", logger.Err(err))
		return nil, apperrors.Internal("Failed to search nearby drivers", err)
	}

	candidates := Rank(pickup, available, s.config.MaxResults)

	latency := time.Since(start)
	s.recorder.NearbyQuery(len(candidates), latency)
	s.logger.Info("Nearby drivers searched",
		logger.Float64("pickup_lat", pickup.Latitude),
		logger.Float64("pickup_lng", pickup.Longitude),
		logger.Int("available", len(available)),
		logger.Int("returned", len(candidates)),
		logger.Duration("latency", latency),
	)

	return candidates, nil
}

// Rank orders drivers by distance from the pickup, nearest first, and keeps
// at most max. Drivers that are not AVAILABLE or lack a location are skipped,
// so a stale snapshot is tolerated. Equal distances fall back to driver id.
func Rank(pickup geo.Point, drivers []*driver.Driver, max int) []Candidate {
	type scored struct {
		d    *driver.Driver
		dist float64
	}

	pool := make([]scored, 0, len(drivers))
	for _, d := range drivers {
		if d == nil || d.Status != driver.StatusAvailable {
			continue
		}
		loc := d.Location()
		if loc == nil {
			continue
		}
		pool = append(pool, scored{d: d, dist: geo.Distance(pickup, *loc)})
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].dist != pool[j].dist {
			return pool[i].dist < pool[j].dist
		}
		return pool[i].d.ID.String() < pool[j].d.ID.String()
	})

	if max > 0 && len(pool) > max {
		pool = pool[:max]
	}

	out := make([]Candidate, len(pool))
	for i, p := range pool {
		out[i] = Candidate{
			DriverID:   p.d.ID,
			Name:       p.d.DisplayName(),
			DistanceKM: roundKM(p.dist),
		}
	}
	return out
}

func roundKM(km float64) float64 {
	return decimal.NewFromFloat(km).Round(2).InexactFloat64()
}
