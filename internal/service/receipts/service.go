package receipts

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/internal/domain/driver"
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/perpexbistro/ride-hailing/internal/domain/rider"
	"github.com/perpexbistro/ride-hailing/internal/service"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
)

// DateLayout is the accepted format of history date filters
const DateLayout = "2006-01-02"

// NotAssigned is shown in place of a driver name for rides that never had one
const NotAssigned = "Not Assigned"

// Receipt summarizes a completed trip for its participants
type Receipt struct {
	RideID        uuid.UUID           `json:"ride_id"`
	Code          string              `json:"code"`
	Rider         string              `json:"rider"`
	Driver        string              `json:"driver"`
	Origin        string              `json:"origin"`
	Destination   string              `json:"destination"`
	Fare          *string             `json:"fare"`
	PaymentMethod *ride.PaymentMethod `json:"payment_method"`
	PaymentStatus ride.PaymentStatus  `json:"payment_status"`
	Status        ride.Status         `json:"status"`
	CompletedAt   *time.Time          `json:"completed_at"`
}

// HistoryItem is one row of the admin ride history
type HistoryItem struct {
	RideID        uuid.UUID           `json:"ride_id"`
	Code          string              `json:"code"`
	Rider         string              `json:"rider"`
	Driver        string              `json:"driver"`
	Status        ride.Status         `json:"status"`
	Fare          *string             `json:"fare"`
	PaymentMethod *ride.PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time           `json:"created_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
}

// HistoryQuery holds the raw admin filters; empty strings mean unset
type HistoryQuery struct {
	Status    string
	DriverID  string
	StartDate string
	EndDate   string
}

// Service builds receipts and ride history views
type Service struct {
	rides   ride.Repository
	riders  rider.Repository
	drivers driver.Repository
	logger  *logger.Logger
}

// NewService creates a new receipts service
func NewService(rides ride.Repository, riders rider.Repository, drivers driver.Repository, log *logger.Logger) *Service {
	return &Service{
		rides:   rides,
		riders:  riders,
		drivers: drivers,
		logger:  log,
	}
}

// Receipt returns the trip receipt of a completed ride
func (s *Service) Receipt(ctx context.Context, caller *auth.Caller, rideID uuid.UUID) (*Receipt, error) {
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
	if rd.Status != ride.StatusCompleted {
		return nil, apperrors.WithDetail(apperrors.ErrRideNotCompleted, "Receipt is only available for completed rides")
	}

	riderName, driverName := s.names(ctx, rd, firstNames)

	return &Receipt{
		RideID:        rd.ID,
		Code:          rd.Code,
		Rider:         riderName,
		Driver:        driverName,
		Origin:        place(rd.PickupAddress, rd.PickupLatitude, rd.PickupLongitude),
		Destination:   place(rd.DropoffAddress, rd.DropoffLatitude, rd.DropoffLongitude),
		Fare:          fare(rd),
		PaymentMethod: rd.PaymentMethod,
		PaymentStatus: rd.PaymentStatus,
		Status:        rd.Status,
		CompletedAt:   rd.CompletedAt,
	}, nil
}

// ParseHistoryQuery validates raw admin filters into a ride filter. The end
// date covers its whole day.
func ParseHistoryQuery(q HistoryQuery) (ride.Filter, error) {
	var f ride.Filter

	if v := strings.TrimSpace(q.Status); v != "" {
		st := ride.Status(strings.ToUpper(v))
		if !st.IsValid() {
			return f, apperrors.BadRequest("Invalid status filter: "+v, nil)
		}
		f.Status = &st
	}

	if v := strings.TrimSpace(q.DriverID); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, apperrors.BadRequest("Invalid driver_id filter", err)
		}
		f.DriverID = &id
	}

	if v := strings.TrimSpace(q.StartDate); v != "" {
		from, err := time.ParseInLocation(DateLayout, v, time.UTC)
		if err != nil {
			return f, apperrors.BadRequest("Invalid start_date format. Use YYYY-MM-DD", err)
		}
		f.From = &from
	}

	if v := strings.TrimSpace(q.EndDate); v != "" {
		end, err := time.ParseInLocation(DateLayout, v, time.UTC)
		if err != nil {
			return f, apperrors.BadRequest("Invalid end_date format. Use YYYY-MM-DD", err)
		}
		to := end.Add(24*time.Hour - time.Nanosecond)
		f.To = &to
	}

	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, apperrors.BadRequest("start_date must not be after end_date", nil)
	}
	return f, nil
}

// History lists rides for administrators, newest first
func (s *Service) History(ctx context.Context, caller *auth.Caller, filter ride.Filter) ([]HistoryItem, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}

	rides, err := s.rides.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list rides", logger.Err(err))
		return nil, apperrors.Internal("Failed to load ride history", err)
	}

	items := make([]HistoryItem, 0, len(rides))
	for _, rd := range rides {
		riderName, driverName := s.names(ctx, rd, fullNames)
		items = append(items, HistoryItem{
			RideID:        rd.ID,
			Code:          rd.Code,
			Rider:         riderName,
			Driver:        driverName,
			Status:        rd.Status,
			Fare:          fare(rd),
			PaymentMethod: rd.PaymentMethod,
			CreatedAt:     rd.CreatedAt,
			CompletedAt:   rd.CompletedAt,
		})
	}
	return items, nil
}

type nameStyle int

const (
	firstNames nameStyle = iota
	fullNames
)

// names resolves display names. A missing profile degrades to a short id
// rather than failing the whole view.
func (s *Service) names(ctx context.Context, rd *ride.Ride, style nameStyle) (string, string) {
	riderName := "Rider " + rd.RiderID.String()[:8]
	if r, err := s.riders.GetByID(ctx, rd.RiderID); err == nil {
		riderName = r.DisplayName()
		if style == firstNames {
			riderName = r.FirstName()
		}
	} else {
		s.logger.Debug("Rider profile unavailable", logger.String("rider_id", rd.RiderID.String()), logger.Err(err))
	}

	if rd.DriverID == nil {
		return riderName, NotAssigned
	}
	driverName := "Driver " + rd.DriverID.String()[:8]
	if d, err := s.drivers.GetByID(ctx, *rd.DriverID); err == nil {
		driverName = d.DisplayName()
		if style == firstNames {
			driverName = d.FirstName()
		}
	} else {
		s.logger.Debug("Driver profile unavailable", logger.String("driver_id", rd.DriverID.String()), logger.Err(err))
	}
	return riderName, driverName
}

func place(address string, lat, lng float64) string {
	if address != "" {
		return address
	}
	return strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lng, 'f', -1, 64)
}

func fare(rd *ride.Ride) *string {
	if rd.Fare == nil {
		return nil
	}
	v := rd.Fare.StringFixed(2)
	return &v
}
