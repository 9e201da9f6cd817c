package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/domain/driver"
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/perpexbistro/ride-hailing/internal/service/earnings"
	"github.com/perpexbistro/ride-hailing/internal/service/pricing"
)

// RideResponse is the wire form of a ride. Money is rendered with two decimals.
type RideResponse struct {
	ID              uuid.UUID           `json:"id"`
	Code            string              `json:"code"`
	RiderID         uuid.UUID           `json:"rider_id"`
	DriverID        *uuid.UUID          `json:"driver_id"`
	Status          ride.Status         `json:"status"`
	PickupLocation  LocationResponse    `json:"pickup_location"`
	DropoffLocation LocationResponse    `json:"dropoff_location"`
	SurgeMultiplier string              `json:"surge_multiplier"`
	Fare            *string             `json:"fare"`
	PaymentMethod   *ride.PaymentMethod `json:"payment_method"`
	PaymentStatus   ride.PaymentStatus  `json:"payment_status"`
	PaidAt          *time.Time          `json:"paid_at"`
	CompletedAt     *time.Time          `json:"completed_at"`
	CancelledAt     *time.Time          `json:"cancelled_at"`
	CreatedAt       time.Time           `json:"created_at"`
}

type LocationResponse struct {
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewRideResponse renders a ride
func NewRideResponse(r *ride.Ride) RideResponse {
	resp := RideResponse{
		ID:       r.ID,
		Code:     r.Code,
		RiderID:  r.RiderID,
		DriverID: r.DriverID,
		Status:   r.Status,
		PickupLocation: LocationResponse{
			Address:   r.PickupAddress,
			Latitude:  r.PickupLatitude,
			Longitude: r.PickupLongitude,
		},
		DropoffLocation: LocationResponse{
			Address:   r.DropoffAddress,
			Latitude:  r.DropoffLatitude,
			Longitude: r.DropoffLongitude,
		},
		SurgeMultiplier: r.SurgeMultiplier.StringFixed(2),
		PaymentMethod:   r.PaymentMethod,
		PaymentStatus:   r.PaymentStatus,
		PaidAt:          r.PaidAt,
		CompletedAt:     r.CompletedAt,
		CancelledAt:     r.CancelledAt,
		CreatedAt:       r.CreatedAt,
	}
	if r.Fare != nil {
		f := r.Fare.StringFixed(2)
		resp.Fare = &f
	}
	return resp
}

// FareResponse is returned by the fare calculation endpoint
type FareResponse struct {
	RideID          uuid.UUID `json:"ride_id"`
	Fare            string    `json:"fare"`
	DistanceKM      string    `json:"distance_km"`
	BaseFare        string    `json:"base_fare"`
	DistanceFare    string    `json:"distance_fare"`
	SurgeMultiplier string    `json:"surge_multiplier"`
}

// NewFareResponse renders a stored fare and its breakdown
func NewFareResponse(r *ride.Ride, q *pricing.FareBreakdown) FareResponse {
	return FareResponse{
		RideID:          r.ID,
		Fare:            r.Fare.StringFixed(2),
		DistanceKM:      q.DistanceKM.StringFixed(2),
		BaseFare:        q.BaseFare.StringFixed(2),
		DistanceFare:    q.DistanceFare.StringFixed(2),
		SurgeMultiplier: q.SurgeMultiplier.StringFixed(2),
	}
}

// EarningsResponse is the driver earnings summary
type EarningsResponse struct {
	DriverID         string         `json:"driver_id"`
	WindowDays       int            `json:"window_days"`
	From             time.Time      `json:"from"`
	To               time.Time      `json:"to"`
	TotalRides       int            `json:"total_rides"`
	TotalEarnings    string         `json:"total_earnings"`
	AverageFare      string         `json:"average_fare"`
	PaymentBreakdown map[string]int `json:"payment_breakdown"`
}

// NewEarningsResponse renders a summary
func NewEarningsResponse(s *earnings.Summary) EarningsResponse {
	breakdown := make(map[string]int, len(s.PaymentBreakdown))
	for m, n := range s.PaymentBreakdown {
		breakdown[string(m)] = n
	}
	return EarningsResponse{
		DriverID:         s.DriverID,
		WindowDays:       s.WindowDays,
		From:             s.From,
		To:               s.To,
		TotalRides:       s.TotalRides,
		TotalEarnings:    s.TotalEarnings.StringFixed(2),
		AverageFare:      s.AverageFare.StringFixed(2),
		PaymentBreakdown: breakdown,
	}
}

// DriverStatusResponse reports a driver's availability after a toggle
type DriverStatusResponse struct {
	DriverID           uuid.UUID     `json:"driver_id"`
	AvailabilityStatus driver.Status `json:"availability_status"`
}

// Error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
