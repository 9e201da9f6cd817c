package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/perpexbistro/ride-hailing/internal/service"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
	"github.com/perpexbistro/ride-hailing/pkg/monitoring"
)

// Request is what a caller submits to settle a ride
type Request struct {
	Method *ride.PaymentMethod
	Status ride.PaymentStatus
}

// Service records ride payments
type Service struct {
	rides    ride.Repository
	logger   *logger.Logger
	recorder *monitoring.Recorder
}

// NewService creates a new payment service
func NewService(rides ride.Repository, log *logger.Logger, recorder *monitoring.Recorder) *Service {
	return &Service{
		rides:    rides,
		logger:   log,
		recorder: recorder,
	}
}

// ParseMethod normalizes a client supplied method name. Empty input yields nil.
func ParseMethod(raw string) (*ride.PaymentMethod, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	m := ride.PaymentMethod(strings.ToUpper(raw))
	if !m.IsValid() {
		return nil, apperrors.WithDetail(apperrors.ErrInvalidPaymentMethod, "Invalid payment method %q", raw)
	}
	return &m, nil
}

// ParseStatus normalizes a client supplied payment status
func ParseStatus(raw string) (ride.PaymentStatus, error) {
	s := ride.PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", apperrors.WithDetail(apperrors.ErrInvalidPaymentStatus, "Invalid payment status %q", raw)
	}
	return s, nil
}

// MarkPaid writes the payment fields of a completed, unpaid ride. paid_at is
// stamped by the store at the moment of the conditional write.
func (s *Service) MarkPaid(ctx context.Context, caller *auth.Caller, rideID uuid.UUID, req Request) (*ride.Ride, error) {
	return s.settle(ctx, caller, rideID, func() (Request, error) { return req, nil })
}

// Settle is MarkPaid for raw client input. The method and status strings are
// parsed only once the ride is known to be payable, so an already paid ride
// reports ALREADY_PAID whatever the body says. An empty status means PAID.
func (s *Service) Settle(ctx context.Context, caller *auth.Caller, rideID uuid.UUID, method, status string) (*ride.Ride, error) {
	return s.settle(ctx, caller, rideID, func() (Request, error) {
		req := Request{Status: ride.PaymentPaid}
		if strings.TrimSpace(status) != "" {
			parsed, err := ParseStatus(status)
			if err != nil {
				return Request{}, err
			}
			req.Status = parsed
		}
		m, err := ParseMethod(method)
		if err != nil {
			return Request{}, err
		}
		req.Method = m
		return req, nil
	})
}

func (s *Service) settle(ctx context.Context, caller *auth.Caller, rideID uuid.UUID, build func() (Request, error)) (*ride.Ride, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	current, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, service.Translate(err, "Failed to load ride")
	}

	if err := auth.CanMarkPaid(caller, current); err != nil {
		s.recorder.Rejected("mark_paid", apperrors.GetAppError(err).Code)
		return nil, err
	}

	if err := current.CheckPayable(); err != nil {
		return nil, s.reject(current, err)
	}
	req, err := build()
	if err != nil {
		return nil, s.reject(current, err)
	}
	if !req.Status.IsValid() {
		return nil, s.reject(current, apperrors.ErrInvalidPaymentStatus)
	}
	if req.Method != nil && !req.Method.IsValid() {
		return nil, s.reject(current, apperrors.ErrInvalidPaymentMethod)
	}
	if req.Status == ride.PaymentPaid && req.Method == nil {
		return nil, s.reject(current, apperrors.ErrPaymentMethodRequired)
	}

	updated, err := s.rides.MarkPaid(ctx, rideID, ride.PaymentUpdate{
		Method: req.Method,
		Status: req.Status,
	})
	if err != nil {
		return nil, s.reject(current, err)
	}

	method := ""
	if updated.PaymentMethod != nil {
		method = string(*updated.PaymentMethod)
	}
	s.recorder.PaymentRecorded(updated.ID.String(), method, string(updated.PaymentStatus), updated.Fare)
	s.logger.Info("Ride payment recorded",
		logger.String("ride_id", updated.ID.String()),
		logger.String("method", method),
		logger.String("payment_status", string(updated.PaymentStatus)),
	)

	return updated, nil
}

func (s *Service) reject(r *ride.Ride, err error) error {
	translated := service.Translate(err, "Failed to record payment")
	appErr := apperrors.GetAppError(translated)
	if appErr.Status >= 500 {
		s.logger.Error("Payment write failed",
			logger.String("ride_id", r.ID.String()),
			logger.Err(err),
		)
	} else {
		s.logger.Warn("Payment rejected",
			logger.String("ride_id", r.ID.String()),
			logger.String("code", appErr.Code),
		)
	}
	s.recorder.Rejected("mark_paid", appErr.Code)
	return translated
}
