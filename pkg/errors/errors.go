package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code, so sentinels
// still match after WithDetail or WrapAppError.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewAppError creates a new AppError
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Common error constructors

// BadRequest creates a 400 error
func BadRequest(message string, err error) *AppError {
	return NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
}

// Unauthorized creates a 401 error
func Unauthorized(message string, err error) *AppError {
	return NewAppError("UNAUTHORIZED", message, http.StatusUnauthorized, err)
}

// Forbidden creates a 403 error
func Forbidden(message string, err error) *AppError {
	return NewAppError("FORBIDDEN", message, http.StatusForbidden, err)
}

// NotFound creates a 404 error
func NotFound(message string, err error) *AppError {
	return NewAppError("NOT_FOUND", message, http.StatusNotFound, err)
}

// Conflict creates a 409 error
func Conflict(message string, err error) *AppError {
	return NewAppError("CONFLICT", message, http.StatusConflict, err)
}

// Internal creates a 500 error. Storage and other infrastructure failures
// surface through this constructor and never through a domain code.
func Internal(message string, err error) *AppError {
	return NewAppError("INTERNAL_ERROR", message, http.StatusInternalServerError, err)
}

// ServiceUnavailable creates a 503 error
func ServiceUnavailable(message string, err error) *AppError {
	return NewAppError("SERVICE_UNAVAILABLE", message, http.StatusServiceUnavailable, err)
}

// Domain-specific errors

var (
	ErrInvalidLocation       = NewAppError("INVALID_LOCATION", "Invalid location coordinates", http.StatusBadRequest, nil)
	ErrUnauthorized          = NewAppError("UNAUTHORIZED", "Authentication credentials were not provided", http.StatusUnauthorized, nil)
	ErrForbidden             = NewAppError("FORBIDDEN", "You do not have permission to perform this action", http.StatusForbidden, nil)
	ErrRideNotFound          = NewAppError("RIDE_NOT_FOUND", "Ride not found", http.StatusNotFound, nil)
	ErrRideNotCompleted      = NewAppError("RIDE_NOT_COMPLETED", "Ride is not completed", http.StatusConflict, nil)
	ErrFareAlreadySet        = NewAppError("FARE_ALREADY_SET", "Fare has already been calculated for this ride", http.StatusConflict, nil)
	ErrAlreadyPaid           = NewAppError("ALREADY_PAID", "Ride has already been paid", http.StatusConflict, nil)
	ErrPaymentMethodRequired = NewAppError("PAYMENT_METHOD_REQUIRED", "Payment method is required when marking a ride as paid", http.StatusBadRequest, nil)
	ErrGenerationExhausted   = NewAppError("GENERATION_EXHAUSTED", "Unable to generate a unique identifier", http.StatusServiceUnavailable, nil)

	ErrDriverNotFound       = NewAppError("DRIVER_NOT_FOUND", "Driver not found", http.StatusNotFound, nil)
	ErrDriverNotAvailable   = NewAppError("DRIVER_NOT_AVAILABLE", "Driver is not available", http.StatusConflict, nil)
	ErrNoDriverProfile      = NewAppError("NO_DRIVER_PROFILE", "A driver profile is required", http.StatusForbidden, nil)
	ErrNoRiderProfile       = NewAppError("NO_RIDER_PROFILE", "A rider profile is required", http.StatusForbidden, nil)
	ErrInvalidStatus        = NewAppError("INVALID_STATUS", "Invalid status transition", http.StatusConflict, nil)
	ErrInvalidRide          = NewAppError("INVALID_RIDE", "Invalid ride request", http.StatusBadRequest, nil)
	ErrInvalidPaymentMethod = NewAppError("INVALID_PAYMENT_METHOD", "Invalid payment method", http.StatusBadRequest, nil)
	ErrInvalidPaymentStatus = NewAppError("INVALID_PAYMENT_STATUS", "Invalid payment status", http.StatusBadRequest, nil)

	ErrDuplicateRequest  = Conflict("Duplicate request detected", nil)
	ErrRateLimitExceeded = &AppError{
		Code:    "RATE_LIMIT_EXCEEDED",
		Message: "Rate limit exceeded. Please try again later",
		Status:  http.StatusTooManyRequests,
	}
)

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError attempts to convert an error to AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	// Return generic internal error if not an AppError
	return Internal("An unexpected error occurred", err)
}

// WithDetail returns a copy of a sentinel carrying a more specific message.
// The copy still satisfies errors.Is against the sentinel.
func WithDetail(appErr *AppError, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    appErr.Code,
		Message: fmt.Sprintf(format, args...),
		Status:  appErr.Status,
		Err:     appErr.Err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapAppError wraps an AppError with additional context
func WrapAppError(appErr *AppError, message string) *AppError {
	if appErr == nil {
		return nil
	}
	return &AppError{
		Code:    appErr.Code,
		Message: fmt.Sprintf("%s: %s", message, appErr.Message),
		Status:  appErr.Status,
		Err:     appErr.Err,
	}
}
