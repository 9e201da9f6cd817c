package dto

// CreateRideRequest represents a request to create a new ride. The surge
// multiplier is priced server side.
type CreateRideRequest struct {
	PickupLatitude   *float64 `json:"pickup_latitude" binding:"required"`
	PickupLongitude  *float64 `json:"pickup_longitude" binding:"required"`
	DropoffLatitude  *float64 `json:"dropoff_latitude" binding:"required"`
	DropoffLongitude *float64 `json:"dropoff_longitude" binding:"required"`
	PickupAddress    string   `json:"pickup_address"`
	DropoffAddress   string   `json:"dropoff_address"`
}

// NearbyDriversRequest carries the pickup point of a driver search
type NearbyDriversRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// AssignDriverRequest names the driver to dispatch
type AssignDriverRequest struct {
	DriverID string `json:"driver_id" binding:"required,uuid"`
}

// MarkPaidRequest records how a ride was settled. An empty status means PAID.
type MarkPaidRequest struct {
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
}

// UpdateLocationRequest represents a driver location update
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// AvailabilityRequest toggles whether the driver takes rides
type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}
