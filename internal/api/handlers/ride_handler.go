package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/api/dto"
	"github.com/perpexbistro/ride-hailing/internal/service/rides"
	"github.com/perpexbistro/ride-hailing/pkg/geo"
)

// CreateRide handles POST /v1/rides
func (h *Handlers) CreateRide(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}

	var req dto.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	r, err := h.Rides.Request(c.Request.Context(), caller, rides.RequestInput{
		Pickup:         geo.Point{Latitude: *req.PickupLatitude, Longitude: *req.PickupLongitude},
		Dropoff:        geo.Point{Latitude: *req.DropoffLatitude, Longitude: *req.DropoffLongitude},
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewRideResponse(r))
}

// GetRide handles GET /v1/rides/:id
func (h *Handlers) GetRide(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	r, err := h.Rides.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRideResponse(r))
}

// NearbyDrivers handles POST /v1/rides/nearby-drivers
func (h *Handlers) NearbyDrivers(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}

	var req dto.NearbyDriversRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	pickup := geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	candidates, err := h.Matching.FindNearby(c.Request.Context(), caller, pickup)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drivers": candidates,
		"count":   len(candidates),
	})
}

// AssignDriver handles POST /v1/rides/:id/assign
func (h *Handlers) AssignDriver(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req dto.AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	r, err := h.Rides.Assign(c.Request.Context(), caller, id, driverID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRideResponse(r))
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *Handlers) CompleteRide(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	r, err := h.Rides.Complete(c.Request.Context(), caller, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRideResponse(r))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *Handlers) CancelRide(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	r, err := h.Rides.Cancel(c.Request.Context(), caller, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRideResponse(r))
}
