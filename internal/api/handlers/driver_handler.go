package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/perpexbistro/ride-hailing/internal/api/dto"
)

// DriverEarnings handles GET /v1/drivers/me/earnings
func (h *Handlers) DriverEarnings(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}

	summary, err := h.Earnings.Summary(c.Request.Context(), caller)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewEarningsResponse(summary))
}

// SetAvailability handles POST /v1/drivers/me/availability
func (h *Handlers) SetAvailability(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}

	var req dto.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	d, err := h.Earnings.SetAvailability(c.Request.Context(), caller, *req.IsAvailable)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DriverStatusResponse{DriverID: d.ID, AvailabilityStatus: d.Status})
}

// UpdateLocation handles POST /v1/drivers/me/location
func (h *Handlers) UpdateLocation(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}

	var req dto.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	err := h.Earnings.UpdateLocation(c.Request.Context(), caller, *req.Latitude, *req.Longitude)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Location updated"})
}
