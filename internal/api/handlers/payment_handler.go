package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/perpexbistro/ride-hailing/internal/api/dto"
)

// CalculateFare handles POST /v1/rides/:id/fare
func (h *Handlers) CalculateFare(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	r, breakdown, err := h.Pricing.CalculateFare(c.Request.Context(), caller, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewFareResponse(r, breakdown))
}

// MarkPaid handles POST /v1/rides/:id/payment. Method and status strings are
// parsed by the service after the ride state checks.
func (h *Handlers) MarkPaid(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req dto.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	r, err := h.Payments.Settle(c.Request.Context(), caller, id, req.PaymentMethod, req.PaymentStatus)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRideResponse(r))
}

// Receipt handles GET /v1/rides/:id/receipt
func (h *Handlers) Receipt(c *gin.Context) {
	caller, ok := h.authenticated(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	receipt, err := h.Receipts.Receipt(c.Request.Context(), caller, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}
