package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/perpexbistro/ride-hailing/internal/api/middleware"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/internal/service/receipts"
)

// RideHistory handles GET /v1/admin/rides?status=&driver_id=&start_date=&end_date=
func (h *Handlers) RideHistory(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	// Reject non-admins before filter parsing so they cannot probe it.
	if err := auth.RequireAdmin(caller); err != nil {
		h.respondError(c, err)
		return
	}

	filter, err := receipts.ParseHistoryQuery(receipts.HistoryQuery{
		Status:    c.Query("status"),
		DriverID:  c.Query("driver_id"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	items, err := h.Receipts.History(c.Request.Context(), caller, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rides": items,
		"count": len(items),
	})
}
