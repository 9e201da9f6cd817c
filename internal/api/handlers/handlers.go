package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/api/dto"
	"github.com/perpexbistro/ride-hailing/internal/api/middleware"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/internal/service/earnings"
	"github.com/perpexbistro/ride-hailing/internal/service/matching"
	"github.com/perpexbistro/ride-hailing/internal/service/payment"
	"github.com/perpexbistro/ride-hailing/internal/service/pricing"
	"github.com/perpexbistro/ride-hailing/internal/service/receipts"
	"github.com/perpexbistro/ride-hailing/internal/service/rides"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Rides    *rides.Service
	Matching *matching.Service
	Pricing  *pricing.Service
	Payments *payment.Service
	Earnings *earnings.Service
	Receipts *receipts.Service
	Logger   *logger.Logger
}

// respondError writes an AppError as {code, message}. Unknown errors become 500.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr.Status >= 500 {
		h.Logger.Error("Request failed",
			logger.String("path", c.FullPath()),
			logger.String("code", appErr.Code),
			logger.Err(err),
		)
	}
	c.JSON(appErr.Status, dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.respondError(c, apperrors.BadRequest("Invalid request payload: "+err.Error(), err))
}

// authenticated returns the caller, or writes UNAUTHORIZED when there is none.
// Handlers call it before reading the path or body.
func (h *Handlers) authenticated(c *gin.Context) (*auth.Caller, bool) {
	caller := middleware.CallerFrom(c)
	if err := auth.RequireAuthenticated(caller); err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return caller, true
}

// pathID parses the :id route parameter
func (h *Handlers) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, apperrors.BadRequest("Invalid ride id", err))
		return uuid.Nil, false
	}
	return id, true
}
