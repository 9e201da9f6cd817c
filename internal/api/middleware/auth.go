package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
)

const callerKey = "caller"

// TokenVerifier proves a bearer token
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// Authenticate resolves the bearer token into a Caller. Requests without a
// valid token pass through with no caller so each operation can decide.
func Authenticate(tokens TokenVerifier, resolver auth.Resolver, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		principal, err := tokens.Verify(token)
		if err != nil {
			log.Debug("Rejected bearer token", logger.Err(err))
			c.Next()
			return
		}

		caller, err := resolver.Resolve(c.Request.Context(), principal)
		if err != nil {
			log.Error("Failed to resolve caller",
				logger.Stringer("user_id", principal.UserID),
				logger.Err(err),
			)
			appErr := apperrors.Internal("Failed to resolve caller", err)
			c.AbortWithStatusJSON(appErr.Status, gin.H{"code": appErr.Code, "message": appErr.Message})
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the authenticated caller, or nil
func CallerFrom(c *gin.Context) *auth.Caller {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil
	}
	caller, _ := v.(*auth.Caller)
	return caller
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
