package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/perpexbistro/ride-hailing/internal/api/handlers"
	"github.com/perpexbistro/ride-hailing/internal/api/middleware"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
	"github.com/perpexbistro/ride-hailing/pkg/monitoring"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether a backing service is reachable
type HealthChecker func(ctx context.Context) error

// Options carries the cross-cutting dependencies of the router
type Options struct {
	Tokens   middleware.TokenVerifier
	Resolver auth.Resolver
	Metrics  *monitoring.Metrics
	Logger   *logger.Logger

	// Idempotency is optional; nil disables replay on the payment route
	Idempotency    middleware.ResponseStore
	IdempotencyTTL time.Duration

	// Health checks run on GET /health, keyed by component name
	Health map[string]HealthChecker
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, nrApp *newrelic.Application, opts Options) {
	// Add New Relic middleware if enabled
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Metrics.Registry, promhttp.HandlerOpts{})))
	}
	r.Use(middleware.RequestLogger(opts.Logger))

	r.GET("/health", health(opts.Health))

	v1 := r.Group("/v1")
	v1.Use(middleware.Authenticate(opts.Tokens, opts.Resolver, opts.Logger))
	{
		rides := v1.Group("/rides")
		{
			rides.POST("", h.CreateRide)
			rides.POST("/nearby-drivers", h.NearbyDrivers)
			rides.GET("/:id", h.GetRide)
			rides.POST("/:id/assign", h.AssignDriver)
			rides.POST("/:id/complete", h.CompleteRide)
			rides.POST("/:id/cancel", h.CancelRide)
			rides.POST("/:id/fare", h.CalculateFare)
			rides.GET("/:id/receipt", h.Receipt)

			payment := []gin.HandlerFunc{h.MarkPaid}
			if opts.Idempotency != nil {
				payment = append([]gin.HandlerFunc{
					middleware.Idempotency(opts.Idempotency, opts.IdempotencyTTL, opts.Logger),
				}, payment...)
			}
			rides.POST("/:id/payment", payment...)
		}

		drivers := v1.Group("/drivers/me")
		{
			drivers.GET("/earnings", h.DriverEarnings)
			drivers.POST("/availability", h.SetAvailability)
			drivers.POST("/location", h.UpdateLocation)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/rides", h.RideHistory)
		}
	}
}

func health(checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}

		c.JSON(code, gin.H{"status": status, "components": components})
	}
}
