package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the ride kernel
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests       *prometheus.CounterVec
	HTTPRequestErrors  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec

	FaresCalculated    prometheus.Counter
	FareAmount         prometheus.Histogram
	RidesPaid          *prometheus.CounterVec
	NearbyQueries      prometheus.Counter
	NearbyResults      prometheus.Histogram
	RideTransitions    *prometheus.CounterVec
	IdentifierFailures prometheus.Counter
	Rejections         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_request_errors_total",
				Help: "Total number of HTTP request errors",
			},
			[]string{"method", "path", "status", "error_type"},
		),
		HTTPRequestSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		FaresCalculated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ride_fares_calculated_total",
			Help: "Fares persisted on completed rides",
		}),
		FareAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ride_fare_amount",
			Help:    "Distribution of persisted fares",
			Buckets: []float64{50, 100, 200, 400, 800, 1600, 3200},
		}),
		RidesPaid: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ride_payments_total",
				Help: "Payment records written, by method and status",
			},
			[]string{"method", "status"},
		),
		NearbyQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nearby_driver_queries_total",
			Help: "Nearby driver searches served",
		}),
		NearbyResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nearby_driver_results",
			Help:    "Number of drivers returned per search",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),
		RideTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ride_transitions_total",
				Help: "Ride status transitions",
			},
			[]string{"status"},
		),
		IdentifierFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identifier_generation_exhausted_total",
			Help: "Identifier generations that ran out of attempts",
		}),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ride_operation_rejections_total",
				Help: "Kernel operations rejected, by operation and error code",
			},
			[]string{"operation", "code"},
		),
	}

	m.Registry.MustRegister(
		m.HTTPRequests, m.HTTPRequestErrors, m.HTTPRequestSeconds,
		m.FaresCalculated, m.FareAmount, m.RidesPaid,
		m.NearbyQueries, m.NearbyResults, m.RideTransitions,
		m.IdentifierFailures, m.Rejections,
	)
	return m
}
