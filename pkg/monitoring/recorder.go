package monitoring

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recorder fans kernel events out to New Relic and Prometheus.
// A nil Recorder, or one with nil backends, drops events.
type Recorder struct {
	nr      *NewRelicApp
	metrics *Metrics
}

// NewRecorder creates a recorder; either backend may be nil
func NewRecorder(nr *NewRelicApp, metrics *Metrics) *Recorder {
	return &Recorder{nr: nr, metrics: metrics}
}

// FareCalculated records a persisted fare
func (r *Recorder) FareCalculated(rideID string, fare decimal.Decimal, distanceKM float64, surge decimal.Decimal) {
	if r == nil {
		return
	}
	amount := fare.InexactFloat64()
	if r.metrics != nil {
		r.metrics.FaresCalculated.Inc()
		r.metrics.FareAmount.Observe(amount)
	}
	r.nr.RecordCustomEvent("FareCalculated", map[string]interface{}{
		"ride_id":     rideID,
		"fare":        amount,
		"distance_km": distanceKM,
		"surge":       surge.InexactFloat64(),
	})
}

// PaymentRecorded records a payment write
func (r *Recorder) PaymentRecorded(rideID, method, status string, amount *decimal.Decimal) {
	if r == nil {
		return
	}
	if r.metrics != nil {
		r.metrics.RidesPaid.WithLabelValues(method, status).Inc()
	}
	params := map[string]interface{}{
		"ride_id": rideID,
		"method":  method,
		"status":  status,
	}
	if amount != nil {
		params["amount"] = amount.InexactFloat64()
	}
	r.nr.RecordCustomEvent("PaymentProcessed", params)
}

// NearbyQuery records a driver search and its latency
func (r *Recorder) NearbyQuery(results int, latency time.Duration) {
	if r == nil {
		return
	}
	if r.metrics != nil {
		r.metrics.NearbyQueries.Inc()
		r.metrics.NearbyResults.Observe(float64(results))
	}
	r.nr.RecordCustomMetric("custom/ride/matching_latency_ms", float64(latency.Microseconds())/1000)
}

// RideTransition records a ride reaching a status
func (r *Recorder) RideTransition(rideID, status string) {
	if r == nil {
		return
	}
	if r.metrics != nil {
		r.metrics.RideTransitions.WithLabelValues(status).Inc()
	}
	r.nr.RecordCustomEvent("RideTransition", map[string]interface{}{
		"ride_id": rideID,
		"status":  status,
	})
}

// IdentifierExhausted records a generation that ran out of attempts
func (r *Recorder) IdentifierExhausted() {
	if r == nil {
		return
	}
	if r.metrics != nil {
		r.metrics.IdentifierFailures.Inc()
	}
	r.nr.RecordCustomMetric("custom/identifier/exhausted", 1)
}

// Rejected records an operation refused with an error code
func (r *Recorder) Rejected(operation, code string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.Rejections.WithLabelValues(operation, code).Inc()
}
