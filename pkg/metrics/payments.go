package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconciliationMetrics records the outcome mix and latency of payment
// verification calls.
type ReconciliationMetrics struct {
	verifyDuration *prometheus.HistogramVec
	outcomes       *prometheus.CounterVec
	webhooks       *prometheus.CounterVec
}

// NewReconciliationMetrics registers the reconciliation metrics on the
// provided registerer. A nil registerer yields a no-op recorder.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	verifyDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_verify_duration_seconds",
		Help:    "Duration of payment verification calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payment verification calls by outcome.",
	}, []string{"outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Provider webhook deliveries by disposition.",
	}, []string{"disposition"})
	reg.MustRegister(verifyDuration, outcomes, webhooks)
	return &ReconciliationMetrics{
		verifyDuration: verifyDuration,
		outcomes:       outcomes,
		webhooks:       webhooks,
	}
}

// ObserveVerify records one verification call with its outcome.
func (m *ReconciliationMetrics) ObserveVerify(outcome string, duration time.Duration) {
	if m == nil || m.verifyDuration == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.verifyDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.outcomes.WithLabelValues(label).Inc()
}

// IncWebhook counts one webhook delivery: accepted, duplicate, or rejected.
func (m *ReconciliationMetrics) IncWebhook(disposition string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(disposition)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
