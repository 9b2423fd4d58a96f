package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Mutation outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// BookingMetrics tracks booking mutations and gateway refund calls.
type BookingMetrics struct {
	mutations      *prometheus.CounterVec
	refundLatency  *prometheus.HistogramVec
	notifyFailures *prometheus.CounterVec
}

// NewBookingMetrics registers the booking metrics on reg. A nil registerer
// yields a no-op recorder.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_mutations_total",
		Help:      "Booking mutations by action and outcome.",
	}, []string{"action", "outcome"})
	refundLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_refund_duration_seconds",
		Help:      "Latency of payment gateway refund calls including retries.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"outcome"})
	notifyFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_dispatch_failures_total",
		Help:      "Notifications that could not be enqueued after a committed mutation.",
	}, []string{"template"})
	reg.MustRegister(mutations, refundLatency, notifyFailures)
	return &BookingMetrics{
		mutations:      mutations,
		refundLatency:  refundLatency,
		notifyFailures: notifyFailures,
	}
}

func (m *BookingMetrics) ObserveMutation(action, outcome string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

func (m *BookingMetrics) ObserveRefund(outcome string, elapsed time.Duration) {
	if m == nil || m.refundLatency == nil {
		return
	}
	m.refundLatency.WithLabelValues(normalizeLabel(outcome)).Observe(elapsed.Seconds())
}

func (m *BookingMetrics) IncNotifyFailure(template string) {
	if m == nil || m.notifyFailures == nil {
		return
	}
	m.notifyFailures.WithLabelValues(normalizeLabel(template)).Inc()
}
