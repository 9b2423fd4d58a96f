package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records API request latency by route pattern.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "API request latency by route, method and status.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"route", "method", "status"})
	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "API requests currently being served.",
	})
	reg.MustRegister(duration, inflight)
	return &HTTPMetrics{duration: duration, inflight: inflight}
}

// Start marks a request in flight and returns the func that completes it.
func (m *HTTPMetrics) Start() func(route, method string, status int, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return func(string, string, int, time.Duration) {}
	}
	m.inflight.Inc()
	return func(route, method string, status int, elapsed time.Duration) {
		m.inflight.Dec()
		m.duration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
	}
}
