package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tandemflight"

// CronJobMetrics is a nil-safe recorder for scheduled job runs.
type CronJobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.CounterVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return nil
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron_job",
			Name:      "runs_total",
			Help:      "Cron job runs by outcome.",
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cron_job",
			Name:      "duration_seconds",
			Help:      "Wall time of one cron job run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}, []string{"job"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron_job",
			Name:      "rows_total",
			Help:      "Rows deleted or bookings nudged by cron jobs.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.duration, m.rows)
	return m
}

// ObserveRun records one finished run. Rows are counted even when the run
// failed part way.
func (m *CronJobMetrics) ObserveRun(job string, elapsed time.Duration, rows int64, err error) {
	if m == nil {
		return
	}
	job = normalizeLabel(job)
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.runs.WithLabelValues(job, outcome).Inc()
	m.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	if rows > 0 {
		m.rows.WithLabelValues(job).Add(float64(rows))
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
