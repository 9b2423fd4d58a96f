package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsLabelsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.ObserveRun("outbox-retention", 250*time.Millisecond, 4, nil)
	m.ObserveRun("outbox-retention", time.Second, 0, errors.New("db busy"))
	m.ObserveRun("", time.Millisecond, 0, nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	expectCounter(t, mfs, "tandemflight_cron_job_runs_total", 1, "job", "outbox-retention", "outcome", OutcomeSuccess)
	expectCounter(t, mfs, "tandemflight_cron_job_runs_total", 1, "job", "outbox-retention", "outcome", OutcomeError)
	expectCounter(t, mfs, "tandemflight_cron_job_runs_total", 1, "job", "unknown", "outcome", OutcomeSuccess)
	expectCounter(t, mfs, "tandemflight_cron_job_rows_total", 4, "job", "outbox-retention")

	sum, err := fetchHistogramSum(mfs, "tandemflight_cron_job_duration_seconds", "job", "outbox-retention")
	if err != nil {
		t.Fatalf("fetch duration: %v", err)
	}
	if sum != 1.25 {
		t.Fatalf("expected duration sum 1.25, got %f", sum)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewCronJobMetrics(nil).ObserveRun("x", time.Second, 1, nil)
	NewBookingMetrics(nil).ObserveMutation("refunded", OutcomeSuccess)
	var m *BookingMetrics
	m.ObserveRefund(OutcomeError, time.Second)
}

func expectCounter(t *testing.T, mfs []*dto.MetricFamily, name string, want float64, labels ...string) {
	t.Helper()
	got, err := fetchCounterValue(mfs, name, labels...)
	if err != nil {
		t.Fatalf("fetch %s: %v", name, err)
	}
	if got != want {
		t.Fatalf("expected %s=%v, got %v", name, want, got)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels ...string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels...) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramCount(mfs []*dto.MetricFamily, name string, labels ...string) (uint64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels...) {
			return metric.GetHistogram().GetSampleCount(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels ...string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels...) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

// matchesLabels expects name/value pairs.
func matchesLabels(pairs []*dto.LabelPair, labels ...string) bool {
	for i := 0; i+1 < len(labels); i += 2 {
		found := false
		for _, pair := range pairs {
			if pair.GetName() == labels[i] && pair.GetValue() == labels[i+1] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
