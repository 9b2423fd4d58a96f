package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/metrics"
)

type fakeLock struct {
	acquired  bool
	releases  int
	extends   int
	extendErr error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Extend(context.Context) error {
	f.extends++
	if f.extendErr != nil {
		return f.extendErr
	}
	return nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name     string
	affected int64
	err      error
	runs     int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) (int64, error) {
	t.runs++
	return t.affected, t.err
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	success := &testJob{name: "success", affected: 4}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(success, failure),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	require.NoError(t, service.runCycle(context.Background()))
	assert.Equal(t, 1, success.runs)
	assert.Equal(t, 1, failure.runs)
	assert.Equal(t, 1, lock.releases)
	assert.Equal(t, 1, lock.extends, "lock is extended between jobs")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(mfs, "tandemflight_cron_job_runs_total", "success"))
	assert.Equal(t, 1.0, counterValue(mfs, "tandemflight_cron_job_runs_total", "fail"))
	assert.Equal(t, 4.0, counterValue(mfs, "tandemflight_cron_job_rows_total", "success"))
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	job := &testJob{name: "only"}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquired: true},
	})
	require.NoError(t, err)

	require.NoError(t, service.runCycle(context.Background()))
	assert.Zero(t, job.runs)
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "only"}
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Registry: NewRegistry(job), Lock: &fakeLock{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, service.Run(ctx), context.Canceled)
	assert.Equal(t, 1, job.runs, "the first cycle runs immediately")
}

func TestServiceStopsCycleWhenLockIsLost(t *testing.T) {
	first := &testJob{name: "first"}
	second := &testJob{name: "second"}
	lock := &fakeLock{extendErr: ErrLockLost}
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Registry: NewRegistry(first, second), Lock: lock})
	require.NoError(t, err)

	err = service.runCycle(context.Background())
	assert.ErrorIs(t, err, ErrLockLost)
	assert.Equal(t, 1, first.runs)
	assert.Zero(t, second.runs)
}

type dailyTestJob struct{ testJob }

func (d *dailyTestJob) Every() time.Duration { return dailyCadence }

func TestServiceRetriesFailedDailyJobNextCycle(t *testing.T) {
	now := time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)
	daily := &dailyTestJob{testJob{name: "outbox-retention", err: errors.New("db busy")}}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(daily),
		Lock:     &fakeLock{},
		Clock:    func() time.Time { return now },
	})
	require.NoError(t, err)

	require.NoError(t, service.runCycle(context.Background()))
	now = now.Add(time.Hour)
	daily.err = nil
	require.NoError(t, service.runCycle(context.Background()))
	now = now.Add(time.Hour)
	require.NoError(t, service.runCycle(context.Background()))

	assert.Equal(t, 2, daily.runs, "a failed run is retried, a successful one waits a day")
}

func counterValue(mfs []*dto.MetricFamily, name, job string) float64 {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, pair := range m.GetLabel() {
				if pair.GetName() == "job" && pair.GetValue() == job {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
