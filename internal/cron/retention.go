package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
)

const (
	defaultNotificationRetention = 90 * 24 * time.Hour
	defaultOutboxRetention       = 30 * 24 * time.Hour
)

type notificationsCleanupRepo interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type deadLetterRepo interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// sweep deletes one table's rows older than cutoff.
type sweep struct {
	name string
	run  func(ctx context.Context, cutoff time.Time) (int64, error)
}

// retentionJob runs every sweep with the same cutoff. A failing sweep does
// not stop the ones after it.
type retentionJob struct {
	name      string
	logg      *logger.Logger
	sweeps    []sweep
	retention time.Duration
	now       func() time.Time
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Every() time.Duration { return dailyCadence }

func (j *retentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	fields := map[string]any{"cutoff": cutoff, "retention": j.retention.String()}

	var total int64
	var errs error
	for _, s := range j.sweeps {
		n, err := s.run(ctx, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		fields[s.name+"_deleted"] = n
		total += n
	}

	logCtx := j.logg.WithFields(ctx, fields)
	if errs != nil {
		j.logg.Warn(logCtx, j.name+" finished with errors")
		return total, errs
	}
	j.logg.Info(logCtx, j.name+" complete")
	return total, nil
}

func inTx(db txRunner, fn func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)) func(context.Context, time.Time) (int64, error) {
	return func(ctx context.Context, cutoff time.Time) (int64, error) {
		var n int64
		err := db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			n, err = fn(ctx, tx, cutoff)
			return err
		})
		return n, err
	}
}

func retentionOrDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository notificationsCleanupRepo
	Retention  time.Duration
}

// NewNotificationCleanupJob drops notification records older than the
// retention window, 90 days by default.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("notifications repository required")
	}
	return &retentionJob{
		name:      "notification-cleanup",
		logg:      params.Logger,
		sweeps:    []sweep{{name: "notifications", run: inTx(params.DB, params.Repository.DeleteOlderThan)}},
		retention: retentionOrDefault(params.Retention, defaultNotificationRetention),
		now:       time.Now,
	}, nil
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	// DeadLetters is optional. When set, DLQ rows past the cutoff are dropped too.
	DeadLetters deadLetterRepo
	Retention   time.Duration
}

// NewOutboxRetentionJob drops published outbox rows, and optionally dead
// letters, older than the retention window.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	repo := params.Repository
	sweeps := []sweep{{
		name: "published_events",
		run: inTx(params.DB, func(_ context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
			return repo.DeletePublishedBefore(tx, cutoff)
		}),
	}}
	if params.DeadLetters != nil {
		sweeps = append(sweeps, sweep{name: "dead_letters", run: params.DeadLetters.DeleteBefore})
	}
	return &retentionJob{
		name:      "outbox-retention",
		logg:      params.Logger,
		sweeps:    sweeps,
		retention: retentionOrDefault(params.Retention, defaultOutboxRetention),
		now:       time.Now,
	}, nil
}
