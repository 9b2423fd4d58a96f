package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/tandemflight-backend/internal/bookings"
	"github.com/angelmondragon/tandemflight-backend/internal/cron"
	"github.com/angelmondragon/tandemflight-backend/internal/directory"
	"github.com/angelmondragon/tandemflight-backend/internal/notifications"
	"github.com/angelmondragon/tandemflight-backend/pkg/bootstrap"
	"github.com/angelmondragon/tandemflight-backend/pkg/config"
	"github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/metrics"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox"
)

func main() {
	proc := bootstrap.Start("cron-worker")
	cfg, logg := proc.Config, proc.Logger
	ctx := context.Background()

	dbClient := proc.DB(ctx)
	redisClient := proc.Redis(ctx)

	// one lock per environment so staging and prod workers never contend
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	proc.Must("cron lock", err)

	jobs, err := buildJobs(cfg, logg, dbClient)
	proc.Must("cron jobs", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	proc.Must("cron service", err)

	runCtx, stop := proc.SignalContext()
	defer stop()
	logg.Info(logg.WithField(runCtx, "jobs", len(jobs)), "starting cron worker")
	proc.Wait(runCtx, service.Run(runCtx))
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) ([]cron.Job, error) {
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	dispatcher, err := notifications.NewDispatcher(dbClient, outboxService, nil, logg)
	if err != nil {
		return nil, err
	}
	dir, err := directory.NewService(directory.NewRepository(dbClient.DB()))
	if err != nil {
		return nil, err
	}

	nudge, err := cron.NewPendingNudgeJob(cron.PendingNudgeJobParams{
		Logger:    logg,
		DB:        dbClient,
		Bookings:  bookings.NewRepository(dbClient.DB()),
		Sender:    dispatcher,
		Companies: dir,
		Ahead:     cfg.Notifications.PendingNudgeAhead,
	})
	if err != nil {
		return nil, err
	}

	notificationCleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: notifications.NewRepository(dbClient.DB()),
		Retention:  cfg.Notifications.Retention,
	})
	if err != nil {
		return nil, err
	}

	outboxRetention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outbox.NewRepository(dbClient.DB()),
		DeadLetters: outbox.NewDLQRepository(dbClient.DB()),
		Retention:   cfg.Outbox.Retention,
	})
	if err != nil {
		return nil, err
	}

	return []cron.Job{nudge, notificationCleanup, outboxRetention}, nil
}
