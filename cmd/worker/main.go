package main

import (
	"context"
	"errors"

	"github.com/angelmondragon/tandemflight-backend/internal/notifications"
	"github.com/angelmondragon/tandemflight-backend/pkg/bootstrap"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox/idempotency"
)

func main() {
	proc := bootstrap.Start("worker")
	ctx := context.Background()

	dbClient := proc.DB(ctx)
	redisClient := proc.Redis(ctx)
	pubsubClient := proc.PubSub(ctx)

	subscription := pubsubClient.NotificationSubscription()
	if subscription == nil {
		proc.Must("notification subscription", errors.New("subscription not configured"))
	}

	dedupe, err := idempotency.NewManager(redisClient, proc.Config.Eventing.OutboxIdempotencyTTL)
	proc.Must("idempotency manager", err)

	consumer, err := notifications.NewConsumer(
		notifications.NewRepository(dbClient.DB()),
		subscription,
		dedupe,
		proc.Logger,
	)
	proc.Must("notification consumer", err)

	service, err := NewService(ServiceParams{
		Config:               proc.Config,
		Logger:               proc.Logger,
		DB:                   dbClient,
		Redis:                redisClient,
		PubSub:               pubsubClient,
		NotificationConsumer: consumer,
	})
	proc.Must("worker service", err)

	runCtx, stop := proc.SignalContext()
	defer stop()
	proc.Logger.Info(runCtx, "notification worker ready")
	proc.Wait(runCtx, service.Run(runCtx))
}
