package main

import (
	"context"
	"errors"

	"github.com/angelmondragon/tandemflight-backend/internal/analytics"
	"github.com/angelmondragon/tandemflight-backend/pkg/bigquery"
	"github.com/angelmondragon/tandemflight-backend/pkg/bootstrap"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox/idempotency"
)

func main() {
	proc := bootstrap.Start("analytics-worker")
	cfg, logg := proc.Config, proc.Logger
	ctx := context.Background()

	if !cfg.FeatureFlags.AnalyticsExports {
		logg.Info(ctx, "analytics exports disabled; analytics worker exiting")
		return
	}

	redisClient := proc.Redis(ctx)
	pubsubClient := proc.PubSub(ctx)

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	proc.Must("bigquery", err)
	proc.OnClose("bigquery", bqClient.Close)

	subscription := pubsubClient.AnalyticsSubscription()
	if subscription == nil {
		proc.Must("analytics subscription", errors.New("subscription not configured"))
	}

	dedupe, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	proc.Must("idempotency manager", err)

	consumer, err := analytics.NewConsumer(bqClient, subscription, dedupe, logg)
	proc.Must("analytics consumer", err)

	runCtx, stop := proc.SignalContext()
	defer stop()
	logg.Info(runCtx, "analytics worker ready")
	proc.Wait(runCtx, consumer.Run(runCtx))
}
