package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/tandemflight-backend/api/routes"
	"github.com/angelmondragon/tandemflight-backend/internal/bookings"
	"github.com/angelmondragon/tandemflight-backend/internal/directory"
	"github.com/angelmondragon/tandemflight-backend/internal/history"
	"github.com/angelmondragon/tandemflight-backend/internal/notes"
	"github.com/angelmondragon/tandemflight-backend/internal/notifications"
	"github.com/angelmondragon/tandemflight-backend/internal/reassignment"
	"github.com/angelmondragon/tandemflight-backend/internal/refunds"
	"github.com/angelmondragon/tandemflight-backend/internal/reschedule"
	"github.com/angelmondragon/tandemflight-backend/internal/summary"
	"github.com/angelmondragon/tandemflight-backend/pkg/config"
	"github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/metrics"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox"
	"github.com/angelmondragon/tandemflight-backend/pkg/redis"
	"github.com/angelmondragon/tandemflight-backend/pkg/square"
)

// buildServices wires the booking domain onto the shared clients.
func buildServices(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	reg prometheus.Registerer,
) (routes.Services, error) {
	bookingMetrics := metrics.NewBookingMetrics(reg)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	recorder, err := history.NewRecorder(history.NewRepository(dbClient.DB()), outboxService)
	if err != nil {
		return routes.Services{}, fmt.Errorf("history recorder: %w", err)
	}

	dir, err := directory.NewService(directory.NewRepository(dbClient.DB()))
	if err != nil {
		return routes.Services{}, fmt.Errorf("directory: %w", err)
	}

	feed := bookings.NewFeed(redisClient, redisClient, cfg.Feed.Channel, logg)
	bookingRepo := bookings.NewRepository(dbClient.DB())

	committer, err := bookings.NewCommitter(bookingRepo, dbClient, recorder, feed, bookingMetrics, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("mutation committer: %w", err)
	}

	noteService, err := notes.NewService(notes.NewRepository(dbClient.DB()), bookingRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("notes: %w", err)
	}

	bookingService, err := bookings.NewService(bookings.ServiceParams{
		Repo:       bookingRepo,
		Tx:         dbClient,
		Committer:  committer,
		History:    recorder,
		Directory:  dir,
		Highlights: noteService,
		Feed:       feed,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("bookings: %w", err)
	}

	dispatcher, err := notifications.NewDispatcher(dbClient, outboxService, bookingMetrics, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("notification dispatcher: %w", err)
	}

	reassignService, err := reassignment.NewService(committer, dir, dispatcher)
	if err != nil {
		return routes.Services{}, fmt.Errorf("reassignment: %w", err)
	}

	rescheduleService, err := reschedule.NewService(committer, dir, dispatcher, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("reschedule: %w", err)
	}

	var gateway refunds.Gateway
	if cfg.FeatureFlags.GatewayRefunds && cfg.Square.AccessToken != "" {
		squareClient, err := square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			return routes.Services{}, fmt.Errorf("square client: %w", err)
		}
		squareGateway, err := refunds.NewSquareGateway(squareClient)
		if err != nil {
			return routes.Services{}, fmt.Errorf("square gateway: %w", err)
		}
		gateway = squareGateway
	} else {
		logg.Warn(ctx, "gateway refunds disabled; refunds are recorded without calling square")
	}

	refundService, err := refunds.NewService(refunds.ServiceParams{
		Committer: committer,
		Gateway:   gateway,
		Notifier:  dispatcher,
		Metrics:   bookingMetrics,
		Logger:    logg,
		Retry:     cfg.Refunds,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("refunds: %w", err)
	}

	summaryService, err := summary.NewService(dbClient.DB())
	if err != nil {
		return routes.Services{}, fmt.Errorf("summary: %w", err)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		return routes.Services{}, fmt.Errorf("notifications: %w", err)
	}

	return routes.Services{
		Bookings:      bookingService,
		Summary:       summaryService,
		Reassignment:  reassignService,
		Reschedule:    rescheduleService,
		Refunds:       refundService,
		Notes:         noteService,
		History:       recorder,
		Notifications: notificationService,
		Feed:          feed,
	}, nil
}
