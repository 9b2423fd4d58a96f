// Package analytics streams booking lifecycle events into BigQuery.
package analytics

import (
	"context"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox/payloads"
)

const analyticsConsumerName = "analytics"

type rowWriter interface {
	InsertLifecycleRows(ctx context.Context, rows []any) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer writes lifecycle events to BigQuery while honoring Redis idempotency.
type Consumer struct {
	writer       rowWriter
	subscription *pubsub.Subscriber
	manager      idempotencyChecker
	logg         *logger.Logger
	now          func() time.Time
}

// NewConsumer builds a new analytics consumer.
func NewConsumer(writer rowWriter, subscription *pubsub.Subscriber, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if writer == nil {
		return nil, fmt.Errorf("bigquery writer required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("analytics subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		writer:       writer,
		subscription: subscription,
		manager:      manager,
		logg:         logg,
		now:          time.Now,
	}, nil
}

// Run starts consuming analytics messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes["event_type"], msg.Data) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process ingests one message and reports whether it should be redelivered.
func (c *Consumer) process(ctx context.Context, messageID, eventType string, data []byte) bool {
	fields := map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if eventType != string(enums.EventBookingLifecycleRecorded) {
		c.logg.Info(logCtx, "event not handled by analytics consumer")
		return false
	}

	var event payloads.BookingLifecycleEvent
	envelope, err := outbox.DecodeEnvelope(data, &event)
	if err != nil {
		fields["error"] = err.Error()
		c.logg.Warn(c.logg.WithFields(ctx, fields), "invalid analytics envelope")
		return false
	}
	eventID, err := envelope.ParsedEventID()
	if err != nil {
		c.logg.Warn(logCtx, "invalid event id")
		return false
	}
	fields["event_id"] = envelope.EventID
	fields["booking_id"] = event.BookingID.String()
	fields["action"] = event.Action
	logCtx = c.logg.WithFields(ctx, fields)

	row, err := BuildRow(envelope, event, c.now())
	if err != nil {
		c.logg.Error(logCtx, "failed to build lifecycle row", err)
		return false
	}

	already, err := c.manager.CheckAndMarkProcessed(logCtx, analyticsConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return true
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return false
	}

	if err := c.writer.InsertLifecycleRows(logCtx, []any{row}); err != nil {
		c.logg.Error(logCtx, "failed to insert lifecycle row", err)
		_ = c.manager.Delete(logCtx, analyticsConsumerName, eventID)
		return true
	}

	c.logg.Info(logCtx, "lifecycle event ingested")
	return false
}
