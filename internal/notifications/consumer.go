package notifications

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	dbpkg "github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox/payloads"
)

const notificationConsumer = "booking-notifications"

type deliveryLog interface {
	Create(ctx context.Context, notification *models.BookingNotification) error
}

type guard interface {
	Guard(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) error
}

// Consumer renders notification requests and records each delivery.
type Consumer struct {
	repo         deliveryLog
	subscription *pubsub.Subscriber
	idempotency  guard
	logg         *logger.Logger
}

// NewConsumer builds a notification consumer.
func NewConsumer(repo deliveryLog, subscription *pubsub.Subscriber, manager guard, logg *logger.Logger) (*Consumer, error) {
	switch {
	case repo == nil:
		return nil, errors.New("notifications repository required")
	case subscription == nil:
		return nil, errors.New("notification subscription required")
	case manager == nil:
		return nil, errors.New("idempotency manager required")
	case logg == nil:
		return nil, errors.New("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

type disposition int

const (
	ack disposition = iota
	redeliver
)

// Run receives until ctx is canceled. Poison messages are acked after
// logging; only transient failures are nacked.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		switch c.process(ctx, msg.ID, msg.Attributes["event_type"], msg.Data) {
		case redeliver:
			msg.Nack()
		default:
			msg.Ack()
		}
	})
}

func (c *Consumer) process(ctx context.Context, messageID, eventType string, data []byte) disposition {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Info(logCtx, "skipping non-notification event")
		return ack
	}

	var payload payloads.NotificationRequestedEvent
	envelope, err := outbox.DecodeEnvelope(data, &payload)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode notification request", err)
		return ack
	}
	eventID, err := envelope.ParsedEventID()
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return ack
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":   eventID.String(),
		"booking_id": payload.BookingID.String(),
		"template":   payload.Template,
	})

	err = c.idempotency.Guard(ctx, notificationConsumer, eventID, func(ctx context.Context) error {
		return c.deliver(ctx, eventID, payload)
	})
	switch {
	case err == nil:
		c.logg.Info(logCtx, "notification recorded")
		return ack
	case errors.Is(err, idempotency.ErrAlreadyProcessed):
		c.logg.Info(logCtx, "event already processed")
		return ack
	case errors.Is(err, errUnrenderable):
		c.logg.Error(logCtx, "notification cannot be rendered", err)
		return ack
	case !pkgerrors.Retryable(err):
		c.logg.Error(logCtx, "notification rejected", err)
		return ack
	default:
		c.logg.Error(logCtx, "notification handling failed", err)
		return redeliver
	}
}

var errUnrenderable = errors.New("unrenderable notification")

func (c *Consumer) deliver(ctx context.Context, eventID uuid.UUID, payload payloads.NotificationRequestedEvent) error {
	title, body, err := Render(payload.Template, payload.Locale, payload.Params, payload.Reason)
	if err != nil {
		return fmt.Errorf("%w: %v", errUnrenderable, err)
	}
	record := &models.BookingNotification{
		ID:            uuid.New(),
		EventID:       eventID,
		BookingID:     payload.BookingID,
		RecipientRole: payload.RecipientRole,
		RecipientID:   payload.RecipientID,
		Template:      payload.Template,
		Locale:        payload.Locale,
		Title:         title,
		Body:          body,
	}
	if err := c.repo.Create(ctx, record); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil
		}
		return err
	}
	return nil
}
