package bookings

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
)

// ChangeEvent is pushed to open admin sessions after a booking commit. It is
// a hint to refetch, never a source of truth.
type ChangeEvent struct {
	BookingID  uuid.UUID           `json:"booking_id"`
	Version    int64               `json:"version"`
	Action     string              `json:"action"`
	Status     enums.BookingStatus `json:"status"`
	OccurredAt time.Time           `json:"occurred_at"`
}

type channelPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type channelSubscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan string, func() error, error)
}

// Feed fans booking changes out over a Redis channel.
type Feed struct {
	publisher  channelPublisher
	subscriber channelSubscriber
	channel    string
	logg       *logger.Logger
}

// NewFeed builds a change feed. A nil publisher disables publishing.
func NewFeed(publisher channelPublisher, subscriber channelSubscriber, channel string, logg *logger.Logger) *Feed {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "tf:bookings:changes"
	}
	return &Feed{publisher: publisher, subscriber: subscriber, channel: channel, logg: logg}
}

// Publish sends a change event. Failures are logged and swallowed.
func (f *Feed) Publish(ctx context.Context, booking *models.Booking, action string) {
	if f == nil || f.publisher == nil || booking == nil {
		return
	}
	payload, err := json.Marshal(ChangeEvent{
		BookingID:  booking.ID,
		Version:    booking.Version,
		Action:     action,
		Status:     booking.Status,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := f.publisher.Publish(ctx, f.channel, payload); err != nil && f.logg != nil {
		logCtx := f.logg.WithFields(ctx, map[string]any{"booking_id": booking.ID.String(), "channel": f.channel})
		f.logg.Warn(logCtx, "booking change feed publish failed: "+err.Error())
	}
}

// Subscribe streams raw change payloads until ctx ends or close is called.
func (f *Feed) Subscribe(ctx context.Context) (<-chan string, func() error, error) {
	if f == nil || f.subscriber == nil {
		return nil, nil, errFeedUnavailable
	}
	return f.subscriber.Subscribe(ctx, f.channel)
}
