package payloads

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

// BookingLifecycleEvent mirrors one committed history entry.
type BookingLifecycleEvent struct {
	BookingID  uuid.UUID           `json:"booking_id"`
	Sequence   int64               `json:"sequence"`
	Version    int64               `json:"version"`
	Action     enums.HistoryAction `json:"action"`
	Status     enums.BookingStatus `json:"status"`
	ActorID    *uuid.UUID          `json:"actor_id,omitempty"`
	ActorRole  enums.ActorRole     `json:"actor_role"`
	Reason     *string             `json:"reason,omitempty"`
	OldValue   json.RawMessage     `json:"old_value,omitempty"`
	NewValue   json.RawMessage     `json:"new_value,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// NotificationRequestedEvent asks the notification worker to render and record a message.
type NotificationRequestedEvent struct {
	BookingID     uuid.UUID                  `json:"booking_id"`
	Template      enums.NotificationTemplate `json:"template"`
	RecipientRole enums.RecipientRole        `json:"recipient_role"`
	RecipientID   *uuid.UUID                 `json:"recipient_id,omitempty"`
	Locale        enums.Locale               `json:"locale"`
	Reason        types.LocaleText           `json:"reason,omitempty"`
	Params        map[string]string          `json:"params,omitempty"`
}
