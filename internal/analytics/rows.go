package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/angelmondragon/tandemflight-backend/pkg/outbox"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox/payloads"
)

// LifecycleRow is one booking_lifecycle_events row.
type LifecycleRow struct {
	EventID    string             `bigquery:"event_id"`
	BookingID  string             `bigquery:"booking_id"`
	Sequence   int64              `bigquery:"sequence"`
	Version    int64              `bigquery:"version"`
	Action     string             `bigquery:"action"`
	Status     string             `bigquery:"status"`
	ActorID    *string            `bigquery:"actor_id"`
	ActorRole  string             `bigquery:"actor_role"`
	Reason     *string            `bigquery:"reason"`
	OldValue   cbigquery.NullJSON `bigquery:"old_value"`
	NewValue   cbigquery.NullJSON `bigquery:"new_value"`
	OccurredAt time.Time          `bigquery:"occurred_at"`
	IngestedAt time.Time          `bigquery:"ingested_at"`
}

// BuildRow flattens a lifecycle event for insertion.
func BuildRow(envelope outbox.PayloadEnvelope, event payloads.BookingLifecycleEvent, ingestedAt time.Time) (*LifecycleRow, error) {
	if envelope.EventID == "" {
		return nil, fmt.Errorf("event id missing")
	}
	if !event.Action.IsValid() {
		return nil, fmt.Errorf("unknown history action %q", event.Action)
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = envelope.OccurredAt
	}

	row := &LifecycleRow{
		EventID:    envelope.EventID,
		BookingID:  event.BookingID.String(),
		Sequence:   event.Sequence,
		Version:    event.Version,
		Action:     string(event.Action),
		Status:     string(event.Status),
		ActorRole:  string(event.ActorRole),
		Reason:     event.Reason,
		OldValue:   nullJSON(event.OldValue),
		NewValue:   nullJSON(event.NewValue),
		OccurredAt: occurredAt.UTC(),
		IngestedAt: ingestedAt.UTC(),
	}
	if event.ActorID != nil {
		id := event.ActorID.String()
		row.ActorID = &id
	}
	return row, nil
}

func nullJSON(raw json.RawMessage) cbigquery.NullJSON {
	if len(raw) == 0 || string(raw) == "null" {
		return cbigquery.NullJSON{}
	}
	return cbigquery.NullJSON{JSONVal: string(raw), Valid: true}
}
