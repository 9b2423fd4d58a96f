// Package history records the immutable audit trail of booking mutations.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Entry describes one audit record before it is sequenced.
type Entry struct {
	Action   enums.HistoryAction
	Actor    types.Actor
	Reason   string
	OldValue any
	NewValue any
}

// Recorder appends history rows inside mutation transactions and mirrors
// each row to the outbox as a lifecycle event.
type Recorder struct {
	repo   Repository
	outbox outboxPublisher
	now    func() time.Time
}

func NewRecorder(repo Repository, outbox outboxPublisher) (*Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Recorder{
		repo:   repo,
		outbox: outbox,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Append writes the next history row for booking. The booking must already
// carry its post-mutation HistoryCount, so the new row takes that sequence.
func (r *Recorder) Append(ctx context.Context, tx *gorm.DB, booking *models.Booking, entry Entry) (*models.BookingHistory, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	if booking == nil {
		return nil, errors.New("booking required")
	}
	if !entry.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("invalid history action %q", entry.Action))
	}

	oldValue, err := marshalValue(entry.OldValue)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode history old value")
	}
	newValue, err := marshalValue(entry.NewValue)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode history new value")
	}

	role := entry.Actor.Role
	if role == "" {
		role = enums.ActorRoleSystem
	}
	row := &models.BookingHistory{
		ID:        uuid.New(),
		BookingID: booking.ID,
		Sequence:  booking.HistoryCount,
		Action:    entry.Action,
		ActorID:   entry.Actor.ID,
		ActorRole: role,
		Reason:    optionalString(entry.Reason),
		OldValue:  oldValue,
		NewValue:  newValue,
		CreatedAt: r.now(),
	}
	if err := r.repo.WithTx(tx).Insert(ctx, row); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Conflict(pkgerrors.ConflictStaleVersion, "booking was modified concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append booking history")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventBookingLifecycleRecorded,
		AggregateType: enums.AggregateBooking,
		AggregateID:   booking.ID,
		Actor:         &outbox.ActorRef{ActorID: entry.Actor.ID, Role: string(role)},
		OccurredAt:    row.CreatedAt,
		Data: payloads.BookingLifecycleEvent{
			BookingID:  booking.ID,
			Sequence:   row.Sequence,
			Version:    booking.Version,
			Action:     row.Action,
			Status:     booking.Status,
			ActorID:    row.ActorID,
			ActorRole:  row.ActorRole,
			Reason:     row.Reason,
			OldValue:   row.OldValue,
			NewValue:   row.NewValue,
			OccurredAt: row.CreatedAt,
		},
	}
	if err := r.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit lifecycle event")
	}
	return row, nil
}

// ListHistory returns the audit trail in commit order.
func (r *Recorder) ListHistory(ctx context.Context, bookingID uuid.UUID) ([]models.BookingHistory, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	rows, err := r.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list booking history")
	}
	if len(rows) > 0 {
		return rows, nil
	}
	exists, err := r.repo.BookingExists(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return []models.BookingHistory{}, nil
}

func marshalValue(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
