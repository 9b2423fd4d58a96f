// Package notifications requests, renders and logs booking notifications.
// Requests travel through the outbox; the worker renders and records them.
package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/metrics"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (bool, error)
}

// Message is one notification request for one recipient.
type Message struct {
	BookingID     uuid.UUID
	Template      enums.NotificationTemplate
	RecipientRole enums.RecipientRole
	RecipientID   *uuid.UUID
	Locale        enums.Locale
	Reason        types.LocaleText
	Params        map[string]string
}

func (m Message) validate() error {
	if m.BookingID == uuid.Nil {
		return fmt.Errorf("booking id required")
	}
	if !m.Template.IsValid() {
		return fmt.Errorf("invalid template %q", m.Template)
	}
	if !m.RecipientRole.IsValid() {
		return fmt.Errorf("invalid recipient role %q", m.RecipientRole)
	}
	if m.RecipientRole != enums.RecipientCustomer && m.RecipientID == nil {
		return fmt.Errorf("%s recipient requires an id", m.RecipientRole)
	}
	return nil
}

func (m Message) event(aggregateID uuid.UUID) outbox.DomainEvent {
	locale := m.Locale
	if !locale.IsValid() {
		locale = enums.FallbackLocale
	}
	return outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   aggregateID,
		Data: payloads.NotificationRequestedEvent{
			BookingID:     m.BookingID,
			Template:      m.Template,
			RecipientRole: m.RecipientRole,
			RecipientID:   m.RecipientID,
			Locale:        locale,
			Reason:        m.Reason.Normalize(),
			Params:        m.Params,
		},
	}
}

// OnceKey is the aggregate id used for notifications that must be requested at
// most once per booking and template.
func OnceKey(bookingID uuid.UUID, template enums.NotificationTemplate) uuid.UUID {
	return uuid.NewSHA1(bookingID, []byte(template))
}

// Dispatcher queues notification requests on the outbox.
type Dispatcher struct {
	tx      txRunner
	outbox  eventEmitter
	metrics *metrics.BookingMetrics
	logg    *logger.Logger
}

func NewDispatcher(tx txRunner, emitter eventEmitter, m *metrics.BookingMetrics, logg *logger.Logger) (*Dispatcher, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{tx: tx, outbox: emitter, metrics: m, logg: logg}, nil
}

// Send queues msg in its own transaction.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification")
	}
	err := d.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return d.outbox.Emit(ctx, tx, msg.event(msg.BookingID))
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "queue notification")
	}
	return nil
}

// SendOnce queues msg inside tx unless the same booking/template pair was
// already requested. It reports whether a request was queued.
func (d *Dispatcher) SendOnce(ctx context.Context, tx *gorm.DB, msg Message) (bool, error) {
	if err := msg.validate(); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification")
	}
	return d.outbox.EmitIfNotExists(ctx, tx, msg.event(OnceKey(msg.BookingID, msg.Template)))
}

// Notify sends every message and only logs failures. Callers use it after a
// booking commit, where a dispatch failure must not surface.
func (d *Dispatcher) Notify(ctx context.Context, msgs ...Message) {
	if d == nil {
		return
	}
	for _, msg := range msgs {
		if err := d.Send(ctx, msg); err != nil {
			d.metrics.IncNotifyFailure(string(msg.Template))
			logCtx := d.logg.WithFields(ctx, map[string]any{
				"booking_id":     msg.BookingID.String(),
				"template":       msg.Template,
				"recipient_role": msg.RecipientRole,
			})
			d.logg.Error(logCtx, "notification dispatch failed", err)
		}
	}
}
