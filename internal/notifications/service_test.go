package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/internal/testdb"
	dbpkg "github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/metrics"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

func TestRenderFallsBackToEnglish(t *testing.T) {
	params := map[string]string{"customer": "Ana", "date": "2026-07-02", "old_date": "2026-07-01", "flight": "Classic", "location": "Oludeniz"}
	reason := types.LocaleText{enums.LocaleEN: "wind", enums.LocaleES: "viento"}

	title, body, err := Render(enums.NotificationTemplateBookingRescheduled, enums.LocaleES, params, reason)
	require.NoError(t, err)
	assert.Equal(t, "Tu vuelo ha sido reprogramado", title)
	assert.Contains(t, body, "Motivo: viento")
	assert.Contains(t, body, "2026-07-02")

	title, body, err = Render(enums.NotificationTemplateBookingRescheduled, enums.LocaleRU, params, reason)
	require.NoError(t, err)
	assert.Equal(t, "Your flight was rescheduled", title)
	assert.Contains(t, body, "Reason: wind")

	_, _, err = Render("unknown", enums.LocaleEN, nil, nil)
	require.Error(t, err)
}

func TestEveryTemplateHasEnglishCopy(t *testing.T) {
	for _, template := range enums.NotificationTemplates() {
		_, body, err := Render(template, enums.LocaleEN, nil, nil)
		require.NoError(t, err, template)
		assert.NotEmpty(t, body)
	}
}

func newDispatcher(t *testing.T, conn *gorm.DB, m *metrics.BookingMetrics) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(dbpkg.NewFromConn(conn), outbox.NewService(outbox.NewRepository(conn), nil), m, nil)
	require.NoError(t, err)
	return d
}

func TestDispatcherSendQueuesOutboxEvent(t *testing.T) {
	conn := testdb.Open(t)
	d := newDispatcher(t, conn, nil)
	bookingID := uuid.New()

	err := d.Send(context.Background(), Message{
		BookingID:     bookingID,
		Template:      enums.NotificationTemplateBookingRefunded,
		RecipientRole: enums.RecipientCustomer,
		Locale:        "xx",
		Params:        map[string]string{"amount": "50.00 EUR"},
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventNotificationRequested, rows[0].EventType)
	assert.Equal(t, bookingID, rows[0].AggregateID)

	var payload payloads.NotificationRequestedEvent
	_, err = outbox.DecodeEnvelope(rows[0].Payload, &payload)
	require.NoError(t, err)
	assert.Equal(t, enums.FallbackLocale, payload.Locale)
	assert.Equal(t, "50.00 EUR", payload.Params["amount"])
}

func TestDispatcherRejectsInvalidMessages(t *testing.T) {
	conn := testdb.Open(t)
	d := newDispatcher(t, conn, nil)

	err := d.Send(context.Background(), Message{
		BookingID:     uuid.New(),
		Template:      enums.NotificationTemplateBookingAssigned,
		RecipientRole: enums.RecipientPilot,
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestDispatcherSendOnceDedupes(t *testing.T) {
	conn := testdb.Open(t)
	d := newDispatcher(t, conn, nil)
	companyID := uuid.New()
	msg := Message{
		BookingID:     uuid.New(),
		Template:      enums.NotificationTemplatePendingNudge,
		RecipientRole: enums.RecipientCompany,
		RecipientID:   &companyID,
		Locale:        enums.LocaleTR,
	}

	for i, want := range []bool{true, false} {
		var queued bool
		err := conn.Transaction(func(tx *gorm.DB) error {
			var err error
			queued, err = d.SendOnce(context.Background(), tx, msg)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, want, queued, "attempt %d", i)
	}

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("aggregate_id = ?", OnceKey(msg.BookingID, msg.Template)).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

type failingTx struct{}

func (failingTx) WithTx(context.Context, func(tx *gorm.DB) error) error {
	return errors.New("db down")
}

func TestNotifySwallowsFailuresAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	d, err := NewDispatcher(failingTx{}, outbox.NewService(nil, nil), m, logger.Nop())
	require.NoError(t, err)

	d.Notify(context.Background(), Message{
		BookingID:     uuid.New(),
		Template:      enums.NotificationTemplateBookingRefunded,
		RecipientRole: enums.RecipientCustomer,
	})

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, family := range families {
		if strings.HasSuffix(family.GetName(), "notification_dispatch_failures_total") {
			found = true
			assert.EqualValues(t, 1, family.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}

type memoryStore struct {
	keys map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	return m.keys[key], nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = "1"
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "tf:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func envelopeBytes(t *testing.T, eventID string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	out, err := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: eventID, OccurredAt: time.Now().UTC(), Data: raw})
	require.NoError(t, err)
	return out
}

func TestConsumerRecordsOnceAndRendersInLocale(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	manager, err := idempotency.NewManager(&memoryStore{keys: map[string]string{}}, time.Hour)
	require.NoError(t, err)
	consumer := &Consumer{repo: repo, idempotency: manager, logg: logger.Nop()}

	bookingID := uuid.New()
	pilotID := uuid.New()
	eventID := uuid.NewString()
	data := envelopeBytes(t, eventID, payloads.NotificationRequestedEvent{
		BookingID:     bookingID,
		Template:      enums.NotificationTemplateBookingAssigned,
		RecipientRole: enums.RecipientPilot,
		RecipientID:   &pilotID,
		Locale:        enums.LocaleDE,
		Params:        map[string]string{"customer": "Ana", "flight": "Classic", "location": "Oludeniz", "date": "2026-07-01"},
	})

	ctx := context.Background()
	assert.Equal(t, ack, consumer.process(ctx, "m1", string(enums.EventNotificationRequested), data))
	assert.Equal(t, ack, consumer.process(ctx, "m2", string(enums.EventNotificationRequested), data))
	assert.Equal(t, ack, consumer.process(ctx, "m3", string(enums.EventBookingLifecycleRecorded), data))

	svc, err := NewService(repo)
	require.NoError(t, err)
	rows, err := svc.ListByBooking(ctx, bookingID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Neue Buchung zugewiesen", rows[0].Title)
	assert.Equal(t, "Ana fliegt Classic in Oludeniz am 2026-07-01.", rows[0].Body)
	assert.Equal(t, pilotID, *rows[0].RecipientID)
}

type flakyLog struct{ err error }

func (f flakyLog) Create(context.Context, *models.BookingNotification) error { return f.err }

func TestConsumerNacksOnStoreFailureAndAcksPoisonMessages(t *testing.T) {
	store := &memoryStore{keys: map[string]string{}}
	manager, err := idempotency.NewManager(store, time.Hour)
	require.NoError(t, err)
	consumer := &Consumer{repo: flakyLog{err: errors.New("db down")}, idempotency: manager, logg: logger.Nop()}
	ctx := context.Background()

	data := envelopeBytes(t, uuid.NewString(), payloads.NotificationRequestedEvent{
		BookingID:     uuid.New(),
		Template:      enums.NotificationTemplateBookingRefunded,
		RecipientRole: enums.RecipientCustomer,
		Locale:        enums.LocaleEN,
	})
	assert.Equal(t, redeliver, consumer.process(ctx, "m1", string(enums.EventNotificationRequested), data))
	assert.Empty(t, store.keys, "marker must be cleared for redelivery")

	assert.Equal(t, ack, consumer.process(ctx, "m2", string(enums.EventNotificationRequested), []byte("{")))

	unknown := envelopeBytes(t, uuid.NewString(), payloads.NotificationRequestedEvent{
		BookingID:     uuid.New(),
		Template:      "mystery",
		RecipientRole: enums.RecipientCustomer,
	})
	assert.Equal(t, ack, consumer.process(ctx, "m3", string(enums.EventNotificationRequested), unknown))
}

func TestConsumerAcksNonRetryableStoreErrors(t *testing.T) {
	manager, err := idempotency.NewManager(&memoryStore{keys: map[string]string{}}, time.Hour)
	require.NoError(t, err)
	rejected := pkgerrors.New(pkgerrors.CodeValidation, "recipient missing")
	consumer := &Consumer{repo: flakyLog{err: rejected}, idempotency: manager, logg: logger.Nop()}

	data := envelopeBytes(t, uuid.NewString(), payloads.NotificationRequestedEvent{
		BookingID:     uuid.New(),
		Template:      enums.NotificationTemplateBookingRefunded,
		RecipientRole: enums.RecipientCustomer,
		Locale:        enums.LocaleEN,
	})
	assert.Equal(t, ack, consumer.process(context.Background(), "m1", string(enums.EventNotificationRequested), data))
}

func TestDeleteOlderThan(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC()
	for _, created := range []time.Time{now.AddDate(0, 0, -100), now.AddDate(0, 0, -1)} {
		require.NoError(t, repo.Create(ctx, &models.BookingNotification{
			ID:            uuid.New(),
			EventID:       uuid.New(),
			BookingID:     uuid.New(),
			RecipientRole: enums.RecipientCustomer,
			Template:      enums.NotificationTemplateBookingRefunded,
			Locale:        enums.LocaleEN,
			Title:         "t",
			Body:          "b",
			CreatedAt:     created,
		}))
	}
	deleted, err := repo.DeleteOlderThan(ctx, nil, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}
