package outbox

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
)

func openOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`).Error)
	require.NoError(t, conn.Exec(`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`).Error)
	return conn
}

func TestEmitStoresEnvelope(t *testing.T) {
	db := openOutboxDB(t)
	svc := NewService(NewRepository(db), nil)
	bookingID := uuid.New()
	actorID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventBookingLifecycleRecorded,
			AggregateType: enums.AggregateBooking,
			AggregateID:   bookingID,
			Actor:         &ActorRef{ActorID: &actorID, Role: "admin"},
			Data:          map[string]any{"booking_id": bookingID.String(), "sequence": 1},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)

	var data map[string]any
	envelope, err := DecodeEnvelope(rows[0].Payload, &data)
	require.NoError(t, err)
	assert.Equal(t, 1, envelope.Version)
	assert.Equal(t, bookingID.String(), data["booking_id"])
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actorID, *envelope.Actor.ActorID)
	_, err = envelope.ParsedEventID()
	assert.NoError(t, err)
}

func TestEmitRequiresTransactionAndValidTypes(t *testing.T) {
	db := openOutboxDB(t)
	svc := NewService(NewRepository(db), nil)

	assert.ErrorIs(t, svc.Emit(context.Background(), nil, DomainEvent{}), errTxRequired)
	err := svc.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.OutboxEventType("nope"),
		AggregateType: enums.AggregateBooking,
		AggregateID:   uuid.New(),
		Data:          map[string]string{},
	})
	assert.ErrorIs(t, err, errInvalidEventType)
	err = svc.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.OutboxAggregateType("flight"),
		AggregateID:   uuid.New(),
	})
	assert.ErrorIs(t, err, errInvalidAggregate)
}

func TestEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	db := openOutboxDB(t)
	svc := NewService(NewRepository(db), nil)
	event := DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   uuid.New(),
		Data:          map[string]string{"template": "booking_pending_nudge"},
	}

	created, err := svc.EmitIfNotExists(context.Background(), db, event)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EmitIfNotExists(context.Background(), db, event)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := openOutboxDB(t)
	repo := NewRepository(db)
	dlq := NewDLQRepository(db)

	first := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventBookingLifecycleRecorded, AggregateType: enums.AggregateBooking, AggregateID: uuid.New(), Payload: []byte(`{}`)}
	second := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventBookingLifecycleRecorded, AggregateType: enums.AggregateBooking, AggregateID: uuid.New(), Payload: []byte(`{}`), AttemptCount: 5}
	require.NoError(t, repo.Insert(db, first))
	require.NoError(t, repo.Insert(db, second))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)

	require.NoError(t, repo.MarkFailedTx(db, first.ID, errors.New("pubsub timeout")))
	var reloaded models.OutboxEvent
	require.NoError(t, db.First(&reloaded, "id = ?", first.ID).Error)
	assert.Equal(t, 1, reloaded.AttemptCount)
	require.NotNil(t, reloaded.LastError)
	assert.Equal(t, "pubsub timeout", *reloaded.LastError)

	require.NoError(t, repo.MarkPublishedTx(db, first.ID))
	rows, err = repo.FetchUnpublishedForPublish(db, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].ID)

	require.NoError(t, dlq.InsertTx(db, second, enums.OutboxDLQReasonMaxAttempts, errors.New("gave up")))
	require.NoError(t, repo.MarkTerminalTx(db, second.ID, errors.New("gave up")))
	entry, err := dlq.FindByEventID(context.Background(), second.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 6, entry.AttemptCount)

	deleted, err := repo.DeletePublishedBefore(nil, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	purged, err := dlq.DeleteBefore(context.Background(), time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}
