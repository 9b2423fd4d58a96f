package history

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/internal/testdb"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

func newRecorder(t *testing.T) (*gorm.DB, *Recorder) {
	t.Helper()
	conn := testdb.Open(t)
	recorder, err := NewRecorder(NewRepository(conn), outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	return conn, recorder
}

func appendEntry(conn *gorm.DB, recorder *Recorder, booking *models.Booking) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		_, err := recorder.Append(context.Background(), tx, booking, Entry{
			Action: enums.HistoryActionConfirmed,
			Actor:  types.NewActor(uuid.New(), enums.ActorRoleAdmin),
			Reason: "  weather  ",
		})
		return err
	})
}

func TestAppendUsesBookingHistoryCount(t *testing.T) {
	conn, recorder := newRecorder(t)
	booking := testdb.SeedBooking(t, conn, nil)
	booking.HistoryCount = 1

	require.NoError(t, appendEntry(conn, recorder, booking))

	entries, err := recorder.ListHistory(context.Background(), booking.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.EqualValues(t, 1, entries[0].Sequence)
	require.NotNil(t, entries[0].Reason)
	assert.Equal(t, "weather", *entries[0].Reason)

	var events int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("aggregate_id = ?", booking.ID).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestAppendDuplicateSequenceIsStaleVersion(t *testing.T) {
	conn, recorder := newRecorder(t)
	booking := testdb.SeedBooking(t, conn, nil)
	booking.HistoryCount = 1

	require.NoError(t, appendEntry(conn, recorder, booking))
	err := appendEntry(conn, recorder, booking)

	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, pkgerrors.ConflictStaleVersion, pkgerrors.ConflictReason(err))

	count, err := NewRepository(conn).CountByBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestAppendRejectsUnknownAction(t *testing.T) {
	conn, recorder := newRecorder(t)
	booking := testdb.SeedBooking(t, conn, nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := recorder.Append(context.Background(), tx, booking, Entry{Action: "teleported"})
		return err
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInternal))
}

func TestListHistory(t *testing.T) {
	conn, recorder := newRecorder(t)
	ctx := context.Background()

	t.Run("unknown booking", func(t *testing.T) {
		_, err := recorder.ListHistory(ctx, uuid.New())
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("booking without history", func(t *testing.T) {
		booking := testdb.SeedBooking(t, conn, nil)
		entries, err := recorder.ListHistory(ctx, booking.ID)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("nil id", func(t *testing.T) {
		_, err := recorder.ListHistory(ctx, uuid.Nil)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})
}
