package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tandemflight-backend/internal/testdb"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/pagination"
)

func TestFiltersValidate(t *testing.T) {
	bad := enums.BookingStatus("flying")
	require.Error(t, Filters{Status: &bad}.Validate())

	from := testdb.Day(2026, 5, 10)
	to := testdb.Day(2026, 5, 9)
	require.Error(t, Filters{DateFrom: &from, DateTo: &to}.Validate())

	same := testdb.Day(2026, 5, 10)
	require.NoError(t, Filters{DateFrom: &from, DateTo: &same}.Validate())
}

func TestListFiltersCombine(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	day := testdb.Day(2026, 7, 1)
	target := testdb.SeedBooking(t, conn, func(b *models.Booking) {
		b.CustomerName = "Zeynep 100%"
		b.SelectedDate = day
		b.Priority = enums.BookingPriorityHigh
	})
	testdb.SeedBooking(t, conn, func(b *models.Booking) {
		b.CustomerName = "Zeynep Other"
		b.SelectedDate = day.AddDate(0, 0, 2)
		b.Priority = enums.BookingPriorityHigh
	})
	testdb.SeedBooking(t, conn, func(b *models.Booking) {
		b.CustomerName = "Ana"
		b.SelectedDate = day
	})

	high := enums.BookingPriorityHigh
	to := day.Add(15 * time.Hour)
	rows, err := repo.List(ctx, Filters{Search: "zeynep", Priority: &high, DateFrom: &day, DateTo: &to}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, target.ID, rows[0].ID)

	rows, err = repo.List(ctx, Filters{Search: "100%"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, target.ID, rows[0].ID)

	rows, err = repo.List(ctx, Filters{Search: "600111"}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestListPendingBetween(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	tomorrow := testdb.Day(2026, 8, 2)

	pending := testdb.SeedBooking(t, conn, func(b *models.Booking) {
		b.Status = enums.BookingStatusPending
		b.SelectedDate = tomorrow
	})
	testdb.SeedBooking(t, conn, func(b *models.Booking) { b.SelectedDate = tomorrow })
	testdb.SeedBooking(t, conn, func(b *models.Booking) {
		b.Status = enums.BookingStatusPending
		b.SelectedDate = tomorrow.AddDate(0, 0, 1)
	})

	rows, err := repo.ListPendingBetween(context.Background(), tomorrow, tomorrow.AddDate(0, 0, 1), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, pending.ID, rows[0].ID)
}
