// Package testdb opens SQLite databases shaped like the Postgres schema for
// repository and service tests.
package testdb

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
)

var schema = []string{
	`CREATE TABLE companies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  locale TEXT NOT NULL DEFAULT 'en',
  active INTEGER NOT NULL DEFAULT 1
)`,
	`CREATE TABLE pilots (
  id TEXT PRIMARY KEY,
  company_id TEXT,
  display_name TEXT NOT NULL,
  locale TEXT NOT NULL DEFAULT 'en',
  active INTEGER NOT NULL DEFAULT 1
)`,
	`CREATE TABLE bookings (
  id TEXT PRIMARY KEY,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_email TEXT,
  contact_method TEXT NOT NULL DEFAULT 'phone',
  customer_locale TEXT NOT NULL DEFAULT 'en',
  location_id TEXT NOT NULL,
  location_name TEXT NOT NULL,
  flight_type_id TEXT NOT NULL,
  flight_type_name TEXT NOT NULL,
  selected_date DATETIME NOT NULL,
  party_size INTEGER NOT NULL DEFAULT 1,
  special_request TEXT,
  base_price_cents INTEGER NOT NULL,
  discount_code TEXT,
  discount_percent INTEGER NOT NULL DEFAULT 0,
  total_price_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'EUR',
  deposit_cents INTEGER NOT NULL DEFAULT 0,
  amount_due_cents INTEGER NOT NULL DEFAULT 0,
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  refund_status TEXT NOT NULL DEFAULT 'none',
  refunded_cents INTEGER NOT NULL DEFAULT 0 CHECK (refunded_cents <= deposit_cents),
  refund_count INTEGER NOT NULL DEFAULT 0,
  gateway_payment_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  priority TEXT NOT NULL DEFAULT 'normal',
  tags TEXT,
  internal_notes TEXT,
  source TEXT NOT NULL DEFAULT 'platform',
  pilot_id TEXT,
  company_id TEXT,
  original_date DATETIME,
  reschedule_count INTEGER NOT NULL DEFAULT 0,
  reschedule_reason TEXT,
  reschedule_reasons TEXT,
  seen_by_admin INTEGER NOT NULL DEFAULT 0,
  seen_by_pilot INTEGER NOT NULL DEFAULT 0,
  seen_by_company INTEGER NOT NULL DEFAULT 0,
  version INTEGER NOT NULL DEFAULT 1,
  history_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE booking_notes (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  text TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'info',
  pinned INTEGER NOT NULL DEFAULT 0,
  author_id TEXT,
  author_role TEXT NOT NULL,
  created_at DATETIME
)`,
	`CREATE TABLE booking_history (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  sequence INTEGER NOT NULL,
  action TEXT NOT NULL,
  actor_id TEXT,
  actor_role TEXT NOT NULL,
  reason TEXT,
  old_value TEXT,
  new_value TEXT,
  created_at DATETIME,
  CONSTRAINT uq_booking_history_sequence UNIQUE (booking_id, sequence)
)`,
	`CREATE TABLE booking_notifications (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL UNIQUE,
  booking_id TEXT NOT NULL,
  recipient_role TEXT NOT NULL,
  recipient_id TEXT,
  template TEXT NOT NULL,
  locale TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  created_at DATETIME
)`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
)`,
	`CREATE TABLE outbox_dlq (
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
)`,
}

// Open returns an isolated in-memory database with every table created.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	for _, ddl := range schema {
		require.NoError(t, conn.Exec(ddl).Error)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Day returns midnight UTC for the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedBooking inserts a confirmed booking with a 50.00 EUR deposit. mutate may
// adjust fields before insert.
func SeedBooking(t *testing.T, conn *gorm.DB, mutate func(*models.Booking)) *models.Booking {
	t.Helper()
	email := "ana@example.com"
	booking := &models.Booking{
		ID:              uuid.New(),
		CustomerName:    "Ana Lopez",
		CustomerPhone:   "+34600111222",
		CustomerEmail:   &email,
		ContactMethod:   enums.ContactMethodWhatsApp,
		CustomerLocale:  enums.LocaleES,
		LocationID:      uuid.New(),
		LocationName:    "Oludeniz",
		FlightTypeID:    uuid.New(),
		FlightTypeName:  "Classic 30 min",
		SelectedDate:    time.Now().UTC().AddDate(0, 0, 10).Truncate(24 * time.Hour),
		PartySize:       1,
		BasePriceCents:  15000,
		TotalPriceCents: 15000,
		Currency:        enums.CurrencyEUR,
		DepositCents:    5000,
		AmountDueCents:  10000,
		PaymentStatus:   enums.PaymentStatusDepositPaid,
		RefundStatus:    enums.RefundStatusNone,
		Status:          enums.BookingStatusConfirmed,
		Priority:        enums.BookingPriorityNormal,
		Tags:            []string{},
		Source:          enums.BookingSourcePlatform,
		Version:         1,
		HistoryCount:    0,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if mutate != nil {
		mutate(booking)
	}
	require.NoError(t, conn.Create(booking).Error)
	return booking
}

// SeedPilot inserts an active pilot.
func SeedPilot(t *testing.T, conn *gorm.DB, companyID *uuid.UUID, locale enums.Locale) *models.Pilot {
	t.Helper()
	pilot := &models.Pilot{ID: uuid.New(), CompanyID: companyID, DisplayName: "Pilot " + uuid.NewString()[:4], Locale: locale, Active: true}
	require.NoError(t, conn.Create(pilot).Error)
	return pilot
}

// SeedCompany inserts an active company.
func SeedCompany(t *testing.T, conn *gorm.DB, locale enums.Locale) *models.Company {
	t.Helper()
	company := &models.Company{ID: uuid.New(), Name: "Sky " + uuid.NewString()[:4], Locale: locale, Active: true}
	require.NoError(t, conn.Create(company).Error)
	return company
}
