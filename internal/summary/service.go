// Package summary projects booking counts and revenue for the admin dashboard.
package summary

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/internal/bookings"
	dbpkg "github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
)

// Summary is computed from committed rows on every call.
type Summary struct {
	Total        int64                         `json:"total"`
	ByStatus     map[enums.BookingStatus]int64 `json:"by_status"`
	RevenueCents int64                         `json:"revenue_cents"`
}

type Service interface {
	Summarize(ctx context.Context, filters bookings.Filters) (*Summary, error)
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{db: db}, nil
}

type statusRow struct {
	Status     enums.BookingStatus
	Count      int64
	PriceCents int64
}

func (s *service) Summarize(ctx context.Context, filters bookings.Filters) (*Summary, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	var rows []statusRow
	query := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_price_cents), 0) AS price_cents")
	err := filters.Apply(query).Group("status").Scan(&rows).Error
	if err != nil {
		return nil, dbpkg.MapError(err, "bookings not found", "summarize bookings")
	}

	out := &Summary{ByStatus: make(map[enums.BookingStatus]int64, len(enums.BookingStatuses()))}
	for _, status := range enums.BookingStatuses() {
		out.ByStatus[status] = 0
	}
	for _, row := range rows {
		if !row.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown booking status %q", row.Status))
		}
		out.ByStatus[row.Status] = row.Count
		out.Total += row.Count
		if row.Status != enums.BookingStatusCancelled {
			out.RevenueCents += row.PriceCents
		}
	}
	return out, nil
}
