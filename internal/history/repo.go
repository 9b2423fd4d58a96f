package history

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
)

// Repository persists append-only history rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, entry *models.BookingHistory) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.BookingHistory, error)
	CountByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error)
	BookingExists(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, entry *models.BookingHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.BookingHistory, error) {
	var rows []models.BookingHistory
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("sequence ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CountByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BookingHistory{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error
	return count, err
}

func (r *repository) BookingExists(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Count(&count).Error
	return count > 0, err
}
