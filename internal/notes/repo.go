package notes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
)

// Repository persists booking notes.
type Repository interface {
	Create(ctx context.Context, note *models.BookingNote) error
	FindByID(ctx context.Context, bookingID, noteID uuid.UUID) (*models.BookingNote, error)
	Delete(ctx context.Context, bookingID, noteID uuid.UUID) (bool, error)
	SetPinned(ctx context.Context, bookingID, noteID uuid.UUID, pinned bool) (bool, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNote, error)
	ListPinned(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNote, error)
	LatestUnpinned(ctx context.Context, bookingID uuid.UUID) (*models.BookingNote, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, note *models.BookingNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *repository) FindByID(ctx context.Context, bookingID, noteID uuid.UUID) (*models.BookingNote, error) {
	var note models.BookingNote
	err := r.db.WithContext(ctx).
		Where("id = ? AND booking_id = ?", noteID, bookingID).
		First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *repository) Delete(ctx context.Context, bookingID, noteID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND booking_id = ?", noteID, bookingID).
		Delete(&models.BookingNote{})
	return result.RowsAffected == 1, result.Error
}

func (r *repository) SetPinned(ctx context.Context, bookingID, noteID uuid.UUID, pinned bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BookingNote{}).
		Where("id = ? AND booking_id = ?", noteID, bookingID).
		UpdateColumn("pinned", pinned)
	return result.RowsAffected == 1, result.Error
}

// ListByBooking orders pinned notes first, each group newest first.
func (r *repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNote, error) {
	var rows []models.BookingNote
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("pinned DESC").
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListPinned(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNote, error) {
	var rows []models.BookingNote
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND pinned = ?", bookingID, true).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) LatestUnpinned(ctx context.Context, bookingID uuid.UUID) (*models.BookingNote, error) {
	var note models.BookingNote
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND pinned = ?", bookingID, false).
		Order("created_at DESC").
		Order("id DESC").
		First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}
