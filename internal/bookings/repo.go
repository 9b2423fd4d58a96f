package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/pagination"
)

// Repository defines persistence operations for the bookings table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateVersioned(ctx context.Context, id uuid.UUID, version int64, updates map[string]any, appendsHistory bool) (bool, error)
	MarkSeen(ctx context.Context, id uuid.UUID, column string) (bool, error)
	List(ctx context.Context, filters Filters, params pagination.Params) ([]models.Booking, error)
	ListPendingBetween(ctx context.Context, from, to time.Time, limit int) ([]models.Booking, error)
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

func (r *repository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateVersioned applies updates only when the stored version still equals
// version. It reports false when another writer got there first.
func (r *repository) UpdateVersioned(ctx context.Context, id uuid.UUID, version int64, updates map[string]any, appendsHistory bool) (bool, error) {
	assignments := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		assignments[k] = v
	}
	assignments["version"] = gorm.Expr("version + 1")
	if appendsHistory {
		assignments["history_count"] = gorm.Expr("history_count + 1")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND version = ?", id, version).
		Updates(assignments)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkSeen flips a seen column without touching the version. It reports
// whether the booking exists.
func (r *repository) MarkSeen(ctx context.Context, id uuid.UUID, column string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		UpdateColumn(column, true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, filters Filters, params pagination.Params) ([]models.Booking, error) {
	query := filters.Apply(r.db.WithContext(ctx).Model(&models.Booking{}))
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Booking
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

// ListPendingBetween returns pending bookings whose flight day falls in [from, to).
func (r *repository) ListPendingBetween(ctx context.Context, from, to time.Time, limit int) ([]models.Booking, error) {
	var rows []models.Booking
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.BookingStatusPending).
		Where("selected_date >= ? AND selected_date < ?", from, to).
		Order("selected_date ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}
