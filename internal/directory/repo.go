package directory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
)

// Repository reads the pilot and company directory tables.
type Repository interface {
	FindPilot(ctx context.Context, id uuid.UUID) (*models.Pilot, error)
	FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindPilot(ctx context.Context, id uuid.UUID) (*models.Pilot, error) {
	var pilot models.Pilot
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pilot).Error; err != nil {
		return nil, err
	}
	return &pilot, nil
}

func (r *repository) FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}
