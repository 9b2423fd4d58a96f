// Package directory resolves pilots and companies owned by the catalog.
package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	dbpkg "github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
)

// Service is the read-only resource directory.
type Service interface {
	GetPilot(ctx context.Context, id uuid.UUID) (*models.Pilot, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("directory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetPilot(ctx context.Context, id uuid.UUID) (*models.Pilot, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pilot id required")
	}
	pilot, err := s.repo.FindPilot(ctx, id)
	if err != nil {
		return nil, dbpkg.MapError(err, "pilot not found", "load pilot")
	}
	return pilot, nil
}

func (s *service) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company id required")
	}
	company, err := s.repo.FindCompany(ctx, id)
	if err != nil {
		return nil, dbpkg.MapError(err, "company not found", "load company")
	}
	return company, nil
}
