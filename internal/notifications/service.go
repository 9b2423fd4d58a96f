package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
)

// Service exposes the delivery log of a booking.
type Service interface {
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNotification, error)
}

type service struct {
	repo Repository
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNotification, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	rows, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	if rows == nil {
		rows = []models.BookingNotification{}
	}
	return rows, nil
}
