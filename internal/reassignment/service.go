// Package reassignment moves a booking to another pilot or company.
package reassignment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/internal/bookings"
	"github.com/angelmondragon/tandemflight-backend/internal/history"
	"github.com/angelmondragon/tandemflight-backend/internal/notifications"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

type committer interface {
	Commit(ctx context.Context, m bookings.Mutation) (*models.Booking, error)
}

type resourceDirectory interface {
	GetPilot(ctx context.Context, id uuid.UUID) (*models.Pilot, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

type notifier interface {
	Notify(ctx context.Context, msgs ...notifications.Message)
}

// Input names exactly one new target.
type Input struct {
	BookingID       uuid.UUID
	PilotID         *uuid.UUID
	CompanyID       *uuid.UUID
	Reason          string
	ExpectedVersion *int64
	Actor           types.Actor
}

type Service interface {
	Reassign(ctx context.Context, input Input) (*models.Booking, error)
}

type service struct {
	committer committer
	directory resourceDirectory
	notifier  notifier
}

func NewService(c committer, dir resourceDirectory, n notifier) (Service, error) {
	if c == nil {
		return nil, fmt.Errorf("mutation committer required")
	}
	if dir == nil {
		return nil, fmt.Errorf("resource directory required")
	}
	return &service{committer: c, directory: dir, notifier: n}, nil
}

type assignment struct {
	PilotID   *uuid.UUID `json:"pilot_id"`
	CompanyID *uuid.UUID `json:"company_id"`
}

// target is the resolved assignee.
type target struct {
	id     uuid.UUID
	column string
	role   enums.RecipientRole
	locale enums.Locale
}

func (s *service) Reassign(ctx context.Context, input Input) (*models.Booking, error) {
	if (input.PilotID == nil) == (input.CompanyID == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of pilot_id or company_id is required")
	}
	tgt, err := s.resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	updated, err := s.committer.Commit(ctx, bookings.Mutation{
		BookingID:       input.BookingID,
		Actor:           input.Actor,
		ExpectedVersion: input.ExpectedVersion,
		Apply: func(ctx context.Context, booking *models.Booking) (*bookings.Change, error) {
			if booking.Status.IsTerminal() {
				return nil, pkgerrors.Conflict(pkgerrors.ConflictTerminalBooking, fmt.Sprintf("booking is %s", booking.Status))
			}
			current := booking.PilotID
			if tgt.role == enums.RecipientCompany {
				current = booking.CompanyID
			}
			if current != nil && *current == tgt.id {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking is already assigned to this target")
			}

			action := enums.HistoryActionReassigned
			if current == nil {
				action = enums.HistoryActionPilotAssigned
				if tgt.role == enums.RecipientCompany {
					action = enums.HistoryActionCompanyAssigned
				}
			}

			before := assignment{PilotID: booking.PilotID, CompanyID: booking.CompanyID}
			after := before
			id := tgt.id
			if tgt.role == enums.RecipientPilot {
				after.PilotID = &id
			} else {
				after.CompanyID = &id
			}
			return &bookings.Change{
				Updates: map[string]any{tgt.column: id},
				History: &history.Entry{
					Action:   action,
					Reason:   strings.TrimSpace(input.Reason),
					OldValue: before,
					NewValue: after,
				},
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		id := tgt.id
		s.notifier.Notify(ctx, notifications.Message{
			BookingID:     updated.ID,
			Template:      enums.NotificationTemplateBookingAssigned,
			RecipientRole: tgt.role,
			RecipientID:   &id,
			Locale:        tgt.locale,
			Params:        bookingParams(updated),
		})
	}
	return updated, nil
}

func (s *service) resolve(ctx context.Context, input Input) (target, error) {
	if input.PilotID != nil {
		pilot, err := s.directory.GetPilot(ctx, *input.PilotID)
		if err != nil {
			return target{}, err
		}
		if !pilot.Active {
			return target{}, pkgerrors.New(pkgerrors.CodeValidation, "pilot is inactive")
		}
		return target{id: pilot.ID, column: "pilot_id", role: enums.RecipientPilot, locale: pilot.Locale}, nil
	}
	company, err := s.directory.GetCompany(ctx, *input.CompanyID)
	if err != nil {
		return target{}, err
	}
	if !company.Active {
		return target{}, pkgerrors.New(pkgerrors.CodeValidation, "company is inactive")
	}
	return target{id: company.ID, column: "company_id", role: enums.RecipientCompany, locale: company.Locale}, nil
}

func bookingParams(b *models.Booking) map[string]string {
	return map[string]string{
		"customer": b.CustomerName,
		"flight":   b.FlightTypeName,
		"location": b.LocationName,
		"date":     b.SelectedDate.Format(time.DateOnly),
	}
}
