// Package reschedule moves a booking to a new flight day and notifies the
// people involved.
package reschedule

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"

	"github.com/angelmondragon/tandemflight-backend/internal/bookings"
	"github.com/angelmondragon/tandemflight-backend/internal/history"
	"github.com/angelmondragon/tandemflight-backend/internal/notifications"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

type committer interface {
	Commit(ctx context.Context, m bookings.Mutation) (*models.Booking, error)
}

type pilotDirectory interface {
	GetPilot(ctx context.Context, id uuid.UUID) (*models.Pilot, error)
}

type notifier interface {
	Notify(ctx context.Context, msgs ...notifications.Message)
}

type Input struct {
	BookingID uuid.UUID
	NewDate   time.Time
	Reason    string
	// Reasons carries the reason translated per locale.
	Reasons         types.LocaleText
	NotifyCustomer  bool
	NotifyPilot     bool
	ExpectedVersion *int64
	Actor           types.Actor
}

type Service interface {
	Reschedule(ctx context.Context, input Input) (*models.Booking, error)
}

type service struct {
	committer committer
	pilots    pilotDirectory
	notifier  notifier
	logg      *logger.Logger
	clock     func() time.Time
}

func NewService(c committer, pilots pilotDirectory, n notifier, logg *logger.Logger) (Service, error) {
	if c == nil {
		return nil, fmt.Errorf("mutation committer required")
	}
	if pilots == nil {
		return nil, fmt.Errorf("pilot directory required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		committer: c,
		pilots:    pilots,
		notifier:  n,
		logg:      logg,
		clock:     time.Now,
	}, nil
}

type dateValue struct {
	SelectedDate string `json:"selected_date"`
}

func (s *service) Reschedule(ctx context.Context, input Input) (*models.Booking, error) {
	if input.NewDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new date required")
	}
	newDate := now.With(input.NewDate.UTC()).BeginningOfDay()
	today := now.With(s.clock().UTC()).BeginningOfDay()
	if newDate.Before(today) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new date is in the past")
	}

	reasons := input.Reasons.Normalize()
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = reasons.Canonical()
	}
	var encodedReasons any
	if reasons != nil {
		raw, err := json.Marshal(reasons)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode reschedule reasons")
		}
		encodedReasons = string(raw)
	}

	var previous time.Time
	updated, err := s.committer.Commit(ctx, bookings.Mutation{
		BookingID:       input.BookingID,
		Actor:           input.Actor,
		ExpectedVersion: input.ExpectedVersion,
		Apply: func(ctx context.Context, booking *models.Booking) (*bookings.Change, error) {
			if booking.Status.IsTerminal() {
				return nil, pkgerrors.Conflict(pkgerrors.ConflictTerminalBooking, fmt.Sprintf("booking is %s", booking.Status))
			}
			previous = now.With(booking.SelectedDate.UTC()).BeginningOfDay()
			if newDate.Equal(previous) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "new date equals the current date")
			}

			updates := map[string]any{
				"selected_date":      newDate,
				"reschedule_count":   booking.RescheduleCount + 1,
				"reschedule_reason":  optional(reason),
				"reschedule_reasons": encodedReasons,
			}
			if booking.OriginalDate == nil {
				updates["original_date"] = previous
			}
			return &bookings.Change{
				Updates: updates,
				History: &history.Entry{
					Action:   enums.HistoryActionRescheduled,
					Reason:   reason,
					OldValue: dateValue{SelectedDate: previous.Format(time.DateOnly)},
					NewValue: dateValue{SelectedDate: newDate.Format(time.DateOnly)},
				},
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated, previous, input, reasons, reason)
	return updated, nil
}

func (s *service) notify(ctx context.Context, booking *models.Booking, previous time.Time, input Input, reasons types.LocaleText, reason string) {
	if s.notifier == nil {
		return
	}
	if reasons == nil && reason != "" {
		reasons = types.LocaleText{enums.FallbackLocale: reason}
	}
	params := map[string]string{
		"customer": booking.CustomerName,
		"flight":   booking.FlightTypeName,
		"location": booking.LocationName,
		"date":     booking.SelectedDate.Format(time.DateOnly),
		"old_date": previous.Format(time.DateOnly),
	}

	var msgs []notifications.Message
	if input.NotifyCustomer {
		msgs = append(msgs, notifications.Message{
			BookingID:     booking.ID,
			Template:      enums.NotificationTemplateBookingRescheduled,
			RecipientRole: enums.RecipientCustomer,
			Locale:        booking.CustomerLocale,
			Reason:        reasons,
			Params:        params,
		})
	}
	if input.NotifyPilot && booking.PilotID != nil {
		pilot, err := s.pilots.GetPilot(ctx, *booking.PilotID)
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "booking_id", booking.ID.String()), "pilot lookup for reschedule notice failed", err)
		} else {
			id := pilot.ID
			msgs = append(msgs, notifications.Message{
				BookingID:     booking.ID,
				Template:      enums.NotificationTemplateBookingRescheduled,
				RecipientRole: enums.RecipientPilot,
				RecipientID:   &id,
				Locale:        pilot.Locale,
				Reason:        reasons,
				Params:        params,
			})
		}
	}
	if len(msgs) > 0 {
		s.notifier.Notify(ctx, msgs...)
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
