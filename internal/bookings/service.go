// Package bookings owns the booking record: intake, status lifecycle,
// admin metadata, seen flags, filtering and the optimistic mutation committer
// shared with the reassignment, reschedule and refund services.
package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/internal/history"
	dbpkg "github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/money"
	"github.com/angelmondragon/tandemflight-backend/pkg/pagination"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

var errFeedUnavailable = errors.New("booking change feed unavailable")

type directoryReader interface {
	GetPilot(ctx context.Context, id uuid.UUID) (*models.Pilot, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

type highlightReader interface {
	Highlights(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNote, error)
}

// Service exposes booking intake, reads and the simple lifecycle mutations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Booking, error)
	Detail(ctx context.Context, bookingID uuid.UUID, actor types.Actor) (*Detail, error)
	List(ctx context.Context, filters Filters, params pagination.Params) (*pagination.Page[models.Booking], error)
	ChangeStatus(ctx context.Context, input ChangeStatusInput) (*models.Booking, error)
	UpdatePriority(ctx context.Context, input UpdatePriorityInput) (*models.Booking, error)
	UpdateTags(ctx context.Context, input UpdateTagsInput) (*models.Booking, error)
	UpdatePaymentStatus(ctx context.Context, input UpdatePaymentStatusInput) (*models.Booking, error)
	UpdateInternalNote(ctx context.Context, input UpdateInternalNoteInput) (*models.Booking, error)
	MarkSeen(ctx context.Context, bookingID uuid.UUID, actor types.Actor) error
}

type service struct {
	repo       Repository
	tx         txRunner
	committer  *Committer
	history    historyAppender
	directory  directoryReader
	highlights highlightReader
	feed       changePublisher
	now        func() time.Time
}

// ServiceParams groups the collaborators of the booking service.
type ServiceParams struct {
	Repo       Repository
	Tx         txRunner
	Committer  *Committer
	History    historyAppender
	Directory  directoryReader
	Highlights highlightReader
	Feed       changePublisher
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Committer == nil {
		return nil, fmt.Errorf("mutation committer required")
	}
	if p.History == nil {
		return nil, fmt.Errorf("history recorder required")
	}
	if p.Directory == nil {
		return nil, fmt.Errorf("resource directory required")
	}
	return &service{
		repo:       p.Repo,
		tx:         p.Tx,
		committer:  p.Committer,
		history:    p.History,
		directory:  p.Directory,
		highlights: p.Highlights,
		feed:       p.Feed,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Booking, error) {
	booking, err := s.buildBooking(ctx, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, booking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
		}
		_, err := s.history.Append(ctx, tx, booking, history.Entry{
			Action: enums.HistoryActionCreated,
			Actor:  input.Actor,
			NewValue: map[string]any{
				"status":        booking.Status,
				"selected_date": booking.SelectedDate.Format(time.DateOnly),
				"total_cents":   booking.TotalPriceCents,
				"deposit_cents": booking.DepositCents,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.feed != nil {
		s.feed.Publish(ctx, booking, string(enums.HistoryActionCreated))
	}
	return booking, nil
}

func (s *service) buildBooking(ctx context.Context, input CreateInput) (*models.Booking, error) {
	name := strings.TrimSpace(input.CustomerName)
	phone := strings.TrimSpace(input.CustomerPhone)
	switch {
	case name == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	case phone == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	case input.LocationID == uuid.Nil || input.FlightTypeID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location and flight type required")
	case input.SelectedDate.IsZero():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selected date required")
	case input.BasePriceCents <= 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	case input.DiscountPercent < 0 || input.DiscountPercent > 100:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	case input.DepositCents < 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit must not be negative")
	}

	selected := StartOfDay(input.SelectedDate)
	if selected.Before(StartOfDay(s.now())) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selected date is in the past")
	}

	partySize := input.PartySize
	if partySize == 0 {
		partySize = 1
	}
	if partySize < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party size must be positive")
	}

	total := int(money.ApplyPercent(int64(input.BasePriceCents), input.DiscountPercent))
	if input.DepositCents > total {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit exceeds total price")
	}

	contact := input.ContactMethod
	if contact == "" {
		contact = enums.ContactMethodPhone
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyEUR
	}
	source := input.Source
	if source == "" {
		source = enums.BookingSourcePlatform
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.BookingPriorityNormal
	}
	if !contact.IsValid() || !currency.IsValid() || !source.IsValid() || !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid contact method, currency, source or priority")
	}

	if input.PilotID != nil {
		if _, err := s.directory.GetPilot(ctx, *input.PilotID); err != nil {
			return nil, err
		}
	}
	if input.CompanyID != nil {
		if _, err := s.directory.GetCompany(ctx, *input.CompanyID); err != nil {
			return nil, err
		}
	}

	paymentStatus := enums.PaymentStatusUnpaid
	if input.DepositCents > 0 && input.GatewayPaymentID != nil && strings.TrimSpace(*input.GatewayPaymentID) != "" {
		paymentStatus = enums.PaymentStatusDepositPaid
	}

	now := s.now()
	booking := &models.Booking{
		ID:               uuid.New(),
		CustomerName:     name,
		CustomerPhone:    phone,
		CustomerEmail:    trimmedPtr(input.CustomerEmail),
		ContactMethod:    contact,
		CustomerLocale:   enums.MatchLocale(input.CustomerLocale),
		LocationID:       input.LocationID,
		LocationName:     strings.TrimSpace(input.LocationName),
		FlightTypeID:     input.FlightTypeID,
		FlightTypeName:   strings.TrimSpace(input.FlightTypeName),
		SelectedDate:     selected,
		PartySize:        partySize,
		SpecialRequest:   trimmedPtr(input.SpecialRequest),
		BasePriceCents:   input.BasePriceCents,
		DiscountCode:     trimmedPtr(input.DiscountCode),
		DiscountPercent:  input.DiscountPercent,
		TotalPriceCents:  total,
		Currency:         currency,
		DepositCents:     input.DepositCents,
		AmountDueCents:   total - input.DepositCents,
		PaymentStatus:    paymentStatus,
		RefundStatus:     enums.RefundStatusNone,
		GatewayPaymentID: trimmedPtr(input.GatewayPaymentID),
		Status:           enums.BookingStatusPending,
		Priority:         priority,
		Tags:             types.NormalizeTags(input.Tags),
		Source:           source,
		PilotID:          input.PilotID,
		CompanyID:        input.CompanyID,
		Version:          1,
		HistoryCount:     1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	switch input.Actor.Role {
	case enums.ActorRoleAdmin:
		booking.SeenByAdmin = true
	case enums.ActorRolePilot:
		booking.SeenByPilot = true
	case enums.ActorRoleCompany:
		booking.SeenByCompany = true
	}
	return booking, nil
}

func (s *service) Detail(ctx context.Context, bookingID uuid.UUID, actor types.Actor) (*Detail, error) {
	booking, err := s.loadVisible(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	if column, ok := actor.Role.SeenColumn(); ok && !booking.SeenBy(actor.Role) {
		if _, err := s.repo.MarkSeen(ctx, booking.ID, column); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark booking seen")
		}
		setSeen(booking, actor.Role)
	}

	detail := &Detail{Booking: booking, Highlights: []models.BookingNote{}}
	if actor.Role == enums.ActorRoleAdmin && s.highlights != nil {
		notes, err := s.highlights.Highlights(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		detail.Highlights = notes
	}
	return detail, nil
}

func (s *service) MarkSeen(ctx context.Context, bookingID uuid.UUID, actor types.Actor) error {
	column, ok := actor.Role.SeenColumn()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("role %q has no seen flag", actor.Role))
	}
	booking, err := s.loadVisible(ctx, bookingID, actor)
	if err != nil {
		return err
	}
	if booking.SeenBy(actor.Role) {
		return nil
	}
	found, err := s.repo.MarkSeen(ctx, booking.ID, column)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark booking seen")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return nil
}

// loadVisible loads a booking and hides it from pilots and companies it is
// not assigned to.
func (s *service) loadVisible(ctx context.Context, bookingID uuid.UUID, actor types.Actor) (*models.Booking, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, dbpkg.MapError(err, "booking not found", "load booking")
	}
	switch actor.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleSystem:
		return booking, nil
	case enums.ActorRolePilot:
		if actor.ID != nil && booking.PilotID != nil && *booking.PilotID == *actor.ID {
			return booking, nil
		}
	case enums.ActorRoleCompany:
		if actor.ID != nil && booking.CompanyID != nil && *booking.CompanyID == *actor.ID {
			return booking, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking is not assigned to caller")
}

func (s *service) List(ctx context.Context, filters Filters, params pagination.Params) (*pagination.Page[models.Booking], error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, dbpkg.MapError(err, "booking not found", "list bookings")
	}
	page := pagination.Build(rows, params.Limit, func(b models.Booking) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	return &page, nil
}

func (s *service) ChangeStatus(ctx context.Context, input ChangeStatusInput) (*models.Booking, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", input.Status))
	}
	return s.committer.Commit(ctx, Mutation{
		BookingID:       input.BookingID,
		Actor:           input.Actor,
		ExpectedVersion: input.ExpectedVersion,
		Apply: func(ctx context.Context, booking *models.Booking) (*Change, error) {
			if !booking.Status.CanTransitionTo(input.Status) {
				return nil, illegalTransition(booking.Status, input.Status)
			}
			return &Change{
				Updates: map[string]any{"status": input.Status},
				History: &history.Entry{
					Action:   input.Status.HistoryAction(),
					Reason:   input.Reason,
					OldValue: statusValue{Status: booking.Status},
					NewValue: statusValue{Status: input.Status},
				},
			}, nil
		},
	})
}

func illegalTransition(from, to enums.BookingStatus) error {
	allowed := from.AllowedTransitions()
	if allowed == nil {
		allowed = []enums.BookingStatus{}
	}
	reason := pkgerrors.ConflictIllegalTransition
	if from.IsTerminal() {
		reason = pkgerrors.ConflictTerminalBooking
	}
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("cannot move booking from %s to %s", from, to)).
		WithDetails(map[string]any{
			"reason":  reason,
			"from":    from,
			"to":      to,
			"allowed": allowed,
		})
}

func (s *service) UpdatePriority(ctx context.Context, input UpdatePriorityInput) (*models.Booking, error) {
	if !input.Priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid priority %q", input.Priority))
	}
	return s.committer.Commit(ctx, Mutation{
		BookingID:       input.BookingID,
		Actor:           input.Actor,
		ExpectedVersion: input.ExpectedVersion,
		Apply: func(ctx context.Context, booking *models.Booking) (*Change, error) {
			if booking.Priority == input.Priority {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "priority unchanged")
			}
			return &Change{
				Updates: map[string]any{"priority": input.Priority},
				History: &history.Entry{
					Action:   enums.HistoryActionPriorityChanged,
					OldValue: priorityValue{Priority: booking.Priority},
					NewValue: priorityValue{Priority: input.Priority},
				},
			}, nil
		},
	})
}

func (s *service) UpdateTags(ctx context.Context, input UpdateTagsInput) (*models.Booking, error) {
	tags := types.NormalizeTags(input.Tags)
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode tags")
	}
	return s.committer.Commit(ctx, Mutation{
		BookingID:       input.BookingID,
		Actor:           input.Actor,
		ExpectedVersion: input.ExpectedVersion,
		Apply: func(ctx context.Context, booking *models.Booking) (*Change, error) {
			current := types.NormalizeTags(booking.Tags)
			if slices.Equal(current, tags) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "tags unchanged")
			}
			return &Change{
				Updates: map[string]any{"tags": string(encoded)},
				History: &history.Entry{
					Action:   enums.HistoryActionTagsUpdated,
					OldValue: tagsValue{Tags: current},
					NewValue: tagsValue{Tags: tags},
				},
			}, nil
		},
	})
}

func (s *service) UpdatePaymentStatus(ctx context.Context, input UpdatePaymentStatusInput) (*models.Booking, error) {
	if !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", input.PaymentStatus))
	}
	if input.PaymentStatus == enums.PaymentStatusRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refunded is set by the refund operation")
	}
	return s.committer.Commit(ctx, Mutation{
		BookingID:       input.BookingID,
		Actor:           input.Actor,
		ExpectedVersion: input.ExpectedVersion,
		Apply: func(ctx context.Context, booking *models.Booking) (*Change, error) {
			if booking.PaymentStatus == enums.PaymentStatusRefunded {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit already refunded")
			}
			if booking.PaymentStatus == input.PaymentStatus {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment status unchanged")
			}
			due := amountDue(booking, input.PaymentStatus)
			return &Change{
				Updates: map[string]any{
					"payment_status":   input.PaymentStatus,
					"amount_due_cents": due,
				},
				History: &history.Entry{
					Action:   enums.HistoryActionPaymentUpdated,
					Reason:   input.Reason,
					OldValue: paymentValue{PaymentStatus: booking.PaymentStatus, AmountDueCents: booking.AmountDueCents},
					NewValue: paymentValue{PaymentStatus: input.PaymentStatus, AmountDueCents: due},
				},
			}, nil
		},
	})
}

func amountDue(booking *models.Booking, status enums.PaymentStatus) int {
	switch status {
	case enums.PaymentStatusPaid:
		return 0
	case enums.PaymentStatusDepositPaid:
		return booking.TotalPriceCents - booking.DepositCents
	default:
		return booking.TotalPriceCents
	}
}

func (s *service) UpdateInternalNote(ctx context.Context, input UpdateInternalNoteInput) (*models.Booking, error) {
	note := trimmedPtr(&input.Note)
	return s.committer.Commit(ctx, Mutation{
		BookingID:       input.BookingID,
		Actor:           input.Actor,
		ExpectedVersion: input.ExpectedVersion,
		Action:          "internal_note_updated",
		Apply: func(ctx context.Context, booking *models.Booking) (*Change, error) {
			return &Change{Updates: map[string]any{"internal_notes": note}}, nil
		},
	})
}

func setSeen(booking *models.Booking, role enums.ActorRole) {
	switch role {
	case enums.ActorRoleAdmin:
		booking.SeenByAdmin = true
	case enums.ActorRolePilot:
		booking.SeenByPilot = true
	case enums.ActorRoleCompany:
		booking.SeenByCompany = true
	}
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
