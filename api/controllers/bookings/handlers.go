package bookings

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/api/responses"
	"github.com/angelmondragon/tandemflight-backend/api/validators"
	internalbookings "github.com/angelmondragon/tandemflight-backend/internal/bookings"
	"github.com/angelmondragon/tandemflight-backend/internal/summary"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/money"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

// HistoryLister reads a booking's audit trail.
type HistoryLister interface {
	ListHistory(ctx context.Context, bookingID uuid.UUID) ([]models.BookingHistory, error)
}

// Create registers a new booking from the admin console.
func Create(svc internalbookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Actor = actor

		booking, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newBookingResponse(booking))
	}
}

func (req createBookingRequest) toInput() (internalbookings.CreateInput, error) {
	selected, err := parseDate(req.SelectedDate, "selected_date")
	if err != nil {
		return internalbookings.CreateInput{}, err
	}
	base, err := parseAmount(req.BasePrice, "base_price")
	if err != nil {
		return internalbookings.CreateInput{}, err
	}
	var deposit int
	if strings.TrimSpace(req.Deposit) != "" {
		if deposit, err = parseAmount(req.Deposit, "deposit"); err != nil {
			return internalbookings.CreateInput{}, err
		}
	}
	pilotID, err := parseOptionalUUID(req.PilotID, "pilot_id")
	if err != nil {
		return internalbookings.CreateInput{}, err
	}
	companyID, err := parseOptionalUUID(req.CompanyID, "company_id")
	if err != nil {
		return internalbookings.CreateInput{}, err
	}

	return internalbookings.CreateInput{
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerEmail:    req.CustomerEmail,
		ContactMethod:    enums.ContactMethod(strings.TrimSpace(req.ContactMethod)),
		CustomerLocale:   req.CustomerLocale,
		LocationID:       uuid.MustParse(req.LocationID),
		LocationName:     req.LocationName,
		FlightTypeID:     uuid.MustParse(req.FlightTypeID),
		FlightTypeName:   req.FlightTypeName,
		SelectedDate:     selected,
		PartySize:        req.PartySize,
		SpecialRequest:   req.SpecialRequest,
		BasePriceCents:   base,
		DiscountCode:     req.DiscountCode,
		DiscountPercent:  req.DiscountPercent,
		Currency:         enums.Currency(strings.ToUpper(strings.TrimSpace(req.Currency))),
		DepositCents:     deposit,
		GatewayPaymentID: req.GatewayPaymentID,
		Source:           enums.BookingSource(strings.TrimSpace(req.Source)),
		Priority:         enums.BookingPriority(strings.TrimSpace(req.Priority)),
		Tags:             req.Tags,
		PilotID:          pilotID,
		CompanyID:        companyID,
	}, nil
}

// List returns a filtered, cursor-paginated page of bookings.
func List(svc internalbookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		filters, err := parseFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := ListResponse{
			Items:      make([]BookingResponse, 0, len(page.Items)),
			NextCursor: page.NextCursor,
		}
		for i := range page.Items {
			resp.Items = append(resp.Items, newBookingResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// Summary returns counts per status and revenue for the filtered set.
func Summary(svc summary.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "summary service unavailable"))
			return
		}
		filters, err := parseFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Summarize(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSummaryResponse(result))
	}
}

// Detail returns the booking with its note highlights and marks it seen for
// the caller's role.
func Detail(svc internalbookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		bookingID, err := pathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Detail(r.Context(), bookingID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, DetailResponse{
			Booking:    newBookingResponse(detail.Booking),
			Highlights: newNoteResponses(detail.Highlights),
		})
	}
}

// AssigneeDetail is Detail for pilots and companies. It only serves bookings
// assigned to the caller and hides admin-only fields.
func AssigneeDetail(svc internalbookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		bookingID, err := pathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Detail(r.Context(), bookingID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, DetailResponse{
			Booking:    newAssigneeBookingResponse(detail.Booking),
			Highlights: []NoteResponse{},
		})
	}
}

// MarkSeen sets the seen flag for the caller's role.
func MarkSeen(svc internalbookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		bookingID, err := pathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkSeen(r.Context(), bookingID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"booking_id": bookingID, "seen": true})
	}
}

// ChangeStatus moves the booking along the lifecycle state machine.
func ChangeStatus(svc internalbookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		bookingID, actor, ok := mutationTarget(w, r, logg)
		if !ok {
			return
		}

		var req changeStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseBookingStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		booking, err := svc.ChangeStatus(r.Context(), internalbookings.ChangeStatusInput{
			BookingID:       bookingID,
			Status:          status,
			Reason:          req.Reason,
			ExpectedVersion: req.ExpectedVersion,
			Actor:           actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookingResponse(booking))
	}
}

// UpdatePriority changes the triage priority.
func UpdatePriority(svc internalbookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		bookingID, actor, ok := mutationTarget(w, r, logg)
		if !ok {
			return
		}

		var req priorityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priority, err := enums.ParseBookingPriority(req.Priority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
			return
		}

		booking, err := svc.UpdatePriority(r.Context(), internalbookings.UpdatePriorityInput{
			BookingID:       bookingID,
			Priority:        priority,
			ExpectedVersion: req.ExpectedVersion,
			Actor:           actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookingResponse(booking))
	}
}

// UpdateTags replaces the booking's tag set.
func UpdateTags(svc internalbookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		bookingID, actor, ok := mutationTarget(w, r, logg)
		if !ok {
			return
		}

		var req tagsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.UpdateTags(r.Context(), internalbookings.UpdateTagsInput{
			BookingID:       bookingID,
			Tags:            req.Tags,
			ExpectedVersion: req.ExpectedVersion,
			Actor:           actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookingResponse(booking))
	}
}

// UpdatePaymentStatus records an offline payment state change.
func UpdatePaymentStatus(svc internalbookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		bookingID, actor, ok := mutationTarget(w, r, logg)
		if !ok {
			return
		}

		var req paymentStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentStatus, err := enums.ParsePaymentStatus(req.PaymentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		booking, err := svc.UpdatePaymentStatus(r.Context(), internalbookings.UpdatePaymentStatusInput{
			BookingID:       bookingID,
			PaymentStatus:   paymentStatus,
			Reason:          req.Reason,
			ExpectedVersion: req.ExpectedVersion,
			Actor:           actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookingResponse(booking))
	}
}

// UpdateInternalNote edits the single admin-only note field.
func UpdateInternalNote(svc internalbookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		bookingID, actor, ok := mutationTarget(w, r, logg)
		if !ok {
			return
		}

		var req internalNoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.UpdateInternalNote(r.Context(), internalbookings.UpdateInternalNoteInput{
			BookingID:       bookingID,
			Note:            req.Note,
			ExpectedVersion: req.ExpectedVersion,
			Actor:           actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookingResponse(booking))
	}
}

// History returns the booking's audit trail in commit order.
func History(lister HistoryLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "history unavailable"))
			return
		}
		bookingID, err := pathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := lister.ListHistory(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newHistoryResponses(entries))
	}
}

func mutationTarget(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, types.Actor, bool) {
	bookingID, err := pathUUID(r, "bookingId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, types.Actor{}, false
	}
	actor, err := requestActor(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, types.Actor{}, false
	}
	return bookingID, actor, true
}

func parseAmount(raw, field string) (int, error) {
	cents, err := money.ParseCents(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).
			WithDetails(map[string]any{"field": field})
	}
	return int(cents), nil
}
