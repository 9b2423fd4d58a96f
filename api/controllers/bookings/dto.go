package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/internal/summary"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/money"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

type createBookingRequest struct {
	CustomerName     string   `json:"customer_name" validate:"required,max=200"`
	CustomerPhone    string   `json:"customer_phone" validate:"required,max=50"`
	CustomerEmail    *string  `json:"customer_email" validate:"omitempty,email"`
	ContactMethod    string   `json:"contact_method"`
	CustomerLocale   string   `json:"customer_locale"`
	LocationID       string   `json:"location_id" validate:"required,uuid"`
	LocationName     string   `json:"location_name" validate:"required"`
	FlightTypeID     string   `json:"flight_type_id" validate:"required,uuid"`
	FlightTypeName   string   `json:"flight_type_name" validate:"required"`
	SelectedDate     string   `json:"selected_date" validate:"required,calendar_date"`
	PartySize        int      `json:"party_size" validate:"omitempty,min=1,max=20"`
	SpecialRequest   *string  `json:"special_request" validate:"omitempty,max=2000"`
	BasePrice        string   `json:"base_price" validate:"required"`
	DiscountCode     *string  `json:"discount_code"`
	DiscountPercent  int      `json:"discount_percent" validate:"min=0,max=100"`
	Currency         string   `json:"currency"`
	Deposit          string   `json:"deposit"`
	GatewayPaymentID *string  `json:"gateway_payment_id"`
	Source           string   `json:"source"`
	Priority         string   `json:"priority"`
	Tags             []string `json:"tags" validate:"max=20"`
	PilotID          *string  `json:"pilot_id" validate:"omitempty,uuid"`
	CompanyID        *string  `json:"company_id" validate:"omitempty,uuid"`
}

// versioned is embedded by mutation requests. When set the write only
// applies to that booking version.
type versioned struct {
	ExpectedVersion *int64 `json:"expected_version" validate:"omitempty,min=1"`
}

type changeStatusRequest struct {
	versioned
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=1000"`
}

type reassignRequest struct {
	versioned
	PilotID   *string `json:"pilot_id" validate:"omitempty,uuid"`
	CompanyID *string `json:"company_id" validate:"omitempty,uuid"`
	Reason    string  `json:"reason" validate:"max=1000"`
}

type rescheduleRequest struct {
	versioned
	NewDate        string            `json:"new_date" validate:"required,calendar_date"`
	Reason         string            `json:"reason" validate:"max=1000"`
	Reasons        map[string]string `json:"reasons"`
	NotifyCustomer bool              `json:"notify_customer"`
	NotifyPilot    bool              `json:"notify_pilot"`
}

type refundRequest struct {
	versioned
	Type                 string `json:"type" validate:"required"`
	Amount               string `json:"amount"`
	Reason               string `json:"reason" validate:"max=1000"`
	ProcessGatewayRefund bool   `json:"process_gateway_refund"`
}

type priorityRequest struct {
	versioned
	Priority string `json:"priority" validate:"required"`
}

type tagsRequest struct {
	versioned
	Tags []string `json:"tags" validate:"max=20"`
}

type paymentStatusRequest struct {
	versioned
	PaymentStatus string `json:"payment_status" validate:"required"`
	Reason        string `json:"reason" validate:"max=1000"`
}

type internalNoteRequest struct {
	versioned
	Note string `json:"note" validate:"max=5000"`
}

type addNoteRequest struct {
	Text   string `json:"text" validate:"required,notblank,max=2000"`
	Type   string `json:"type"`
	Pinned bool   `json:"pinned"`
}

type pinNoteRequest struct {
	Pinned bool `json:"pinned"`
}

// BookingResponse is the wire form of a booking. Money is rendered as decimal
// strings in the booking currency.
type BookingResponse struct {
	ID                uuid.UUID             `json:"id"`
	CustomerName      string                `json:"customer_name"`
	CustomerPhone     string                `json:"customer_phone"`
	CustomerEmail     *string               `json:"customer_email,omitempty"`
	ContactMethod     enums.ContactMethod   `json:"contact_method"`
	CustomerLocale    enums.Locale          `json:"customer_locale"`
	LocationID        uuid.UUID             `json:"location_id"`
	LocationName      string                `json:"location_name"`
	FlightTypeID      uuid.UUID             `json:"flight_type_id"`
	FlightTypeName    string                `json:"flight_type_name"`
	SelectedDate      string                `json:"selected_date"`
	PartySize         int                   `json:"party_size"`
	SpecialRequest    *string               `json:"special_request,omitempty"`
	BasePrice         string                `json:"base_price"`
	DiscountCode      *string               `json:"discount_code,omitempty"`
	DiscountPercent   int                   `json:"discount_percent"`
	TotalPrice        string                `json:"total_price"`
	Currency          enums.Currency        `json:"currency"`
	Deposit           string                `json:"deposit"`
	AmountDue         string                `json:"amount_due"`
	PaymentStatus     enums.PaymentStatus   `json:"payment_status"`
	RefundStatus      enums.RefundStatus    `json:"refund_status"`
	Refunded          string                `json:"refunded"`
	RefundCount       int                   `json:"refund_count"`
	Status            enums.BookingStatus   `json:"status"`
	Priority          enums.BookingPriority `json:"priority"`
	Tags              []string              `json:"tags"`
	InternalNotes     *string               `json:"internal_notes,omitempty"`
	Source            enums.BookingSource   `json:"source"`
	PilotID           *uuid.UUID            `json:"pilot_id,omitempty"`
	CompanyID         *uuid.UUID            `json:"company_id,omitempty"`
	OriginalDate      *string               `json:"original_date,omitempty"`
	RescheduleCount   int                   `json:"reschedule_count"`
	RescheduleReason  *string               `json:"reschedule_reason,omitempty"`
	RescheduleReasons types.LocaleText      `json:"reschedule_reasons,omitempty"`
	SeenByAdmin       bool                  `json:"seen_by_admin"`
	SeenByPilot       bool                  `json:"seen_by_pilot"`
	SeenByCompany     bool                  `json:"seen_by_company"`
	Version           int64                 `json:"version"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// NoteResponse is the wire form of an admin note.
type NoteResponse struct {
	ID         uuid.UUID       `json:"id"`
	Text       string          `json:"text"`
	Type       enums.NoteType  `json:"type"`
	Pinned     bool            `json:"pinned"`
	AuthorID   *uuid.UUID      `json:"author_id,omitempty"`
	AuthorRole enums.ActorRole `json:"author_role"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DetailResponse bundles a booking with its note highlights.
type DetailResponse struct {
	Booking    BookingResponse `json:"booking"`
	Highlights []NoteResponse  `json:"highlights"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	Sequence  int64               `json:"sequence"`
	Action    enums.HistoryAction `json:"action"`
	ActorID   *uuid.UUID          `json:"actor_id,omitempty"`
	ActorRole enums.ActorRole     `json:"actor_role"`
	Reason    *string             `json:"reason,omitempty"`
	OldValue  any                 `json:"old_value,omitempty"`
	NewValue  any                 `json:"new_value,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// ListResponse is one page of bookings.
type ListResponse struct {
	Items      []BookingResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// SummaryResponse is the dashboard projection.
type SummaryResponse struct {
	Total        int64                         `json:"total"`
	ByStatus     map[enums.BookingStatus]int64 `json:"by_status"`
	Revenue      string                        `json:"revenue"`
	RevenueCents int64                         `json:"revenue_cents"`
}

func newBookingResponse(b *models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                b.ID,
		CustomerName:      b.CustomerName,
		CustomerPhone:     b.CustomerPhone,
		CustomerEmail:     b.CustomerEmail,
		ContactMethod:     b.ContactMethod,
		CustomerLocale:    b.CustomerLocale,
		LocationID:        b.LocationID,
		LocationName:      b.LocationName,
		FlightTypeID:      b.FlightTypeID,
		FlightTypeName:    b.FlightTypeName,
		SelectedDate:      b.SelectedDate.UTC().Format(time.DateOnly),
		PartySize:         b.PartySize,
		SpecialRequest:    b.SpecialRequest,
		BasePrice:         money.FormatCents(int64(b.BasePriceCents)),
		DiscountCode:      b.DiscountCode,
		DiscountPercent:   b.DiscountPercent,
		TotalPrice:        money.FormatCents(int64(b.TotalPriceCents)),
		Currency:          b.Currency,
		Deposit:           money.FormatCents(int64(b.DepositCents)),
		AmountDue:         money.FormatCents(int64(b.AmountDueCents)),
		PaymentStatus:     b.PaymentStatus,
		RefundStatus:      b.RefundStatus,
		Refunded:          money.FormatCents(int64(b.RefundedCents)),
		RefundCount:       b.RefundCount,
		Status:            b.Status,
		Priority:          b.Priority,
		Tags:              b.Tags,
		InternalNotes:     b.InternalNotes,
		Source:            b.Source,
		PilotID:           b.PilotID,
		CompanyID:         b.CompanyID,
		RescheduleCount:   b.RescheduleCount,
		RescheduleReason:  b.RescheduleReason,
		RescheduleReasons: b.RescheduleReasons,
		SeenByAdmin:       b.SeenByAdmin,
		SeenByPilot:       b.SeenByPilot,
		SeenByCompany:     b.SeenByCompany,
		Version:           b.Version,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if b.OriginalDate != nil {
		original := b.OriginalDate.UTC().Format(time.DateOnly)
		resp.OriginalDate = &original
	}
	return resp
}

// newAssigneeBookingResponse hides admin-only fields from pilots and companies.
func newAssigneeBookingResponse(b *models.Booking) BookingResponse {
	resp := newBookingResponse(b)
	resp.InternalNotes = nil
	return resp
}

func newNoteResponse(n models.BookingNote) NoteResponse {
	return NoteResponse{
		ID:         n.ID,
		Text:       n.Text,
		Type:       n.Type,
		Pinned:     n.Pinned,
		AuthorID:   n.AuthorID,
		AuthorRole: n.AuthorRole,
		CreatedAt:  n.CreatedAt,
	}
}

func newNoteResponses(notes []models.BookingNote) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, newNoteResponse(n))
	}
	return out
}

func newHistoryResponses(entries []models.BookingHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryResponse{
			Sequence:  e.Sequence,
			Action:    e.Action,
			ActorID:   e.ActorID,
			ActorRole: e.ActorRole,
			Reason:    e.Reason,
			OldValue:  rawOrNil(e.OldValue),
			NewValue:  rawOrNil(e.NewValue),
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func newSummaryResponse(s *summary.Summary) SummaryResponse {
	return SummaryResponse{
		Total:        s.Total,
		ByStatus:     s.ByStatus,
		Revenue:      money.FormatCents(s.RevenueCents),
		RevenueCents: s.RevenueCents,
	}
}
