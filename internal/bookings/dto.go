package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

// CreateInput captures a booking intake.
type CreateInput struct {
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    *string
	ContactMethod    enums.ContactMethod
	CustomerLocale   string
	LocationID       uuid.UUID
	LocationName     string
	FlightTypeID     uuid.UUID
	FlightTypeName   string
	SelectedDate     time.Time
	PartySize        int
	SpecialRequest   *string
	BasePriceCents   int
	DiscountCode     *string
	DiscountPercent  int
	Currency         enums.Currency
	DepositCents     int
	GatewayPaymentID *string
	Source           enums.BookingSource
	Priority         enums.BookingPriority
	Tags             []string
	PilotID          *uuid.UUID
	CompanyID        *uuid.UUID
	Actor            types.Actor
}

type ChangeStatusInput struct {
	BookingID       uuid.UUID
	Status          enums.BookingStatus
	Reason          string
	ExpectedVersion *int64
	Actor           types.Actor
}

type UpdatePriorityInput struct {
	BookingID       uuid.UUID
	Priority        enums.BookingPriority
	ExpectedVersion *int64
	Actor           types.Actor
}

type UpdateTagsInput struct {
	BookingID       uuid.UUID
	Tags            []string
	ExpectedVersion *int64
	Actor           types.Actor
}

type UpdatePaymentStatusInput struct {
	BookingID       uuid.UUID
	PaymentStatus   enums.PaymentStatus
	Reason          string
	ExpectedVersion *int64
	Actor           types.Actor
}

type UpdateInternalNoteInput struct {
	BookingID       uuid.UUID
	Note            string
	ExpectedVersion *int64
	Actor           types.Actor
}

// Detail is the detail view of a booking.
type Detail struct {
	Booking    *models.Booking
	Highlights []models.BookingNote
}

type statusValue struct {
	Status enums.BookingStatus `json:"status"`
}

type priorityValue struct {
	Priority enums.BookingPriority `json:"priority"`
}

type tagsValue struct {
	Tags []string `json:"tags"`
}

type paymentValue struct {
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	AmountDueCents int                 `json:"amount_due_cents"`
}
