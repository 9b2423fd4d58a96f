package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

// Booking is a customer's reservation for a tandem flight.
type Booking struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerName   string              `gorm:"column:customer_name;not null"`
	CustomerPhone  string              `gorm:"column:customer_phone;not null"`
	CustomerEmail  *string             `gorm:"column:customer_email"`
	ContactMethod  enums.ContactMethod `gorm:"column:contact_method;type:contact_method;not null;default:'phone'"`
	CustomerLocale enums.Locale        `gorm:"column:customer_locale;type:text;not null;default:'en'"`

	LocationID     uuid.UUID `gorm:"column:location_id;type:uuid;not null"`
	LocationName   string    `gorm:"column:location_name;not null"`
	FlightTypeID   uuid.UUID `gorm:"column:flight_type_id;type:uuid;not null"`
	FlightTypeName string    `gorm:"column:flight_type_name;not null"`
	SelectedDate   time.Time `gorm:"column:selected_date;type:date;not null"`
	PartySize      int       `gorm:"column:party_size;not null;default:1"`
	SpecialRequest *string   `gorm:"column:special_request"`

	BasePriceCents   int                 `gorm:"column:base_price_cents;not null"`
	DiscountCode     *string             `gorm:"column:discount_code"`
	DiscountPercent  int                 `gorm:"column:discount_percent;not null;default:0"`
	TotalPriceCents  int                 `gorm:"column:total_price_cents;not null"`
	Currency         enums.Currency      `gorm:"column:currency;type:text;not null;default:'EUR'"`
	DepositCents     int                 `gorm:"column:deposit_cents;not null;default:0"`
	AmountDueCents   int                 `gorm:"column:amount_due_cents;not null;default:0"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	RefundStatus     enums.RefundStatus  `gorm:"column:refund_status;type:refund_status;not null;default:'none'"`
	RefundedCents    int                 `gorm:"column:refunded_cents;not null;default:0"`
	RefundCount      int                 `gorm:"column:refund_count;not null;default:0"`
	GatewayPaymentID *string             `gorm:"column:gateway_payment_id"`

	Status        enums.BookingStatus   `gorm:"column:status;type:booking_status;not null;default:'pending'"`
	Priority      enums.BookingPriority `gorm:"column:priority;type:booking_priority;not null;default:'normal'"`
	Tags          []string              `gorm:"column:tags;type:jsonb;serializer:json"`
	InternalNotes *string               `gorm:"column:internal_notes"`
	Source        enums.BookingSource   `gorm:"column:source;type:booking_source;not null;default:'platform'"`

	PilotID   *uuid.UUID `gorm:"column:pilot_id;type:uuid"`
	CompanyID *uuid.UUID `gorm:"column:company_id;type:uuid"`

	OriginalDate      *time.Time       `gorm:"column:original_date;type:date"`
	RescheduleCount   int              `gorm:"column:reschedule_count;not null;default:0"`
	RescheduleReason  *string          `gorm:"column:reschedule_reason"`
	RescheduleReasons types.LocaleText `gorm:"column:reschedule_reasons;type:jsonb;serializer:json"`

	SeenByAdmin   bool `gorm:"column:seen_by_admin;not null;default:false"`
	SeenByPilot   bool `gorm:"column:seen_by_pilot;not null;default:false"`
	SeenByCompany bool `gorm:"column:seen_by_company;not null;default:false"`

	Version      int64     `gorm:"column:version;not null;default:1"`
	HistoryCount int64     `gorm:"column:history_count;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// SeenBy reports the seen flag for role.
func (b *Booking) SeenBy(role enums.ActorRole) bool {
	switch role {
	case enums.ActorRoleAdmin:
		return b.SeenByAdmin
	case enums.ActorRolePilot:
		return b.SeenByPilot
	case enums.ActorRoleCompany:
		return b.SeenByCompany
	default:
		return false
	}
}

// RemainingRefundableCents is the part of the deposit not yet refunded.
func (b *Booking) RemainingRefundableCents() int {
	remaining := b.DepositCents - b.RefundedCents
	if remaining < 0 {
		return 0
	}
	return remaining
}
