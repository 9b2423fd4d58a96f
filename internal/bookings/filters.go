package bookings

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
)

// Filters narrows booking listings and summaries. Unset fields are ignored and
// set fields combine with AND.
type Filters struct {
	Search        string
	Status        *enums.BookingStatus
	PaymentStatus *enums.PaymentStatus
	PilotID       *uuid.UUID
	CompanyID     *uuid.UUID
	Priority      *enums.BookingPriority
	Source        *enums.BookingSource
	DateFrom      *time.Time
	DateTo        *time.Time
}

// Validate rejects unknown enum values and inverted date ranges.
func (f Filters) Validate() error {
	if f.Status != nil && !f.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if f.PaymentStatus != nil && !f.PaymentStatus.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status filter")
	}
	if f.Priority != nil && !f.Priority.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid priority filter")
	}
	if f.Source != nil && !f.Source.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid source filter")
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return pkgerrors.New(pkgerrors.CodeValidation, "date_to must not be before date_from")
	}
	return nil
}

// Apply adds the filter predicates to query. The date range is inclusive of
// both endpoint days.
func (f Filters) Apply(query *gorm.DB) *gorm.DB {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		like := "%" + escapeLike(term) + "%"
		query = query.Where("(LOWER(customer_name) LIKE ? ESCAPE '\\' OR LOWER(customer_phone) LIKE ? ESCAPE '\\')", like, like)
	}
	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	if f.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *f.PaymentStatus)
	}
	if f.PilotID != nil {
		query = query.Where("pilot_id = ?", *f.PilotID)
	}
	if f.CompanyID != nil {
		query = query.Where("company_id = ?", *f.CompanyID)
	}
	if f.Priority != nil {
		query = query.Where("priority = ?", *f.Priority)
	}
	if f.Source != nil {
		query = query.Where("source = ?", *f.Source)
	}
	if f.DateFrom != nil {
		query = query.Where("selected_date >= ?", StartOfDay(*f.DateFrom))
	}
	if f.DateTo != nil {
		query = query.Where("selected_date < ?", StartOfDay(*f.DateTo).AddDate(0, 0, 1))
	}
	return query
}

// StartOfDay truncates t to midnight UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	return now.With(t.UTC()).BeginningOfDay()
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
