package bookings

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/api/middleware"
	"github.com/angelmondragon/tandemflight-backend/api/validators"
	internalbookings "github.com/angelmondragon/tandemflight-backend/internal/bookings"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/pagination"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

const maxSearchLength = 120

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func requestActor(r *http.Request) (types.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return types.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor missing")
	}
	return actor, nil
}

func parseDate(raw, field string) (time.Time, error) {
	value, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be YYYY-MM-DD").
			WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).
			WithDetails(map[string]any{"field": field})
	}
	return &id, nil
}

func parsePagination(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// parseFilters reads the listing filters from the query string. Enum values
// are validated by internalbookings.Filters.Validate.
func parseFilters(r *http.Request) (internalbookings.Filters, error) {
	q := r.URL.Query()
	filters := internalbookings.Filters{
		Search: validators.SanitizeString(q.Get("q"), maxSearchLength),
	}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		status := enums.BookingStatus(v)
		filters.Status = &status
	}
	if v := strings.TrimSpace(q.Get("payment_status")); v != "" {
		paymentStatus := enums.PaymentStatus(v)
		filters.PaymentStatus = &paymentStatus
	}
	if v := strings.TrimSpace(q.Get("priority")); v != "" {
		priority := enums.BookingPriority(v)
		filters.Priority = &priority
	}
	if v := strings.TrimSpace(q.Get("source")); v != "" {
		source := enums.BookingSource(v)
		filters.Source = &source
	}

	for _, field := range []struct {
		key  string
		dest **uuid.UUID
	}{
		{key: "pilot_id", dest: &filters.PilotID},
		{key: "company_id", dest: &filters.CompanyID},
	} {
		raw := q.Get(field.key)
		id, err := parseOptionalUUID(&raw, field.key)
		if err != nil {
			return internalbookings.Filters{}, err
		}
		*field.dest = id
	}

	for _, field := range []struct {
		key  string
		dest **time.Time
	}{
		{key: "date_from", dest: &filters.DateFrom},
		{key: "date_to", dest: &filters.DateTo},
	} {
		raw := strings.TrimSpace(q.Get(field.key))
		if raw == "" {
			continue
		}
		day, err := parseDate(raw, field.key)
		if err != nil {
			return internalbookings.Filters{}, err
		}
		*field.dest = &day
	}

	if err := filters.Validate(); err != nil {
		return internalbookings.Filters{}, err
	}
	return filters, nil
}

func localeText(raw map[string]string) types.LocaleText {
	if len(raw) == 0 {
		return nil
	}
	out := make(types.LocaleText, len(raw))
	for key, value := range raw {
		out[enums.Locale(strings.ToLower(strings.TrimSpace(key)))] = value
	}
	return out.Normalize()
}

func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
