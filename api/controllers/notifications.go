package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/api/responses"
	"github.com/angelmondragon/tandemflight-backend/internal/notifications"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
)

type notificationResponse struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	RecipientRole string     `json:"recipient_role"`
	RecipientID   *uuid.UUID `json:"recipient_id,omitempty"`
	Template      string     `json:"template"`
	Locale        string     `json:"locale"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ListBookingNotifications returns the delivery log for one booking, newest first.
func ListBookingNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		bookingID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "bookingId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking id"))
			return
		}

		rows, err := svc.ListByBooking(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]notificationResponse, 0, len(rows))
		for _, row := range rows {
			resp = append(resp, notificationResponse{
				ID:            row.ID,
				EventID:       row.EventID,
				RecipientRole: string(row.RecipientRole),
				RecipientID:   row.RecipientID,
				Template:      string(row.Template),
				Locale:        string(row.Locale),
				Title:         row.Title,
				Body:          row.Body,
				CreatedAt:     row.CreatedAt,
			})
		}
		responses.WriteSuccess(w, resp)
	}
}
