package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
)

type testNotificationsService struct {
	listFn func(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNotification, error)
}

func (s *testNotificationsService) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.BookingNotification, error) {
	if s.listFn != nil {
		return s.listFn(ctx, bookingID)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestListBookingNotificationsSuccess(t *testing.T) {
	bookingID := uuid.New()
	pilotID := uuid.New()
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, id uuid.UUID) ([]models.BookingNotification, error) {
			if id != bookingID {
				t.Fatalf("unexpected booking %s", id)
			}
			return []models.BookingNotification{{
				ID:            uuid.New(),
				EventID:       uuid.New(),
				BookingID:     bookingID,
				RecipientRole: enums.RecipientPilot,
				RecipientID:   &pilotID,
				Template:      enums.NotificationTemplateBookingRescheduled,
				Locale:        enums.LocaleES,
				Title:         "Vuelo reprogramado",
				Body:          "Nueva fecha",
			}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/bookings/"+bookingID.String()+"/notifications", nil)
	req = addRouteParam(req, "bookingId", bookingID.String())
	resp := httptest.NewRecorder()
	ListBookingNotifications(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data []notificationResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected one notification, got %d", len(envelope.Data))
	}
	got := envelope.Data[0]
	if got.RecipientRole != string(enums.RecipientPilot) || got.Locale != "es" {
		t.Fatalf("unexpected notification %+v", got)
	}
	if got.RecipientID == nil || *got.RecipientID != pilotID {
		t.Fatalf("expected recipient %s", pilotID)
	}
}

func TestListBookingNotificationsInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/bookings/bad/notifications", nil)
	req = addRouteParam(req, "bookingId", "bad")
	resp := httptest.NewRecorder()
	ListBookingNotifications(&testNotificationsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListBookingNotificationsEmptyIsArray(t *testing.T) {
	bookingID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = addRouteParam(req, "bookingId", bookingID.String())
	resp := httptest.NewRecorder()
	ListBookingNotifications(&testNotificationsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if string(envelope.Data) != "[]" {
		t.Fatalf("expected empty array, got %s", envelope.Data)
	}
}
