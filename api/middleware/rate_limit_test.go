package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("mutations", time.Minute, 2, 0)
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(okHandler))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, actorRequest(http.MethodPost, uuid.New()))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
}

func TestRateLimitActorLimitTriggers(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("mutations", time.Minute, 2, 0)
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(okHandler))
	actorID := uuid.New()

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, actorRequest(http.MethodPost, actorID))

		switch {
		case i < 2 && rec.Code != http.StatusOK:
			t.Fatalf("expected success before limit, got %d", rec.Code)
		case i >= 2:
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rec.Code)
			}
			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
				t.Fatalf("unexpected code: %s", payload.Error.Code)
			}
		}
	}
	if _, ok := store.counts["rl:mutations:actor:"+actorID.String()]; !ok {
		t.Fatalf("expected actor counter, got %v", store.counts)
	}
}

func TestRateLimitIPLimitTriggers(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("mutations", time.Minute, 0, 1)
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(okHandler))

	for i := 0; i < 2; i++ {
		req := actorRequest(http.MethodPatch, uuid.New())
		req.Header.Set("X-Forwarded-For", "5.6.7.8, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("expected success, got %d", rec.Code)
		}
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
	}
}

func TestRateLimitIgnoresReads(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("mutations", time.Minute, 1, 1)
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(okHandler))
	actorID := uuid.New()

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, actorRequest(http.MethodGet, actorID))
		if rec.Code != http.StatusOK {
			t.Fatalf("reads must not be throttled, got %d", rec.Code)
		}
	}
	if len(store.counts) != 0 {
		t.Fatalf("reads must not touch counters, got %v", store.counts)
	}
}

func actorRequest(method string, actorID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, "/api/admin/v1/bookings", strings.NewReader(`{}`))
	req.RemoteAddr = "1.2.3.4:5678"
	return req.WithContext(WithActor(req.Context(), types.NewActor(actorID, enums.ActorRoleAdmin)))
}

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRateStore) RateLimitKey(scope string) string {
	return "rl:" + scope
}
