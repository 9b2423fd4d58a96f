package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
)

const (
	refundPattern = "/api/admin/v1/bookings/{bookingId}/refunds"
	refundPath    = "/api/admin/v1/bookings/b1/refunds"
	createPath    = "/api/admin/v1/bookings"
)

// memoryReplayStore keeps records in a map and remembers the ttl of each write.
type memoryReplayStore struct {
	records map[string]string
	ttl     map[string]time.Duration
}

func newMemoryReplayStore() *memoryReplayStore {
	return &memoryReplayStore{records: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memoryReplayStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.records[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryReplayStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.records[key], m.ttl[key] = value.(string), ttl
	return nil
}

func (m *memoryReplayStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, taken := m.records[key]; taken {
		return false, nil
	}
	return true, m.Set(ctx, key, value, ttl)
}

func (m *memoryReplayStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.records, k)
	}
	return nil
}

func (m *memoryReplayStore) IdempotencyKey(scope, id string) string {
	return "mem:" + scope + ":" + id
}

type idemCall struct {
	path, pattern, key, body string
}

func (c idemCall) request() *http.Request {
	req := httptest.NewRequest(http.MethodPost, c.path, strings.NewReader(c.body))
	if c.key != "" {
		req.Header.Set(idempotencyHeader, c.key)
	}
	pattern := c.pattern
	if pattern == "" {
		pattern = c.path
	}
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func serve(store replayStore, h http.HandlerFunc, c idemCall) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	Idempotency(store, time.Hour, nil)(h).ServeHTTP(rec, c.request())
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestMatchRule(t *testing.T) {
	tests := []struct {
		method   string
		pattern  string
		matched  bool
		required bool
	}{
		{http.MethodPost, createPath, true, false},
		{http.MethodPost, "/api/admin/v1/bookings/{bookingId}/status", true, false},
		{http.MethodPost, "/api/admin/v1/bookings/7b0e/reschedule", true, false},
		{http.MethodPost, refundPattern, true, true},
		{http.MethodPost, "/api/admin/v1/bookings/{bookingId}/seen", false, false},
		{http.MethodGet, createPath, false, false},
		{http.MethodPost, "/api/admin/v1/bookings/{bookingId}/notes/{noteId}/pin", false, false},
		{http.MethodPost, "/api/v1/bookings/{bookingId}/seen", false, false},
	}
	for _, tc := range tests {
		rule, ok := matchRule(tc.method, tc.pattern)
		assert.Equal(t, tc.matched, ok, "%s %s", tc.method, tc.pattern)
		assert.Equal(t, tc.required, rule.required, "%s %s", tc.method, tc.pattern)
	}
	refund, _ := matchRule(http.MethodPost, refundPattern)
	assert.Equal(t, criticalIdempotencyTTL, refund.ttl)
}

func TestRefundsRequireKey(t *testing.T) {
	rec := serve(newMemoryReplayStore(), func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without a key")
	}, idemCall{path: refundPath, pattern: refundPattern, body: `{"type":"full"}`})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
}

func TestKeylessOptionalRoutesPassThrough(t *testing.T) {
	store := newMemoryReplayStore()
	calls := 0
	h := func(w http.ResponseWriter, _ *http.Request) { calls++ }
	call := idemCall{path: "/api/admin/v1/bookings/b1/status", pattern: "/api/admin/v1/bookings/{bookingId}/status", body: `{"status":"confirmed"}`}

	serve(store, h, call)
	serve(store, h, call)

	assert.Equal(t, 2, calls)
	assert.Empty(t, store.records)
}

func TestCompletedResponseIsReplayed(t *testing.T) {
	store := newMemoryReplayStore()
	calls := 0
	h := func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
	call := idemCall{path: refundPath, pattern: refundPattern, key: "abc", body: `{"type":"full"}`}

	first := serve(store, h, call)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get("Idempotent-Replayed"))

	replay := serve(store, h, call)
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, replay.Body.String())
	for key, ttl := range store.ttl {
		assert.Equal(t, criticalIdempotencyTTL, ttl, key)
	}
}

func TestServerErrorsReleaseKey(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusBadGateway} {
		store := newMemoryReplayStore()
		calls := 0
		h := func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(status)
		}
		call := idemCall{path: refundPath, pattern: refundPattern, key: "retry-me", body: `{"type":"full"}`}

		serve(store, h, call)
		assert.Empty(t, store.records, "status %d", status)
		serve(store, h, call)
		assert.Equal(t, 2, calls, "status %d", status)
	}
}

func TestClientErrorsAreReplayed(t *testing.T) {
	store := newMemoryReplayStore()
	calls := 0
	h := func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	call := idemCall{path: createPath, key: "bad-input", body: `{}`}

	serve(store, h, call)
	rec := serve(store, h, call)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestKeyReusedWithDifferentBody(t *testing.T) {
	store := newMemoryReplayStore()
	ok := func(http.ResponseWriter, *http.Request) {}

	serve(store, ok, idemCall{path: createPath, key: "xyz", body: `{"customer_name":"Ana"}`})
	rec := serve(store, ok, idemCall{path: createPath, key: "xyz", body: `{"customer_name":"Eva"}`})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec))
}

func TestInFlightDuplicateIsRejected(t *testing.T) {
	store := newMemoryReplayStore()
	call := idemCall{path: refundPath, pattern: refundPattern, key: "inflight", body: `{"type":"full"}`}

	var dup *httptest.ResponseRecorder
	first := serve(store, func(w http.ResponseWriter, _ *http.Request) {
		dup = serve(store, func(http.ResponseWriter, *http.Request) {
			t.Fatal("duplicate must not reach the handler")
		}, call)
		w.WriteHeader(http.StatusCreated)
	}, call)

	assert.Equal(t, http.StatusCreated, first.Code)
	require.NotNil(t, dup)
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Contains(t, dup.Body.String(), "in_progress")
}

func TestKeysAreScopedPerActor(t *testing.T) {
	store := newMemoryReplayStore()
	calls := 0
	h := func(w http.ResponseWriter, _ *http.Request) { calls++ }

	for _, actor := range []string{"admin-a", "admin-b"} {
		req := idemCall{path: createPath, key: "shared", body: `{}`}.request()
		req = req.WithContext(context.WithValue(req.Context(), ctxActorID, actor))
		Idempotency(store, time.Hour, nil)(http.HandlerFunc(h)).ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2, calls)
	assert.Len(t, store.records, 2)
}
