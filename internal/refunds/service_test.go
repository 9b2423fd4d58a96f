package refunds

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/internal/bookings"
	"github.com/angelmondragon/tandemflight-backend/internal/history"
	"github.com/angelmondragon/tandemflight-backend/internal/notifications"
	"github.com/angelmondragon/tandemflight-backend/internal/testdb"
	"github.com/angelmondragon/tandemflight-backend/pkg/config"
	dbpkg "github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/metrics"
	"github.com/angelmondragon/tandemflight-backend/pkg/outbox"
	"github.com/angelmondragon/tandemflight-backend/pkg/square"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

type stubGateway struct {
	mu        sync.Mutex
	failures  int
	permanent error
	requests  []RefundRequest
}

func (g *stubGateway) Refund(_ context.Context, req RefundRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.permanent != nil {
		return g.permanent
	}
	if g.failures > 0 {
		g.failures--
		return ErrTransient
	}
	return nil
}

type recordingNotifier struct {
	sent []notifications.Message
}

func (r *recordingNotifier) Notify(_ context.Context, msgs ...notifications.Message) {
	r.sent = append(r.sent, msgs...)
}

type harness struct {
	conn     *gorm.DB
	svc      Service
	gateway  *stubGateway
	notifier *recordingNotifier
	recorder *history.Recorder
	reg      *prometheus.Registry
}

func setup(t *testing.T) *harness {
	t.Helper()
	conn := testdb.Open(t)
	recorder, err := history.NewRecorder(history.NewRepository(conn), outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	committer, err := bookings.NewCommitter(bookings.NewRepository(conn), dbpkg.NewFromConn(conn), recorder, nil, m, nil)
	require.NoError(t, err)

	gw := &stubGateway{}
	n := &recordingNotifier{}
	svc, err := NewService(ServiceParams{
		Committer: committer,
		Gateway:   gw,
		Notifier:  n,
		Metrics:   m,
		Retry:     config.RefundConfig{MaxRetries: 3, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond},
	})
	require.NoError(t, err)
	return &harness{conn: conn, svc: svc, gateway: gw, notifier: n, recorder: recorder, reg: reg}
}

func admin() types.Actor { return types.NewActor(uuid.New(), enums.ActorRoleAdmin) }

func withPayment(id string) func(*models.Booking) {
	return func(b *models.Booking) { b.GatewayPaymentID = &id }
}

func TestPartialThenFullRefund(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	booking := testdb.SeedBooking(t, h.conn, withPayment("pay_1"))

	updated, err := h.svc.Refund(ctx, Input{
		BookingID:            booking.ID,
		Type:                 enums.RefundTypePartial,
		AmountCents:          2000,
		Reason:               "weather",
		ProcessGatewayRefund: true,
		Actor:                admin(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2000, updated.RefundedCents)
	assert.Equal(t, enums.RefundStatusPartial, updated.RefundStatus)
	assert.Equal(t, enums.PaymentStatusDepositPaid, updated.PaymentStatus)
	assert.Equal(t, int64(2), updated.Version)

	updated, err = h.svc.Refund(ctx, Input{
		BookingID:            booking.ID,
		Type:                 enums.RefundTypeFull,
		ProcessGatewayRefund: true,
		Actor:                admin(),
	})
	require.NoError(t, err)
	assert.Equal(t, 5000, updated.RefundedCents)
	assert.Equal(t, 2, updated.RefundCount)
	assert.Equal(t, enums.RefundStatusFull, updated.RefundStatus)
	assert.Equal(t, enums.PaymentStatusRefunded, updated.PaymentStatus)

	require.Len(t, h.gateway.requests, 2)
	assert.Equal(t, int64(2000), h.gateway.requests[0].AmountCents)
	assert.Equal(t, int64(3000), h.gateway.requests[1].AmountCents)
	assert.Equal(t, IdempotencyKey(booking.ID, 1), h.gateway.requests[0].IdempotencyKey)
	assert.Equal(t, IdempotencyKey(booking.ID, 2), h.gateway.requests[1].IdempotencyKey)
	assert.NotEqual(t, h.gateway.requests[0].IdempotencyKey, h.gateway.requests[1].IdempotencyKey)

	entries, err := h.recorder.ListHistory(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, enums.HistoryActionRefunded, entries[1].Action)
	assert.Contains(t, string(entries[1].NewValue), IdempotencyKey(booking.ID, 2))

	require.Len(t, h.notifier.sent, 2)
	assert.Equal(t, enums.NotificationTemplateBookingRefunded, h.notifier.sent[1].Template)
	assert.Equal(t, enums.RecipientCustomer, h.notifier.sent[1].RecipientRole)
	assert.Equal(t, "30.00 EUR", h.notifier.sent[1].Params["amount"])
}

func TestTransientFailuresRetryWithSameKey(t *testing.T) {
	h := setup(t)
	h.gateway.failures = 2
	booking := testdb.SeedBooking(t, h.conn, withPayment("pay_2"))

	updated, err := h.svc.Refund(context.Background(), Input{
		BookingID:            booking.ID,
		Type:                 enums.RefundTypeFull,
		ProcessGatewayRefund: true,
		Actor:                admin(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStatusFull, updated.RefundStatus)

	require.Len(t, h.gateway.requests, 3)
	for _, req := range h.gateway.requests {
		assert.Equal(t, IdempotencyKey(booking.ID, 1), req.IdempotencyKey)
		assert.Equal(t, "pay_2", req.PaymentID)
	}
	assert.Equal(t, uint64(1), refundObservations(t, h.reg, metrics.OutcomeSuccess))
}

func TestPermanentFailureRollsBack(t *testing.T) {
	h := setup(t)
	h.gateway.permanent = pkgerrors.New(pkgerrors.CodeValidation, "payment not refundable")
	ctx := context.Background()
	booking := testdb.SeedBooking(t, h.conn, withPayment("pay_3"))

	_, err := h.svc.Refund(ctx, Input{
		BookingID:            booking.ID,
		Type:                 enums.RefundTypeFull,
		ProcessGatewayRefund: true,
		Actor:                admin(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeExternalService))
	assert.Len(t, h.gateway.requests, 1, "permanent failures are not retried")

	var stored models.Booking
	require.NoError(t, h.conn.First(&stored, "id = ?", booking.ID).Error)
	assert.Equal(t, 0, stored.RefundedCents)
	assert.Equal(t, 0, stored.RefundCount)
	assert.Equal(t, int64(1), stored.Version)

	entries, err := h.recorder.ListHistory(ctx, booking.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, h.notifier.sent)
	assert.Equal(t, uint64(1), refundObservations(t, h.reg, metrics.OutcomeError))
}

func TestExhaustedRetriesFail(t *testing.T) {
	h := setup(t)
	h.gateway.failures = 10
	booking := testdb.SeedBooking(t, h.conn, withPayment("pay_4"))

	_, err := h.svc.Refund(context.Background(), Input{
		BookingID:            booking.ID,
		Type:                 enums.RefundTypeFull,
		ProcessGatewayRefund: true,
		Actor:                admin(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeExternalService))
	assert.True(t, errors.Is(err, ErrTransient))
	assert.Len(t, h.gateway.requests, 4)
}

func TestRefundValidation(t *testing.T) {
	h := setup(t)
	ctx := context.Background()
	booking := testdb.SeedBooking(t, h.conn, withPayment("pay_5"))
	noPayment := testdb.SeedBooking(t, h.conn, nil)
	noDeposit := testdb.SeedBooking(t, h.conn, func(b *models.Booking) {
		b.DepositCents = 0
		b.PaymentStatus = enums.PaymentStatusUnpaid
	})

	cases := []struct {
		name  string
		input Input
	}{
		{"over refund", Input{BookingID: booking.ID, Type: enums.RefundTypePartial, AmountCents: 5001}},
		{"zero amount", Input{BookingID: booking.ID, Type: enums.RefundTypePartial}},
		{"negative amount", Input{BookingID: booking.ID, Type: enums.RefundTypePartial, AmountCents: -5}},
		{"unknown type", Input{BookingID: booking.ID, Type: "half"}},
		{"gateway without payment id", Input{BookingID: noPayment.ID, Type: enums.RefundTypeFull, ProcessGatewayRefund: true}},
		{"nothing left to refund", Input{BookingID: noDeposit.ID, Type: enums.RefundTypeFull}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.input.Actor = admin()
			_, err := h.svc.Refund(ctx, tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
	assert.Empty(t, h.gateway.requests)
}

func TestRecordOnlyRefundSkipsGateway(t *testing.T) {
	h := setup(t)
	booking := testdb.SeedBooking(t, h.conn, nil)

	updated, err := h.svc.Refund(context.Background(), Input{
		BookingID:   booking.ID,
		Type:        enums.RefundTypePartial,
		AmountCents: 1500,
		Actor:       admin(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1500, updated.RefundedCents)
	assert.Empty(t, h.gateway.requests)
}

func TestStaleVersionRejected(t *testing.T) {
	h := setup(t)
	booking := testdb.SeedBooking(t, h.conn, withPayment("pay_6"))
	stale := int64(7)

	_, err := h.svc.Refund(context.Background(), Input{
		BookingID:            booking.ID,
		Type:                 enums.RefundTypeFull,
		ProcessGatewayRefund: true,
		ExpectedVersion:      &stale,
		Actor:                admin(),
	})
	assert.Equal(t, pkgerrors.ConflictStaleVersion, pkgerrors.ConflictReason(err))
	assert.Empty(t, h.gateway.requests)
}

func TestIdempotencyKeyIsDeterministic(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, IdempotencyKey(id, 1), IdempotencyKey(id, 1))
	assert.NotEqual(t, IdempotencyKey(id, 1), IdempotencyKey(id, 2))
	assert.NotEqual(t, IdempotencyKey(id, 1), IdempotencyKey(uuid.New(), 1))
}

type fakeSquare struct {
	err    error
	params square.RefundParams
}

func (f *fakeSquare) RefundPayment(_ context.Context, params square.RefundParams) error {
	f.params = params
	return f.err
}

func TestSquareGatewayMarksRetryableErrors(t *testing.T) {
	client := &fakeSquare{err: pkgerrors.New(pkgerrors.CodeExternalService, "rate limited").WithDetails(map[string]any{"retryable": true})}
	gw, err := NewSquareGateway(client)
	require.NoError(t, err)

	err = gw.Refund(context.Background(), RefundRequest{IdempotencyKey: "k", PaymentID: "p", AmountCents: 100, Currency: "EUR"})
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, "k", client.params.IdempotencyKey)

	client.err = pkgerrors.New(pkgerrors.CodeValidation, "bad payment")
	err = gw.Refund(context.Background(), RefundRequest{IdempotencyKey: "k", PaymentID: "p", AmountCents: 100, Currency: "EUR"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTransient))
}

func refundObservations(t *testing.T, reg *prometheus.Registry, outcome string) uint64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "tandemflight_gateway_refund_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == "outcome" && pair.GetValue() == outcome {
					return metric.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return 0
}
