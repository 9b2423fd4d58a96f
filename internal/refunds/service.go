// Package refunds returns booking deposits, optionally through the payment
// gateway, under the booking's optimistic version check.
package refunds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/internal/bookings"
	"github.com/angelmondragon/tandemflight-backend/internal/history"
	"github.com/angelmondragon/tandemflight-backend/internal/notifications"
	"github.com/angelmondragon/tandemflight-backend/pkg/config"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/metrics"
	"github.com/angelmondragon/tandemflight-backend/pkg/money"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

// keyNamespace scopes refund idempotency keys.
var keyNamespace = uuid.MustParse("6f1c1c3e-5b8e-4f4e-9d6a-2a7c1b0e9f41")

type committer interface {
	Commit(ctx context.Context, m bookings.Mutation) (*models.Booking, error)
}

type notifier interface {
	Notify(ctx context.Context, msgs ...notifications.Message)
}

type Input struct {
	BookingID uuid.UUID
	Type      enums.RefundType
	// AmountCents is only read for partial refunds.
	AmountCents          int
	Reason               string
	ProcessGatewayRefund bool
	ExpectedVersion      *int64
	Actor                types.Actor
}

type Service interface {
	Refund(ctx context.Context, input Input) (*models.Booking, error)
}

type ServiceParams struct {
	Committer committer
	Gateway   Gateway
	Notifier  notifier
	Metrics   *metrics.BookingMetrics
	Logger    *logger.Logger
	Retry     config.RefundConfig
}

type service struct {
	committer committer
	gateway   Gateway
	notifier  notifier
	metrics   *metrics.BookingMetrics
	logg      *logger.Logger
	retry     config.RefundConfig
}

func NewService(p ServiceParams) (Service, error) {
	if p.Committer == nil {
		return nil, fmt.Errorf("mutation committer required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Retry.BaseBackoff <= 0 {
		p.Retry.BaseBackoff = 200 * time.Millisecond
	}
	if p.Retry.MaxBackoff <= 0 {
		p.Retry.MaxBackoff = 2 * time.Second
	}
	return &service{
		committer: p.Committer,
		gateway:   p.Gateway,
		notifier:  p.Notifier,
		metrics:   p.Metrics,
		logg:      p.Logger,
		retry:     p.Retry,
	}, nil
}

// IdempotencyKey derives the gateway key of the ordinal-th refund of a
// booking. Retries of the same attempt reuse it.
func IdempotencyKey(bookingID uuid.UUID, ordinal int) string {
	return uuid.NewSHA1(keyNamespace, []byte(fmt.Sprintf("%s:%d", bookingID, ordinal))).String()
}

type refundValue struct {
	AmountCents    int    `json:"amount_cents"`
	RefundedCents  int    `json:"refunded_cents"`
	RefundStatus   string `json:"refund_status"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

func (s *service) Refund(ctx context.Context, input Input) (*models.Booking, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid refund type %q", input.Type))
	}
	if input.ProcessGatewayRefund && s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway refunds are disabled")
	}

	var amount int
	updated, err := s.committer.Commit(ctx, bookings.Mutation{
		BookingID:       input.BookingID,
		Actor:           input.Actor,
		ExpectedVersion: input.ExpectedVersion,
		Apply: func(ctx context.Context, booking *models.Booking) (*bookings.Change, error) {
			remaining := booking.RemainingRefundableCents()
			amount = remaining
			if input.Type == enums.RefundTypePartial {
				amount = input.AmountCents
			}
			if amount <= 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
			}
			if amount > remaining {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds the remaining deposit").
					WithDetails(map[string]any{"remaining_cents": remaining})
			}

			var key, paymentID string
			if input.ProcessGatewayRefund {
				if booking.GatewayPaymentID == nil || strings.TrimSpace(*booking.GatewayPaymentID) == "" {
					return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking has no gateway payment to refund")
				}
				paymentID = *booking.GatewayPaymentID
				key = IdempotencyKey(booking.ID, booking.RefundCount+1)
			}

			refunded := booking.RefundedCents + amount
			refundStatus := enums.RefundStatusPartial
			updates := map[string]any{
				"refunded_cents": refunded,
				"refund_count":   booking.RefundCount + 1,
			}
			if refunded == booking.DepositCents {
				refundStatus = enums.RefundStatusFull
				updates["payment_status"] = enums.PaymentStatusRefunded
			}
			updates["refund_status"] = refundStatus

			change := &bookings.Change{
				Updates: updates,
				History: &history.Entry{
					Action: enums.HistoryActionRefunded,
					Reason: strings.TrimSpace(input.Reason),
					OldValue: refundValue{
						RefundedCents: booking.RefundedCents,
						RefundStatus:  string(booking.RefundStatus),
					},
					NewValue: refundValue{
						AmountCents:    amount,
						RefundedCents:  refunded,
						RefundStatus:   string(refundStatus),
						IdempotencyKey: key,
					},
				},
			}
			if input.ProcessGatewayRefund {
				req := RefundRequest{
					IdempotencyKey: key,
					PaymentID:      paymentID,
					AmountCents:    int64(amount),
					Currency:       string(booking.Currency),
					Reason:         strings.TrimSpace(input.Reason),
				}
				change.Finalize = func(ctx context.Context, _ *gorm.DB, _ *models.Booking) error {
					return s.callGateway(ctx, req)
				}
			}
			return change, nil
		},
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, notifications.Message{
			BookingID:     updated.ID,
			Template:      enums.NotificationTemplateBookingRefunded,
			RecipientRole: enums.RecipientCustomer,
			Locale:        updated.CustomerLocale,
			Params: map[string]string{
				"customer": updated.CustomerName,
				"amount":   money.FormatCents(int64(amount)) + " " + string(updated.Currency),
				"date":     updated.SelectedDate.Format(time.DateOnly),
			},
		})
	}
	return updated, nil
}

// callGateway retries transient failures with exponential backoff using the
// same idempotency key. A final failure becomes EXTERNAL_SERVICE_ERROR.
func (s *service) callGateway(ctx context.Context, req RefundRequest) error {
	start := time.Now()
	backoff := retry.WithCappedDuration(s.retry.MaxBackoff, retry.NewExponential(s.retry.BaseBackoff))
	backoff = retry.WithMaxRetries(s.retry.MaxRetries, backoff)

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := s.gateway.Refund(ctx, req)
		if err != nil && errors.Is(err, ErrTransient) {
			return retry.RetryableError(err)
		}
		return err
	})

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"idempotency_key": req.IdempotencyKey,
		"amount_cents":    req.AmountCents,
		"attempts":        attempts,
	})
	if err != nil {
		s.metrics.ObserveRefund(metrics.OutcomeError, time.Since(start))
		s.logg.Error(logCtx, "gateway refund failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "gateway refund failed")
	}
	s.metrics.ObserveRefund(metrics.OutcomeSuccess, time.Since(start))
	s.logg.Info(logCtx, "gateway refund accepted")
	return nil
}
