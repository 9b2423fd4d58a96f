package refunds

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/tandemflight-backend/pkg/square"
)

// ErrTransient marks gateway failures worth retrying with the same key.
var ErrTransient = errors.New("transient gateway failure")

// RefundRequest is one refund call against the payment gateway.
type RefundRequest struct {
	IdempotencyKey string
	PaymentID      string
	AmountCents    int64
	Currency       string
	Reason         string
}

// Gateway returns captured deposit money to the customer.
type Gateway interface {
	Refund(ctx context.Context, req RefundRequest) error
}

type squareRefunder interface {
	RefundPayment(ctx context.Context, params square.RefundParams) error
}

// SquareGateway sends refunds through the Square Refunds API.
type SquareGateway struct {
	client squareRefunder
}

func NewSquareGateway(client squareRefunder) (*SquareGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("square client required")
	}
	return &SquareGateway{client: client}, nil
}

func (g *SquareGateway) Refund(ctx context.Context, req RefundRequest) error {
	err := g.client.RefundPayment(ctx, square.RefundParams{
		IdempotencyKey: req.IdempotencyKey,
		PaymentID:      req.PaymentID,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		Reason:         req.Reason,
	})
	if err != nil && square.IsRetryable(err) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}
