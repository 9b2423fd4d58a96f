package square

import (
	"context"
	"errors"
	"strings"

	sq "github.com/square/square-go-sdk"
)

// RefundParams describes a refund against a captured Square payment.
type RefundParams struct {
	IdempotencyKey string
	PaymentID      string
	AmountCents    int64
	Currency       string
	Reason         string
}

func (p RefundParams) validate() error {
	if strings.TrimSpace(p.IdempotencyKey) == "" {
		return errors.New("idempotency key is required")
	}
	if strings.TrimSpace(p.PaymentID) == "" {
		return errors.New("payment id is required")
	}
	if p.AmountCents <= 0 {
		return errors.New("refund amount must be positive")
	}
	return nil
}

func (p RefundParams) toSquareRequest() *sq.RefundPaymentRequest {
	paymentID := strings.TrimSpace(p.PaymentID)
	req := &sq.RefundPaymentRequest{
		IdempotencyKey: p.IdempotencyKey,
		AmountMoney:    moneyPtr(p.AmountCents, p.Currency),
		PaymentID:      &paymentID,
	}
	if reason := strings.TrimSpace(p.Reason); reason != "" {
		// Square caps the reason at 192 characters.
		if len(reason) > 192 {
			reason = reason[:192]
		}
		req.Reason = &reason
	}
	return req
}

// RefundPayment asks Square to return part of a captured payment. The
// idempotency key makes retries with the same params safe.
func (c *Client) RefundPayment(ctx context.Context, params RefundParams) error {
	if c == nil || c.sdk == nil {
		return errAccessTokenRequired
	}
	if err := params.validate(); err != nil {
		return err
	}
	if err := c.wait(ctx); err != nil {
		return err
	}

	fields := map[string]any{
		"payment_id":      params.PaymentID,
		"amount":          params.AmountCents,
		"currency":        params.Currency,
		"idempotency_key": params.IdempotencyKey,
	}
	resp, err := c.sdk.Refunds.RefundPayment(ctx, params.toSquareRequest())
	if err == nil && (resp == nil || resp.GetRefund() == nil) {
		err = errors.New("empty refund response")
	}
	if err != nil {
		c.trace(ctx, "refund_payment", fields, err)
		return mapSquareError(err, "refund payment")
	}

	fields["refund_id"] = resp.GetRefund().GetID()
	fields["refund_status"] = resp.GetRefund().GetStatus()
	c.trace(ctx, "refund_payment", fields, nil)
	return nil
}

func moneyPtr(amount int64, currency string) *sq.Money {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "EUR"
	}
	cur := sq.Currency(code)
	return &sq.Money{
		Amount:   &amount,
		Currency: &cur,
	}
}
