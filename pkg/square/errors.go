package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"

	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
)

// mapSquareError converts SDK failures into typed errors whose details carry
// a "retryable" flag. Transport failures and 429/5xx answers are retryable.
func mapSquareError(err error, op string) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf("square %s failed", op)

	var apiErr *sqcore.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) {
			return pkgerrors.Wrap(pkgerrors.CodeExternalService, err, fmt.Sprintf("square %s canceled", op)).
				WithDetails(map[string]any{"retryable": false})
		}
		return pkgerrors.Wrap(pkgerrors.CodeExternalService, err, msg).
			WithDetails(map[string]any{"retryable": true})
	}

	status := apiErr.StatusCode
	code := domainCodeForStatus(status)
	details := map[string]any{"status": status, "retryable": retryableStatus(status)}
	for _, sqErr := range extractSquareErrors(apiErr) {
		details["gateway_code"] = string(sqErr.Code)
		if sqErr.Code == sq.ErrorCodeIdempotencyKeyReused {
			code = pkgerrors.CodeIdempotency
			break
		}
	}
	return pkgerrors.Wrap(code, err, msg).WithDetails(details)
}

// IsRetryable reports whether a mapped Square error may succeed on retry.
func IsRetryable(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return false
	}
	details, _ := typed.Details().(map[string]any)
	retryable, _ := details["retryable"].(bool)
	return retryable
}

// extractSquareErrors decodes the error list Square puts in the body of a
// non-2xx response. Nil entries are dropped.
func extractSquareErrors(apiErr *sqcore.APIError) []*sq.Error {
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	var body struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(inner.Error())), &body); err != nil {
		return nil
	}
	out := body.Errors[:0]
	for _, e := range body.Errors {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeExternalService
	}
}
