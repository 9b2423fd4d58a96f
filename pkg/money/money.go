// Package money converts between wire decimal strings and integer minor units.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseCents converts a decimal amount such as "50.00" into cents. Amounts with
// more than two fractional digits are rejected rather than rounded.
func ParseCents(raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("amount is required")
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	cents := amount.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than two decimal places", raw)
	}
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", raw)
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a fixed two-decimal string.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ApplyPercent returns amount reduced by percent, rounded half-up to the cent.
func ApplyPercent(amountCents int64, percent int) int64 {
	if percent <= 0 {
		return amountCents
	}
	if percent >= 100 {
		return 0
	}
	discount := decimal.NewFromInt(amountCents).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(hundred).
		Round(0)
	return amountCents - discount.IntPart()
}
