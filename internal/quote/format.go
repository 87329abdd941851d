package quote

import (
	"fmt"

	"github.com/shopspring/decimal"

	"poolEngine/internal/model"
)

// FormatAmount renders raw units using the token's decimals, truncated to
// displayDecimals places.
func FormatAmount(raw uint64, meta model.TokenMeta, displayDecimals int32) string {
	return dec(raw).Shift(-int32(meta.Decimals)).Truncate(displayDecimals).String()
}

// ParseAmount converts a human amount such as "1.5" into raw units,
// dropping precision beyond the token's decimals.
func ParseAmount(s string, meta model.TokenMeta) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", s)
	}
	raw := d.Shift(int32(meta.Decimals)).Truncate(0).BigInt()
	if !raw.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	return raw.Uint64(), nil
}
