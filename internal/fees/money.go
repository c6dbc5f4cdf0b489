package fees

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// residueScale drops the tail left by repeating divisions (1/3 of a fee
// summed three times) before rounding up.
const residueScale = 6

// RoundUp rounds amount up to the next multiple of unit. Exact multiples,
// including zero, are returned unchanged.
func RoundUp(amount decimal.Decimal, unit int64) decimal.Decimal {
	u := decimal.NewFromInt(unit)
	return amount.Round(residueScale).Div(u).Ceil().Mul(u)
}

// FormatVND renders amount as whole dong with dots between thousands,
// e.g. 1234000 -> "1.234.000".
func FormatVND(amount decimal.Decimal) string {
	s := amount.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// ParseVND is the inverse of FormatVND. An empty string parses as zero.
func ParseVND(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}
