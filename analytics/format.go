/*
format.go - Presentation formatting for currency and percentage values

PURPOSE:
  Report rows carry raw numeric values; this file is the single place
  where they become display strings. Currency is fixed to two decimals
  with thousands separators ("1,234.50"); percentages to two decimals
  with a trailing "%"; an undefined percentage (previous-year sum of
  zero) is the literal "N/A".

  Formatting goes through shopspring/decimal so rounding is exact at
  two decimal places rather than subject to float printing artifacts.
*/
package analytics

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders a premium sum as "#,##0.00".
func FormatMoney(v float64) string {
	return groupThousands(decimal.NewFromFloat(v).StringFixed(2))
}

// FormatPercent renders a percentage change as "#,##0.00%", or "N/A"
// when the change is undefined.
func FormatPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return groupThousands(decimal.NewFromFloat(*v).StringFixed(2)) + "%"
}

// groupThousands inserts comma separators into the integer part of a
// fixed-point decimal string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if len(intPart) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(intPart); i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			b.WriteByte(',')
		}
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}
