package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/insight-engine/analytics"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"thousands grouping", 1234.5, "1,234.50"},
		{"zero", 0, "0.00"},
		{"under a thousand", 999.9, "999.90"},
		{"rounds up across the boundary", 999.999, "1,000.00"},
		{"millions", 12345678.9, "12,345,678.90"},
		{"negative", -1234567.89, "-1,234,567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analytics.FormatMoney(tt.in))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	// An undefined change (previous-year sum of zero) renders as the
	// literal "N/A" rather than infinity or an error.
	assert.Equal(t, "N/A", analytics.FormatPercent(nil))

	v := 12.5
	assert.Equal(t, "12.50%", analytics.FormatPercent(&v))

	big := 1234.5
	assert.Equal(t, "1,234.50%", analytics.FormatPercent(&big))

	neg := -40.0
	assert.Equal(t, "-40.00%", analytics.FormatPercent(&neg))
}

func TestResolveYears(t *testing.T) {
	now := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		years []int
		want  analytics.YearPair
	}{
		{"no selection uses system year", nil, analytics.YearPair{Current: 2026, Previous: 2025}},
		{"single year", []int{2024}, analytics.YearPair{Current: 2024, Previous: 2023}},
		{"multi-select uses the maximum", []int{2024, 2026, 2025}, analytics.YearPair{Current: 2026, Previous: 2025}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analytics.ResolveYears(tt.years, now))
		})
	}
}

func TestMonthHelpers(t *testing.T) {
	assert.Equal(t, 1, analytics.MonthNumber("January"))
	assert.Equal(t, 12, analytics.MonthNumber("December"))
	assert.Equal(t, 0, analytics.MonthNumber("Janvier"))

	assert.Equal(t, 1, analytics.QuarterOf(3))
	assert.Equal(t, 2, analytics.QuarterOf(4))
	assert.Equal(t, 4, analytics.QuarterOf(12))
	assert.Equal(t, 0, analytics.QuarterOf(0))
}
