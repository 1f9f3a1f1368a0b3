/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal report types from the external API contract. Currency and
  percentage formatting lives here and only here: engines return raw
  numbers, DTOs carry the display strings the dashboard renders.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

FORMATTING CONTRACT:
  - Money: thousands-grouped, two decimals ("1,234.50")
  - Percent: two decimals with suffix ("12.34%"), "N/A" when undefined

SEE ALSO:
  - handlers.go: Uses these types
  - analytics/format.go: FormatMoney / FormatPercent
*/
package api

import (
	"github.com/warp/insight-engine/analytics"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// SummaryDTO is the three summary cards plus their scope label.
type SummaryDTO struct {
	Total       string `json:"total_premium"`
	NewBusiness string `json:"new_business_premium"`
	Renewal     string `json:"renewal_premium"`
	YearLabel   string `json:"year_label"`
}

// ComparisonRowDTO is one row of a year-over-year comparison table.
type ComparisonRowDTO struct {
	Label    string `json:"label"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
	Change   string `json:"change"`
}

// ComparisonDTO wraps comparison rows with the resolved year pair.
type ComparisonDTO struct {
	PreviousYear int                `json:"previous_year"`
	CurrentYear  int                `json:"current_year"`
	Rows         []ComparisonRowDTO `json:"rows"`
}

// RankingRowDTO is one row of the intermediary ranking table.
type RankingRowDTO struct {
	Intermediary string `json:"intermediary"`
	Policies     int    `json:"policies"`
	Premium      string `json:"premium"`
	Rank         int    `json:"rank"`
}

// WeeklyRowDTO is one row of the weekly-by-month pivot: a week number
// and twelve formatted month sums, January through December.
type WeeklyRowDTO struct {
	Week   int      `json:"week"`
	Months []string `json:"months"`
}

// BreakdownRowDTO is one group of a single-dimension breakdown.
type BreakdownRowDTO struct {
	Key     string `json:"key"`
	Premium string `json:"premium"`
}

// TrendPointDTO is one point of the monthly trend series. Premium stays
// numeric here; the chart needs the raw value.
type TrendPointDTO struct {
	Month   int     `json:"month"`
	Label   string  `json:"label"`
	Premium float64 `json:"premium"`
}

// QuarterPointDTO is one point of the quarterly progress series.
type QuarterPointDTO struct {
	Quarter int     `json:"quarter"`
	Premium float64 `json:"premium"`
}

// IngestRequest is the bulk ingest payload: rows keyed by display
// column name, exactly as parsed from the upload file.
type IngestRequest struct {
	Rows []map[string]any `json:"rows"`
}

// IngestResponse reports the outcome of an atomic bulk insert.
type IngestResponse struct {
	BatchID  string `json:"batch_id"`
	Inserted int    `json:"inserted"`
}

// DeleteResponse reports the affected row count of a bulk delete.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// ChatRequest is a single assistant question.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the assistant's text answer.
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toSummaryDTO(s analytics.SummaryTotals) SummaryDTO {
	return SummaryDTO{
		Total:       analytics.FormatMoney(s.Total),
		NewBusiness: analytics.FormatMoney(s.NewBusiness),
		Renewal:     analytics.FormatMoney(s.Renewal),
		YearLabel:   s.YearLabel,
	}
}

func toComparisonDTO(rows []analytics.ComparisonRow, years analytics.YearPair) ComparisonDTO {
	dto := ComparisonDTO{
		PreviousYear: years.Previous,
		CurrentYear:  years.Current,
		Rows:         make([]ComparisonRowDTO, 0, len(rows)),
	}
	for _, r := range rows {
		dto.Rows = append(dto.Rows, ComparisonRowDTO{
			Label:    r.Label,
			Previous: analytics.FormatMoney(r.Previous),
			Current:  analytics.FormatMoney(r.Current),
			Change:   analytics.FormatPercent(r.Change),
		})
	}
	return dto
}

func toRankingDTOs(rows []analytics.RankingRow) []RankingRowDTO {
	dtos := make([]RankingRowDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, RankingRowDTO{
			Intermediary: r.Intermediary,
			Policies:     r.Policies,
			Premium:      analytics.FormatMoney(r.Premium),
			Rank:         r.Rank,
		})
	}
	return dtos
}

func toWeeklyDTOs(rows []analytics.WeeklyRow) []WeeklyRowDTO {
	dtos := make([]WeeklyRowDTO, 0, len(rows))
	for _, r := range rows {
		months := make([]string, len(r.Months))
		for i, v := range r.Months {
			months[i] = analytics.FormatMoney(v)
		}
		dtos = append(dtos, WeeklyRowDTO{Week: r.Week, Months: months})
	}
	return dtos
}

func toBreakdownDTOs(rows []analytics.BreakdownRow) []BreakdownRowDTO {
	dtos := make([]BreakdownRowDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, BreakdownRowDTO{
			Key:     r.Key,
			Premium: analytics.FormatMoney(r.Premium),
		})
	}
	return dtos
}

func toTrendDTOs(points []analytics.TrendPoint) []TrendPointDTO {
	dtos := make([]TrendPointDTO, 0, len(points))
	for _, p := range points {
		dtos = append(dtos, TrendPointDTO{Month: p.Month, Label: p.Label, Premium: p.Premium})
	}
	return dtos
}

func toQuarterDTOs(points []analytics.QuarterPoint) []QuarterPointDTO {
	dtos := make([]QuarterPointDTO, 0, len(points))
	for _, p := range points {
		dtos = append(dtos, QuarterPointDTO{Quarter: p.Quarter, Premium: p.Premium})
	}
	return dtos
}
