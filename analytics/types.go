/*
types.go - Core types for the premium analytics engine

PURPOSE:
  Defines the transaction record, the fixed 22-column schema contract,
  canonical month ordering, and the explicit row types returned by the
  report catalog.

DESIGN PRINCIPLES:
  1. Fixed schema: the column set and display names (including
     "Trans Type" and "Dr/Cr No") are a compatibility contract with
     the ingestion files and the assistant's schema description.
  2. Explicit result shapes: every report has a declared row type;
     nothing is inferred from query results at runtime.
  3. Precision: report rows carry raw numeric values; currency and
     percentage formatting happens only at the presentation boundary
     (see format.go).

USAGE:
  rows, err := engine.MonthlyComparison(ctx, filter)
  for _, r := range rows {
      fmt.Println(r.Label, analytics.FormatMoney(r.Current))
  }

SEE ALSO:
  - filter.go: Filter selection and predicate construction
  - engine.go: Report catalog execution
  - store/sqlite/sqlite.go: Schema migration and bulk operations
*/
package analytics

import "time"

// TableName is the single table of record for all reporting.
const TableName = "insurance_transactions"

// Columns is the fixed schema contract, in storage order. Display names
// are preserved exactly; two of them carry special characters and must be
// double-quoted wherever referenced in SQL.
var Columns = []string{
	"Transaction Date",
	"Policy No",
	"Trans Type",
	"Branch",
	"Class",
	"Dr/Cr No",
	"Risk ID",
	"Insured",
	"Intermediary Type",
	"Intermediary",
	"Marketer",
	"WEF",
	"WET",
	"CURRENCY",
	"Sum Insured",
	"Premium",
	"PAID",
	"Year",
	"Month Name",
	"Month",
	"Quarter",
	"Weeks",
}

// UppercaseColumns are the text fields case-normalized at ingestion so
// filter matching and grouping are case-insensitive in effect.
var UppercaseColumns = []string{
	"Branch", "Class", "Insured", "Intermediary Type", "Intermediary", "Marketer",
}

// Transaction type constants used by the summary reports.
const (
	TransTypeNewBusiness = "New Business"
	TransTypeRenewal     = "Renewal"
)

// Intermediary type constants for entity-scoped reports.
const (
	IntermediaryAgent       = "AGENT"
	IntermediaryBroker      = "BROKER"
	IntermediaryDirect      = "DIRECT"
	IntermediaryReinsurance = "FACULTATIVE INWARD"
)

// MonthNames is the canonical month ordering used by every month-grouped
// report. Index i holds the name of month i+1.
var MonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthNumber returns the 1-based month index for a canonical month name,
// or 0 if the name is not canonical.
func MonthNumber(name string) int {
	for i, m := range MonthNames {
		if m == name {
			return i + 1
		}
	}
	return 0
}

// QuarterOf returns the quarter (1-4) a month number belongs to.
func QuarterOf(month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	return (month + 2) / 3
}

// Record is one row of the transaction store. Amount fields are pointers
// because null amounts are legal; sums treat them as zero, statistics
// exclude them.
type Record struct {
	TransactionDate  string
	PolicyNo         string
	TransType        string
	Branch           string
	Class            string
	DrCrNo           string
	RiskID           string
	Insured          string
	IntermediaryType string
	Intermediary     string
	Marketer         string
	WEF              string
	WET              string
	Currency         string
	SumInsured       *float64
	Premium          *float64
	Paid             *float64
	Year             int
	MonthName        string
	Month            int
	Quarter          int
	Weeks            int
}

// =============================================================================
// REPORT RESULT TYPES
// =============================================================================

// SummaryTotals is the three summary cards: total, new business and
// renewal premium under the active filter. Null sums are reported as 0.
type SummaryTotals struct {
	Total       float64
	NewBusiness float64
	Renewal     float64
	YearLabel   string // e.g. "For Year 2026" or "For Years 2025, 2026"
}

// ComparisonRow is one row of a year-over-year comparison report: the
// previous-year and current-year premium sums plus the percentage change.
// Change is nil when the previous-year sum is zero (reported as "N/A").
type ComparisonRow struct {
	Label    string // month name, "Q1".."Q4", or class
	Previous float64
	Current  float64
	Change   *float64
}

// RankingRow is one row of an intermediary ranking. Rank uses standard
// competition ranking: ties share a rank and consume its slots (1,1,3).
type RankingRow struct {
	Intermediary string
	Policies     int // distinct policy numbers
	Premium      float64
	Rank         int
}

// WeeklyRow is one row of the weekly-by-month pivot: premium per month of
// the year for a given week number. Months are ordered Jan..Dec.
type WeeklyRow struct {
	Week   int
	Months [12]float64
}

// BreakdownRow is one group of a single-dimension breakdown (class or
// branch) with its premium sum.
type BreakdownRow struct {
	Key     string
	Premium float64
}

// TrendPoint is one point of the monthly premium trend series.
type TrendPoint struct {
	Month   int
	Label   string
	Premium float64
}

// QuarterPoint is one point of the quarterly progress series.
type QuarterPoint struct {
	Quarter int
	Premium float64
}

// YearPair is the current/previous year scope of a comparison report.
type YearPair struct {
	Current  int
	Previous int
}

// ResolveYears derives the comparison scope from a filter selection: the
// maximum selected year, or the system year when no year is selected, and
// its predecessor.
func ResolveYears(years []int, now time.Time) YearPair {
	current := now.Year()
	if len(years) > 0 {
		current = years[0]
		for _, y := range years[1:] {
			if y > current {
				current = y
			}
		}
	}
	return YearPair{Current: current, Previous: current - 1}
}
