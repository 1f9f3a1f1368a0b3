/*
engine.go - Aggregation report engine

PURPOSE:
  Executes the fixed catalog of named reports against the transaction
  store. Each report consumes a Filter predicate and returns explicit
  typed rows; nothing is shaped dynamically from query results.

REPORT CATALOG:
  Summary            total / new business / renewal premium sums
  MonthlyComparison  year-over-year by month, with % change
  QuarterlyComparison same arithmetic by quarter
  ClassComparison    same arithmetic by class
  Rankings           intermediary ranking by premium (RANK, ties share)
  WeeklyByMonth      week rows pivoted into 12 month columns
  ClassBreakdown     premium per class
  BranchBreakdown    premium per branch
  Trend              monthly premium series
  QuarterlyProgress  quarterly premium series

YEAR SCOPING RULES:
  Reports over a single scope (summary, rankings, pivots, breakdowns,
  series) default to the current calendar year when no year filter is
  selected. Comparison reports instead drop the year constraint from
  their base predicate entirely - the report itself is year-differencing
  between max(selected years) and its predecessor.

NULL HANDLING:
  SUM over no rows is null; reports surface it as zero. Percentage
  change against a zero previous-year sum is undefined and carried as
  a nil pointer (rendered "N/A", never infinity or an error).

SEE ALSO:
  - filter.go: predicate construction
  - entity.go: entity-scoped wrapper fixing the intermediary type
  - format.go: presentation formatting
*/
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Querier is the subset of *sql.DB the engine needs. Satisfied by
// *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Engine executes the report catalog. Safe for concurrent use; holds no
// per-request state.
type Engine struct {
	db Querier

	// now is injectable for deterministic year-scope tests.
	now func() time.Time
}

// NewEngine creates a report engine over the given database handle.
func NewEngine(db Querier) *Engine {
	return &Engine{db: db, now: time.Now}
}

// NewEngineAt creates an engine with a fixed clock. Test hook.
func NewEngineAt(db Querier, now func() time.Time) *Engine {
	return &Engine{db: db, now: now}
}

// scoped applies the default-year rule: when no year is selected, the
// report is scoped to the current calendar year.
func (e *Engine) scoped(f Filter) Filter {
	if len(f.Years) == 0 {
		f.Years = []int{e.now().Year()}
	}
	return f
}

// yearLabel renders the year scope shown under the summary cards.
func yearLabel(years []int) string {
	if len(years) == 1 {
		return fmt.Sprintf("For Year %d", years[0])
	}
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return "For Years " + strings.Join(parts, ", ")
}

// =============================================================================
// SUMMARY TOTALS
// =============================================================================

// Summary computes the three summary cards under the active filter.
func (e *Engine) Summary(ctx context.Context, f Filter) (SummaryTotals, error) {
	f = e.scoped(f)
	clause, args := f.Predicate()

	total, err := e.sumPremium(ctx, clause, args, "")
	if err != nil {
		return SummaryTotals{}, fmt.Errorf("summary total: %w", err)
	}
	nb, err := e.sumPremium(ctx, clause, args, TransTypeNewBusiness)
	if err != nil {
		return SummaryTotals{}, fmt.Errorf("summary new business: %w", err)
	}
	renewal, err := e.sumPremium(ctx, clause, args, TransTypeRenewal)
	if err != nil {
		return SummaryTotals{}, fmt.Errorf("summary renewals: %w", err)
	}

	return SummaryTotals{
		Total:       total,
		NewBusiness: nb,
		Renewal:     renewal,
		YearLabel:   yearLabel(f.Years),
	}, nil
}

// sumPremium sums Premium under the predicate, optionally narrowed to a
// transaction type. A null sum (no rows) reports as zero.
func (e *Engine) sumPremium(ctx context.Context, clause string, args []any, transType string) (float64, error) {
	query := `SELECT SUM("Premium") FROM ` + TableName + ` WHERE ` + clause
	if transType != "" {
		query += ` AND "Trans Type" = ?`
		args = append(append([]any{}, args...), transType)
	}

	var sum sql.NullFloat64
	if err := e.db.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, err
	}
	return sum.Float64, nil
}

// =============================================================================
// YEAR-OVER-YEAR COMPARISONS
// =============================================================================

// MonthlyComparison compares premium by month between the resolved
// current and previous year. Rows are ordered by canonical month index.
func (e *Engine) MonthlyComparison(ctx context.Context, f Filter) ([]ComparisonRow, YearPair, error) {
	years := ResolveYears(f.Years, e.now())
	clause, args := f.WithoutYears().Predicate()

	query := `
		SELECT "Month Name",
		       SUM(CASE WHEN "Year" = ? THEN COALESCE("Premium", 0) ELSE 0 END),
		       SUM(CASE WHEN "Year" = ? THEN COALESCE("Premium", 0) ELSE 0 END)
		FROM ` + TableName + `
		WHERE ` + clause + `
		GROUP BY "Month Name", "Month"
		ORDER BY "Month"`

	rows, err := e.queryComparison(ctx, query, append([]any{years.Previous, years.Current}, args...))
	if err != nil {
		return nil, years, fmt.Errorf("monthly comparison: %w", err)
	}
	return rows, years, nil
}

// QuarterlyComparison is MonthlyComparison grouped by quarter.
func (e *Engine) QuarterlyComparison(ctx context.Context, f Filter) ([]ComparisonRow, YearPair, error) {
	years := ResolveYears(f.Years, e.now())
	clause, args := f.WithoutYears().Predicate()

	query := `
		SELECT 'Q' || "Quarter",
		       SUM(CASE WHEN "Year" = ? THEN COALESCE("Premium", 0) ELSE 0 END),
		       SUM(CASE WHEN "Year" = ? THEN COALESCE("Premium", 0) ELSE 0 END)
		FROM ` + TableName + `
		WHERE ` + clause + `
		GROUP BY "Quarter"
		ORDER BY "Quarter"`

	rows, err := e.queryComparison(ctx, query, append([]any{years.Previous, years.Current}, args...))
	if err != nil {
		return nil, years, fmt.Errorf("quarterly comparison: %w", err)
	}
	return rows, years, nil
}

// ClassComparison is MonthlyComparison grouped by class.
func (e *Engine) ClassComparison(ctx context.Context, f Filter) ([]ComparisonRow, YearPair, error) {
	years := ResolveYears(f.Years, e.now())
	clause, args := f.WithoutYears().Predicate()

	query := `
		SELECT "Class",
		       SUM(CASE WHEN "Year" = ? THEN COALESCE("Premium", 0) ELSE 0 END),
		       SUM(CASE WHEN "Year" = ? THEN COALESCE("Premium", 0) ELSE 0 END)
		FROM ` + TableName + `
		WHERE ` + clause + `
		GROUP BY "Class"`

	rows, err := e.queryComparison(ctx, query, append([]any{years.Previous, years.Current}, args...))
	if err != nil {
		return nil, years, fmt.Errorf("class comparison: %w", err)
	}
	return rows, years, nil
}

func (e *Engine) queryComparison(ctx context.Context, query string, args []any) ([]ComparisonRow, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ComparisonRow
	for rows.Next() {
		var r ComparisonRow
		if err := rows.Scan(&r.Label, &r.Previous, &r.Current); err != nil {
			return nil, err
		}
		r.Change = percentChange(r.Previous, r.Current)
		out = append(out, r)
	}
	return out, rows.Err()
}

// percentChange computes (current-previous)/previous*100, or nil when
// the previous sum is zero. Never infinity, never an error.
func percentChange(previous, current float64) *float64 {
	if previous == 0 {
		return nil
	}
	change := (current - previous) / previous * 100
	return &change
}

// =============================================================================
// RANKINGS
// =============================================================================

// Rankings groups by intermediary and ranks by summed premium descending.
// RANK (not ROW_NUMBER): ties share a rank and consume its slots, so
// premiums {300, 300, 100} rank {1, 1, 3}. Output order matches rank
// order.
func (e *Engine) Rankings(ctx context.Context, f Filter) ([]RankingRow, error) {
	clause, args := e.scoped(f).Predicate()

	query := `
		SELECT "Intermediary",
		       COUNT(DISTINCT "Policy No"),
		       SUM(COALESCE("Premium", 0)),
		       RANK() OVER (ORDER BY SUM(COALESCE("Premium", 0)) DESC)
		FROM ` + TableName + `
		WHERE ` + clause + `
		GROUP BY "Intermediary"
		ORDER BY SUM(COALESCE("Premium", 0)) DESC`

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rankings: %w", err)
	}
	defer rows.Close()

	var out []RankingRow
	for rows.Next() {
		var r RankingRow
		if err := rows.Scan(&r.Intermediary, &r.Policies, &r.Premium, &r.Rank); err != nil {
			return nil, fmt.Errorf("rankings: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// WEEKLY-BY-MONTH PIVOT
// =============================================================================

// WeeklyByMonth groups by week number and pivots each of the 12 month
// names into a premium column, Jan..Dec, rows ascending by week.
func (e *Engine) WeeklyByMonth(ctx context.Context, f Filter) ([]WeeklyRow, error) {
	clause, args := e.scoped(f).Predicate()

	var b strings.Builder
	b.WriteString(`SELECT "Weeks"`)
	for _, m := range MonthNames {
		// Month names come from the canonical list, not user input.
		fmt.Fprintf(&b, `, SUM(CASE WHEN "Month Name" = '%s' THEN COALESCE("Premium", 0) ELSE 0 END)`, m)
	}
	b.WriteString(` FROM ` + TableName + ` WHERE ` + clause)
	b.WriteString(` GROUP BY "Weeks" ORDER BY "Weeks"`)

	rows, err := e.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("weekly by month: %w", err)
	}
	defer rows.Close()

	var out []WeeklyRow
	for rows.Next() {
		var r WeeklyRow
		dest := make([]any, 0, 13)
		dest = append(dest, &r.Week)
		for i := range r.Months {
			dest = append(dest, &r.Months[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("weekly by month: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// BREAKDOWNS AND SERIES
// =============================================================================

// ClassBreakdown sums premium per class. No ordering guarantee beyond
// the grouping key.
func (e *Engine) ClassBreakdown(ctx context.Context, f Filter) ([]BreakdownRow, error) {
	return e.breakdown(ctx, f, `"Class"`)
}

// BranchBreakdown sums premium per branch.
func (e *Engine) BranchBreakdown(ctx context.Context, f Filter) ([]BreakdownRow, error) {
	return e.breakdown(ctx, f, `"Branch"`)
}

func (e *Engine) breakdown(ctx context.Context, f Filter, col string) ([]BreakdownRow, error) {
	clause, args := e.scoped(f).Predicate()

	query := `SELECT ` + col + `, SUM(COALESCE("Premium", 0)) FROM ` + TableName +
		` WHERE ` + clause + ` GROUP BY ` + col

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("breakdown by %s: %w", col, err)
	}
	defer rows.Close()

	var out []BreakdownRow
	for rows.Next() {
		var r BreakdownRow
		if err := rows.Scan(&r.Key, &r.Premium); err != nil {
			return nil, fmt.Errorf("breakdown by %s: %w", col, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Trend returns the monthly premium series in canonical month order.
func (e *Engine) Trend(ctx context.Context, f Filter) ([]TrendPoint, error) {
	clause, args := e.scoped(f).Predicate()

	query := `
		SELECT "Month", "Month Name", SUM(COALESCE("Premium", 0))
		FROM ` + TableName + `
		WHERE ` + clause + `
		GROUP BY "Month", "Month Name"
		ORDER BY "Month"`

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	defer rows.Close()

	var out []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Month, &p.Label, &p.Premium); err != nil {
			return nil, fmt.Errorf("trend: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// QuarterlyProgress returns the quarterly premium series, ascending.
func (e *Engine) QuarterlyProgress(ctx context.Context, f Filter) ([]QuarterPoint, error) {
	clause, args := e.scoped(f).Predicate()

	query := `
		SELECT "Quarter", SUM(COALESCE("Premium", 0))
		FROM ` + TableName + `
		WHERE ` + clause + `
		GROUP BY "Quarter"
		ORDER BY "Quarter"`

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("quarterly progress: %w", err)
	}
	defer rows.Close()

	var out []QuarterPoint
	for rows.Next() {
		var p QuarterPoint
		if err := rows.Scan(&p.Quarter, &p.Premium); err != nil {
			return nil, fmt.Errorf("quarterly progress: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
