/*
Package stats is the analyst-facing statistics tool layer.

PURPOSE:
  Three read-only operations over arbitrary (table, column) pairs,
  used as callable tools by the conversational assistant and directly
  by the API:

    ColumnStats    mean, sample stddev, min, max, median, counts
    Distribution   equal-width histogram with configurable bin count
    ColumnProfile  cardinality, null count, uniqueness, top values

  In practice the table is insurance_transactions, but the contract is
  generic: any table and column the connection can see.

IDENTIFIER SAFETY:
  Table and column names cannot be bound as SQL parameters. They are
  validated against a strict character allowlist and double-quoted
  before interpolation; anything else is rejected with
  analytics.ErrInvalidIdentifier. This also covers schema names with
  special characters ("Trans Type", "Dr/Cr No").

NULL SEMANTICS:
  Null values are excluded from every statistical measure and from
  histogram binning; they are reported only through null counts. A
  column with zero non-null rows yields analytics.ErrNoData.

STDDEV CONVENTION:
  Sample standard deviation (n-1 denominator). A single-value column
  reports a stddev of zero.

SEE ALSO:
  - render.go: JSON and ASCII presentation of results
  - assistant: binds these operations as agent tools
*/
package stats

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/warp/insight-engine/analytics"
)

// Tools executes statistical queries over a database handle.
type Tools struct {
	db analytics.Querier
}

// New creates the tool layer over the given handle.
func New(db analytics.Querier) *Tools {
	return &Tools{db: db}
}

// identPattern accepts letters, digits, spaces, underscores and the
// slash that appears in "Dr/Cr No".
var identPattern = regexp.MustCompile(`^[A-Za-z0-9_ /-]+$`)

// quoteIdent validates and double-quotes a table or column name.
func quoteIdent(name string) (string, error) {
	if name == "" || !identPattern.MatchString(name) {
		return "", fmt.Errorf("%q: %w", name, analytics.ErrInvalidIdentifier)
	}
	return `"` + name + `"`, nil
}

// =============================================================================
// COLUMN STATS
// =============================================================================

// ColumnStats is the result of the basic statistics operation.
type ColumnStats struct {
	Table     string  `json:"table"`
	Column    string  `json:"column"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"standard_deviation"`
	Min       float64 `json:"minimum"`
	Max       float64 `json:"maximum"`
	Median    float64 `json:"median"`
	TotalRows int     `json:"total_rows"`
	NullCount int     `json:"null_count"`
}

// ColumnStats computes basic statistics for a numeric column. Returns
// analytics.ErrNoData when the column has no non-null rows.
func (t *Tools) ColumnStats(ctx context.Context, table, column string) (*ColumnStats, error) {
	values, total, nulls, err := t.columnValues(ctx, table, column)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("column %s.%s: %w", table, column, analytics.ErrNoData)
	}

	sort.Float64s(values)
	return &ColumnStats{
		Table:     table,
		Column:    column,
		Mean:      mean(values),
		StdDev:    sampleStdDev(values),
		Min:       values[0],
		Max:       values[len(values)-1],
		Median:    median(values),
		TotalRows: total,
		NullCount: nulls,
	}, nil
}

// =============================================================================
// DISTRIBUTION
// =============================================================================

// DefaultBins is the histogram bin count when the caller does not ask
// for one.
const DefaultBins = 10

// Distribution is an equal-width histogram: len(Edges) == len(Counts)+1.
type Distribution struct {
	Table  string    `json:"table"`
	Column string    `json:"column"`
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// Distribution bins the non-null values of a numeric column into `bins`
// equal-width intervals. Width is (max-min)/bins; values equal to the
// maximum land in the last bin. Returns analytics.ErrNoData for an
// empty column.
func (t *Tools) Distribution(ctx context.Context, table, column string, bins int) (*Distribution, error) {
	if bins <= 0 {
		bins = DefaultBins
	}

	values, _, _, err := t.columnValues(ctx, table, column)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("column %s.%s: %w", table, column, analytics.ErrNoData)
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	d := &Distribution{
		Table:  table,
		Column: column,
		Edges:  make([]float64, bins+1),
		Counts: make([]int, bins),
	}
	width := (hi - lo) / float64(bins)
	for i := 0; i <= bins; i++ {
		d.Edges[i] = lo + width*float64(i)
	}
	d.Edges[bins] = hi // avoid float drift on the upper boundary

	for _, v := range values {
		idx := bins - 1
		if width > 0 {
			idx = int((v - lo) / width)
			if idx >= bins {
				idx = bins - 1
			}
		}
		d.Counts[idx]++
	}
	return d, nil
}

// =============================================================================
// COLUMN PROFILE
// =============================================================================

// ValueCount is one of a profile's most frequent values.
type ValueCount struct {
	Value     string `json:"value"`
	Frequency int    `json:"frequency"`
}

// Profile is a quick overview of any column, numeric or categorical.
type Profile struct {
	Table           string       `json:"table"`
	Column          string       `json:"column"`
	TotalRows       int          `json:"total_rows"`
	UniqueValues    int          `json:"unique_values"`
	NullCount       int          `json:"null_count"`
	UniquenessRatio float64      `json:"uniqueness_ratio"`
	TopValues       []ValueCount `json:"top_values"`
}

// ColumnProfile counts rows, distinct non-null values and nulls, and
// lists the five most frequent values. Tie order among equal
// frequencies is unspecified. An empty table yields a zero profile
// with a zero uniqueness ratio, not an error.
func (t *Tools) ColumnProfile(ctx context.Context, table, column string) (*Profile, error) {
	qt, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	qc, err := quoteIdent(column)
	if err != nil {
		return nil, err
	}

	p := &Profile{Table: table, Column: column}

	query := `SELECT COUNT(*), COUNT(DISTINCT ` + qc + `),
		COUNT(CASE WHEN ` + qc + ` IS NULL THEN 1 END) FROM ` + qt
	if err := t.db.QueryRowContext(ctx, query).
		Scan(&p.TotalRows, &p.UniqueValues, &p.NullCount); err != nil {
		return nil, fmt.Errorf("column profile: %w", err)
	}
	if p.TotalRows > 0 {
		ratio := float64(p.UniqueValues) / float64(p.TotalRows) * 100
		p.UniquenessRatio = math.Round(ratio*100) / 100
	}

	topQuery := `SELECT ` + qc + `, COUNT(*) FROM ` + qt + `
		WHERE ` + qc + ` IS NOT NULL
		GROUP BY ` + qc + `
		ORDER BY COUNT(*) DESC
		LIMIT 5`
	rows, err := t.db.QueryContext(ctx, topQuery)
	if err != nil {
		return nil, fmt.Errorf("column profile: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v ValueCount
		if err := rows.Scan(&v.Value, &v.Frequency); err != nil {
			return nil, fmt.Errorf("column profile: %w", err)
		}
		p.TopValues = append(p.TopValues, v)
	}
	return p, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

// columnValues fetches all non-null values of a numeric column plus the
// table's total and null counts.
func (t *Tools) columnValues(ctx context.Context, table, column string) (values []float64, total, nulls int, err error) {
	qt, err := quoteIdent(table)
	if err != nil {
		return nil, 0, 0, err
	}
	qc, err := quoteIdent(column)
	if err != nil {
		return nil, 0, 0, err
	}

	countQuery := `SELECT COUNT(*), COUNT(CASE WHEN ` + qc + ` IS NULL THEN 1 END) FROM ` + qt
	if err := t.db.QueryRowContext(ctx, countQuery).Scan(&total, &nulls); err != nil {
		return nil, 0, 0, fmt.Errorf("column counts: %w", err)
	}

	rows, err := t.db.QueryContext(ctx,
		`SELECT `+qc+` FROM `+qt+` WHERE `+qc+` IS NOT NULL`)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("column values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, 0, 0, fmt.Errorf("column values: %w", err)
		}
		values = append(values, v)
	}
	return values, total, nulls, rows.Err()
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev uses the n-1 denominator. Zero for a single value.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// median of a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
