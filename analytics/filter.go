/*
filter.go - Filter selection and predicate construction

PURPOSE:
  Turns a set of optional, independently-selectable filter values into a
  single conjunctive SQL predicate with bound parameters. This replaces
  string-interpolated WHERE clauses: values never appear in the SQL text.

CONTRACT:
  - absent / empty multi-select  -> no constraint (identity)
  - single value                 -> "col" = ?
  - multi-value                  -> "col" IN (?, ?, ...) (union of matches)
  - no constraints at all        -> 1=1 with no args

  Text values are upper-cased before binding, mirroring the normalization
  applied at ingestion, so filter matching is case-insensitive in effect.

OWNERSHIP:
  A Filter is request-scoped: built from query parameters, consumed once,
  never persisted.

SEE ALSO:
  - engine.go: consumes predicates for the report catalog
  - store/sqlite/sqlite.go: consumes predicates for browse/delete/export
*/
package analytics

import (
	"strings"
)

// Filter is one request's filter selection. Slice dimensions support
// multi-select; scalar dimensions are single-select. Zero values mean
// "no constraint".
type Filter struct {
	Years             []int
	Months            []int
	MonthName         string
	Quarter           int
	Weeks             []int
	Branches          []string
	Classes           []string
	TransType         string
	IntermediaryTypes []string
	Intermediaries    []string
	Marketer          string
	Currency          string
}

// IsZero reports whether no dimension is constrained.
func (f Filter) IsZero() bool {
	clause, args := f.Predicate()
	return clause == "1=1" && len(args) == 0
}

// WithoutYears returns a copy of the filter with the year constraint
// removed. Year-over-year comparison reports use this: the report itself
// is year-differencing, so the base predicate must not exclude either
// year's data.
func (f Filter) WithoutYears() Filter {
	f.Years = nil
	return f
}

// WithIntermediaryType returns a copy constrained to a single fixed
// intermediary type, replacing any user-selected types. Entity-scoped
// reports (agents, brokers, direct, reinsurance) apply this
// unconditionally.
func (f Filter) WithIntermediaryType(t string) Filter {
	f.IntermediaryTypes = []string{t}
	return f
}

// Predicate builds the conjunctive WHERE clause and its bound arguments.
func (f Filter) Predicate() (string, []any) {
	b := predicateBuilder{}
	b.ints(`"Year"`, f.Years)
	b.ints(`"Month"`, f.Months)
	b.text(`"Month Name"`, f.MonthName)
	if f.Quarter != 0 {
		b.add(`"Quarter" = ?`, f.Quarter)
	}
	b.ints(`"Weeks"`, f.Weeks)
	b.normTexts(`"Branch"`, f.Branches)
	b.normTexts(`"Class"`, f.Classes)
	b.text(`"Trans Type"`, f.TransType)
	b.normTexts(`"Intermediary Type"`, f.IntermediaryTypes)
	b.normTexts(`"Intermediary"`, f.Intermediaries)
	b.normText(`"Marketer"`, f.Marketer)
	b.text(`"CURRENCY"`, f.Currency)
	return b.build()
}

// predicateBuilder accumulates per-dimension sub-predicates.
type predicateBuilder struct {
	clauses []string
	args    []any
}

func (b *predicateBuilder) add(clause string, args ...any) {
	b.clauses = append(b.clauses, clause)
	b.args = append(b.args, args...)
}

// text adds an equality test for a single-select text dimension whose
// stored values keep their original case ("Trans Type", "Month Name").
func (b *predicateBuilder) text(col, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.add(col+" = ?", strings.TrimSpace(value))
}

// normText is text for a dimension that is upper-cased at ingestion;
// the filter value gets the same normalization so matching is
// case-insensitive in effect.
func (b *predicateBuilder) normText(col, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.add(col+" = ?", normalize(value))
}

// normTexts adds an IN-list for a multi-select, case-normalized text
// dimension. An empty selection is treated as absent; the IN list is
// never empty.
func (b *predicateBuilder) normTexts(col string, values []string) {
	values = nonEmpty(values)
	if len(values) == 0 {
		return
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = normalize(v)
	}
	b.add(col+" IN ("+placeholders(len(values))+")", args...)
}

// ints adds an IN-list for a multi-select numeric dimension.
func (b *predicateBuilder) ints(col string, values []int) {
	if len(values) == 0 {
		return
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	b.add(col+" IN ("+placeholders(len(values))+")", args...)
}

func (b *predicateBuilder) build() (string, []any) {
	if len(b.clauses) == 0 {
		return "1=1", nil
	}
	return strings.Join(b.clauses, " AND "), b.args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// normalize applies the same case normalization used at ingestion.
func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
