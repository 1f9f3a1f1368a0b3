/*
entity.go - Entity-scoped report component

PURPOSE:
  One parameterized component covering the four distribution-channel
  report pages (agents, brokers, direct, reinsurance). They differ only
  in the fixed intermediary-type constant, which is applied on top of
  whatever the user selected - user filters never widen the scope.

USAGE:
  agents := analytics.NewEntityReport(engine, analytics.IntermediaryAgent)
  rows, years, err := agents.MonthlyComparison(ctx, filter)

SEE ALSO:
  - engine.go: underlying report catalog
  - api/handlers.go: /api/entities/{type}/... routes
*/
package analytics

import (
	"context"
	"fmt"
)

// EntityReport scopes the report catalog to one intermediary type.
type EntityReport struct {
	engine           *Engine
	intermediaryType string
}

// NewEntityReport creates an entity-scoped report over the engine.
func NewEntityReport(engine *Engine, intermediaryType string) *EntityReport {
	return &EntityReport{engine: engine, intermediaryType: intermediaryType}
}

// EntityReportFor maps a URL entity name to its intermediary-type
// constant. Returns ErrUnknownEntity for anything else.
func EntityReportFor(engine *Engine, name string) (*EntityReport, error) {
	types := map[string]string{
		"agents":      IntermediaryAgent,
		"brokers":     IntermediaryBroker,
		"direct":      IntermediaryDirect,
		"reinsurance": IntermediaryReinsurance,
	}
	t, ok := types[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownEntity)
	}
	return NewEntityReport(engine, t), nil
}

// IntermediaryType returns the fixed type constant this report is
// scoped to.
func (r *EntityReport) IntermediaryType() string {
	return r.intermediaryType
}

func (r *EntityReport) scope(f Filter) Filter {
	return f.WithIntermediaryType(r.intermediaryType)
}

// Summary computes the entity's summary cards.
func (r *EntityReport) Summary(ctx context.Context, f Filter) (SummaryTotals, error) {
	return r.engine.Summary(ctx, r.scope(f))
}

// MonthlyComparison compares the entity's premium by month year-over-year.
func (r *EntityReport) MonthlyComparison(ctx context.Context, f Filter) ([]ComparisonRow, YearPair, error) {
	return r.engine.MonthlyComparison(ctx, r.scope(f))
}

// QuarterlyComparison compares the entity's premium by quarter.
func (r *EntityReport) QuarterlyComparison(ctx context.Context, f Filter) ([]ComparisonRow, YearPair, error) {
	return r.engine.QuarterlyComparison(ctx, r.scope(f))
}

// Rankings ranks the entity's intermediaries by premium.
func (r *EntityReport) Rankings(ctx context.Context, f Filter) ([]RankingRow, error) {
	return r.engine.Rankings(ctx, r.scope(f))
}

// Intermediaries lists the distinct intermediary names under this
// entity's scope, ordered by name. Feeds the page's filter dropdown.
func (r *EntityReport) Intermediaries(ctx context.Context, f Filter) ([]string, error) {
	clause, args := r.engine.scoped(r.scope(f)).Predicate()

	query := `SELECT DISTINCT "Intermediary" FROM ` + TableName +
		` WHERE ` + clause + ` ORDER BY "Intermediary"`

	rows, err := r.engine.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("intermediaries: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("intermediaries: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
