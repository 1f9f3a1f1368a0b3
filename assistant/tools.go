/*
tools.go - Assistant-facing tool bindings over the statistics layer

PURPOSE:
  Exposes the three statistics operations as callables with stable
  names and display-ready string results:

    calculate_column_stats     -> JSON statistics payload
    show_numeric_distribution  -> pre-rendered ASCII chart
    quick_column_profile       -> JSON profile payload

  This is the assistant's error boundary: nothing raises past it.
  Every failure - bad identifier, empty column, backend error - comes
  back as a structured error payload string the model can read and
  relay, never as a Go error or panic.

SEE ALSO:
  - stats: the underlying operations
  - assistant.go: function-calling agent that dispatches to these
*/
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/warp/insight-engine/analytics"
	"github.com/warp/insight-engine/stats"
)

// Tool names as declared to the model. Stable contract.
const (
	ToolColumnStats   = "calculate_column_stats"
	ToolDistribution  = "show_numeric_distribution"
	ToolColumnProfile = "quick_column_profile"
)

// ToolSet is the never-raise wrapper the agent invokes.
type ToolSet struct {
	stats *stats.Tools
	log   zerolog.Logger
}

// NewToolSet wraps the statistics layer for agent use.
func NewToolSet(db analytics.Querier, log zerolog.Logger) *ToolSet {
	return &ToolSet{stats: stats.New(db), log: log}
}

// CalculateColumnStats returns basic statistics for a numeric column as
// an indented JSON string.
func (t *ToolSet) CalculateColumnStats(ctx context.Context, table, column string) string {
	result, err := t.stats.ColumnStats(ctx, table, column)
	if err != nil {
		t.log.Warn().Err(err).Str("table", table).Str("column", column).
			Msg("column stats tool failed")
		if errors.Is(err, analytics.ErrNoData) {
			return stats.RenderJSON(map[string]string{"error": "No results found or column is empty"})
		}
		return stats.RenderJSON(map[string]string{
			"error": fmt.Sprintf("Error calculating statistics: %s", err),
		})
	}
	return stats.RenderJSON(result)
}

// ShowNumericDistribution returns an ASCII histogram of a numeric
// column. A bins value of zero or less falls back to the default.
func (t *ToolSet) ShowNumericDistribution(ctx context.Context, table, column string, bins int) string {
	d, err := t.stats.Distribution(ctx, table, column, bins)
	if err != nil {
		t.log.Warn().Err(err).Str("table", table).Str("column", column).
			Msg("distribution tool failed")
		if errors.Is(err, analytics.ErrNoData) {
			return "No data found"
		}
		return fmt.Sprintf("Error creating distribution: %s", err)
	}
	return d.Render()
}

// QuickColumnProfile returns a JSON profile of any column.
func (t *ToolSet) QuickColumnProfile(ctx context.Context, table, column string) string {
	p, err := t.stats.ColumnProfile(ctx, table, column)
	if err != nil {
		t.log.Warn().Err(err).Str("table", table).Str("column", column).
			Msg("column profile tool failed")
		return stats.RenderJSON(map[string]string{
			"error": fmt.Sprintf("Error creating profile: %s", err),
		})
	}
	return stats.RenderJSON(p)
}
