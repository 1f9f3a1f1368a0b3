/*
render.go - Display rendering for statistics results

PURPOSE:
  Turns tool results into the display-ready strings handed back to the
  assistant: indented JSON for stats and profiles, a fixed-width ASCII
  bar chart for distributions.

  The chart format matches what analysts already see in the chat
  window: one line per bin, the lower edge at width 8 with two
  decimals, a '#' bar scaled so the fullest bin spans 50 characters,
  the raw count in parentheses, and a final line carrying the upper
  boundary of the last bin.
*/
package stats

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxBarLength is the character width of the fullest histogram bar.
const maxBarLength = 50

// RenderJSON renders a stats or profile result as indented JSON.
func RenderJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to encode result: %s"}`, err)
	}
	return string(b)
}

// RenderDistribution renders a histogram as an ASCII bar chart.
func (d *Distribution) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nDistribution of %s in %s:\n", d.Column, d.Table)
	b.WriteString(strings.Repeat("-", 60) + "\n")

	maxCount := 0
	for _, c := range d.Counts {
		if c > maxCount {
			maxCount = c
		}
	}

	for i, count := range d.Counts {
		bar := 0
		if maxCount > 0 {
			bar = count * maxBarLength / maxCount
		}
		fmt.Fprintf(&b, "%8.2f | %s (%d)\n", d.Edges[i], strings.Repeat("#", bar), count)
	}
	fmt.Fprintf(&b, "%8.2f |\n", d.Edges[len(d.Edges)-1])
	return b.String()
}
