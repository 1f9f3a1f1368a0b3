package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/insight-engine/analytics"
)

// =============================================================================
// PREDICATE CONSTRUCTION
// =============================================================================

func TestPredicate_EmptyFilterIsIdentity(t *testing.T) {
	// GIVEN: No dimension constrained
	// WHEN: Building the predicate
	// THEN: Identity clause, no arguments

	clause, args := analytics.Filter{}.Predicate()

	assert.Equal(t, "1=1", clause)
	assert.Empty(t, args)
}

func TestPredicate_SingleYear(t *testing.T) {
	clause, args := analytics.Filter{Years: []int{2026}}.Predicate()

	assert.Equal(t, `"Year" IN (?)`, clause)
	assert.Equal(t, []any{2026}, args)
}

func TestPredicate_MultiSelectBuildsInList(t *testing.T) {
	// GIVEN: Two branches selected
	// WHEN: Building the predicate
	// THEN: A single IN-list with both values, order preserved

	f := analytics.Filter{Branches: []string{"ACCRA", "KUMASI"}}
	clause, args := f.Predicate()

	assert.Equal(t, `"Branch" IN (?, ?)`, clause)
	assert.Equal(t, []any{"ACCRA", "KUMASI"}, args)
}

func TestPredicate_NormalizesCaseNormalizedColumns(t *testing.T) {
	// GIVEN: Lowercase, padded input for columns that are upper-cased
	//        at ingestion
	// THEN: Values are upper-cased and trimmed to match stored text

	f := analytics.Filter{
		Classes:  []string{" motor "},
		Marketer: "jane doe",
	}
	clause, args := f.Predicate()

	assert.Equal(t, `"Class" IN (?) AND "Marketer" = ?`, clause)
	assert.Equal(t, []any{"MOTOR", "JANE DOE"}, args)
}

func TestPredicate_PreservesCaseForExactColumns(t *testing.T) {
	// Trans Type and Month Name are stored as-is; the predicate must
	// not re-case them.

	f := analytics.Filter{TransType: "New Business", MonthName: "January"}
	clause, args := f.Predicate()

	assert.Equal(t, `"Month Name" = ? AND "Trans Type" = ?`, clause)
	assert.Equal(t, []any{"January", "New Business"}, args)
}

func TestPredicate_CombinesDimensionsWithAnd(t *testing.T) {
	f := analytics.Filter{
		Years:   []int{2025, 2026},
		Quarter: 2,
		Classes: []string{"FIRE"},
	}
	clause, args := f.Predicate()

	assert.Equal(t, `"Year" IN (?, ?) AND "Quarter" = ? AND "Class" IN (?)`, clause)
	assert.Equal(t, []any{2025, 2026, 2, "FIRE"}, args)
}

func TestPredicate_DropsBlankSelections(t *testing.T) {
	// Blank strings inside a multi-select are UI noise, not constraints.

	f := analytics.Filter{Branches: []string{"", "  ", "TEMA"}}
	clause, args := f.Predicate()

	assert.Equal(t, `"Branch" IN (?)`, clause)
	assert.Equal(t, []any{"TEMA"}, args)
}

// =============================================================================
// DERIVED FILTERS
// =============================================================================

func TestWithoutYears_RemovesOnlyYearConstraint(t *testing.T) {
	f := analytics.Filter{Years: []int{2026}, Classes: []string{"MOTOR"}}

	clause, args := f.WithoutYears().Predicate()

	assert.Equal(t, `"Class" IN (?)`, clause)
	assert.Equal(t, []any{"MOTOR"}, args)
	// Original is unchanged.
	assert.Equal(t, []int{2026}, f.Years)
}

func TestWithIntermediaryType_OverridesSelection(t *testing.T) {
	// An entity page fixes the intermediary type regardless of what the
	// shared filter bar carries.

	f := analytics.Filter{IntermediaryTypes: []string{"AGENT", "BROKER"}}

	clause, args := f.WithIntermediaryType(analytics.IntermediaryBroker).Predicate()

	assert.Equal(t, `"Intermediary Type" IN (?)`, clause)
	assert.Equal(t, []any{"BROKER"}, args)
}

func TestIsZero(t *testing.T) {
	assert.True(t, analytics.Filter{}.IsZero())
	assert.False(t, analytics.Filter{Quarter: 3}.IsZero())
}
