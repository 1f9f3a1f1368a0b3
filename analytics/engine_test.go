package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/insight-engine/analytics"
	"github.com/warp/insight-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// tx is a compact transaction fixture. Zero fields fall back to
// defaults so each test only states what it cares about.
type tx struct {
	year         int
	month        int
	week         int
	class        string
	branch       string
	transType    string
	itype        string
	intermediary string
	policy       string
	marketer     string
	premium      float64
}

func (f tx) row() sqlite.RowMap {
	if f.year == 0 {
		f.year = 2026
	}
	if f.month == 0 {
		f.month = 1
	}
	if f.week == 0 {
		f.week = 1
	}
	if f.class == "" {
		f.class = "MOTOR"
	}
	if f.branch == "" {
		f.branch = "ACCRA"
	}
	if f.transType == "" {
		f.transType = analytics.TransTypeNewBusiness
	}
	if f.itype == "" {
		f.itype = analytics.IntermediaryAgent
	}
	if f.intermediary == "" {
		f.intermediary = "ALPHA"
	}
	if f.policy == "" {
		f.policy = "P-001"
	}
	if f.marketer == "" {
		f.marketer = "JANE"
	}

	monthName := analytics.MonthNames[f.month-1]
	return sqlite.RowMap{
		"Transaction Date":  "2026-01-15",
		"Policy No":         f.policy,
		"Trans Type":        f.transType,
		"Branch":            f.branch,
		"Class":             f.class,
		"Dr/Cr No":          "DR-1",
		"Risk ID":           "R-1",
		"Insured":           "ACME LTD",
		"Intermediary Type": f.itype,
		"Intermediary":      f.intermediary,
		"Marketer":          f.marketer,
		"WEF":               "2026-01-01",
		"WET":               "2026-12-31",
		"CURRENCY":          "GHS",
		"Sum Insured":       10000.0,
		"Premium":           f.premium,
		"PAID":              f.premium,
		"Year":              f.year,
		"Month Name":        monthName,
		"Month":             f.month,
		"Quarter":           analytics.QuarterOf(f.month),
		"Weeks":             f.week,
	}
}

// newTestEngine seeds an in-memory store and returns an engine with a
// clock fixed to mid-2026.
func newTestEngine(t *testing.T, fixtures []tx) (*analytics.Engine, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rows := make([]sqlite.RowMap, len(fixtures))
	for i, f := range fixtures {
		rows[i] = f.row()
	}
	if len(rows) > 0 {
		n, err := store.BulkInsert(context.Background(), rows)
		require.NoError(t, err)
		require.Equal(t, len(rows), n)
	}

	clock := func() time.Time {
		return time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	}
	return analytics.NewEngineAt(store.DB(), clock), store
}

// =============================================================================
// SUMMARY TOTALS
// =============================================================================

func TestSummary_SplitsTransactionTypes(t *testing.T) {
	// GIVEN: Two new-business rows and one renewal in the current year
	// WHEN: Computing the summary with no filter
	// THEN: Total covers all rows; each card sums only its type

	engine, _ := newTestEngine(t, []tx{
		{premium: 100, transType: analytics.TransTypeNewBusiness},
		{premium: 250, transType: analytics.TransTypeNewBusiness, policy: "P-002"},
		{premium: 50, transType: analytics.TransTypeRenewal, policy: "P-003"},
	})

	got, err := engine.Summary(context.Background(), analytics.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 400.0, got.Total)
	assert.Equal(t, 350.0, got.NewBusiness)
	assert.Equal(t, 50.0, got.Renewal)
	assert.Equal(t, "For Year 2026", got.YearLabel)
}

func TestSummary_DefaultsToCurrentYear(t *testing.T) {
	// GIVEN: Rows in 2025 and 2026, engine clock fixed to 2026
	// WHEN: No year is selected
	// THEN: Only current-year rows count

	engine, _ := newTestEngine(t, []tx{
		{year: 2025, premium: 900},
		{year: 2026, premium: 100},
	})

	got, err := engine.Summary(context.Background(), analytics.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 100.0, got.Total)
}

func TestSummary_ExplicitYearsOverrideDefault(t *testing.T) {
	engine, _ := newTestEngine(t, []tx{
		{year: 2025, premium: 900},
		{year: 2026, premium: 100},
	})

	got, err := engine.Summary(context.Background(), analytics.Filter{Years: []int{2025, 2026}})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, got.Total)
	assert.Equal(t, "For Years 2025, 2026", got.YearLabel)
}

func TestSummary_EmptyStoreIsZero(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	got, err := engine.Summary(context.Background(), analytics.Filter{})
	require.NoError(t, err)

	assert.Zero(t, got.Total)
	assert.Zero(t, got.NewBusiness)
	assert.Zero(t, got.Renewal)
}

// =============================================================================
// YEAR-OVER-YEAR COMPARISONS
// =============================================================================

func TestMonthlyComparison_ComparesAcrossSelectedYearBoundary(t *testing.T) {
	// GIVEN: January rows in both 2025 and 2026, filter pinned to 2026
	// WHEN: Running the monthly comparison
	// THEN: The base predicate ignores the year selection so both
	//       years' sums appear side by side

	engine, _ := newTestEngine(t, []tx{
		{year: 2025, month: 1, premium: 200},
		{year: 2026, month: 1, premium: 300},
	})

	rows, years, err := engine.MonthlyComparison(context.Background(),
		analytics.Filter{Years: []int{2026}})
	require.NoError(t, err)

	assert.Equal(t, analytics.YearPair{Current: 2026, Previous: 2025}, years)
	require.Len(t, rows, 1)
	assert.Equal(t, "January", rows[0].Label)
	assert.Equal(t, 200.0, rows[0].Previous)
	assert.Equal(t, 300.0, rows[0].Current)
	require.NotNil(t, rows[0].Change)
	assert.InDelta(t, 50.0, *rows[0].Change, 0.0001)
}

func TestMonthlyComparison_ChangeUndefinedOnZeroPreviousYear(t *testing.T) {
	// A previous-year sum of zero yields a nil change, never infinity.

	engine, _ := newTestEngine(t, []tx{
		{year: 2026, month: 3, premium: 500},
	})

	rows, _, err := engine.MonthlyComparison(context.Background(),
		analytics.Filter{Years: []int{2026}})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "March", rows[0].Label)
	assert.Nil(t, rows[0].Change)
	assert.Equal(t, "N/A", analytics.FormatPercent(rows[0].Change))
}

func TestMonthlyComparison_OrderedByMonthIndex(t *testing.T) {
	engine, _ := newTestEngine(t, []tx{
		{year: 2026, month: 10, premium: 10},
		{year: 2026, month: 2, premium: 20},
		{year: 2026, month: 7, premium: 30},
	})

	rows, _, err := engine.MonthlyComparison(context.Background(), analytics.Filter{})
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"February", "July", "October"},
		[]string{rows[0].Label, rows[1].Label, rows[2].Label})
}

func TestQuarterlyComparison_LabelsQuarters(t *testing.T) {
	engine, _ := newTestEngine(t, []tx{
		{year: 2025, month: 2, premium: 100},
		{year: 2026, month: 2, premium: 150},
		{year: 2026, month: 11, premium: 75},
	})

	rows, _, err := engine.QuarterlyComparison(context.Background(), analytics.Filter{})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Q1", rows[0].Label)
	assert.Equal(t, 100.0, rows[0].Previous)
	assert.Equal(t, 150.0, rows[0].Current)
	assert.Equal(t, "Q4", rows[1].Label)
	assert.Nil(t, rows[1].Change)
}

func TestClassComparison_GroupsByClass(t *testing.T) {
	engine, _ := newTestEngine(t, []tx{
		{year: 2025, class: "MOTOR", premium: 400},
		{year: 2026, class: "MOTOR", premium: 100},
		{year: 2026, class: "FIRE", premium: 60},
	})

	rows, _, err := engine.ClassComparison(context.Background(), analytics.Filter{})
	require.NoError(t, err)

	byClass := map[string]analytics.ComparisonRow{}
	for _, r := range rows {
		byClass[r.Label] = r
	}
	require.Len(t, byClass, 2)

	motor := byClass["MOTOR"]
	require.NotNil(t, motor.Change)
	assert.InDelta(t, -75.0, *motor.Change, 0.0001)
	assert.Nil(t, byClass["FIRE"].Change)
}

// =============================================================================
// RANKINGS
// =============================================================================

func TestRankings_TiesShareRankAndConsumeSlots(t *testing.T) {
	// GIVEN: Intermediaries with premiums {300, 300, 100}
	// WHEN: Ranking by summed premium
	// THEN: Standard competition ranking {1, 1, 3}

	engine, _ := newTestEngine(t, []tx{
		{intermediary: "ALPHA", policy: "P-001", premium: 300},
		{intermediary: "BETA", policy: "P-002", premium: 300},
		{intermediary: "GAMMA", policy: "P-003", premium: 100},
	})

	rows, err := engine.Rankings(context.Background(), analytics.Filter{})
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 1, rows[1].Rank)
	assert.Equal(t, 3, rows[2].Rank)
	assert.Equal(t, "GAMMA", rows[2].Intermediary)
}

func TestRankings_CountsDistinctPolicies(t *testing.T) {
	// Two transactions on the same policy count once.

	engine, _ := newTestEngine(t, []tx{
		{intermediary: "ALPHA", policy: "P-001", premium: 100},
		{intermediary: "ALPHA", policy: "P-001", premium: 50},
		{intermediary: "ALPHA", policy: "P-002", premium: 25},
	})

	rows, err := engine.Rankings(context.Background(), analytics.Filter{})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Policies)
	assert.Equal(t, 175.0, rows[0].Premium)
}

// =============================================================================
// PIVOT, BREAKDOWNS AND SERIES
// =============================================================================

func TestWeeklyByMonth_PivotsMonthsIntoColumns(t *testing.T) {
	engine, _ := newTestEngine(t, []tx{
		{week: 1, month: 1, premium: 10},
		{week: 1, month: 2, premium: 20},
		{week: 3, month: 2, premium: 30},
	})

	rows, err := engine.WeeklyByMonth(context.Background(), analytics.Filter{})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Week)
	assert.Equal(t, 10.0, rows[0].Months[0])
	assert.Equal(t, 20.0, rows[0].Months[1])
	assert.Equal(t, 3, rows[1].Week)
	assert.Equal(t, 30.0, rows[1].Months[1])
	assert.Zero(t, rows[1].Months[0])
}

func TestBreakdowns_SumByDimension(t *testing.T) {
	engine, _ := newTestEngine(t, []tx{
		{class: "MOTOR", branch: "ACCRA", premium: 100},
		{class: "MOTOR", branch: "TEMA", premium: 40},
		{class: "FIRE", branch: "ACCRA", premium: 60},
	})

	classes, err := engine.ClassBreakdown(context.Background(), analytics.Filter{})
	require.NoError(t, err)
	sums := map[string]float64{}
	for _, r := range classes {
		sums[r.Key] = r.Premium
	}
	assert.Equal(t, map[string]float64{"MOTOR": 140, "FIRE": 60}, sums)

	branches, err := engine.BranchBreakdown(context.Background(), analytics.Filter{})
	require.NoError(t, err)
	sums = map[string]float64{}
	for _, r := range branches {
		sums[r.Key] = r.Premium
	}
	assert.Equal(t, map[string]float64{"ACCRA": 160, "TEMA": 40}, sums)
}

func TestTrendAndQuarterlyProgress(t *testing.T) {
	engine, _ := newTestEngine(t, []tx{
		{month: 1, premium: 10},
		{month: 4, premium: 20},
		{month: 5, premium: 5},
	})

	trend, err := engine.Trend(context.Background(), analytics.Filter{})
	require.NoError(t, err)
	require.Len(t, trend, 3)
	assert.Equal(t, analytics.TrendPoint{Month: 1, Label: "January", Premium: 10}, trend[0])
	assert.Equal(t, analytics.TrendPoint{Month: 4, Label: "April", Premium: 20}, trend[1])

	quarters, err := engine.QuarterlyProgress(context.Background(), analytics.Filter{})
	require.NoError(t, err)
	require.Len(t, quarters, 2)
	assert.Equal(t, analytics.QuarterPoint{Quarter: 1, Premium: 10}, quarters[0])
	assert.Equal(t, analytics.QuarterPoint{Quarter: 2, Premium: 25}, quarters[1])
}

// =============================================================================
// ENTITY-SCOPED REPORTS
// =============================================================================

func TestEntityReport_FixesIntermediaryType(t *testing.T) {
	// GIVEN: Premium on both agents and brokers
	// WHEN: Running the brokers summary, even with a conflicting
	//       intermediary-type selection in the filter
	// THEN: Only broker rows count

	engine, _ := newTestEngine(t, []tx{
		{itype: analytics.IntermediaryAgent, intermediary: "ALPHA", premium: 100},
		{itype: analytics.IntermediaryBroker, intermediary: "BETA", policy: "P-002", premium: 40},
	})

	report, err := analytics.EntityReportFor(engine, "brokers")
	require.NoError(t, err)

	got, err := report.Summary(context.Background(),
		analytics.Filter{IntermediaryTypes: []string{analytics.IntermediaryAgent}})
	require.NoError(t, err)

	assert.Equal(t, 40.0, got.Total)
}

func TestEntityReport_Intermediaries(t *testing.T) {
	engine, _ := newTestEngine(t, []tx{
		{itype: analytics.IntermediaryAgent, intermediary: "ZETA", premium: 10},
		{itype: analytics.IntermediaryAgent, intermediary: "ALPHA", policy: "P-002", premium: 10},
		{itype: analytics.IntermediaryBroker, intermediary: "BETA", policy: "P-003", premium: 10},
	})

	report, err := analytics.EntityReportFor(engine, "agents")
	require.NoError(t, err)

	names, err := report.Intermediaries(context.Background(), analytics.Filter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"ALPHA", "ZETA"}, names)
}

func TestEntityReportFor_UnknownEntity(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	_, err := analytics.EntityReportFor(engine, "underwriters")
	assert.ErrorIs(t, err, analytics.ErrUnknownEntity)
}
