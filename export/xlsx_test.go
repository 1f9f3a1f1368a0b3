package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/insight-engine/analytics"
	"github.com/warp/insight-engine/export"
)

func TestFilename_Timestamped(t *testing.T) {
	now := time.Date(2026, time.August, 29, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, "insurance_data_20260829_140509.xlsx", export.Filename(now))
}

func TestWriteXLSX_HeaderAndRows(t *testing.T) {
	premium := 1250.5
	records := []analytics.Record{{
		TransactionDate: "2026-03-10",
		PolicyNo:        "P-001",
		TransType:       "New Business",
		Branch:          "ACCRA",
		Class:           "MOTOR",
		Premium:         &premium,
		Year:            2026,
		MonthName:       "March",
		Month:           3,
		Quarter:         1,
		Weeks:           11,
	}}

	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SheetName}, f.GetSheetList())

	header, err := f.GetCellValue(export.SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Transaction Date", header)

	policy, err := f.GetCellValue(export.SheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "P-001", policy)

	got, err := f.GetCellValue(export.SheetName, "P2")
	require.NoError(t, err)
	assert.Equal(t, "1250.5", got)
}

func TestWriteXLSX_NilAmountsAreEmptyCells(t *testing.T) {
	records := []analytics.Record{{PolicyNo: "P-002"}}

	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue(export.SheetName, "P2")
	require.NoError(t, err)
	assert.Empty(t, got)
}
