/*
xlsx.go - spreadsheet export of filtered transaction data

PURPOSE:
  Renders a set of transaction records as a styled .xlsx workbook:
  bold header row on a grey fill with borders, fixed column widths,
  one row per record in the canonical column order.

SEE ALSO:
  - analytics/types.go: column order and Record shape
*/
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/warp/insight-engine/analytics"
)

// SheetName is the single worksheet used for exports.
const SheetName = "Insurance Data"

const columnWidth = 15

// Filename builds a timestamped download name for an export.
func Filename(now time.Time) string {
	return fmt.Sprintf("insurance_data_%s.xlsx", now.Format("20060102_150405"))
}

// WriteXLSX writes the records as a workbook to w.
func WriteXLSX(w io.Writer, records []analytics.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, col := range analytics.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, col); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(SheetName, name, name, columnWidth); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(analytics.Columns))
	if err != nil {
		return fmt.Errorf("column name: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for r, rec := range records {
		values := recordValues(rec)
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", r+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// recordValues flattens a record into the canonical column order.
// Missing numeric amounts export as empty cells.
func recordValues(rec analytics.Record) []any {
	return []any{
		rec.TransactionDate,
		rec.PolicyNo,
		rec.TransType,
		rec.Branch,
		rec.Class,
		rec.DrCrNo,
		rec.RiskID,
		rec.Insured,
		rec.IntermediaryType,
		rec.Intermediary,
		rec.Marketer,
		rec.WEF,
		rec.WET,
		rec.Currency,
		floatCell(rec.SumInsured),
		floatCell(rec.Premium),
		floatCell(rec.Paid),
		rec.Year,
		rec.MonthName,
		rec.Month,
		rec.Quarter,
		rec.Weeks,
	}
}

func floatCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
