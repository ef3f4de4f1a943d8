package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/claims-extractor/internal/entity"
)

// XLSX returns a workbook (as bytes) with one row per extraction record.
func XLSX(records []entity.ExtractionRecord) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Claims"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	defaultIndex, _ := f.GetSheetIndex("Sheet1")
	if defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Event Date",
		"Submission Date",
		"Vendor",
		"Amount",
		"Tax",
		"Invoice Number",
		"Policy Number",
		"Method",
		"Confidence",
		"Source",
		"Subject",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range records {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		fields := r.Result.Fields
		write(1, strOrEmpty(fields.EventDate))
		write(2, strOrEmpty(fields.SubmissionDate))
		write(3, strOrEmpty(fields.Vendor))
		if fields.Amount != nil {
			write(4, *fields.Amount)
		}
		if fields.Tax != nil {
			write(5, *fields.Tax)
		}
		write(6, strOrEmpty(fields.InvoiceNumber))
		write(7, strOrEmpty(fields.PolicyNumber))
		write(8, string(r.Result.Method))
		write(9, r.Result.Confidence)
		write(10, r.Source)
		write(11, truncate(r.Email.Subject, 140))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "B", 14) // dates
	_ = f.SetColWidth(sheet, "C", "C", 28) // vendor
	_ = f.SetColWidth(sheet, "D", "E", 12) // amounts
	_ = f.SetColWidth(sheet, "F", "G", 18) // refs
	_ = f.SetColWidth(sheet, "J", "J", 40) // source
	_ = f.SetColWidth(sheet, "K", "K", 48) // subject

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
