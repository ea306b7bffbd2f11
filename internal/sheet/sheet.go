// Package sheet inspects the spreadsheets produced by the conversion backend.
package sheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Summary describes a workbook.
type Summary struct {
	Sheets []string
	// Rows is the number of data rows on the first sheet, header excluded.
	Rows    int
	Columns []string
}

// Inspect opens an .xlsx payload and summarises its first sheet.
func Inspect(payload []byte) (*Summary, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	summary := &Summary{Sheets: sheets}
	if len(rows) > 0 {
		summary.Columns = rows[0]
		summary.Rows = len(rows) - 1
	}

	return summary, nil
}
