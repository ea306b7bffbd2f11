package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	return buf.Bytes()
}

func TestInspect(t *testing.T) {
	payload := workbook(t, [][]any{
		{"Serial", "Name", "Enrollment", "Contact", "Address"},
		{"10001", "ASHA RANI", "D/123/2021", "9876543210", "Main Road"},
		{"10002", "RAVI KUMAR", "D/124/2021", "9876543211", "Station Road"},
	})

	summary, err := Inspect(payload)
	require.NoError(t, err)

	assert.Equal(t, []string{"Sheet1"}, summary.Sheets)
	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, []string{"Serial", "Name", "Enrollment", "Contact", "Address"}, summary.Columns)
}

func TestInspect_EmptySheet(t *testing.T) {
	summary, err := Inspect(workbook(t, nil))
	require.NoError(t, err)
	assert.Zero(t, summary.Rows)
	assert.Empty(t, summary.Columns)
}

func TestInspect_NotAWorkbook(t *testing.T) {
	_, err := Inspect([]byte("definitely not a zip"))
	assert.Error(t, err)
}
