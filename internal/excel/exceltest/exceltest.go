// Package exceltest builds small in-memory workbooks for tests.
package exceltest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Sheet describes one fixture sheet. Rows are written from A1; nil values are
// left empty. Widths maps column letters to widths.
type Sheet struct {
	Name   string
	Rows   [][]interface{}
	Widths map[string]float64
}

// Build writes the sheets, in order, into a new workbook and returns its bytes.
func Build(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.Name))
		} else {
			_, err := f.NewSheet(s.Name)
			require.NoError(t, err)
		}

		for r, row := range s.Rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(s.Name, cell, v))
			}
		}

		for col, w := range s.Widths {
			require.NoError(t, f.SetColWidth(s.Name, col, col, w))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// Open reopens workbook bytes and closes them when the test ends.
func Open(t testing.TB, data []byte) *excelize.File {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// Rows returns the displayed rows of a sheet.
func Rows(t testing.TB, f *excelize.File, sheet string) [][]string {
	t.Helper()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

// Value returns one displayed cell value.
func Value(t testing.TB, f *excelize.File, sheet, cell string) string {
	t.Helper()

	v, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return v
}
