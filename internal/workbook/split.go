// Package workbook splits destination sheets into their header block and data
// table, and writes the reconciled structure back out as a new workbook.
package workbook

import (
	"fmt"
	"sheetRecon/internal/apperr"
	"sheetRecon/internal/excel"
	"strings"
)

// HeaderRows is the fixed height of a destination sheet's header block. The
// last header row names the data columns.
const HeaderRows = 3

// DataTable is the part of a destination sheet below the header block.
type DataTable struct {
	Columns []string
	Rows    []excel.Row
}

// DestinationSheet is one per-destination sheet split into header and data.
type DestinationSheet struct {
	Name   string
	Header [HeaderRows]excel.Row
	Data   *DataTable
}

// Split separates raw sheet rows into the verbatim header block and the data
// table whose column names come from the trimmed third header row.
func Split(name string, rows []excel.Row) (*DestinationSheet, error) {
	if len(rows) < HeaderRows {
		return nil, apperr.NewStructureError(name, 0, fmt.Errorf("%w (found %d)", apperr.ErrTooFewRows, len(rows)))
	}

	sheet := &DestinationSheet{Name: name}
	for i := 0; i < HeaderRows; i++ {
		sheet.Header[i] = rows[i].Clone()
	}

	columnRow := rows[HeaderRows-1]
	columns := make([]string, len(columnRow))
	for i, c := range columnRow {
		columns[i] = strings.TrimSpace(c.Value)
	}

	data := make([]excel.Row, 0, len(rows)-HeaderRows)
	for _, r := range rows[HeaderRows:] {
		data = append(data, r.Clone())
	}

	sheet.Data = &DataTable{Columns: columns, Rows: data}
	return sheet, nil
}

// ColumnIndex returns the 0-based index of the first column with the trimmed name.
func (t *DataTable) ColumnIndex(name string) (int, bool) {
	want := strings.TrimSpace(name)
	if want == "" {
		return -1, false
	}
	for i, c := range t.Columns {
		if c == want {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy so a working copy can be modified independently.
func (t *DataTable) Clone() *DataTable {
	out := &DataTable{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]excel.Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Len returns the number of data rows.
func (t *DataTable) Len() int {
	return len(t.Rows)
}
