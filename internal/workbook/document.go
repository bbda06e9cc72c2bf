package workbook

import (
	"sheetRecon/internal/apperr"
	"sheetRecon/internal/excel"
)

// RawSheet is a sheet's name and typed rows as read from the input.
type RawSheet struct {
	Name string
	Rows []excel.Row
}

// Document is an input workbook read fully into memory. Sheet 0 is the
// primary sheet; the rest are destination sheets.
type Document struct {
	Primary      RawSheet
	Destinations []RawSheet
}

// Read opens workbook bytes and loads every sheet in order.
func Read(data []byte) (*Document, error) {
	editor, err := excel.OpenBytes(data)
	if err != nil {
		return nil, apperr.NewIOError("workbook", err)
	}
	defer editor.Close()

	names := editor.GetSheetNames()
	if len(names) == 0 {
		return nil, apperr.NewStructureError("", 0, apperr.ErrNoPrimarySheet)
	}

	doc := &Document{}
	for i, name := range names {
		rows, err := editor.ReadRows(name)
		if err != nil {
			return nil, apperr.NewIOError("workbook", err)
		}
		sheet := RawSheet{Name: name, Rows: rows}
		if i == 0 {
			doc.Primary = sheet
		} else {
			doc.Destinations = append(doc.Destinations, sheet)
		}
	}
	return doc, nil
}

// SheetNames returns all sheet names in workbook order.
func (d *Document) SheetNames() []string {
	names := make([]string, 0, len(d.Destinations)+1)
	names = append(names, d.Primary.Name)
	for _, s := range d.Destinations {
		names = append(names, s.Name)
	}
	return names
}
