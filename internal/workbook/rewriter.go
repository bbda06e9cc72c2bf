package workbook

import (
	"errors"
	"fmt"
	"sheetRecon/internal/excel"
	"sheetRecon/internal/logger"
)

// Rewriter emits a new workbook sheet by sheet. It does no styling; sheets
// appear in the order they are written and keep their names exactly.
type Rewriter struct {
	editor    *excel.Editor
	sheets    []string
	finalized bool
}

// NewRewriter starts an empty output workbook.
func NewRewriter() *Rewriter {
	return &Rewriter{editor: excel.CreateNewFile()}
}

// WritePrimarySheet writes the primary table: row 0 becomes the header row
// and the remaining rows follow it once, so the original first row is not
// repeated in the body.
func (w *Rewriter) WritePrimarySheet(name string, rows []excel.Row) error {
	if err := w.addSheet(name); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	if err := w.editor.WriteRow(name, 1, rows[0]); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}
	for i, row := range rows[1:] {
		if err := w.editor.WriteRow(name, i+2, row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, name, err)
		}
	}

	logger.Debug("Wrote primary sheet", "sheet", name, "rows", len(rows))
	return nil
}

// WriteDestinationSheet writes the header block verbatim at rows 1-3 and the
// data rows from row 4. No column-name row is emitted for the data table.
func (w *Rewriter) WriteDestinationSheet(sheet *DestinationSheet) error {
	if err := w.addSheet(sheet.Name); err != nil {
		return err
	}

	for i, row := range sheet.Header {
		if err := w.editor.WriteRow(sheet.Name, i+1, row); err != nil {
			return fmt.Errorf("failed to write header row %d of %s: %w", i+1, sheet.Name, err)
		}
	}
	for i, row := range sheet.Data.Rows {
		rowNum := HeaderRows + 1 + i
		if err := w.editor.WriteRow(sheet.Name, rowNum, row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", rowNum, sheet.Name, err)
		}
	}

	logger.Debug("Wrote destination sheet", "sheet", sheet.Name, "data_rows", sheet.Data.Len())
	return nil
}

// Finalize serializes the workbook and releases it. The rewriter cannot be
// used afterwards.
func (w *Rewriter) Finalize() ([]byte, error) {
	if w.finalized {
		return nil, errors.New("rewriter already finalized")
	}
	w.finalized = true
	defer w.editor.Close()

	if len(w.sheets) == 0 {
		return nil, errors.New("no sheets written")
	}
	w.editor.File().SetActiveSheet(0)
	return w.editor.Bytes()
}

// Close releases the workbook without serializing it.
func (w *Rewriter) Close() error {
	if w.finalized {
		return nil
	}
	w.finalized = true
	return w.editor.Close()
}

// Sheets returns the names written so far, in order.
func (w *Rewriter) Sheets() []string {
	return append([]string(nil), w.sheets...)
}

func (w *Rewriter) addSheet(name string) error {
	if w.finalized {
		return errors.New("rewriter already finalized")
	}
	for _, s := range w.sheets {
		if s == name {
			return fmt.Errorf("sheet %q written twice", name)
		}
	}

	// a new workbook starts with one default sheet; the first write takes it over
	if len(w.sheets) == 0 {
		first := w.editor.GetSheetNames()[0]
		if err := w.editor.RenameSheet(first, name); err != nil {
			return fmt.Errorf("failed to name sheet %q: %w", name, err)
		}
	} else if err := w.editor.AddSheet(name); err != nil {
		return fmt.Errorf("failed to add sheet %q: %w", name, err)
	}

	w.sheets = append(w.sheets, name)
	return nil
}
