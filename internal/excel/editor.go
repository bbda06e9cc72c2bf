package excel

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

type Editor struct {
	file *excelize.File
}

// OpenFile opens an existing Excel file
func OpenFile(filepath string) (*Editor, error) {
	file, err := excelize.OpenFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &Editor{file: file}, nil
}

// OpenBytes opens a workbook held in memory
func OpenBytes(data []byte) (*Editor, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &Editor{file: file}, nil
}

// CreateNewFile creates a new Excel file in memory
func CreateNewFile() *Editor {
	return &Editor{
		file: excelize.NewFile(),
	}
}

// File exposes the underlying workbook for styling passes.
func (e *Editor) File() *excelize.File {
	return e.file
}

// GetSheetNames returns all sheet names in the workbook
func (e *Editor) GetSheetNames() []string {
	return e.file.GetSheetList()
}

// HasSheet reports whether the workbook contains the named sheet.
func (e *Editor) HasSheet(sheet string) bool {
	idx, err := e.file.GetSheetIndex(sheet)
	return err == nil && idx >= 0
}

// AddSheet creates a new sheet
func (e *Editor) AddSheet(sheetName string) error {
	_, err := e.file.NewSheet(sheetName)
	return err
}

// RenameSheet renames a sheet in place
func (e *Editor) RenameSheet(oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	return e.file.SetSheetName(oldName, newName)
}

// ReadRows returns every row of a sheet with raw values and their stored kind.
// Trailing empty rows are dropped; empty rows in the middle are kept.
func (e *Editor) ReadRows(sheet string) ([]Row, error) {
	raw, err := e.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows of %s: %w", sheet, err)
	}

	rows := make([]Row, len(raw))
	for r, values := range raw {
		row := make(Row, len(values))
		for c, value := range values {
			if value == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			cellType, err := e.file.GetCellType(sheet, cellName)
			if err != nil {
				return nil, fmt.Errorf("failed to get type of %s!%s: %w", sheet, cellName, err)
			}
			row[c] = classify(value, cellType)
		}
		rows[r] = row
	}
	return rows, nil
}

// classify maps an excelize cell type to a Cell. Numeric cells are usually
// stored without a type attribute, so unset types holding a number count as numbers.
func classify(value string, cellType excelize.CellType) Cell {
	switch cellType {
	case excelize.CellTypeBool:
		return Cell{Value: value, Kind: KindBool}
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			return Cell{Value: value, Kind: KindNumber}
		}
	}
	return Cell{Value: value, Kind: KindString}
}

// GetCell reads one cell by 1-based column and row.
func (e *Editor) GetCell(sheet string, col, row int) (Cell, error) {
	cellName, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return Cell{}, err
	}
	value, err := e.file.GetCellValue(sheet, cellName, excelize.Options{RawCellValue: true})
	if err != nil {
		return Cell{}, fmt.Errorf("failed to get %s!%s: %w", sheet, cellName, err)
	}
	if value == "" {
		return Cell{}, nil
	}
	cellType, err := e.file.GetCellType(sheet, cellName)
	if err != nil {
		return Cell{}, fmt.Errorf("failed to get type of %s!%s: %w", sheet, cellName, err)
	}
	return classify(value, cellType), nil
}

// SetCell writes one cell by 1-based column and row. An empty cell clears the target.
func (e *Editor) SetCell(sheet string, col, row int, cell Cell) error {
	cellName, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := e.file.SetCellValue(sheet, cellName, cell.Interface()); err != nil {
		return fmt.Errorf("failed to set %s!%s: %w", sheet, cellName, err)
	}
	return nil
}

// WriteRow writes the non-empty cells of row starting at column A of the
// 1-based rowNum.
func (e *Editor) WriteRow(sheet string, rowNum int, row Row) error {
	for c, cell := range row {
		if cell.IsEmpty() {
			continue
		}
		if err := e.SetCell(sheet, c+1, rowNum, cell); err != nil {
			return err
		}
	}
	return nil
}

// Dimensions returns the used range as 1-based last column and last row.
func (e *Editor) Dimensions(sheet string) (maxCol, maxRow int, err error) {
	rows, err := e.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get rows of %s: %w", sheet, err)
	}
	for _, row := range rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}
	return maxCol, len(rows), nil
}

// ColumnWidths returns the width of every column on the sheet, indexed from
// column 1. Columns without a definition report the sheet default.
func (e *Editor) ColumnWidths(sheet string) ([]float64, error) {
	widths := make([]float64, excelize.MaxColumns)
	for col := 1; col <= excelize.MaxColumns; col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return nil, err
		}
		w, err := e.file.GetColWidth(sheet, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get width of column %s: %w", name, err)
		}
		widths[col-1] = w
	}
	return widths, nil
}

// SetColumnWidth sets the width of the 1-based columns firstCol..lastCol.
func (e *Editor) SetColumnWidth(sheet string, firstCol, lastCol int, width float64) error {
	first, err := excelize.ColumnNumberToName(firstCol)
	if err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(lastCol)
	if err != nil {
		return err
	}
	return e.file.SetColWidth(sheet, first, last, width)
}

// Bytes serializes the workbook.
func (e *Editor) Bytes() ([]byte, error) {
	buf, err := e.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Close closes the Excel file
func (e *Editor) Close() error {
	return e.file.Close()
}
