package presentation

import (
	"errors"
	"fmt"
	"sheetRecon/internal/apperr"
	"sheetRecon/internal/config"
	"sheetRecon/internal/excel"
	"sheetRecon/internal/logger"

	"github.com/xuri/excelize/v2"
)

// Restorer copies presentation from the original workbook onto a rewritten
// one and applies the destination-sheet template.
type Restorer struct {
	tmpl            *Template
	preservedColumn int
}

func NewRestorer(st config.StyleTemplate) *Restorer {
	st = st.WithDefaults()
	return &Restorer{tmpl: NewTemplate(st), preservedColumn: st.PreservedColumn}
}

// Apply returns the rewritten workbook with presentation restored. Sheet 0 of
// each workbook is the primary sheet; every other rewritten sheet must exist
// in the original under the same name. Any sheet failure fails the call and
// no partial output is returned.
func (r *Restorer) Apply(original, rewritten []byte) ([]byte, error) {
	src, err := excel.OpenBytes(original)
	if err != nil {
		return nil, apperr.NewIOError("original workbook", err)
	}
	defer src.Close()

	dst, err := excel.OpenBytes(rewritten)
	if err != nil {
		return nil, apperr.NewIOError("rewritten workbook", err)
	}
	defer dst.Close()

	srcSheets, dstSheets := src.GetSheetNames(), dst.GetSheetNames()
	if len(srcSheets) == 0 || len(dstSheets) == 0 {
		return nil, apperr.NewStructureError("", 0, apperr.ErrNoPrimarySheet)
	}

	if err := r.restorePrimary(src, srcSheets[0], dst, dstSheets[0]); err != nil {
		return nil, err
	}

	styles := newStyleCache(dst.File())
	var errs []error
	for _, sheet := range dstSheets[1:] {
		if !src.HasSheet(sheet) {
			errs = append(errs, apperr.NewStructureError(sheet, 0, apperr.ErrSheetNotFound))
			continue
		}
		if err := r.restoreDestination(src, dst, sheet, styles); err != nil {
			errs = append(errs, apperr.NewStructureError(sheet, 0, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	out, err := dst.Bytes()
	if err != nil {
		return nil, apperr.NewIOError("restored workbook", err)
	}
	logger.Debug("Restored presentation", "sheets", len(dstSheets), "styles", styles.len())
	return out, nil
}

// restorePrimary carries the preserved column and the column widths over from
// the original, then filters the full used range.
func (r *Restorer) restorePrimary(src *excel.Editor, srcName string, dst *excel.Editor, dstName string) error {
	fail := func(err error) error { return apperr.NewStructureError(dstName, 0, err) }

	_, srcRows, err := src.Dimensions(srcName)
	if err != nil {
		return fail(err)
	}

	col := r.preservedColumn
	for row := 1; row <= srcRows; row++ {
		cell, err := src.GetCell(srcName, col, row)
		if err != nil {
			return fail(err)
		}
		if err := dst.SetCell(dstName, col, row, cell); err != nil {
			return fail(err)
		}
	}

	if err := copyWidths(src, srcName, dst, dstName); err != nil {
		return fail(err)
	}

	dstCols, dstRows, err := dst.Dimensions(dstName)
	if err != nil {
		return fail(err)
	}
	if dstRows == 0 || dstCols == 0 {
		return nil
	}
	ref, err := rangeRef(1, 1, dstCols, dstRows)
	if err != nil {
		return fail(err)
	}
	if err := dst.File().AutoFilter(dstName, ref, nil); err != nil {
		return fail(fmt.Errorf("failed to set filter %s: %w", ref, err))
	}
	return nil
}

func (r *Restorer) restoreDestination(src, dst *excel.Editor, sheet string, styles *styleCache) error {
	f := dst.File()
	t := r.tmpl

	maxCol, maxRow, err := dst.Dimensions(sheet)
	if err != nil {
		return err
	}
	lastRow, lastCol := t.Bounds(maxRow, maxCol)

	if err := t.applyStyles(f, sheet, lastRow, lastCol, styles); err != nil {
		return err
	}

	if err := f.MergeCell(sheet, t.Merge[0], t.Merge[1]); err != nil {
		return fmt.Errorf("failed to merge %s:%s: %w", t.Merge[0], t.Merge[1], err)
	}

	_, freezeRow, err := excelize.CellNameToCoordinates(t.FreezeCell)
	if err != nil {
		return err
	}
	for row := freezeRow; row <= lastRow; row++ {
		if err := f.SetRowHeight(sheet, row, t.DataRowHeight); err != nil {
			return fmt.Errorf("failed to set height of row %d: %w", row, err)
		}
	}

	if err := copyWidths(src, sheet, dst, sheet); err != nil {
		return err
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      freezeRow - 1,
		TopLeftCell: t.FreezeCell,
		ActivePane:  "bottomLeft",
		Selection: []excelize.Selection{
			{SQRef: t.FreezeCell, ActiveCell: t.FreezeCell, Pane: "bottomLeft"},
		},
	}); err != nil {
		return fmt.Errorf("failed to freeze panes at %s: %w", t.FreezeCell, err)
	}

	ref := fmt.Sprintf("%s1:%s%d", t.FilterColumn, t.FilterColumn, lastRow)
	if err := f.AutoFilter(sheet, ref, nil); err != nil {
		return fmt.Errorf("failed to set filter %s: %w", ref, err)
	}

	logger.Debug("Styled destination sheet", "sheet", sheet, "last_row", lastRow, "last_col", lastCol)
	return nil
}

// applyStyles resolves every cell of the padded used range and writes runs of
// equal styles along each row as one range.
func (t *Template) applyStyles(f *excelize.File, sheet string, lastRow, lastCol int, styles *styleCache) error {
	for row := 1; row <= lastRow; row++ {
		start := 1
		current := t.StyleAt(row, 1, lastRow, lastCol)
		for col := 2; col <= lastCol+1; col++ {
			var next Style
			if col <= lastCol {
				next = t.StyleAt(row, col, lastRow, lastCol)
				if next == current {
					continue
				}
			}
			if err := styles.set(sheet, row, start, col-1, current); err != nil {
				return err
			}
			start, current = col, next
		}
	}
	return nil
}

// copyWidths makes every column of dstName as wide as the same column of
// srcName, including columns that hold no values. Consecutive columns that
// need the same width are written as one range.
func copyWidths(src *excel.Editor, srcName string, dst *excel.Editor, dstName string) error {
	want, err := src.ColumnWidths(srcName)
	if err != nil {
		return err
	}
	have, err := dst.ColumnWidths(dstName)
	if err != nil {
		return err
	}

	for col := 1; col <= len(want); {
		w := want[col-1]
		if w == have[col-1] {
			col++
			continue
		}
		last := col
		for last < len(want) && want[last] == w && want[last] != have[last] {
			last++
		}
		if err := dst.SetColumnWidth(dstName, col, last, w); err != nil {
			return fmt.Errorf("failed to set width of columns %d-%d: %w", col, last, err)
		}
		col = last + 1
	}
	return nil
}

func rangeRef(firstCol, firstRow, lastCol, lastRow int) (string, error) {
	from, err := excelize.CoordinatesToCellName(firstCol, firstRow)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(lastCol, lastRow)
	if err != nil {
		return "", err
	}
	return from + ":" + to, nil
}

// styleCache maps resolved styles to workbook style ids. Ids are allocated in
// first-use order, which keeps output bytes stable for the same input.
type styleCache struct {
	f   *excelize.File
	ids map[Style]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, ids: make(map[Style]int)}
}

func (c *styleCache) id(s Style) (int, error) {
	if id, ok := c.ids[s]; ok {
		return id, nil
	}
	id, err := c.f.NewStyle(s.toExcelize())
	if err != nil {
		return 0, fmt.Errorf("failed to create style: %w", err)
	}
	c.ids[s] = id
	return id, nil
}

func (c *styleCache) set(sheet string, row, firstCol, lastCol int, s Style) error {
	id, err := c.id(s)
	if err != nil {
		return err
	}
	from, err := excelize.CoordinatesToCellName(firstCol, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(lastCol, row)
	if err != nil {
		return err
	}
	return c.f.SetCellStyle(sheet, from, to, id)
}

func (c *styleCache) len() int {
	return len(c.ids)
}
