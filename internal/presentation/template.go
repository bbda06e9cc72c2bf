// Package presentation restores the visual layout of a rewritten workbook.
package presentation

import (
	"fmt"
	"sheetRecon/internal/config"
	"sheetRecon/internal/workbook"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Border line kinds, valued as excelize border style ids.
type Border int

const (
	BorderNone   Border = 0
	BorderThin   Border = 1
	BorderDotted Border = 4
)

// Font is a complete font choice; rules replace the font as a whole.
type Font struct {
	Family string
	Size   float64
	Bold   bool
}

// Region is an inclusive 1-based rectangle. A zero LastRow or LastCol means
// "through the last used row/column" of the sheet being styled.
type Region struct {
	FirstRow, LastRow int
	FirstCol, LastCol int
}

func (g Region) contains(row, col, lastRow, lastCol int) bool {
	lr, lc := g.LastRow, g.LastCol
	if lr == 0 {
		lr = lastRow
	}
	if lc == 0 {
		lc = lastCol
	}
	return row >= g.FirstRow && row <= lr && col >= g.FirstCol && col <= lc
}

// Rule sets attributes on every cell of its region. Unset attributes (nil
// font, empty fill, false center, nil border) leave earlier rules in effect.
type Rule struct {
	Name   string
	Region Region
	Font   *Font
	Fill   string
	Center bool
	Border *Border
}

// Style is the resolved attribute set of one cell. It is comparable so equal
// styles share one workbook style id.
type Style struct {
	Font        Font
	Fill        string
	Center      bool
	Border      Border
	BorderColor string
}

// Template is the fixed destination-sheet layout. Rules are folded in order,
// so a later rule overrides an earlier one where both set an attribute.
type Template struct {
	Rules         []Rule
	Merge         [2]string
	FreezeCell    string
	DataRowHeight float64
	FilterColumn  string
	BorderColor   string
	MinRows       int
	MinCols       int
}

// NewTemplate builds the layout from its configurable parameters.
//
// Header rows 2-3 fall under both the dotted data border and the solid header
// frame. The frame rule comes later, so solid wins there.
func NewTemplate(st config.StyleTemplate) *Template {
	st = st.WithDefaults()

	base := Font{Family: st.FontFamily, Size: st.FontSize}
	title := Font{Family: st.FontFamily, Size: st.TitleFontSize, Bold: true}
	dotted, thin := BorderDotted, BorderThin
	h := workbook.HeaderRows

	return &Template{
		Rules: []Rule{
			{Name: "base font", Region: Region{FirstRow: 1, FirstCol: 1}, Font: &base},
			{Name: "dotted grid", Region: Region{FirstRow: 2, FirstCol: 1}, Border: &dotted},
			{Name: "header frame", Region: Region{FirstRow: 1, LastRow: h, FirstCol: 1}, Border: &thin},
			{Name: "title", Region: Region{FirstRow: 1, LastRow: 2, FirstCol: 1, LastCol: 2}, Font: &title, Center: true},
			{Name: "primary header", Region: Region{FirstRow: 1, LastRow: 2, FirstCol: 3, LastCol: 3}, Fill: st.PrimaryFill, Center: true},
			{Name: "secondary header", Region: Region{FirstRow: 1, LastRow: 2, FirstCol: 4, LastCol: 4}, Fill: st.SecondaryFill, Center: true},
			{Name: "column names", Region: Region{FirstRow: h, LastRow: h, FirstCol: 1, LastCol: 4}, Fill: st.ColumnNameFill, Center: true},
			{Name: "data codes", Region: Region{FirstRow: h + 1, FirstCol: 3, LastCol: 4}, Center: true},
		},
		Merge:         [2]string{"A1", "B2"},
		FreezeCell:    fmt.Sprintf("A%d", h+1),
		DataRowHeight: st.DataRowHeight,
		FilterColumn:  strings.ToUpper(strings.TrimSpace(st.FilterColumn)),
		BorderColor:   st.BorderColor,
		MinRows:       h,
		MinCols:       4,
	}
}

// Bounds pads a sheet's used range so every fixed template cell exists.
func (t *Template) Bounds(maxRow, maxCol int) (lastRow, lastCol int) {
	return max(maxRow, t.MinRows), max(maxCol, t.MinCols)
}

// StyleAt resolves the style of one cell for a sheet whose padded used range
// ends at lastRow/lastCol.
func (t *Template) StyleAt(row, col, lastRow, lastCol int) Style {
	var s Style
	for _, r := range t.Rules {
		if !r.Region.contains(row, col, lastRow, lastCol) {
			continue
		}
		if r.Font != nil {
			s.Font = *r.Font
		}
		if r.Fill != "" {
			s.Fill = r.Fill
		}
		if r.Center {
			s.Center = true
		}
		if r.Border != nil {
			s.Border = *r.Border
		}
	}
	if s.Border != BorderNone {
		s.BorderColor = t.BorderColor
	}
	return s
}

// toExcelize converts a resolved style into the workbook representation.
func (s Style) toExcelize() *excelize.Style {
	out := &excelize.Style{}
	if s.Font.Family != "" {
		out.Font = &excelize.Font{
			Family: s.Font.Family,
			Size:   s.Font.Size,
			Bold:   s.Font.Bold,
		}
	}
	if s.Fill != "" {
		out.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.Fill}}
	}
	if s.Center {
		out.Alignment = &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	}
	if s.Border != BorderNone {
		for _, side := range []string{"left", "top", "right", "bottom"} {
			out.Border = append(out.Border, excelize.Border{
				Type:  side,
				Color: s.BorderColor,
				Style: int(s.Border),
			})
		}
	}
	return out
}
