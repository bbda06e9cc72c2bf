package workbook

import (
	"errors"
	"sheetRecon/internal/apperr"
	"sheetRecon/internal/excel"
	"sheetRecon/internal/excel/exceltest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func destinationRows() []excel.Row {
	return []excel.Row{
		{excel.StringCell("Tokyo"), {}, excel.StringCell("Oct"), excel.StringCell("Plan")},
		{{}, {}, excel.NumberCell("2024"), excel.StringCell("v2")},
		{excel.StringCell(" No "), excel.StringCell("Name"), excel.StringCell(" ItemCode "), excel.StringCell("Qty")},
		{excel.NumberCell("1"), excel.StringCell("Widget"), excel.StringCell("A1"), excel.NumberCell("3")},
		{excel.NumberCell("2"), excel.StringCell("Gadget"), excel.StringCell("B2")},
	}
}

func TestSplit(t *testing.T) {
	rows := destinationRows()

	sheet, err := Split("Tokyo", rows)
	require.NoError(t, err)

	assert.Equal(t, "Tokyo", sheet.Name)
	assert.Equal(t, rows[0], sheet.Header[0])
	assert.Equal(t, rows[2], sheet.Header[2], "header rows keep untrimmed values")
	assert.Equal(t, []string{"No", "Name", "ItemCode", "Qty"}, sheet.Data.Columns)
	require.Equal(t, 2, sheet.Data.Len())
	assert.Equal(t, rows[3], sheet.Data.Rows[0])

	i, ok := sheet.Data.ColumnIndex(" ItemCode")
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = sheet.Data.ColumnIndex("Missing")
	assert.False(t, ok)
	_, ok = sheet.Data.ColumnIndex("")
	assert.False(t, ok)

	// the split owns its rows
	sheet.Data.Rows[0][3] = excel.NumberCell("99")
	assert.Equal(t, "3", rows[3][3].Value)
}

func TestSplitHeaderOnly(t *testing.T) {
	sheet, err := Split("Osaka", destinationRows()[:3])
	require.NoError(t, err)
	assert.Equal(t, 0, sheet.Data.Len())
}

func TestSplitTooFewRows(t *testing.T) {
	_, err := Split("Nagoya", destinationRows()[:2])
	require.Error(t, err)

	var se *apperr.StructureError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Nagoya", se.Sheet)
	assert.True(t, errors.Is(err, apperr.ErrTooFewRows))
}

func TestDataTableClone(t *testing.T) {
	sheet, err := Split("Tokyo", destinationRows())
	require.NoError(t, err)

	clone := sheet.Data.Clone()
	clone.Rows[1][0] = excel.StringCell("changed")
	clone.Columns[0] = "changed"

	assert.Equal(t, "2", sheet.Data.Rows[1][0].Value)
	assert.Equal(t, "No", sheet.Data.Columns[0])
}

func TestRewriterLayout(t *testing.T) {
	w := NewRewriter()

	primary := []excel.Row{
		{excel.StringCell("id"), excel.StringCell("name"), excel.StringCell("qty"), excel.StringCell("note")},
		{excel.NumberCell("1"), excel.StringCell("a"), excel.NumberCell("5"), excel.StringCell("keep")},
	}
	require.NoError(t, w.WritePrimarySheet("Summary", primary))

	sheet, err := Split("Tokyo", destinationRows())
	require.NoError(t, err)
	require.NoError(t, w.WriteDestinationSheet(sheet))

	out, err := w.Finalize()
	require.NoError(t, err)

	f := exceltest.Open(t, out)
	assert.Equal(t, []string{"Summary", "Tokyo"}, f.GetSheetList())

	got := exceltest.Rows(t, f, "Summary")
	assert.Equal(t, [][]string{{"id", "name", "qty", "note"}, {"1", "a", "5", "keep"}}, got)

	got = exceltest.Rows(t, f, "Tokyo")
	require.Len(t, got, 5)
	assert.Equal(t, []string{"Tokyo", "", "Oct", "Plan"}, got[0])
	assert.Equal(t, []string{" No ", "Name", " ItemCode ", "Qty"}, got[2])
	assert.Equal(t, []string{"1", "Widget", "A1", "3"}, got[3])
	assert.Equal(t, []string{"2", "Gadget", "B2"}, got[4])

	_, err = w.Finalize()
	assert.Error(t, err)
}

func TestRewriterRejectsDuplicateSheet(t *testing.T) {
	w := NewRewriter()
	defer w.Close()

	require.NoError(t, w.WritePrimarySheet("Sheet1", nil))
	assert.Error(t, w.WritePrimarySheet("Sheet1", nil))
	assert.Equal(t, []string{"Sheet1"}, w.Sheets())
}

func TestRewriterDefaultSheetNameReused(t *testing.T) {
	w := NewRewriter()

	require.NoError(t, w.WritePrimarySheet("Main", nil))
	sheet, err := Split("Sheet1", destinationRows())
	require.NoError(t, err)
	require.NoError(t, w.WriteDestinationSheet(sheet))

	out, err := w.Finalize()
	require.NoError(t, err)
	f := exceltest.Open(t, out)
	assert.Equal(t, []string{"Main", "Sheet1"}, f.GetSheetList())
}

func TestRead(t *testing.T) {
	data := exceltest.Build(t,
		exceltest.Sheet{Name: "Summary", Rows: [][]interface{}{{"id"}, {1}}},
		exceltest.Sheet{Name: "Tokyo", Rows: [][]interface{}{{"t"}, {nil}, {"ItemCode"}}},
		exceltest.Sheet{Name: "Osaka"},
	)

	doc, err := Read(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Summary", "Tokyo", "Osaka"}, doc.SheetNames())
	assert.Equal(t, "Summary", doc.Primary.Name)
	require.Len(t, doc.Primary.Rows, 2)
	assert.Equal(t, excel.NumberCell("1"), doc.Primary.Rows[1][0])
	require.Len(t, doc.Destinations, 2)
	assert.Len(t, doc.Destinations[0].Rows, 3)
	assert.Empty(t, doc.Destinations[1].Rows)
}

func TestReadInvalidBytes(t *testing.T) {
	_, err := Read([]byte("PK not really"))

	var ioErr *apperr.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "workbook", ioErr.Source)
}
