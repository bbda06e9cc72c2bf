package reconcile

import (
	"bytes"
	"sheetRecon/internal/config"
	"sheetRecon/internal/excel"
	"sheetRecon/internal/ledger"
	"sheetRecon/internal/logger"
	"sheetRecon/internal/workbook"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = config.SheetColumns{ItemCode: "ItemCode", Quantity: "Qty"}

func testIndex(t *testing.T) *ledger.Index {
	t.Helper()
	data := "dest,item,qty\n" +
		"Tokyo , A1,5\n" +
		"Tokyo,A1,3\n" +
		"Osaka,B2,10\n"
	idx, err := ledger.Build([]byte(data), config.LedgerProfile{
		DestinationColumn: "dest",
		ItemCodeColumn:    "item",
		QuantityColumn:    "qty",
	})
	require.NoError(t, err)
	return idx
}

func table(header []string, rows ...excel.Row) *workbook.DataTable {
	return &workbook.DataTable{Columns: header, Rows: rows}
}

func TestReconcileSumsAndZeroFallback(t *testing.T) {
	idx := testIndex(t)
	sink := &Collector{}
	r := New(columns, sink)

	tokyo := table([]string{"No", "ItemCode", "Qty"},
		excel.Row{excel.NumberCell("1"), excel.StringCell(" A1 "), excel.NumberCell("100")},
	)
	out := r.Reconcile("Tokyo", tokyo, idx)
	assert.Equal(t, Outcome{Sheet: "Tokyo", Rows: 1, Matched: 1}, out)
	assert.Equal(t, excel.NumberCell("8"), tokyo.Rows[0][2])
	assert.Equal(t, 0, sink.Len())

	osaka := table([]string{"No", "ItemCode", "Qty"},
		excel.Row{excel.NumberCell("1"), excel.StringCell("B2"), excel.NumberCell("1")},
		excel.Row{excel.NumberCell("2"), excel.StringCell("C9"), excel.NumberCell("7")},
	)
	out = r.Reconcile("Osaka", osaka, idx)
	assert.Equal(t, 1, out.Matched)
	assert.Equal(t, 1, out.Unmatched)
	assert.Equal(t, excel.NumberCell("10"), osaka.Rows[0][2])
	assert.Equal(t, excel.NumberCell("0"), osaka.Rows[1][2])
	assert.Equal(t, []Unmatched{{Sheet: "Osaka", ItemCode: "C9", Row: 5}}, sink.Events())
}

func TestReconcileDestinationIsTheSheet(t *testing.T) {
	idx := testIndex(t)
	sink := &Collector{}

	// A1 only ships to Tokyo
	nagoya := table([]string{"ItemCode", "Qty"}, excel.Row{excel.StringCell("A1"), excel.NumberCell("4")})
	New(columns, sink).Reconcile("Nagoya", nagoya, idx)

	assert.Equal(t, excel.NumberCell("0"), nagoya.Rows[0][1])
	assert.Equal(t, 1, sink.Len())
}

func TestReconcilePreservesRowsAndOrder(t *testing.T) {
	idx := testIndex(t)
	rows := []excel.Row{
		{excel.StringCell("B2"), {}, excel.StringCell("first")},
		{},
		{excel.StringCell("A1")},
		{excel.StringCell("Z1"), excel.NumberCell("3"), excel.StringCell("last")},
	}
	tbl := table([]string{"ItemCode", "Qty", "Note"}, rows...)

	out := New(columns, nil).Reconcile("Tokyo", tbl, idx)

	require.Equal(t, 4, tbl.Len())
	assert.Equal(t, 4, out.Rows)
	assert.Equal(t, "first", tbl.Rows[0][2].Value)
	assert.Equal(t, "0", tbl.Rows[0][1].Value)
	assert.Equal(t, excel.Row{{}, excel.NumberCell("0")}, tbl.Rows[1], "short rows are padded up to the quantity column")
	assert.Equal(t, excel.Row{excel.StringCell("A1"), excel.NumberCell("8")}, tbl.Rows[2])
	assert.Equal(t, "last", tbl.Rows[3][2].Value)
}

func TestReconcileSkipsSheetWithoutItemCode(t *testing.T) {
	idx := testIndex(t)
	sink := &Collector{}
	rows := []excel.Row{{excel.StringCell("A1"), excel.NumberCell("42")}}
	tbl := table([]string{"Code", "Qty"}, rows[0].Clone())

	out := New(columns, sink).Reconcile("Tokyo", tbl, idx)

	assert.True(t, out.Skipped)
	assert.Equal(t, []string{"ItemCode"}, out.MissingColumns)
	assert.Equal(t, rows, tbl.Rows)
	assert.Equal(t, 0, sink.Len())
}

func TestReconcileSkipsSheetWithoutQuantity(t *testing.T) {
	tbl := table([]string{"ItemCode"}, excel.Row{excel.StringCell("A1")})

	out := New(columns, nil).Reconcile("Tokyo", tbl, testIndex(t))

	assert.True(t, out.Skipped)
	assert.Equal(t, []string{"Qty"}, out.MissingColumns)
	assert.Equal(t, excel.Row{excel.StringCell("A1")}, tbl.Rows[0])
}

func TestReconcileEmptyColumnNamesUseDefaults(t *testing.T) {
	tbl := table([]string{"No", "商品コード", "出荷数"},
		excel.Row{excel.NumberCell("1"), excel.StringCell("A1"), excel.NumberCell("100")},
	)

	out := New(config.SheetColumns{}, nil).Reconcile("Tokyo", tbl, testIndex(t))

	assert.False(t, out.Skipped)
	assert.Equal(t, excel.NumberCell("8"), tbl.Rows[0][2])
}

func TestLogSinkWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf, "info")
	t.Cleanup(func() { logger.SetOutput(&bytes.Buffer{}, "info") })

	MultiSink{LogSink{}, nil}.Unmatched(Unmatched{Sheet: "Osaka", ItemCode: "C9", Row: 5})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "sheet=Osaka")
	assert.Contains(t, out, "item_code=C9")
	assert.Contains(t, out, "row=5")
}
