package pipeline

import (
	"context"
	"errors"
	"sheetRecon/internal/apperr"
	"sheetRecon/internal/config"
	"sheetRecon/internal/excel/exceltest"
	"sheetRecon/internal/reconcile"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ledgerCSV = "届け先名,商品コード,出荷実績検品数\n" +
	"Tokyo,A1,5\n" +
	" Tokyo ,A1 ,3\n" +
	"Osaka,B2,10\n"

func options(sink reconcile.DiagnosticSink) Options {
	cfg := config.DefaultConfig()
	profile, _ := cfg.Profile("utf8")
	return Options{
		Profile:      profile,
		SheetColumns: cfg.SheetColumns,
		Style:        cfg.Style,
		Sink:         sink,
		Workers:      2,
	}
}

func destination(name string, rows ...[]interface{}) exceltest.Sheet {
	header := [][]interface{}{
		{name, nil, "Oct", "Plan"},
		{nil, nil, 2024, "v2"},
		{"No", "品名", "商品コード", "出荷数"},
	}
	return exceltest.Sheet{
		Name:   name,
		Rows:   append(header, rows...),
		Widths: map[string]float64{"B": 22, "F": 31},
	}
}

func inputWorkbook(t *testing.T, extra ...exceltest.Sheet) []byte {
	t.Helper()
	sheets := []exceltest.Sheet{
		{
			Name: "Summary",
			Rows: [][]interface{}{
				{"id", "name", "qty", "memo"},
				{1, "a", 1},
				{2, "b", 2},
				{3, "c", 3},
				{4, "d", 4, "NOTE-X"},
			},
			Widths: map[string]float64{"D": 28, "G": 40},
		},
		destination("Tokyo",
			[]interface{}{1, "Widget", "A1", 100},
			[]interface{}{2, "Gizmo", "B2", 7},
		),
		destination("Osaka",
			[]interface{}{1, "Gadget", "B2", 1},
			[]interface{}{2, "Thing", "C9", 4},
		),
	}
	return exceltest.Build(t, append(sheets, extra...)...)
}

func TestRunScenarios(t *testing.T) {
	sink := &reconcile.Collector{}

	res, err := Run(context.Background(), []byte(ledgerCSV), inputWorkbook(t), options(sink))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.ID)

	f := exceltest.Open(t, res.Output)
	assert.Equal(t, []string{"Summary", "Tokyo", "Osaka"}, f.GetSheetList())

	assert.Equal(t, "8", exceltest.Value(t, f, "Tokyo", "D4"))
	assert.Equal(t, "0", exceltest.Value(t, f, "Tokyo", "D5"))
	assert.Equal(t, "10", exceltest.Value(t, f, "Osaka", "D4"))
	assert.Equal(t, "0", exceltest.Value(t, f, "Osaka", "D5"))

	// non-quantity cells and header block untouched
	assert.Equal(t, "Widget", exceltest.Value(t, f, "Tokyo", "B4"))
	assert.Equal(t, "商品コード", exceltest.Value(t, f, "Tokyo", "C3"))
	assert.Equal(t, "Oct", exceltest.Value(t, f, "Osaka", "C1"))

	assert.Equal(t, "NOTE-X", exceltest.Value(t, f, "Summary", "D5"))
	assert.Equal(t, "c", exceltest.Value(t, f, "Summary", "B4"))

	for _, c := range []struct {
		sheet, col string
		width      float64
	}{
		{"Tokyo", "B", 22},
		{"Tokyo", "F", 31},
		{"Osaka", "F", 31},
		{"Summary", "D", 28},
		{"Summary", "G", 40},
	} {
		w, err := f.GetColWidth(c.sheet, c.col)
		require.NoError(t, err)
		assert.InDelta(t, c.width, w, 0.01, "%s!%s", c.sheet, c.col)
	}

	filters := map[string]string{}
	for _, dn := range f.GetDefinedName() {
		if dn.Name == "_xlnm._FilterDatabase" {
			filters[dn.Scope] = dn.RefersTo
		}
	}
	assert.Equal(t, map[string]string{
		"Summary": "'Summary'!$A$1:$D$5",
		"Tokyo":   "'Tokyo'!$C$1:$C$5",
		"Osaka":   "'Osaka'!$C$1:$C$5",
	}, filters)

	want := []reconcile.Unmatched{
		{Sheet: "Tokyo", ItemCode: "B2", Row: 5},
		{Sheet: "Osaka", ItemCode: "C9", Row: 5},
	}
	assert.Equal(t, want, res.Unmatched)
	assert.Equal(t, want, sink.Events())

	require.Len(t, res.Sheets, 2)
	assert.Equal(t, "Tokyo", res.Sheets[0].Sheet)
	assert.Equal(t, 1, res.Sheets[0].Matched)
	assert.Equal(t, 2, res.Sheets[1].DataRows)
	assert.Equal(t, 0, res.Skipped())
}

func TestRunZeroOptionsUseDefaultColumns(t *testing.T) {
	profile, err := config.DefaultConfig().Profile("utf8")
	require.NoError(t, err)

	res, err := Run(context.Background(), []byte(ledgerCSV), inputWorkbook(t), Options{Profile: profile})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Skipped())
	f := exceltest.Open(t, res.Output)
	assert.Equal(t, "8", exceltest.Value(t, f, "Tokyo", "D4"))
	assert.Equal(t, "10", exceltest.Value(t, f, "Osaka", "D4"))
}

func TestRunIsIdempotent(t *testing.T) {
	input := inputWorkbook(t)

	first, err := Run(context.Background(), []byte(ledgerCSV), input, options(&reconcile.Collector{}))
	require.NoError(t, err)
	second, err := Run(context.Background(), []byte(ledgerCSV), input, options(&reconcile.Collector{}))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Output, second.Output)
}

func TestRunSkipsSheetWithoutItemCode(t *testing.T) {
	plain := exceltest.Sheet{
		Name: "Nagoya",
		Rows: [][]interface{}{
			{"Nagoya"},
			{nil},
			{"No", "Code", "出荷数"},
			{1, "A1", 42},
		},
	}
	sink := &reconcile.Collector{}

	res, err := Run(context.Background(), []byte(ledgerCSV), inputWorkbook(t, plain), options(sink))
	require.NoError(t, err)

	f := exceltest.Open(t, res.Output)
	assert.Equal(t, "42", exceltest.Value(t, f, "Nagoya", "C4"))
	assert.Equal(t, "A1", exceltest.Value(t, f, "Nagoya", "B4"))
	for _, u := range sink.Events() {
		assert.NotEqual(t, "Nagoya", u.Sheet)
	}
	assert.Equal(t, 1, res.Skipped())
	assert.Equal(t, []string{"商品コード"}, res.Sheets[2].MissingColumns)
}

func TestRunFailsOnShortSheet(t *testing.T) {
	short := exceltest.Sheet{Name: "Kobe", Rows: [][]interface{}{{"Kobe"}, {"x"}}}
	other := exceltest.Sheet{Name: "Sapporo", Rows: [][]interface{}{{"x"}}}

	res, err := Run(context.Background(), []byte(ledgerCSV), inputWorkbook(t, short, other), options(nil))
	require.Error(t, err)
	assert.Nil(t, res)

	assert.True(t, errors.Is(err, apperr.ErrTooFewRows))
	assert.Contains(t, err.Error(), "Kobe")
	assert.Contains(t, err.Error(), "Sapporo")
}

func TestRunLedgerErrors(t *testing.T) {
	_, err := Run(context.Background(), []byte("a,b\n1,2\n"), inputWorkbook(t), options(nil))

	var pe *apperr.ParseError
	require.True(t, errors.As(err, &pe))
	assert.True(t, errors.Is(err, apperr.ErrMissingColumn))
}

func TestRunHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, []byte(ledgerCSV), inputWorkbook(t), options(nil))
	assert.ErrorIs(t, err, context.Canceled)
}
