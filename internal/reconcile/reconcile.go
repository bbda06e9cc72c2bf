// Package reconcile overwrites destination-sheet quantities with ledger totals.
package reconcile

import (
	"sheetRecon/internal/config"
	"sheetRecon/internal/excel"
	"sheetRecon/internal/logger"
	"sheetRecon/internal/workbook"

	"github.com/shopspring/decimal"
)

// Querier is the read side of a ledger index.
type Querier interface {
	Query(destination, itemCode string) (decimal.Decimal, bool)
}

// Outcome summarizes one sheet's reconciliation.
type Outcome struct {
	Sheet          string
	Rows           int
	Matched        int
	Unmatched      int
	Skipped        bool
	MissingColumns []string
}

type Reconciler struct {
	columns config.SheetColumns
	sink    DiagnosticSink
}

// New returns a reconciler reading the given destination-sheet columns. Empty
// names take the configured defaults. A nil sink discards diagnostics.
func New(columns config.SheetColumns, sink DiagnosticSink) *Reconciler {
	if sink == nil {
		sink = discard{}
	}
	return &Reconciler{columns: columns.WithDefaults(), sink: sink}
}

// Reconcile sets every data row's quantity to the ledger total for
// (sheet, item code), or 0 when the ledger has no such rows. Tables without
// the item code or quantity column are left untouched. Rows are never added,
// removed or reordered.
func (r *Reconciler) Reconcile(sheet string, table *workbook.DataTable, idx Querier) Outcome {
	out := Outcome{Sheet: sheet, Rows: table.Len()}

	itemCol, hasItem := table.ColumnIndex(r.columns.ItemCode)
	qtyCol, hasQty := table.ColumnIndex(r.columns.Quantity)
	if !hasItem {
		out.MissingColumns = append(out.MissingColumns, r.columns.ItemCode)
	}
	if !hasQty {
		out.MissingColumns = append(out.MissingColumns, r.columns.Quantity)
	}
	if len(out.MissingColumns) > 0 {
		out.Skipped = true
		logger.Info("Skipping reconciliation, required columns absent",
			"sheet", sheet,
			"missing", out.MissingColumns)
		return out
	}

	for i, row := range table.Rows {
		itemCode := row.Get(itemCol).Text()

		quantity := excel.NumberCell("0")
		if total, ok := idx.Query(sheet, itemCode); ok {
			quantity = excel.NumberCell(total.String())
			out.Matched++
		} else {
			out.Unmatched++
			r.sink.Unmatched(Unmatched{
				Sheet:    sheet,
				ItemCode: itemCode,
				Row:      workbook.HeaderRows + 1 + i,
			})
		}

		for len(row) <= qtyCol {
			row = append(row, excel.Cell{})
		}
		row[qtyCol] = quantity
		table.Rows[i] = row
	}

	logger.Debug("Reconciled sheet",
		"sheet", sheet,
		"rows", out.Rows,
		"matched", out.Matched,
		"unmatched", out.Unmatched)
	return out
}
