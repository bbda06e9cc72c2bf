// Package pipeline runs a full reconciliation: ledger index, per-sheet
// reconciliation, rewrite and presentation restore.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sheetRecon/internal/config"
	"sheetRecon/internal/ledger"
	"sheetRecon/internal/logger"
	"sheetRecon/internal/presentation"
	"sheetRecon/internal/reconcile"
	"sheetRecon/internal/workbook"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Profile      config.LedgerProfile
	SheetColumns config.SheetColumns
	Style        config.StyleTemplate
	// Sink receives unmatched-key events in sheet order after reconciliation.
	// Nil means log them.
	Sink reconcile.DiagnosticSink
	// Workers bounds parallel sheet reconciliation; 0 means GOMAXPROCS.
	Workers int
}

// SheetReport is the per-destination-sheet outcome.
type SheetReport struct {
	reconcile.Outcome
	DataRows int
}

// Result is the handle for one run. Output is the finished workbook.
type Result struct {
	ID        uuid.UUID
	Output    []byte
	Unmatched []reconcile.Unmatched
	Sheets    []SheetReport
	Elapsed   time.Duration
}

// Skipped counts sheets left untouched for missing columns.
func (r *Result) Skipped() int {
	n := 0
	for _, s := range r.Sheets {
		if s.Skipped {
			n++
		}
	}
	return n
}

type sheetWork struct {
	sheet     *workbook.DestinationSheet
	outcome   reconcile.Outcome
	collector reconcile.Collector
}

// Run reconciles workbookData against ledgerData. Every destination sheet is
// attempted; if any fails, the joined error is returned and no output.
func Run(ctx context.Context, ledgerData, workbookData []byte, opts Options) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts.SheetColumns = opts.SheetColumns.WithDefaults()

	res := &Result{ID: uuid.New()}
	log := logger.Logger.With("run_id", res.ID.String())

	idx, err := ledger.Build(ledgerData, opts.Profile)
	if err != nil {
		return nil, err
	}
	log.Info("Built ledger index", "records", idx.Len(), "destinations", len(idx.Destinations()))

	doc, err := workbook.Read(workbookData)
	if err != nil {
		return nil, err
	}

	work := make([]*sheetWork, len(doc.Destinations))
	var errs []error
	for i, raw := range doc.Destinations {
		sheet, err := workbook.Split(raw.Name, raw.Rows)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		work[i] = &sheetWork{sheet: sheet}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := reconcileAll(ctx, work, idx, opts); err != nil {
		return nil, err
	}

	sink := opts.Sink
	if sink == nil {
		sink = reconcile.LogSink{}
	}
	for _, w := range work {
		for _, u := range w.collector.Events() {
			sink.Unmatched(u)
			res.Unmatched = append(res.Unmatched, u)
		}
		res.Sheets = append(res.Sheets, SheetReport{Outcome: w.outcome, DataRows: w.sheet.Data.Len()})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rewritten, err := rewrite(doc, work)
	if err != nil {
		return nil, err
	}

	res.Output, err = presentation.NewRestorer(opts.Style).Apply(workbookData, rewritten)
	if err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	log.Info("Reconciliation finished",
		"sheets", len(res.Sheets),
		"skipped", res.Skipped(),
		"unmatched", len(res.Unmatched),
		"elapsed", res.Elapsed)
	return res, nil
}

// reconcileAll runs one worker per sheet. Workers only read the index and
// each owns its sheet's table and collector.
func reconcileAll(ctx context.Context, work []*sheetWork, idx *ledger.Index, opts Options) error {
	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Workers
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for _, w := range work {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := reconcile.New(opts.SheetColumns, &w.collector)
			w.outcome = r.Reconcile(w.sheet.Name, w.sheet.Data, idx)
			return nil
		})
	}
	return g.Wait()
}

func rewrite(doc *workbook.Document, work []*sheetWork) ([]byte, error) {
	w := workbook.NewRewriter()
	if err := w.WritePrimarySheet(doc.Primary.Name, doc.Primary.Rows); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write primary sheet: %w", err)
	}
	for _, sw := range work {
		if err := w.WriteDestinationSheet(sw.sheet); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to write sheet %q: %w", sw.sheet.Name, err)
		}
	}
	return w.Finalize()
}
