package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sheetRecon/internal/apperr"
	"sheetRecon/internal/logger"
	"sheetRecon/internal/pipeline"
	"sheetRecon/internal/reconcile"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) runCommand() *cobra.Command {
	var (
		ledgerPath   string
		workbookPath string
		profileName  string
		outPath      string
		workers      int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile a workbook against a ledger and write the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.cfg.Profile(profileName)
			if err != nil {
				return err
			}

			ledgerData, err := os.ReadFile(ledgerPath)
			if err != nil {
				return apperr.NewIOError(ledgerPath, err)
			}
			workbookData, err := os.ReadFile(workbookPath)
			if err != nil {
				return apperr.NewIOError(workbookPath, err)
			}

			if outPath == "" {
				outPath = defaultOutputPath(workbookPath)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			logger.Info("Starting reconciliation",
				"ledger", ledgerPath,
				"workbook", workbookPath,
				"profile", profile.Name)

			res, err := pipeline.Run(ctx, ledgerData, workbookData, pipeline.Options{
				Profile:      profile,
				SheetColumns: a.cfg.SheetColumns,
				Style:        a.cfg.Style,
				Sink:         reconcile.LogSink{},
				Workers:      workers,
			})
			if err != nil {
				logger.Error("Reconciliation failed", "error", err)
				return err
			}

			if err := os.WriteFile(outPath, res.Output, 0644); err != nil {
				return apperr.NewIOError(outPath, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(res, outPath))
			return nil
		},
	}

	cmd.Flags().StringVarP(&ledgerPath, "ledger", "l", "", "Shipment ledger CSV")
	cmd.Flags().StringVarP(&workbookPath, "workbook", "w", "", "Shipment workbook (.xlsx)")
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Ledger profile (default from config)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output workbook path (default <workbook>_reconciled.xlsx)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel sheet workers (0 = number of CPUs)")
	_ = cmd.MarkFlagRequired("ledger")
	_ = cmd.MarkFlagRequired("workbook")
	return cmd
}

func defaultOutputPath(workbookPath string) string {
	ext := filepath.Ext(workbookPath)
	return strings.TrimSuffix(workbookPath, ext) + "_reconciled.xlsx"
}
