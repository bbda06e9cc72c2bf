package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sheetRecon/internal/apperr"
	"sheetRecon/internal/excel"
	"sheetRecon/internal/ledger"
	"sheetRecon/internal/workbook"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) scanCommand() *cobra.Command {
	var (
		profileName string
		outPath     string
	)

	cmd := &cobra.Command{
		Use:   "scan <ledger.csv | workbook.xlsx>",
		Short: "List ledger headers or destination-sheet columns",
		Long: `scan prints the trimmed header row of a ledger, decoded with the profile's
encoding, or the row-3 column names of every destination sheet in a workbook
together with whether the reconciliation columns are present.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var (
				columns []string
				err     error
			)
			if strings.EqualFold(filepath.Ext(path), ".xlsx") {
				columns, err = a.scanWorkbook(cmd, path)
			} else {
				columns, err = a.scanLedger(cmd, path, profileName)
			}
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := excel.WriteColumnsToFile(outPath, columns); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\n✓ %d column names written to %s\n", len(columns), outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Ledger profile whose encoding and delimiter to use")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Also write the column names to this file, one per line")
	return cmd
}

func (a *app) scanLedger(cmd *cobra.Command, path, profileName string) ([]string, error) {
	profile, err := a.cfg.Profile(profileName)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.NewIOError(path, err)
	}
	headers, err := ledger.Headers(data, profile)
	if err != nil {
		return nil, err
	}

	required := map[string]string{
		profile.DestinationColumn: "destination",
		profile.ItemCodeColumn:    "item code",
		profile.QuantityColumn:    "quantity",
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ledger headers (%s, %s):\n", profile.Name, profile.Encoding)
	for i, h := range headers {
		if role, ok := required[h]; ok {
			fmt.Fprintf(out, "%3d. %s  ← %s\n", i+1, h, role)
			continue
		}
		fmt.Fprintf(out, "%3d. %s\n", i+1, h)
	}
	return headers, nil
}

func (a *app) scanWorkbook(cmd *cobra.Command, path string) ([]string, error) {
	editor, err := excel.OpenFile(path)
	if err != nil {
		return nil, apperr.NewIOError(path, err)
	}
	defer editor.Close()

	sheets := editor.GetSheetNames()
	if len(sheets) == 0 {
		return nil, apperr.NewStructureError("", 0, apperr.ErrNoPrimarySheet)
	}

	scans, err := editor.ScanColumns(workbook.HeaderRows, sheets[1:])
	if err != nil {
		return nil, err
	}

	cols := a.cfg.SheetColumns
	out := cmd.OutOrStdout()
	for _, s := range scans {
		status := "ok"
		var missing []string
		for _, c := range []string{cols.ItemCode, cols.Quantity} {
			if !s.Has(c) {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			status = "will be skipped, missing " + strings.Join(missing, ", ")
		}
		fmt.Fprintf(out, "%s [%s]\n  %s\n", s.Sheet, status, strings.Join(s.Columns, " | "))
	}
	return excel.UniqueColumns(scans), nil
}
