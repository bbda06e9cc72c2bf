// Command sheetrecon reconciles destination-sheet quantities in a shipment
// workbook against a shipment ledger.
package main

import (
	"fmt"
	"io"
	"os"
	"sheetRecon/internal/config"
	"sheetRecon/internal/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

type app struct {
	cfg    *config.Config
	closer io.Closer
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "sheetrecon",
		Short: "Reconcile shipment workbook quantities against a shipment ledger",
		Long: `sheetrecon overwrites the quantity column of every destination sheet in a
shipment workbook with the totals found in a shipment ledger CSV, and keeps the
workbook's layout and styling.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.toml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		a.runCommand(),
		a.scanCommand(),
		a.mapCommand(),
		a.profilesCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		a.close()
		os.Exit(1)
	}
}

func (a *app) load() error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	closer, err := logger.Setup(cfg.Log.Directory, "sheetrecon", level)
	if err != nil {
		return err
	}
	a.closer = closer
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
		a.closer = nil
	}
}
