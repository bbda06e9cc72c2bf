package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sheetRecon/internal/apperr"
	"sheetRecon/internal/config"
	"sheetRecon/internal/ledger"
	"sheetRecon/internal/logger"
	"sheetRecon/internal/mapping"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) mapCommand() *cobra.Command {
	var (
		name     string
		fromName string
		encoding string
		useAI    bool
	)

	cmd := &cobra.Command{
		Use:   "map <ledger.csv | headers.txt>",
		Short: "Interactively map ledger headers to a new ledger profile",
		Long: `map opens a terminal UI to choose which ledger column holds the destination,
the item code and the quantity, and saves the result as a ledger profile in the
config file. Headers come from a ledger file or from a column list written by
'scan --out'. With GEMINI_API_KEY set, unassigned roles are pre-filled with AI
suggestions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := a.cfg.Profile(fromName)
			if err != nil {
				return err
			}
			if encoding != "" {
				if _, err := ledger.Encoding(encoding); err != nil {
					return err
				}
				base.Encoding = encoding
			}

			headers, err := readHeaders(args[0], base)
			if err != nil {
				return err
			}

			initial := mapping.FromProfile(headers, base)
			if useAI && !initial.Complete() {
				initial = suggest(cmd.Context(), headers, initial, a.cfg)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Mapping %d ledger headers (grid %dx%d)\n",
				len(headers), a.cfg.UI.ColumnsPerRow, a.cfg.UI.RowsPerPage)

			final, confirmed, err := mapping.RunMappingTUI(headers, initial, a.cfg.UI)
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "Mapping discarded")
				return nil
			}

			profile, err := final.Apply(base)
			if err != nil {
				return err
			}
			a.cfg.SetProfile(name, profile)
			if err := config.SaveConfig(configPath, a.cfg); err != nil {
				return err
			}

			logger.Info("Saved ledger profile", "profile", name, "base", base.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Ledger profile %q saved to %s\n", name, configPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the profile to save")
	cmd.Flags().StringVar(&fromName, "from", "", "Profile to start from (default from config)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Ledger encoding for the new profile")
	cmd.Flags().BoolVar(&useAI, "ai", true, "Pre-fill roles with AI suggestions when GEMINI_API_KEY is set")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func readHeaders(path string, profile config.LedgerProfile) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return mapping.ReadColumnsFromFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.NewIOError(path, err)
	}
	return ledger.Headers(data, profile)
}

// suggest never fails the command; without a key or on error the mapping is
// returned as is.
func suggest(ctx context.Context, headers []string, m mapping.Mapping, cfg *config.Config) mapping.Mapping {
	apiKey := mapping.GetGeminiAPIKey()
	if apiKey == "" {
		return m
	}

	debugDir := ""
	if cfg.Log.Directory != "" {
		debugDir = filepath.Join(cfg.Log.Directory, "ai_debug")
	}

	ai, err := mapping.NewAIMapper(ctx, apiKey, debugDir)
	if err != nil {
		logger.Warn("AI suggestions unavailable", "error", err)
		return m
	}
	defer ai.Close()

	suggestions, err := ai.Suggest(ctx, headers)
	if err != nil {
		logger.Warn("AI suggestions failed", "error", err)
		return m
	}
	return mapping.Merge(m, suggestions)
}
