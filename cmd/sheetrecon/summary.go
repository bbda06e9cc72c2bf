package main

import (
	"fmt"
	"sheetRecon/internal/pipeline"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("40"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// maxListedUnmatched caps the unmatched keys printed; the log has all of them.
const maxListedUnmatched = 10

func renderSummary(res *pipeline.Result, outPath string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Reconciliation complete"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("run %s in %s", res.ID, res.Elapsed.Round(time.Millisecond))))
	b.WriteString("\n\n")

	for _, s := range res.Sheets {
		switch {
		case s.Skipped:
			fmt.Fprintf(&b, "%s %s: skipped, missing %s\n",
				warnStyle.Render("!"), s.Sheet, strings.Join(s.MissingColumns, ", "))
		case s.Unmatched > 0:
			fmt.Fprintf(&b, "%s %s: %d rows, %d matched, %d set to 0\n",
				warnStyle.Render("•"), s.Sheet, s.Rows, s.Matched, s.Unmatched)
		default:
			fmt.Fprintf(&b, "%s %s: %d rows, all matched\n",
				okStyle.Render("✓"), s.Sheet, s.Rows)
		}
	}

	if n := len(res.Unmatched); n > 0 {
		fmt.Fprintf(&b, "\nNo ledger data (%d):\n", n)
		for i, u := range res.Unmatched {
			if i == maxListedUnmatched {
				fmt.Fprintf(&b, "  ... and %d more\n", n-i)
				break
			}
			fmt.Fprintf(&b, "  %s row %d: %s\n", u.Sheet, u.Row, u.ItemCode)
		}
	}

	fmt.Fprintf(&b, "\nSheets: %d reconciled, %d skipped | Unmatched: %d\n",
		len(res.Sheets)-res.Skipped(), res.Skipped(), len(res.Unmatched))
	fmt.Fprintf(&b, "Output: %s", outPath)

	return boxStyle.Render(b.String())
}
