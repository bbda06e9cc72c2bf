package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func saveSuggestionsToFile(dir string, headers []string, suggestions []Suggestion, err error) error {
	if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
		return mkErr
	}

	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("ai_mapping_%s.txt", now.Format("2006-01-02_15-04-05.000")))
	file, createErr := os.Create(path)
	if createErr != nil {
		return createErr
	}
	defer file.Close()

	fmt.Fprintf(file, "AI Mapping Debug - %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "===========================================\n\n")

	fmt.Fprintf(file, "LEDGER COLUMNS SENT TO AI (%d):\n", len(headers))
	for i, h := range headers {
		fmt.Fprintf(file, "%d. %s\n", i+1, h)
	}

	fmt.Fprintf(file, "\nAI RESPONSE:\n")
	if err != nil {
		fmt.Fprintf(file, "ERROR: %v\n", err)
	} else {
		fmt.Fprintf(file, "SUCCESS - %d suggestions:\n", len(suggestions))
		for i, s := range suggestions {
			fmt.Fprintf(file, "%d. '%s' → %s (%.2f confidence)\n", i+1, s.Header, s.Role, s.Confidence)
		}
	}

	fmt.Fprintf(file, "\n===========================================\n")
	return nil
}
