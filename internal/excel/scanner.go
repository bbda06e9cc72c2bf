package excel

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// SheetColumns is the set of column names found on one sheet's header row.
type SheetColumns struct {
	Sheet   string
	Columns []string
}

// ScanColumns reads the 1-based headerRow of each named sheet and returns its
// trimmed, non-empty column names in sheet order.
func (e *Editor) ScanColumns(headerRow int, sheets []string) ([]SheetColumns, error) {
	var result []SheetColumns
	for _, sheetName := range sheets {
		rows, err := e.file.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read rows of sheet %s: %w", sheetName, err)
		}

		scan := SheetColumns{Sheet: sheetName}
		if headerRow >= 1 && headerRow <= len(rows) {
			for _, header := range rows[headerRow-1] {
				if trimmed := strings.TrimSpace(header); trimmed != "" {
					scan.Columns = append(scan.Columns, trimmed)
				}
			}
		}
		result = append(result, scan)
	}
	return result, nil
}

// Has reports whether the scanned sheet carries the trimmed column name.
func (s SheetColumns) Has(name string) bool {
	want := strings.TrimSpace(name)
	for _, c := range s.Columns {
		if c == want {
			return true
		}
	}
	return false
}

// UniqueColumns merges scans into one sorted set of column names.
func UniqueColumns(scans []SheetColumns) []string {
	uniqueColumns := make(map[string]bool)
	for _, s := range scans {
		for _, c := range s.Columns {
			uniqueColumns[c] = true
		}
	}

	columnNames := make([]string, 0, len(uniqueColumns))
	for column := range uniqueColumns {
		columnNames = append(columnNames, column)
	}
	sort.Strings(columnNames)
	return columnNames
}

// WriteColumnsToFile writes the column names to a plain text file, one per line
func WriteColumnsToFile(filename string, columns []string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, column := range columns {
		if _, err := writer.WriteString(column + "\n"); err != nil {
			return fmt.Errorf("failed to write column: %w", err)
		}
	}
	return writer.Flush()
}
