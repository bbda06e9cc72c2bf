// Package apperr defines the error kinds a reconciliation run can fail with.
package apperr

import (
	"errors"
	"fmt"
)

// ErrMissingColumn indicates a required ledger column is absent after trimming.
var ErrMissingColumn = errors.New("missing required column")

// ErrUnknownEncoding indicates the configured text encoding has no decoder.
var ErrUnknownEncoding = errors.New("unknown text encoding")

// ErrTooFewRows indicates a destination sheet has fewer than 3 header rows.
var ErrTooFewRows = errors.New("destination sheet has fewer than 3 rows")

// ErrSheetNotFound indicates a sheet referenced by name does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrNoPrimarySheet indicates the workbook has no sheets at all.
var ErrNoPrimarySheet = errors.New("workbook has no primary sheet")

// ParseError reports a malformed ledger. Line is 1-based and 0 when the
// problem is not tied to a single line (for example the header).
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("ledger parse error at line %d, column %q: %v", e.Line, e.Column, e.Err)
	case e.Column != "":
		return fmt.Sprintf("ledger parse error in column %q: %v", e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("ledger parse error at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("ledger parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StructureError reports a workbook whose layout does not fit the expected
// primary/destination convention. Row is 1-based, 0 when not applicable.
type StructureError struct {
	Sheet string
	Row   int
	Err   error
}

func (e *StructureError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("structure error in sheet %q at row %d: %v", e.Sheet, e.Row, e.Err)
	}
	return fmt.Sprintf("structure error in sheet %q: %v", e.Sheet, e.Err)
}

func (e *StructureError) Unwrap() error {
	return e.Err
}

// IOError reports an input buffer that cannot be decoded as the expected
// container or text format. Source names the buffer ("ledger", "workbook", ...).
type IOError struct {
	Source string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Source, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(line int, column string, err error) *ParseError {
	return &ParseError{Line: line, Column: column, Err: err}
}

// NewStructureError creates a new StructureError.
func NewStructureError(sheet string, row int, err error) *StructureError {
	return &StructureError{Sheet: sheet, Row: row, Err: err}
}

// NewIOError creates a new IOError.
func NewIOError(source string, err error) *IOError {
	return &IOError{Source: source, Err: err}
}
