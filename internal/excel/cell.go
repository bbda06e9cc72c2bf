package excel

import (
	"strconv"
	"strings"
)

// CellKind records how a cell value was stored so it can be written back
// with the same type.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindString
	KindNumber
	KindBool
)

func (k CellKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	}
	return "empty"
}

// Cell is a raw cell value plus its kind.
type Cell struct {
	Value string
	Kind  CellKind
}

// Row is one sheet row, column A first.
type Row []Cell

func StringCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Value: s, Kind: KindString}
}

func NumberCell(s string) Cell {
	return Cell{Value: s, Kind: KindNumber}
}

func BoolCell(b bool) Cell {
	if b {
		return Cell{Value: "1", Kind: KindBool}
	}
	return Cell{Value: "0", Kind: KindBool}
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == KindEmpty || c.Value == ""
}

// Text returns the value with surrounding whitespace trimmed.
func (c Cell) Text() string {
	return strings.TrimSpace(c.Value)
}

// Interface returns the value in the Go type excelize stores it as: int64 or
// float64 for numbers, bool, string, or nil for an empty cell.
func (c Cell) Interface() interface{} {
	switch c.Kind {
	case KindEmpty:
		return nil
	case KindBool:
		return c.Value == "1" || strings.EqualFold(c.Value, "true")
	case KindNumber:
		v, _ := parseNumericValue(c.Value)
		return v
	}
	return c.Value
}

// parseNumericValue attempts to parse a string as a number and returns the appropriate type
// Returns the original string if it's not a valid number, and a flag indicating if it's a float
func parseNumericValue(value string) (interface{}, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value, false
	}

	if intVal, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return intVal, false
	}

	if floatVal, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return floatVal, true
	}

	return value, false
}

// Get returns the cell at 0-based column i, or an empty cell past the end.
func (r Row) Get(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// Clone returns a copy that shares no backing array with r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}
