// Package ledger parses shipment ledgers into an index of summed quantities
// keyed by (destination, item code).
package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sheetRecon/internal/apperr"
	"sheetRecon/internal/config"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Record is one ledger row after trimming.
type Record struct {
	Destination string
	ItemCode    string
	Quantity    decimal.Decimal
	Line        int
}

type key struct {
	destination string
	itemCode    string
}

// Index answers summed-quantity queries. It is immutable after Build and safe
// for concurrent use.
type Index struct {
	profile      config.LedgerProfile
	totals       map[key]decimal.Decimal
	destinations map[string]int
	records      []Record
}

// labels Python and Windows users tend to type that WHATWG does not register
var encodingAliases = map[string]string{
	"cp932":     "shift_jis",
	"sjis":      "shift_jis",
	"utf8":      "utf-8",
	"utf-8-sig": "utf-8",
	"eucjp":     "euc-jp",
}

// Encoding resolves a text encoding name to a decoder.
func Encoding(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := encodingAliases[n]; ok {
		n = alias
	}
	enc, err := htmlindex.Get(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Build decodes data with the profile's encoding and aggregates every row.
func Build(data []byte, profile config.LedgerProfile) (*Index, error) {
	profile = profile.WithDefaults()

	reader, err := NewReader(bytes.NewReader(data), profile)
	if err != nil {
		return nil, err
	}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperr.NewParseError(0, "", errors.New("ledger is empty"))
	}
	if err != nil {
		return nil, csvParseError(err)
	}

	cols, err := locateColumns(header, profile)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		profile:      profile,
		totals:       make(map[key]decimal.Decimal),
		destinations: make(map[string]int),
	}

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}
		line, _ := reader.FieldPos(0)

		rec, err := cols.record(fields, line)
		if err != nil {
			return nil, err
		}
		idx.add(rec)
	}

	return idx, nil
}

// NewReader wraps r in a delimited-text reader that decodes the profile's
// encoding. A leading byte order mark is dropped.
func NewReader(r io.Reader, profile config.LedgerProfile) (*csv.Reader, error) {
	enc, err := Encoding(profile.Encoding)
	if err != nil {
		return nil, apperr.NewIOError("ledger", err)
	}

	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())))
	reader.Comma = profile.Comma()
	reader.FieldsPerRecord = -1
	return reader, nil
}

// Headers returns the trimmed header row of a ledger.
func Headers(data []byte, profile config.LedgerProfile) ([]string, error) {
	reader, err := NewReader(bytes.NewReader(data), profile.WithDefaults())
	if err != nil {
		return nil, err
	}
	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperr.NewParseError(0, "", errors.New("ledger is empty"))
	}
	if err != nil {
		return nil, csvParseError(err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}
	return names, nil
}

type columns struct {
	destination int
	itemCode    int
	quantity    int
	quantityCol string
}

func locateColumns(header []string, profile config.LedgerProfile) (columns, error) {
	find := func(name string) (int, error) {
		want := strings.TrimSpace(name)
		for i, h := range header {
			if strings.TrimSpace(h) == want {
				return i, nil
			}
		}
		return -1, apperr.NewParseError(1, want, apperr.ErrMissingColumn)
	}

	var (
		cols columns
		err  error
	)
	if cols.destination, err = find(profile.DestinationColumn); err != nil {
		return cols, err
	}
	if cols.itemCode, err = find(profile.ItemCodeColumn); err != nil {
		return cols, err
	}
	if cols.quantity, err = find(profile.QuantityColumn); err != nil {
		return cols, err
	}
	cols.quantityCol = strings.TrimSpace(profile.QuantityColumn)
	return cols, nil
}

func (c columns) record(fields []string, line int) (Record, error) {
	field := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}

	rec := Record{
		Destination: field(c.destination),
		ItemCode:    field(c.itemCode),
		Quantity:    decimal.Zero,
		Line:        line,
	}

	// blank quantities count as a match but add nothing to the sum
	if raw := field(c.quantity); raw != "" {
		q, err := decimal.NewFromString(raw)
		if err != nil {
			return Record{}, apperr.NewParseError(line, c.quantityCol, fmt.Errorf("invalid quantity %q", raw))
		}
		rec.Quantity = q
	}
	return rec, nil
}

func (idx *Index) add(rec Record) {
	k := key{destination: rec.Destination, itemCode: rec.ItemCode}
	if sum, ok := idx.totals[k]; ok {
		idx.totals[k] = sum.Add(rec.Quantity)
	} else {
		idx.totals[k] = rec.Quantity
	}
	idx.destinations[rec.Destination]++
	idx.records = append(idx.records, rec)
}

// Query returns the summed quantity of all records whose trimmed destination
// and item code equal the trimmed arguments. ok is false when no record matched.
func (idx *Index) Query(destination, itemCode string) (decimal.Decimal, bool) {
	sum, ok := idx.totals[key{
		destination: strings.TrimSpace(destination),
		itemCode:    strings.TrimSpace(itemCode),
	}]
	return sum, ok
}

// HasDestination reports whether any record names the destination.
func (idx *Index) HasDestination(destination string) bool {
	return idx.destinations[strings.TrimSpace(destination)] > 0
}

// Destinations returns every destination seen in the ledger, sorted.
func (idx *Index) Destinations() []string {
	names := make([]string, 0, len(idx.destinations))
	for name := range idx.destinations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of ledger records.
func (idx *Index) Len() int {
	return len(idx.records)
}

// Records returns a copy of the parsed records in ledger order.
func (idx *Index) Records() []Record {
	out := make([]Record, len(idx.records))
	copy(out, idx.records)
	return out
}

// Profile returns the profile the index was built with.
func (idx *Index) Profile() config.LedgerProfile {
	return idx.profile
}

func csvParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return apperr.NewParseError(pe.Line, "", pe.Err)
	}
	return apperr.NewIOError("ledger", err)
}
