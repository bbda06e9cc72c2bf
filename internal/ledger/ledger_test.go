package ledger

import (
	"errors"
	"fmt"
	"math/rand"
	"sheetRecon/internal/apperr"
	"sheetRecon/internal/config"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func testProfile() config.LedgerProfile {
	return config.LedgerProfile{
		Encoding:          "utf-8",
		Delimiter:         ",",
		DestinationColumn: "dest",
		ItemCodeColumn:    "item",
		QuantityColumn:    "qty",
	}
}

func TestBuildSumsTrimmedKeys(t *testing.T) {
	data := "dest,item,qty\n" +
		"Tokyo , A1,5\n" +
		"Tokyo,A1,3\n" +
		"Osaka,B2,10\n"

	idx, err := Build([]byte(data), testProfile())
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())

	records := idx.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "Tokyo", records[0].Destination)
	assert.Equal(t, "A1", records[0].ItemCode)
	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, 4, records[2].Line)

	q, ok := idx.Query("Tokyo", "A1")
	require.True(t, ok)
	assert.True(t, q.Equal(decimal.NewFromInt(8)), "got %s", q)

	q, ok = idx.Query("  Tokyo", "A1  ")
	require.True(t, ok)
	assert.Equal(t, "8", q.String())

	_, ok = idx.Query("Osaka", "C9")
	assert.False(t, ok)

	// case-sensitive join
	_, ok = idx.Query("tokyo", "A1")
	assert.False(t, ok)

	assert.Equal(t, []string{"Osaka", "Tokyo"}, idx.Destinations())
	assert.True(t, idx.HasDestination(" Osaka "))
	assert.False(t, idx.HasDestination("Nagoya"))
}

func TestBuildTrimsHeaderNames(t *testing.T) {
	data := " dest , item ,  qty \nTokyo,A1,2\n"

	idx, err := Build([]byte(data), testProfile())
	require.NoError(t, err)

	q, ok := idx.Query("Tokyo", "A1")
	require.True(t, ok)
	assert.Equal(t, "2", q.String())
}

func TestZeroSumIsDistinctFromAbsent(t *testing.T) {
	data := "dest,item,qty\nTokyo,A1,4\nTokyo,A1,-4\nTokyo,B1,\n"

	idx, err := Build([]byte(data), testProfile())
	require.NoError(t, err)

	q, ok := idx.Query("Tokyo", "A1")
	require.True(t, ok)
	assert.True(t, q.IsZero())

	q, ok = idx.Query("Tokyo", "B1")
	require.True(t, ok, "a blank quantity still counts as a matching row")
	assert.True(t, q.IsZero())

	_, ok = idx.Query("Tokyo", "C1")
	assert.False(t, ok)
}

func TestBuildDecimalQuantities(t *testing.T) {
	data := "dest,item,qty\nTokyo,A1,0.1\nTokyo,A1,0.2\n"

	idx, err := Build([]byte(data), testProfile())
	require.NoError(t, err)

	q, ok := idx.Query("Tokyo", "A1")
	require.True(t, ok)
	assert.Equal(t, "0.3", q.String())
}

func TestBuildMissingColumn(t *testing.T) {
	data := "dest,item,amount\nTokyo,A1,5\n"

	_, err := Build([]byte(data), testProfile())
	require.Error(t, err)

	var pe *apperr.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "qty", pe.Column)
	assert.True(t, errors.Is(err, apperr.ErrMissingColumn))
}

func TestBuildInvalidQuantity(t *testing.T) {
	data := "dest,item,qty\nTokyo,A1,5\nTokyo,A2,many\n"

	_, err := Build([]byte(data), testProfile())
	require.Error(t, err)

	var pe *apperr.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)
	assert.Equal(t, "qty", pe.Column)
}

func TestBuildEmptyLedger(t *testing.T) {
	_, err := Build(nil, testProfile())

	var pe *apperr.ParseError
	require.True(t, errors.As(err, &pe))
}

func TestBuildUnknownEncoding(t *testing.T) {
	p := testProfile()
	p.Encoding = "klingon-8"

	_, err := Build([]byte("dest,item,qty\n"), p)

	var ioErr *apperr.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.True(t, errors.Is(err, apperr.ErrUnknownEncoding))
}

func TestBuildShiftJIS(t *testing.T) {
	text := "届け先名,商品コード,出荷実績数\n東京,A1,5\n東京,A1,7\n"
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), text)
	require.NoError(t, err)

	profile := config.DefaultConfig().LedgerProfiles["sjis"]
	idx, err := Build([]byte(encoded), profile)
	require.NoError(t, err)

	q, ok := idx.Query("東京", "A1")
	require.True(t, ok)
	assert.Equal(t, "12", q.String())
}

func TestBuildCP932Alias(t *testing.T) {
	enc, err := Encoding("CP932")
	require.NoError(t, err)
	assert.Equal(t, japanese.ShiftJIS, enc)
}

func TestBuildStripsUTF8BOM(t *testing.T) {
	data := "\ufeffdest,item,qty\nTokyo,A1,1\n"

	idx, err := Build([]byte(data), testProfile())
	require.NoError(t, err)
	_, ok := idx.Query("Tokyo", "A1")
	assert.True(t, ok)
}

func TestBuildTabDelimited(t *testing.T) {
	p := testProfile()
	p.Delimiter = "\t"
	data := "dest\titem\tqty\nTokyo\tA1\t9\n"

	idx, err := Build([]byte(data), p)
	require.NoError(t, err)
	q, ok := idx.Query("Tokyo", "A1")
	require.True(t, ok)
	assert.Equal(t, "9", q.String())
}

func TestHeaders(t *testing.T) {
	names, err := Headers([]byte(" dest ,item, qty\nTokyo,A1,1\n"), testProfile())
	require.NoError(t, err)
	assert.Equal(t, []string{"dest", "item", "qty"}, names)
}

// Query must equal the brute-force trimmed sum for any key.
func TestQueryMatchesBruteForceSum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	dests := []string{"Tokyo", " Tokyo", "Osaka ", "Nagoya"}
	items := []string{"A1", " A1", "B2", "C3 "}

	var b strings.Builder
	b.WriteString("dest,item,qty\n")
	type row struct {
		dest, item string
		qty        int64
	}
	var rows []row
	for i := 0; i < 200; i++ {
		r := row{dests[rng.Intn(len(dests))], items[rng.Intn(len(items))], int64(rng.Intn(50) - 10)}
		rows = append(rows, r)
		fmt.Fprintf(&b, "%s,%s,%d\n", r.dest, r.item, r.qty)
	}

	idx, err := Build([]byte(b.String()), testProfile())
	require.NoError(t, err)

	for _, d := range append(dests, "Sapporo") {
		for _, it := range append(items, "Z9") {
			var want int64
			found := false
			for _, r := range rows {
				if strings.TrimSpace(r.dest) == strings.TrimSpace(d) && strings.TrimSpace(r.item) == strings.TrimSpace(it) {
					want += r.qty
					found = true
				}
			}
			got, ok := idx.Query(d, it)
			assert.Equal(t, found, ok, "presence for (%q, %q)", d, it)
			if found {
				assert.True(t, got.Equal(decimal.NewFromInt(want)), "(%q, %q): got %s want %d", d, it, got, want)
			}
		}
	}
}

func TestQueryConcurrentReaders(t *testing.T) {
	idx, err := Build([]byte("dest,item,qty\nTokyo,A1,5\n"), testProfile())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q, ok := idx.Query("Tokyo", "A1")
				assert.True(t, ok)
				assert.Equal(t, "5", q.String())
			}
		}()
	}
	wg.Wait()
}
