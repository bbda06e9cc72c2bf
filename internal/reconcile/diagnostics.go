package reconcile

import (
	"sheetRecon/internal/logger"
	"sync"
)

// Unmatched is emitted when a destination sheet's item code has no ledger
// rows under that sheet's destination. Row is the 1-based sheet row.
type Unmatched struct {
	Sheet    string
	ItemCode string
	Row      int
}

// DiagnosticSink receives unmatched-key events. Implementations must not
// block for long and can never fail the run.
type DiagnosticSink interface {
	Unmatched(Unmatched)
}

// LogSink writes each event as a structured warning.
type LogSink struct{}

func (LogSink) Unmatched(u Unmatched) {
	logger.Warn("No ledger data for item code, quantity set to 0",
		"sheet", u.Sheet,
		"item_code", u.ItemCode,
		"row", u.Row)
}

// Collector keeps events in memory. Safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	events []Unmatched
}

func (c *Collector) Unmatched(u Unmatched) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, u)
}

// Events returns a copy of the collected events in arrival order.
func (c *Collector) Events() []Unmatched {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Unmatched(nil), c.events...)
}

// Len returns the number of collected events.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// MultiSink fans events out to several sinks; nil entries are skipped.
type MultiSink []DiagnosticSink

func (m MultiSink) Unmatched(u Unmatched) {
	for _, s := range m {
		if s != nil {
			s.Unmatched(u)
		}
	}
}

type discard struct{}

func (discard) Unmatched(Unmatched) {}
