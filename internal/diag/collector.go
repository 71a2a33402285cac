package diag

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fruti-lang/fruti/internal/source"
)

// Collector accumulates diagnostics for one compilation unit.
// It is append-only and safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	items  []Diagnostic
	errors int
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a diagnostic.
func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append(c.items, d)
	if d.IsError() {
		c.errors++
	}
}

// Errorf records an error.
func (c *Collector) Errorf(phase Phase, kind Kind, span source.Span, format string, args ...any) {
	c.Add(Diagnostic{
		Severity: SeverityError,
		Phase:    phase,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// Warnf records a warning.
func (c *Collector) Warnf(phase Phase, kind Kind, span source.Span, format string, args ...any) {
	c.Add(Diagnostic{
		Severity: SeverityWarning,
		Phase:    phase,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// Notef records a note.
func (c *Collector) Notef(phase Phase, kind Kind, span source.Span, format string, args ...any) {
	c.Add(Diagnostic{
		Severity: SeverityNote,
		Phase:    phase,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// Len returns the number of diagnostics recorded so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// ErrorCount returns the number of error-severity diagnostics.
func (c *Collector) ErrorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	return c.ErrorCount() > 0
}

// All returns a copy of the diagnostics in insertion order.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Sorted returns a copy of the diagnostics ordered by span start.
// Diagnostics at the same offset keep their insertion order.
func (c *Collector) Sorted() []Diagnostic {
	out := c.All()
	SortBySpan(out)
	return out
}

// SortBySpan stably orders diagnostics by start offset, then end offset.
func SortBySpan(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i].Span, ds[j].Span
		if a.Start.Offset != b.Start.Offset {
			return a.Start.Offset < b.Start.Offset
		}
		return a.End.Offset < b.End.Offset
	})
}

// Filter returns the diagnostics of the given kind, in insertion order.
func (c *Collector) Filter(kind Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.All() {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
