package diag

import (
	"strings"
	"sync"
	"testing"

	"github.com/fruti-lang/fruti/internal/source"
)

func span(line, col, off, length int) source.Span {
	return source.Span{
		Start: source.Position{Filename: "main.fruti", Line: line, Column: col, Offset: off},
		End:   source.Position{Filename: "main.fruti", Line: line, Column: col + length, Offset: off + length},
	}
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityError,
		Phase:    PhaseSemantic,
		Kind:     KindTypeMismatch,
		Message:  "expected i32, found str",
		Span:     span(1, 27, 26, 7),
	}

	expected := "main.fruti:1:27: error: expected i32, found str"
	if got := d.String(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if !d.IsError() {
		t.Errorf("expected IsError to be true")
	}
}

func TestCollector_CountsOnlyErrors(t *testing.T) {
	c := NewCollector()
	c.Warnf(PhaseSemantic, KindUnusedVariable, span(1, 1, 0, 1), "unused variable %q", "x")
	c.Notef(PhaseSemantic, KindTooManyErrors, span(1, 1, 0, 1), "too many errors")

	if c.HasErrors() {
		t.Fatalf("expected no errors after warnings and notes")
	}

	c.Errorf(PhaseLexer, KindInvalidCharacter, span(2, 1, 10, 1), "invalid character %q", '@')

	if !c.HasErrors() || c.ErrorCount() != 1 {
		t.Errorf("expected 1 error, got %d", c.ErrorCount())
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 diagnostics, got %d", c.Len())
	}
	if got := c.Filter(KindInvalidCharacter); len(got) != 1 || got[0].Message != `invalid character '@'` {
		t.Errorf("unexpected filtered diagnostics: %v", got)
	}
}

func TestCollector_SortedIsStable(t *testing.T) {
	c := NewCollector()
	c.Errorf(PhaseSemantic, KindTypeMismatch, span(3, 1, 40, 2), "third")
	c.Errorf(PhaseLexer, KindInvalidCharacter, span(1, 1, 0, 1), "first")
	c.Errorf(PhaseParser, KindUnexpectedToken, span(2, 1, 20, 1), "second-a")
	c.Errorf(PhaseSemantic, KindTypeMismatch, span(2, 1, 20, 1), "second-b")

	got := c.Sorted()
	want := []string{"first", "second-a", "second-b", "third"}
	for i, d := range got {
		if d.Message != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], d.Message)
		}
	}

	// Sorting must not reorder the collector itself.
	if c.All()[0].Message != "third" {
		t.Errorf("expected insertion order to be preserved")
	}
}

func TestCollector_ConcurrentAdd(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Errorf(PhaseSemantic, KindTypeMismatch, span(1, 1, i, 1), "error %d", i)
		}(i)
	}
	wg.Wait()

	if c.ErrorCount() != 50 {
		t.Errorf("expected 50 errors, got %d", c.ErrorCount())
	}
}

func TestRenderer_Plain(t *testing.T) {
	ds := []Diagnostic{
		{Severity: SeverityError, Message: "boom", Span: span(2, 5, 14, 3)},
		{Severity: SeverityWarning, Message: "meh", Span: span(3, 1, 30, 1)},
	}

	var sb strings.Builder
	r := &Renderer{}
	if err := r.Render(&sb, ds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "main.fruti:2:5: error: boom\nmain.fruti:3:1: warning: meh\n"
	if sb.String() != expected {
		t.Errorf("expected %q, got %q", expected, sb.String())
	}
}

func TestRenderer_WithSource(t *testing.T) {
	src := "fn main() -> i32 {\n    return \"hello\";\n}\n"
	ds := []Diagnostic{{
		Severity: SeverityError,
		Message:  "mismatched types",
		Span:     span(2, 12, 30, 7),
	}}

	var sb strings.Builder
	r := &Renderer{Source: src}
	if err := r.Render(&sb, ds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(sb.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected header, source line and underline, got %q", sb.String())
	}
	if lines[1] != ` 2 |     return "hello";` {
		t.Errorf("unexpected source line %q", lines[1])
	}
	if lines[2] != `   |            ^^^^^^^` {
		t.Errorf("unexpected underline %q", lines[2])
	}
}

func TestSummary(t *testing.T) {
	ds := []Diagnostic{
		{Severity: SeverityError},
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityNote},
	}
	if got := Summary(ds); got != "2 errors, 1 warning" {
		t.Errorf("expected %q, got %q", "2 errors, 1 warning", got)
	}
}
