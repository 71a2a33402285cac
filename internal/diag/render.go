package diag

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Renderer writes diagnostics in the "file:line:col: severity: message"
// format. When Source is set, each diagnostic is followed by the offending
// line and a caret underline.
type Renderer struct {
	Source string
}

// Render writes ds to w in the order given.
func (r *Renderer) Render(w io.Writer, ds []Diagnostic) error {
	var lines []string
	if r.Source != "" {
		lines = strings.Split(r.Source, "\n")
	}

	for _, d := range ds {
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return err
		}
		if lines == nil {
			continue
		}
		if _, err := io.WriteString(w, excerpt(lines, d)); err != nil {
			return err
		}
	}
	return nil
}

// excerpt renders the first line of d's span with carets under the covered
// columns. It returns "" when the span does not point into lines.
func excerpt(lines []string, d Diagnostic) string {
	line := d.Span.Start.Line
	if line < 1 || line > len(lines) {
		return ""
	}
	text := strings.TrimRight(lines[line-1], "\r")

	start := d.Span.Start.Column
	if start < 1 {
		start = 1
	}
	width := 1
	if d.Span.End.Line == line && d.Span.End.Column > start {
		width = d.Span.End.Column - start
	} else if d.Span.End.Line > line {
		width = utf8.RuneCountInString(text) - start + 1
	}
	if width < 1 {
		width = 1
	}

	gutter := fmt.Sprintf("%d", line)
	pad := strings.Repeat(" ", len(gutter))

	var sb strings.Builder
	fmt.Fprintf(&sb, " %s | %s\n", gutter, text)
	fmt.Fprintf(&sb, " %s | %s%s\n", pad, strings.Repeat(" ", start-1), strings.Repeat("^", width))
	return sb.String()
}

// Summary returns a one-line count such as "2 errors, 1 warning".
func Summary(ds []Diagnostic) string {
	var errs, warns int
	for _, d := range ds {
		switch d.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warns++
		}
	}
	return plural(errs, "error") + ", " + plural(warns, "warning")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
