// Package source models locations in fruti source text. Every token, AST node
// and diagnostic carries a Span built from these types.
package source

import "strconv"

// Position is a single point in a source file.
//
// Line and Column are 1-based and Column counts runes, not bytes, so that
// "hello 世界" is eight columns wide. Offset is the 0-based byte offset and is
// the value used for ordering.
type Position struct {
	Filename string
	Line     int
	Column   int
	Offset   int
}

// String formats the position as "file:line:col".
func (p Position) String() string {
	return p.Filename + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// IsValid reports whether the position refers to a real line.
// The zero Position is invalid.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before reports whether p comes strictly before other.
func (p Position) Before(other Position) bool {
	return p.Offset < other.Offset
}

// After reports whether p comes strictly after other.
func (p Position) After(other Position) bool {
	return p.Offset > other.Offset
}

// Span is the half-open byte range [Start, End) of a piece of source.
// End is the position of the first byte after the range.
type Span struct {
	Start Position
	End   Position
}

// String formats the span as "file:line:col-col" for single-line spans and
// "file:line:col-line:col" otherwise.
func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		return s.Start.String() + "-" + strconv.Itoa(s.End.Column)
	}
	return s.Start.String() + "-" + strconv.Itoa(s.End.Line) + ":" + strconv.Itoa(s.End.Column)
}

// IsValid reports whether both ends are valid and correctly ordered.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid() && !s.End.Before(s.Start)
}

// IsEmpty reports whether the span covers no bytes.
func (s Span) IsEmpty() bool {
	return s.End.Offset <= s.Start.Offset
}

// Contains reports whether pos lies inside the span.
func (s Span) Contains(pos Position) bool {
	return !pos.Before(s.Start) && pos.Before(s.End)
}

// Length returns the number of bytes covered by the span.
func (s Span) Length() int {
	if !s.IsValid() {
		return 0
	}
	return s.End.Offset - s.Start.Offset
}

// Text returns the slice of src covered by the span, or "" when the span does
// not fit inside src.
func (s Span) Text(src string) string {
	if s.Start.Offset < 0 || s.End.Offset > len(src) || s.IsEmpty() {
		return ""
	}
	return src[s.Start.Offset:s.End.Offset]
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	out := a
	if b.Start.Before(out.Start) {
		out.Start = b.Start
	}
	if b.End.After(out.End) {
		out.End = b.End
	}
	return out
}
