package token

import "fmt"

// Position represents a location in scanned SQL text.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String renders the position as "line L, column C" for error messages.
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Span is a half-open byte range [Start, End) within scanned SQL text.
// Statement structure (an INTO clause, the body after AS, an insert source)
// is tracked as spans over the original text so rewrites can splice without
// disturbing the bytes around them.
type Span struct {
	Start int
	End   int
}

// IsValid returns true if the span delimits at least zero bytes in order.
func (s Span) IsValid() bool {
	return s.Start >= 0 && s.End >= s.Start
}

// Contains returns true if the span contains the given byte offset.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}
