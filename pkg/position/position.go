// Package position provides byte-offset spans and line/column conversion
// for tracking regions of snippet text inside a buffer.
package position

import (
	"fmt"
	"strings"
)

// Span is a half-open [Start, End) byte range in a buffer.
type Span struct {
	Start int
	End   int
}

func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// EmptySpan returns a zero-length span at the given offset.
func EmptySpan(offset int) Span {
	return Span{Start: offset, End: offset}
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether offset falls inside the span. The end offset is
// included so that a cursor sitting directly after the last character still
// counts as inside.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset <= s.End
}

// ContainsSpan reports whether other lies entirely within s.
func (s Span) ContainsSpan(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Overlaps reports whether the two spans share at least one offset.
// Zero-length spans overlap when they fall within the other range.
func (s Span) Overlaps(other Span) bool {
	if s.Len() == 0 {
		return s.Start >= other.Start && s.Start <= other.End
	}
	if other.Len() == 0 {
		return other.Start >= s.Start && other.Start <= s.End
	}
	return other.Start < s.End && other.End > s.Start
}

func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Place is a zero-based line/character pair.
type Place struct {
	Line      int
	Character int
}

// Range is a Place pair, used by integration layers that speak
// line/column instead of byte offsets.
type Range struct {
	Start Place
	End   Place
}

// PlaceOf calculates the zero-based line and column for a byte offset.
func PlaceOf(text string, offset int) Place {
	if offset <= 0 {
		return Place{}
	}
	if offset > len(text) {
		offset = len(text)
	}
	line := 0
	lastNewline := -1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lastNewline = i
		}
	}
	return Place{Line: line, Character: offset - lastNewline - 1}
}

// OffsetOf converts a zero-based line/character pair back to a byte offset.
func OffsetOf(text string, p Place) int {
	split := strings.Split(text, "\n")
	offset := 0
	for i := 0; i < p.Line && i < len(split); i++ {
		offset += len(split[i]) + 1
	}
	return offset + p.Character
}

// ToRange converts a span to a line/column range against the given text.
func (s Span) ToRange(text string) Range {
	return Range{
		Start: PlaceOf(text, s.Start),
		End:   PlaceOf(text, s.End),
	}
}
