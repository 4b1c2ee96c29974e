// Package editor provides an in-memory implementation of the text buffer
// collaborator that snippet sessions talk to.
package editor

import (
	"context"

	"github.com/walteh/snipkit/pkg/position"
	"gitlab.com/tozd/go/errors"
)

// MemoryBuffer holds buffer contents as a plain string and applies
// insert/replace requests synchronously. It also records the last
// selection and cursor requests so callers can observe them.
type MemoryBuffer struct {
	uri       string
	content   string
	selection position.Span
	cursor    int
	writes    int
}

func NewMemoryBuffer(uri, content string) *MemoryBuffer {
	return &MemoryBuffer{uri: uri, content: content}
}

func (me *MemoryBuffer) URI() string     { return me.uri }
func (me *MemoryBuffer) Content() string { return me.content }

// Selection returns the last requested selection span.
func (me *MemoryBuffer) Selection() position.Span { return me.selection }

// Cursor returns the last requested cursor offset.
func (me *MemoryBuffer) Cursor() int { return me.cursor }

// Writes returns how many mutating requests have been applied.
func (me *MemoryBuffer) Writes() int { return me.writes }

func (me *MemoryBuffer) InsertText(ctx context.Context, offset int, text string) error {
	if offset < 0 || offset > len(me.content) {
		return errors.Errorf("insert offset %d out of bounds for buffer of %d bytes", offset, len(me.content))
	}
	me.content = me.content[:offset] + text + me.content[offset:]
	me.writes++
	return nil
}

func (me *MemoryBuffer) ReplaceRange(ctx context.Context, span position.Span, text string) error {
	if span.Start < 0 || span.End > len(me.content) || span.Start > span.End {
		return errors.Errorf("replace span %s out of bounds for buffer of %d bytes", span, len(me.content))
	}
	me.content = me.content[:span.Start] + text + me.content[span.End:]
	me.writes++
	return nil
}

func (me *MemoryBuffer) SetSelection(ctx context.Context, span position.Span) error {
	if span.Start < 0 || span.End > len(me.content) || span.Start > span.End {
		return errors.Errorf("selection span %s out of bounds for buffer of %d bytes", span, len(me.content))
	}
	me.selection = span
	me.cursor = span.End
	return nil
}

func (me *MemoryBuffer) SetCursor(ctx context.Context, offset int) error {
	if offset < 0 || offset > len(me.content) {
		return errors.Errorf("cursor offset %d out of bounds for buffer of %d bytes", offset, len(me.content))
	}
	me.cursor = offset
	me.selection = position.EmptySpan(offset)
	return nil
}
