// Package snippet implements parsing and rendering of TextMate-style
// snippet templates: tabstops, placeholders, choices, variables, and
// regex transforms.
package snippet

import (
	"strings"

	"github.com/walteh/snipkit/pkg/position"
)

// Marker is a node of the parsed snippet tree.
type Marker interface {
	// Render returns the plain text this marker currently contributes to
	// the expanded snippet.
	Render() string
	// Span returns the marker's half-open byte range in the rendered
	// text, valid after ComputeOffsets.
	Span() position.Span
	// Children returns the marker's nested markers, nil for leaves.
	Children() []Marker

	setSpan(position.Span)
}

// Text is a literal run of characters.
type Text struct {
	Value string

	span position.Span
}

func NewText(value string) *Text {
	return &Text{Value: value}
}

func (me *Text) Render() string          { return me.Value }
func (me *Text) Span() position.Span     { return me.span }
func (me *Text) Children() []Marker      { return nil }
func (me *Text) setSpan(s position.Span) { me.span = s }

// Placeholder is a numbered tabstop. Index 0 is the final cursor position.
// Two placeholders sharing an index are mirrors of one tabstop.
type Placeholder struct {
	Index     int
	Choices   []string
	Transform *Transform

	children []Marker
	span     position.Span
}

func NewPlaceholder(index int, children ...Marker) *Placeholder {
	return &Placeholder{Index: index, children: children}
}

// IsFinalTabstop reports whether this is the terminal stop.
func (me *Placeholder) IsFinalTabstop() bool { return me.Index == 0 }

// Value returns the placeholder's plain text before its own transform is
// applied. This is the value that propagates to mirrors.
func (me *Placeholder) Value() string {
	if len(me.children) == 0 && len(me.Choices) > 0 {
		return me.Choices[0]
	}
	return renderMarkers(me.children)
}

func (me *Placeholder) Render() string {
	value := me.Value()
	if me.Transform != nil {
		return me.Transform.Apply(value)
	}
	return value
}

// SetValue replaces the placeholder's content with a single literal,
// collapsing any nested structure.
func (me *Placeholder) SetValue(value string) {
	me.children = []Marker{NewText(value)}
}

func (me *Placeholder) Span() position.Span     { return me.span }
func (me *Placeholder) Children() []Marker      { return me.children }
func (me *Placeholder) setSpan(s position.Span) { me.span = s }

// Variable is a named substitution resolved once from external context.
// Its children act as the default when the resolver has no value.
type Variable struct {
	Name      string
	Transform *Transform

	resolved *string
	children []Marker
	span     position.Span
}

func NewVariable(name string, children ...Marker) *Variable {
	return &Variable{Name: name, children: children}
}

// Value returns the variable's plain text before its transform: the
// resolved value if resolution succeeded, otherwise the declared default.
func (me *Variable) Value() string {
	if me.resolved != nil {
		return *me.resolved
	}
	return renderMarkers(me.children)
}

func (me *Variable) Render() string {
	value := me.Value()
	if me.Transform != nil {
		return me.Transform.Apply(value)
	}
	return value
}

func (me *Variable) Span() position.Span     { return me.span }
func (me *Variable) Children() []Marker      { return me.children }
func (me *Variable) setSpan(s position.Span) { me.span = s }

// Snippet is the root of a parsed template.
type Snippet struct {
	markers []Marker
	span    position.Span
}

func (me *Snippet) Markers() []Marker   { return me.markers }
func (me *Snippet) Span() position.Span { return me.span }

// Render concatenates the rendered text of every top-level marker.
func (me *Snippet) Render() string {
	return renderMarkers(me.markers)
}

// Walk visits every marker depth-first in document order. Returning false
// from fn aborts the walk.
func (me *Snippet) Walk(fn func(Marker) bool) {
	walkMarkers(me.markers, fn)
}

func walkMarkers(markers []Marker, fn func(Marker) bool) bool {
	for _, m := range markers {
		if !fn(m) {
			return false
		}
		if !walkMarkers(m.Children(), fn) {
			return false
		}
	}
	return true
}

// Placeholders returns every placeholder in document order, nested ones
// included.
func (me *Snippet) Placeholders() []*Placeholder {
	var out []*Placeholder
	me.Walk(func(m Marker) bool {
		if ph, ok := m.(*Placeholder); ok {
			out = append(out, ph)
		}
		return true
	})
	return out
}

// ComputeOffsets assigns each marker its [start, end) span in the rendered
// string, walking the tree left to right from base. It returns the offset
// one past the last rendered byte.
func (me *Snippet) ComputeOffsets(base int) int {
	end := base
	for _, m := range me.markers {
		end = computeOffsets(m, end)
	}
	me.span = position.NewSpan(base, end)
	return end
}

func computeOffsets(m Marker, start int) int {
	rendered := m.Render()
	end := start + len(rendered)
	m.setSpan(position.NewSpan(start, end))

	// Child spans only line up with the parent's output when the parent
	// passes their text through unchanged.
	if transformOf(m) == nil {
		off := start
		for _, c := range m.Children() {
			off = computeOffsets(c, off)
		}
	}
	return end
}

func transformOf(m Marker) *Transform {
	switch m := m.(type) {
	case *Placeholder:
		return m.Transform
	case *Variable:
		return m.Transform
	}
	return nil
}

// AppendFinalTabstop appends an empty tabstop 0 unless one already exists.
func (me *Snippet) AppendFinalTabstop() {
	for _, ph := range me.Placeholders() {
		if ph.IsFinalTabstop() {
			return
		}
	}
	me.markers = append(me.markers, NewPlaceholder(0))
}

func renderMarkers(markers []Marker) string {
	var sb strings.Builder
	for _, m := range markers {
		sb.WriteString(m.Render())
	}
	return sb.String()
}

// appendMarker adds m to list, merging adjacent literals so degraded
// syntax collapses into a single text node.
func appendMarker(list []Marker, m Marker) []Marker {
	if t, ok := m.(*Text); ok && len(list) > 0 {
		if prev, ok := list[len(list)-1].(*Text); ok {
			prev.Value += t.Value
			return list
		}
	}
	return append(list, m)
}
