// Package session drives one live snippet expansion: it inserts the
// rendered text into an external buffer, keeps mirror placeholders in
// sync as edits arrive, and steps the cursor through the tabstops.
package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/snipkit/pkg/position"
	"github.com/walteh/snipkit/pkg/snippet"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
)

// State is the session lifecycle state.
type State int

const (
	StateInactive State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "inactive"
}

// Change describes one contiguous buffer edit that has already been
// applied to the buffer: Range held the replaced text, NewText is what
// replaced it.
type Change struct {
	Range   position.Span
	NewText string
}

// Editor is the text buffer collaborator. Requests are applied before the
// call returns so the session never computes offsets against stale state.
type Editor interface {
	InsertText(ctx context.Context, offset int, text string) error
	ReplaceRange(ctx context.Context, span position.Span, text string) error
	SetSelection(ctx context.Context, span position.Span) error
	SetCursor(ctx context.Context, offset int) error
}

// Session owns one active expansion. All mutation happens in response to
// discrete external events delivered one at a time; a session is never
// shared between goroutines.
type Session struct {
	id       string
	uri      string
	editor   Editor
	resolver snippet.Resolver

	snip   *snippet.Snippet
	groups *groupIndex
	base   int

	state  State
	active int
}

func New(uri string, editor Editor, resolver snippet.Resolver) *Session {
	return &Session{
		id:       uuid.NewString(),
		uri:      uri,
		editor:   editor,
		resolver: resolver,
		state:    StateInactive,
		active:   -1,
	}
}

func (me *Session) ID() string                { return me.id }
func (me *Session) URI() string               { return me.uri }
func (me *Session) State() State              { return me.state }
func (me *Session) IsActive() bool            { return me.state == StateActive }
func (me *Session) Snippet() *snippet.Snippet { return me.snip }

// ActiveIndex returns the active tabstop index, or -1 when inactive.
func (me *Session) ActiveIndex() int {
	if me.state != StateActive {
		return -1
	}
	return me.active
}

// ActiveSpan returns the current span of the active tabstop's canonical
// mirror.
func (me *Session) ActiveSpan() (position.Span, bool) {
	if me.state != StateActive {
		return position.Span{}, false
	}
	return me.groups.canonical(me.active).Span(), true
}

// Start parses the template, resolves variables, inserts the rendered
// text at pos, and activates the lowest tabstop. It reports whether a
// session is now active; a template without any tabstop inserts its text
// and leaves the session inactive.
func (me *Session) Start(ctx context.Context, template string, selectOnInsert bool, pos int) (bool, error) {
	logger := zerolog.Ctx(ctx)

	snip := snippet.Parse(template, false)
	snip.ResolveVariables(me.resolver)

	if len(snip.Placeholders()) == 0 {
		rendered := snip.Render()
		if err := me.editor.InsertText(ctx, pos, rendered); err != nil {
			return false, errors.Errorf("inserting snippet text: %w", err)
		}
		logger.Debug().Str("session_id", me.id).Str("uri", me.uri).Msg("template has no tabstops, inserted text only")
		return false, nil
	}

	// tabstop 0 always exists once a session runs
	snip.AppendFinalTabstop()

	rendered := snip.Render()
	snip.ComputeOffsets(pos)

	if err := me.editor.InsertText(ctx, pos, rendered); err != nil {
		return false, errors.Errorf("inserting snippet text: %w", err)
	}

	me.snip = snip
	me.groups = buildGroupIndex(snip)
	me.base = pos
	me.state = StateActive
	me.active = me.groups.order[0]

	span := me.groups.canonical(me.active).Span()
	logger.Debug().
		Str("session_id", me.id).
		Str("uri", me.uri).
		Int("tabstop", me.active).
		Stringer("span", span).
		Msg("snippet session started")

	if selectOnInsert {
		if err := me.editor.SetSelection(ctx, span); err != nil {
			return true, errors.Errorf("selecting first tabstop: %w", err)
		}
	} else {
		if err := me.editor.SetCursor(ctx, span.End); err != nil {
			return true, errors.Errorf("placing cursor on first tabstop: %w", err)
		}
	}
	return true, nil
}

// SynchronizeUpdatedPlaceholders processes one buffer change. An edit
// wholly inside the active tabstop's canonical mirror is adopted as that
// tabstop's new value and propagated, through each sibling mirror's own
// transform, to every other mirror. Any other edit deactivates the
// session rather than guessing intent.
func (me *Session) SynchronizeUpdatedPlaceholders(ctx context.Context, change Change) error {
	logger := zerolog.Ctx(ctx)
	if me.state != StateActive {
		return nil
	}

	canonical := me.groups.canonical(me.active)
	span := canonical.Span()

	if !span.ContainsSpan(change.Range) {
		if me.snip.Span().Overlaps(change.Range) {
			logger.Debug().Str("session_id", me.id).Stringer("range", change.Range).Msg("edit outside active tabstop, ending session")
		} else {
			logger.Debug().Str("session_id", me.id).Stringer("range", change.Range).Msg("edit outside snippet region, ending session")
		}
		me.deactivate(ctx)
		return nil
	}

	// splice the edit into the canonical mirror's rendered value
	rendered := canonical.Render()
	rel := change.Range.Shift(-span.Start)
	value := rendered[:rel.Start] + change.NewText + rendered[rel.End:]

	mirrors := me.groups.mirrors(me.active)
	oldSpans := make([]position.Span, len(mirrors))
	for i, m := range mirrors {
		oldSpans[i] = m.Span()
	}

	for _, m := range mirrors {
		m.SetValue(value)
	}
	// collapsing children removes any nested tabstops from the tree, so
	// the index built at Start may now name dead placeholders
	me.groups = buildGroupIndex(me.snip)
	me.snip.ComputeOffsets(me.base)

	logger.Debug().
		Str("session_id", me.id).
		Int("tabstop", me.active).
		Str("value", value).
		Int("mirrors", len(mirrors)).
		Msg("propagating placeholder edit")

	// Push each mirror's new rendering back to the buffer in ascending
	// order. The canonical mirror is document-first, so every other
	// mirror sits past the user's edit and shifts by its delta; writes we
	// issue ourselves shift everything after them as well.
	userDelta := len(change.NewText) - change.Range.Len()
	shift := 0
	var errs error
	for i, m := range mirrors {
		want := m.Render()
		if m == canonical {
			// the buffer already holds the user's edit
			if want == value {
				continue
			}
			target := position.NewSpan(oldSpans[i].Start, oldSpans[i].Start+len(value)).Shift(shift)
			if err := me.editor.ReplaceRange(ctx, target, want); err != nil {
				errs = multierr.Append(errs, errors.Errorf("rewriting canonical mirror: %w", err))
			}
			shift += len(want) - len(value)
			continue
		}
		target := oldSpans[i].Shift(userDelta + shift)
		if err := me.editor.ReplaceRange(ctx, target, want); err != nil {
			errs = multierr.Append(errs, errors.Errorf("updating mirror at %s: %w", target, err))
		}
		shift += len(want) - target.Len()
	}
	if errs != nil {
		return errors.Errorf("synchronizing placeholders: %w", errs)
	}
	return nil
}

// NextPlaceholder advances to the next tabstop in navigation order.
// Moving onto tabstop 0 selects it and ends the session. It reports
// whether the session is still active afterwards.
func (me *Session) NextPlaceholder(ctx context.Context) (bool, error) {
	if me.state != StateActive {
		return false, nil
	}
	pos := me.groups.orderPos(me.active)
	if pos < 0 || pos+1 >= len(me.groups.order) {
		// already on the terminal stop
		me.deactivate(ctx)
		return false, nil
	}
	next := me.groups.order[pos+1]
	me.active = next
	span := me.groups.canonical(next).Span()

	zerolog.Ctx(ctx).Debug().Str("session_id", me.id).Int("tabstop", next).Stringer("span", span).Msg("advanced to next tabstop")

	err := me.editor.SetSelection(ctx, span)
	if next == 0 {
		me.deactivate(ctx)
	}
	if err != nil {
		return me.IsActive(), errors.Errorf("selecting tabstop %d: %w", next, err)
	}
	return me.IsActive(), nil
}

// PreviousPlaceholder retreats to the previous tabstop. Moving before the
// first tabstop is a no-op.
func (me *Session) PreviousPlaceholder(ctx context.Context) (bool, error) {
	if me.state != StateActive {
		return false, nil
	}
	pos := me.groups.orderPos(me.active)
	if pos <= 0 {
		return true, nil
	}
	prev := me.groups.order[pos-1]
	me.active = prev
	span := me.groups.canonical(prev).Span()

	zerolog.Ctx(ctx).Debug().Str("session_id", me.id).Int("tabstop", prev).Stringer("span", span).Msg("returned to previous tabstop")

	if err := me.editor.SetSelection(ctx, span); err != nil {
		return true, errors.Errorf("selecting tabstop %d: %w", prev, err)
	}
	return true, nil
}

// SelectCurrentPlaceholder re-requests selection of the active tabstop
// without changing state, to re-assert selection after focus changes.
func (me *Session) SelectCurrentPlaceholder(ctx context.Context) error {
	if me.state != StateActive {
		return nil
	}
	span := me.groups.canonical(me.active).Span()
	if err := me.editor.SetSelection(ctx, span); err != nil {
		return errors.Errorf("selecting tabstop %d: %w", me.active, err)
	}
	return nil
}

// CheckPosition deactivates the session when the reported cursor offset
// has left the active tabstop's span.
func (me *Session) CheckPosition(ctx context.Context, cursor int) {
	if me.state != StateActive {
		return
	}
	span := me.groups.canonical(me.active).Span()
	if !span.Contains(cursor) {
		zerolog.Ctx(ctx).Debug().Str("session_id", me.id).Int("cursor", cursor).Stringer("span", span).Msg("cursor left active tabstop, ending session")
		me.deactivate(ctx)
	}
}

// Cancel ends the session immediately. Text already inserted stays in the
// buffer; no further synchronization occurs.
func (me *Session) Cancel(ctx context.Context) {
	if me.state != StateActive {
		return
	}
	zerolog.Ctx(ctx).Debug().Str("session_id", me.id).Str("uri", me.uri).Msg("snippet session cancelled")
	me.deactivate(ctx)
}

func (me *Session) deactivate(ctx context.Context) {
	me.state = StateInactive
	me.active = -1
	zerolog.Ctx(ctx).Trace().Str("session_id", me.id).Msg("snippet session inactive")
}
