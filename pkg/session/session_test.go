package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/snipkit/pkg/editor"
	"github.com/walteh/snipkit/pkg/position"
	"github.com/walteh/snipkit/pkg/session"
	"github.com/walteh/snipkit/pkg/snippet"
)

var _ session.Editor = (*editor.MemoryBuffer)(nil)

// edit applies a user edit to the buffer and then reports it to the
// session, mimicking the order of real change notifications.
func edit(t *testing.T, sess *session.Session, buf *editor.MemoryBuffer, span position.Span, text string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, buf.ReplaceRange(ctx, span, text))
	require.NoError(t, sess.SynchronizeUpdatedPlaceholders(ctx, session.Change{Range: span, NewText: text}))
}

func TestSession_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("activates lowest tabstop and selects it", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		active, err := sess.Start(ctx, "func ${1:name}() {$0}", true, 0)
		require.NoError(t, err)
		require.True(t, active)

		assert.Equal(t, "func name() {}", buf.Content())
		assert.Equal(t, 1, sess.ActiveIndex())
		assert.Equal(t, position.NewSpan(5, 9), buf.Selection())
	})

	t.Run("cursor collapses to end without selectOnInsert", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		active, err := sess.Start(ctx, "${1:abc}", false, 0)
		require.NoError(t, err)
		require.True(t, active)
		assert.Equal(t, 3, buf.Cursor())
	})

	t.Run("no tabstops inserts text only", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "ab")
		sess := session.New(buf.URI(), buf, nil)

		active, err := sess.Start(ctx, "hello", true, 1)
		require.NoError(t, err)
		assert.False(t, active)
		assert.Equal(t, "ahellob", buf.Content())
		assert.False(t, sess.IsActive())
	})

	t.Run("variables resolve before insertion", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, snippet.MapResolver{"TM_FILENAME": "a.go"})

		active, err := sess.Start(ctx, "// $TM_FILENAME\n$0", true, 0)
		require.NoError(t, err)
		require.True(t, active)
		assert.Equal(t, "// a.go\n", buf.Content())
	})

	t.Run("choice renders its first option", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		active, err := sess.Start(ctx, "${1|red,green,blue|}", true, 0)
		require.NoError(t, err)
		require.True(t, active)
		assert.Equal(t, "red", buf.Content())
		assert.Equal(t, position.NewSpan(0, 3), buf.Selection())
	})

	t.Run("only final tabstop activates at zero", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		active, err := sess.Start(ctx, "done$0", true, 0)
		require.NoError(t, err)
		require.True(t, active)
		assert.Equal(t, 0, sess.ActiveIndex())
	})
}

func TestSession_MirrorPropagation(t *testing.T) {
	ctx := context.Background()

	t.Run("replacing the canonical value updates every mirror", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		active, err := sess.Start(ctx, "${1:foo} and ${1:foo}", true, 0)
		require.NoError(t, err)
		require.True(t, active)
		require.Equal(t, "foo and foo", buf.Content())

		edit(t, sess, buf, position.NewSpan(0, 3), "bar")

		assert.Equal(t, "bar and bar", buf.Content())
		assert.True(t, sess.IsActive())
	})

	t.Run("typing inside the canonical mirror", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:foo} and ${1:foo}", true, 0)
		require.NoError(t, err)

		// a single character typed at the end of the placeholder
		edit(t, sess, buf, position.EmptySpan(3), "x")

		assert.Equal(t, "foox and foox", buf.Content())

		span, ok := sess.ActiveSpan()
		require.True(t, ok)
		assert.Equal(t, position.NewSpan(0, 4), span)
	})

	t.Run("propagation at a nonzero insert position", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "abcdef")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:foo}/${1:foo}", true, 6)
		require.NoError(t, err)
		require.Equal(t, "abcdeffoo/foo", buf.Content())

		edit(t, sess, buf, position.NewSpan(6, 9), "ba")

		assert.Equal(t, "abcdefba/ba", buf.Content())
	})

	t.Run("mirror transform derives from the canonical value", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:hello}${1/.*/\\U$0/}", true, 0)
		require.NoError(t, err)
		require.Equal(t, "helloHELLO", buf.Content())

		edit(t, sess, buf, position.NewSpan(0, 5), "world")

		assert.Equal(t, "worldWORLD", buf.Content())
	})

	t.Run("collapsing a nested tabstop drops it from navigation", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:${2:inner}} end", true, 0)
		require.NoError(t, err)
		require.Equal(t, "inner end", buf.Content())
		require.Equal(t, 1, sess.ActiveIndex())

		// overtyping tabstop 1 discards the nested tabstop 2
		edit(t, sess, buf, position.NewSpan(0, 5), "Z")
		require.Equal(t, "Z end", buf.Content())

		span, ok := sess.ActiveSpan()
		require.True(t, ok)
		assert.Equal(t, position.NewSpan(0, 1), span)

		// further typing still splices against fresh offsets
		edit(t, sess, buf, position.EmptySpan(1), "z")
		require.Equal(t, "Zz end", buf.Content())

		// tabstop 2 is gone, navigation moves straight to the final stop
		active, err := sess.NextPlaceholder(ctx)
		require.NoError(t, err)
		assert.False(t, active)
		assert.False(t, sess.IsActive())
		assert.Equal(t, position.EmptySpan(6), buf.Selection())
	})

	t.Run("successive edits keep offsets consistent", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:a} ${1:a} ${1:a}", true, 0)
		require.NoError(t, err)
		require.Equal(t, "a a a", buf.Content())

		edit(t, sess, buf, position.NewSpan(0, 1), "xx")
		require.Equal(t, "xx xx xx", buf.Content())

		edit(t, sess, buf, position.EmptySpan(2), "y")
		assert.Equal(t, "xxy xxy xxy", buf.Content())
	})
}

func TestSession_FailSafe(t *testing.T) {
	ctx := context.Background()

	t.Run("edit outside the snippet region cancels", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "hello ")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:foo}", true, 6)
		require.NoError(t, err)
		require.Equal(t, "hello foo", buf.Content())

		writes := buf.Writes()
		require.NoError(t, buf.ReplaceRange(ctx, position.NewSpan(0, 2), "HE"))
		require.NoError(t, sess.SynchronizeUpdatedPlaceholders(ctx, session.Change{Range: position.NewSpan(0, 2), NewText: "HE"}))

		assert.False(t, sess.IsActive())
		// only our own manual edit touched the buffer
		assert.Equal(t, writes+1, buf.Writes())
		assert.Equal(t, "HEllo foo", buf.Content())
	})

	t.Run("edit inside snippet but outside active tabstop cancels", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:foo}-${2:bar}", true, 0)
		require.NoError(t, err)
		require.Equal(t, 1, sess.ActiveIndex())

		// user edited tabstop 2's text while 1 is active
		require.NoError(t, buf.ReplaceRange(ctx, position.NewSpan(4, 7), "baz"))
		require.NoError(t, sess.SynchronizeUpdatedPlaceholders(ctx, session.Change{Range: position.NewSpan(4, 7), NewText: "baz"}))

		assert.False(t, sess.IsActive())
	})

	t.Run("synchronize after cancel is a no-op", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:foo}", true, 0)
		require.NoError(t, err)
		sess.Cancel(ctx)

		require.NoError(t, sess.SynchronizeUpdatedPlaceholders(ctx, session.Change{Range: position.NewSpan(0, 3), NewText: "bar"}))
		assert.Equal(t, "foo", buf.Content())
	})
}

func TestSession_Navigation(t *testing.T) {
	ctx := context.Background()

	t.Run("ascending order with zero last", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${2:bb}${1:aa}$0", true, 0)
		require.NoError(t, err)
		require.Equal(t, 1, sess.ActiveIndex())
		assert.Equal(t, position.NewSpan(2, 4), buf.Selection())

		active, err := sess.NextPlaceholder(ctx)
		require.NoError(t, err)
		assert.True(t, active)
		assert.Equal(t, 2, sess.ActiveIndex())
		assert.Equal(t, position.NewSpan(0, 2), buf.Selection())

		// moving onto the final tabstop ends the session
		active, err = sess.NextPlaceholder(ctx)
		require.NoError(t, err)
		assert.False(t, active)
		assert.False(t, sess.IsActive())
		assert.Equal(t, position.NewSpan(4, 4), buf.Selection())
	})

	t.Run("previous before the first tabstop is a no-op", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:aa}${2:bb}", true, 0)
		require.NoError(t, err)

		active, err := sess.PreviousPlaceholder(ctx)
		require.NoError(t, err)
		assert.True(t, active)
		assert.Equal(t, 1, sess.ActiveIndex())
	})

	t.Run("previous returns to an earlier tabstop", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:aa}${2:bb}", true, 0)
		require.NoError(t, err)

		_, err = sess.NextPlaceholder(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, sess.ActiveIndex())

		_, err = sess.PreviousPlaceholder(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sess.ActiveIndex())
		assert.Equal(t, position.NewSpan(0, 2), buf.Selection())
	})

	t.Run("navigation after termination does nothing", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:aa}", true, 0)
		require.NoError(t, err)

		_, err = sess.NextPlaceholder(ctx)
		require.NoError(t, err)
		require.False(t, sess.IsActive())

		active, err := sess.NextPlaceholder(ctx)
		require.NoError(t, err)
		assert.False(t, active)
	})
}

func TestSession_SelectAndCheckPosition(t *testing.T) {
	ctx := context.Background()

	t.Run("select current re-requests the active span", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:abc}", false, 0)
		require.NoError(t, err)

		require.NoError(t, sess.SelectCurrentPlaceholder(ctx))
		assert.Equal(t, position.NewSpan(0, 3), buf.Selection())
		assert.True(t, sess.IsActive())
	})

	t.Run("cursor inside the active span keeps the session", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:abc}", true, 0)
		require.NoError(t, err)

		sess.CheckPosition(ctx, 3)
		assert.True(t, sess.IsActive())
	})

	t.Run("cursor outside the active span ends the session", func(t *testing.T) {
		buf := editor.NewMemoryBuffer("file:///a.go", "")
		sess := session.New(buf.URI(), buf, nil)

		_, err := sess.Start(ctx, "${1:abc} tail", true, 0)
		require.NoError(t, err)

		sess.CheckPosition(ctx, 7)
		assert.False(t, sess.IsActive())
	})
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("start replaces a prior session", func(t *testing.T) {
		reg := session.NewRegistry()
		buf := editor.NewMemoryBuffer("file:///a.go", "")

		first, err := reg.Start(ctx, buf.URI(), buf, nil, "${1:one}", true, 0)
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := reg.Start(ctx, buf.URI(), buf, nil, "${1:two}", true, 0)
		require.NoError(t, err)
		require.NotNil(t, second)

		assert.False(t, first.IsActive())
		assert.True(t, second.IsActive())
		assert.NotEqual(t, first.ID(), second.ID())

		got, ok := reg.Get(buf.URI())
		require.True(t, ok)
		assert.Same(t, second, got)
	})

	t.Run("template without tabstops registers nothing", func(t *testing.T) {
		reg := session.NewRegistry()
		buf := editor.NewMemoryBuffer("file:///b.go", "")

		sess, err := reg.Start(ctx, buf.URI(), buf, nil, "plain", true, 0)
		require.NoError(t, err)
		assert.Nil(t, sess)

		_, ok := reg.Get(buf.URI())
		assert.False(t, ok)
	})

	t.Run("end cancels and removes", func(t *testing.T) {
		reg := session.NewRegistry()
		buf := editor.NewMemoryBuffer("file:///c.go", "")

		sess, err := reg.Start(ctx, buf.URI(), buf, nil, "${1:x}", true, 0)
		require.NoError(t, err)
		require.NotNil(t, sess)

		reg.End(ctx, buf.URI())
		assert.False(t, sess.IsActive())
		_, ok := reg.Get(buf.URI())
		assert.False(t, ok)
	})
}
