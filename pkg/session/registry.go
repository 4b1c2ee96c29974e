package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/snipkit/pkg/snippet"
	"gitlab.com/tozd/go/errors"
)

// Registry maps a buffer URI to at most one active session. Starting a
// new expansion for a buffer replaces, never merges, any prior session.
type Registry struct {
	store *sync.Map // map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{store: &sync.Map{}}
}

// Get returns the active session for a buffer, if any.
func (me *Registry) Get(uri string) (*Session, bool) {
	value, ok := me.store.Load(uri)
	if !ok {
		return nil, false
	}
	return value.(*Session), true
}

// Start expands template in the given buffer, cancelling any session
// already attached to it. The returned session is nil when the template
// produced no tabstops.
func (me *Registry) Start(ctx context.Context, uri string, editor Editor, resolver snippet.Resolver, template string, selectOnInsert bool, pos int) (*Session, error) {
	if prior, ok := me.Get(uri); ok {
		zerolog.Ctx(ctx).Debug().Str("uri", uri).Str("session_id", prior.ID()).Msg("replacing existing snippet session")
		prior.Cancel(ctx)
		me.store.Delete(uri)
	}

	sess := New(uri, editor, resolver)
	active, err := sess.Start(ctx, template, selectOnInsert, pos)
	if err != nil {
		return nil, errors.Errorf("starting snippet session for %s: %w", uri, err)
	}
	if !active {
		return nil, nil
	}
	me.store.Store(uri, sess)
	return sess, nil
}

// End cancels and removes the session for a buffer, typically on buffer
// close.
func (me *Registry) End(ctx context.Context, uri string) {
	if sess, ok := me.Get(uri); ok {
		sess.Cancel(ctx)
		me.store.Delete(uri)
	}
}
