// Package watch connects the edit core to the outside world: it owns the
// current (baseline, session) pair for one edit surface, folds freshly
// pushed baselines into the session via reconciliation, and fans the
// resulting sessions out to subscribers.
//
// The package is transport-agnostic. Whatever streams release snapshots
// (a gRPC stream, a poll loop, a test) decodes them and calls Push;
// framing, reconnection and retry stay on that side of the boundary.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"harborview.software/envedit/kv"
	"harborview.software/envedit/session"
)

// Option configures a Hub.
type Option func(*Hub)

// WithLogger overrides the logger derived from the Push context.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = l
	}
}

// WithSubscriberBuffer sets the per-subscriber channel buffer. Defaults
// to 1 so a slow renderer does not stall an unrelated Push.
func WithSubscriberBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// Hub holds the working session for one edit surface and keeps it
// consistent with the baseline stream. Sessions themselves are immutable
// values; the mutex only guards the pointer swap and the subscriber set,
// so readers always observe a complete session.
type Hub struct {
	mu      sync.Mutex
	session *session.Session
	subs    map[*subscriber]struct{}
	logger  *slog.Logger
	buffer  int
}

// NewHub creates an empty Hub. No session exists until the first Push.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[*subscriber]struct{}),
		buffer: 1,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Push feeds a freshly decoded baseline into the hub. Uncommitted edits
// of the current session are carried forward onto the new baseline; the
// resulting session becomes current and is delivered to every
// subscriber. Push returns once delivery finished or ctx was canceled.
func (h *Hub) Push(ctx context.Context, baseline kv.Map) error {
	h.mu.Lock()
	prev := h.session
	next := session.Reconcile(baseline, prev)
	h.session = next
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	h.log(ctx).DebugContext(ctx, "reconciled baseline",
		slog.Int("baseline_entries", baseline.Len()),
		slog.Bool("carried_edits", prev != nil && prev.HasChanges()),
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, sub := range subs {
		g.Go(func() error {
			return sub.send(ctx, next)
		})
	}
	return g.Wait()
}

// Edit applies one user mutation to the current session. fn receives the
// current session and returns its replacement (sessions are immutable, so
// every mutator already returns a fresh value). Editing before the first
// baseline arrived fails with session.ErrNoSession.
func (h *Hub) Edit(fn func(*session.Session) *session.Session) (*session.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return nil, fmt.Errorf("cannot edit: %w", session.ErrNoSession)
	}
	if next := fn(h.session); next != nil {
		h.session = next
	}
	return h.session, nil
}

// Session returns the current session, or nil before the first Push.
func (h *Hub) Session() *session.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// Pending returns the changeset a commit would carry right now. It fails
// with session.ErrNoSession before the first Push.
func (h *Hub) Pending() (kv.Changeset, error) {
	return session.Pending(h.Session())
}

// Subscribe registers for session updates. Every Push delivers the
// reconciled session to the returned channel. Canceling ctx unsubscribes
// and closes the channel; no further reconciliation result reaches the
// subscriber after that.
func (h *Hub) Subscribe(ctx context.Context) <-chan *session.Session {
	sub := &subscriber{
		ch:   make(chan *session.Session, h.buffer),
		done: ctx.Done(),
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
		sub.close()
	}()

	return sub.ch
}

func (h *Hub) log(ctx context.Context) *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slogcontext.FromCtx(ctx).With(slog.String("realm", "envedit"))
}

// subscriber serializes sends against close so an in-flight delivery and
// an unsubscribe cannot race.
type subscriber struct {
	mu     sync.Mutex
	ch     chan *session.Session
	done   <-chan struct{}
	closed bool
}

func (s *subscriber) send(ctx context.Context, v *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- v:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
