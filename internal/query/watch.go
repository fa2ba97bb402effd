package query

import (
	"context"
	"sync"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/logger"
)

// Subscription keeps a key watched until Close
type Subscription struct {
	c       *Client
	key     Key
	fetch   FetchFunc
	deliver func(any, error)

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool

	// deliverMu serializes deliveries; delivered is set by the first refetch
	deliverMu sync.Mutex
	delivered bool
}

// Watch loads key like Fetch and registers onChange to receive the value
// refetched after every invalidation of key. The subscription is bound to
// ctx; cancelling ctx or calling Close ends it and aborts its refetch.
// Callers apply the returned value through ApplyInitial so a refetch that
// finished first is not overwritten.
func Watch[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error), onChange func(T, error)) (T, *Subscription, error) {
	sctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		c:      c,
		key:    key,
		fetch:  func(ctx context.Context) (any, error) { return fn(ctx) },
		ctx:    sctx,
		cancel: cancel,
		deliver: func(v any, err error) {
			out, err := typed[T](key, v, err)
			onChange(out, err)
		},
	}

	c.mu.Lock()
	if c.subs[key] == nil {
		c.subs[key] = make(map[*Subscription]struct{})
	}
	c.subs[key][sub] = struct{}{}
	c.mu.Unlock()
	c.metrics.SubscriptionAdded()

	// unregister when the owner's context ends
	context.AfterFunc(sctx, sub.unregister)

	v, err := c.fetch(sctx, key, sub.fetch)
	out, err := typed[T](key, v, err)
	return out, sub, err
}

// Key returns the watched key
func (s *Subscription) Key() Key {
	return s.key
}

// Close ends the subscription and cancels its in-flight refetch
func (s *Subscription) Close() {
	s.cancel()
	s.unregister()
}

func (s *Subscription) unregister() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	c := s.c
	c.mu.Lock()
	if set := c.subs[s.key]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(c.subs, s.key)
		}
	}
	c.mu.Unlock()
	c.metrics.SubscriptionRemoved()
}

// ApplyInitial runs apply unless a refetch has already delivered a newer
// value. It is serialized with refetch deliveries.
func (s *Subscription) ApplyInitial(apply func()) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.delivered {
		s.c.log.Debug("initial value superseded by refetch", logger.String("key", s.key.String()))
		return
	}
	apply()
}

func (s *Subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// refetch reloads the key and delivers the result unless the
// subscription ended meanwhile.
func (s *Subscription) refetch(ctx context.Context) {
	if s.isClosed() {
		return
	}

	rctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	v, err := s.c.fetch(rctx, s.key, s.fetch)
	if s.isClosed() || s.ctx.Err() != nil {
		return
	}
	if errors.IsCategory(err, errors.CategoryCancellation) {
		s.c.log.Debug("refetch abandoned", logger.String("key", s.key.String()))
		return
	}

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	s.delivered = true
	s.deliver(v, err)
}
