// Package query caches backend results by structured key, deduplicates
// concurrent identical fetches and refetches watched keys after mutations
// invalidate them.
package query

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/observability/metrics"
)

const (
	// DefaultTTL bounds how long a result is served without refetching
	DefaultTTL = 5 * time.Minute

	// refetchConcurrency limits parallel refetches after one invalidation
	refetchConcurrency = 4
)

// FetchFunc loads the value of one key
type FetchFunc func(ctx context.Context) (any, error)

// Config configures a Client
type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration // 0 disables the expiry janitor
	Logger          logger.Logger
	Metrics         *metrics.QueryMetrics
}

type entry struct {
	key   Key
	value any
}

// flight is one shared execution of a fetch function. Its context is
// cancelled when the last waiting caller leaves.
type flight struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// generation is captured when a fetch starts and compared before its result
// is stored, so a fetch that raced an invalidation cannot write.
type generation struct {
	epoch    uint64
	key      uint64
	resource uint64
}

// Client is the goroutine-safe query cache
type Client struct {
	store   *cache.Cache
	group   singleflight.Group
	log     logger.Logger
	metrics *metrics.QueryMetrics

	mu       sync.Mutex
	epoch    uint64
	keyGen   map[Key]uint64
	resGen   map[string]uint64
	flights  map[Key]*flight
	flightID uint64
	subs     map[Key]map[*Subscription]struct{}
}

// New creates a query cache
func New(cfg Config) *Client {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Global().Module("query")
	}

	return &Client{
		store:   cache.New(ttl, cfg.CleanupInterval),
		log:     log,
		metrics: cfg.Metrics,
		keyGen:  make(map[Key]uint64),
		resGen:  make(map[string]uint64),
		flights: make(map[Key]*flight),
		subs:    make(map[Key]map[*Subscription]struct{}),
	}
}

// Fetch returns the cached value of key or loads it with fn. Concurrent
// callers for the same key share one call of fn.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.fetch(ctx, key, func(ctx context.Context) (any, error) { return fn(ctx) })
	return typed[T](key, v, err)
}

func typed[T any](key Key, v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, errors.Newf("cached value for %s has type %T", key, v).
			Category(errors.CategoryCache).
			Component("query").
			Build()
	}
	return out, nil
}

// Peek returns the cached value without fetching
func (c *Client) Peek(key Key) (any, bool) {
	raw, ok := c.store.Get(key.String())
	if !ok {
		return nil, false
	}
	return raw.(entry).value, true
}

// Set stores a server-confirmed value under key
func (c *Client) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumpKeyLocked(key)
	c.store.Set(key.String(), entry{key: key, value: value}, cache.DefaultExpiration)
}

// Remove drops key without refetching its subscribers
func (c *Client) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumpKeyLocked(key)
	c.store.Delete(key.String())
}

// Clear drops every cached value and detaches in-flight fetches. Watches
// stay registered but are not refetched.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	clear(c.flights)
	c.store.Flush()
	c.log.Debug("query cache cleared")
}

func (c *Client) fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	if v, ok := c.Peek(key); ok {
		c.metrics.RecordLookup(key.Resource, true)
		return v, nil
	}
	c.metrics.RecordLookup(key.Resource, false)

	if err := ctx.Err(); err != nil {
		return nil, cancelled(key, err)
	}

	c.mu.Lock()
	f, ok := c.flights[key]
	if !ok {
		c.flightID++
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{
			id:     key.String() + "#" + strconv.FormatUint(c.flightID, 10),
			ctx:    fctx,
			cancel: cancel,
		}
		c.flights[key] = f
	}
	f.waiters++
	gen := c.generationLocked(key)
	c.mu.Unlock()

	defer c.leave(key, f)

	ch := c.group.DoChan(f.id, func() (any, error) {
		v, err := fn(f.ctx)
		c.metrics.RecordFetch(key.Resource, err)
		if err != nil {
			return nil, err
		}
		c.storeIfCurrent(key, gen, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.RecordDeduplicated(key.Resource)
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, cancelled(key, ctx.Err())
	}
}

// leave drops one waiter; the last one out cancels the shared call.
func (c *Client) leave(key Key, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[key] == f {
		delete(c.flights, key)
	}
	c.group.Forget(f.id)
}

func (c *Client) storeIfCurrent(key Key, gen generation, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generationLocked(key) != gen {
		c.log.Debug("discarding result of invalidated fetch", logger.String("key", key.String()))
		return
	}
	c.store.Set(key.String(), entry{key: key, value: v}, cache.DefaultExpiration)
}

func (c *Client) generationLocked(key Key) generation {
	return generation{epoch: c.epoch, key: c.keyGen[key], resource: c.resGen[key.Resource]}
}

func (c *Client) bumpKeyLocked(key Key) {
	c.keyGen[key]++
	if c.flights[key] != nil {
		delete(c.flights, key)
	}
}

// Invalidate drops the targeted keys and refetches every watch on them,
// returning once the refetches have delivered.
func (c *Client) Invalidate(ctx context.Context, targets ...Target) error {
	affected := c.drop(targets)
	if len(affected) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refetchConcurrency)
	for _, sub := range affected {
		g.Go(func() error {
			sub.refetch(gctx)
			return nil
		})
	}
	return g.Wait()
}

// drop removes targeted entries and returns the watches to refetch
func (c *Client) drop(targets []Target) []*Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[*Subscription]struct{})
	var affected []*Subscription
	collect := func(k Key) {
		for sub := range c.subs[k] {
			if _, dup := seen[sub]; !dup {
				seen[sub] = struct{}{}
				affected = append(affected, sub)
			}
		}
	}

	for _, t := range targets {
		c.metrics.RecordInvalidation(t.Key.Resource)

		if !t.Whole {
			c.bumpKeyLocked(t.Key)
			c.store.Delete(t.Key.String())
			collect(t.Key)
			continue
		}

		c.resGen[t.Key.Resource]++
		for k := range c.flights {
			if k.Resource == t.Key.Resource {
				delete(c.flights, k)
			}
		}
		for raw, item := range c.store.Items() {
			if e, ok := item.Object.(entry); ok && e.key.Resource == t.Key.Resource {
				c.store.Delete(raw)
			}
		}
		for k := range c.subs {
			if k.Resource == t.Key.Resource {
				collect(k)
			}
		}
	}
	return affected
}

// Mutate runs fn and, on success, onSuccess followed by the invalidations
// of m. It returns after the dependent watches have been refetched.
func Mutate[T any](ctx context.Context, c *Client, m Mutation, fn func(ctx context.Context) (T, error), onSuccess func(T)) (T, error) {
	out, err := fn(ctx)
	if err != nil {
		return out, err
	}
	if onSuccess != nil {
		onSuccess(out)
	}
	c.log.Debug("mutation applied", logger.String("kind", string(m.Kind)))
	if err := c.Invalidate(ctx, Dependencies(m)...); err != nil {
		return out, err
	}
	return out, nil
}

func cancelled(key Key, err error) error {
	return errors.New(err).
		Category(errors.CategoryCancellation).
		Component("query").
		Context("key", key.String()).
		Build()
}
