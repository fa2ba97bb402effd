package query

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/testutil"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return New(Config{
		TTL:    time.Minute,
		Logger: logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil),
	})
}

func counter[T any](n *atomic.Int32, v T) func(context.Context) (T, error) {
	return func(context.Context) (T, error) {
		n.Add(1)
		return v, nil
	}
}

func TestFetchServesCachedValue(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	var calls atomic.Int32

	for range 3 {
		v, err := Fetch(t.Context(), c, SightingsKey(), counter(&calls, "feed"))
		require.NoError(t, err)
		assert.Equal(t, "feed", v)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchErrorIsNotCached(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	var calls atomic.Int32
	fail := func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.NewStd("boom")
	}

	_, err := Fetch(t.Context(), c, UsersKey(), fail)
	require.Error(t, err)
	_, err = Fetch(t.Context(), c, UsersKey(), fail)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
	_, cached := c.Peek(UsersKey())
	assert.False(t, cached)
}

func TestConcurrentFetchesAreDeduplicated(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	fn := func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return "value", nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := range callers {
		wg.Go(func() {
			v, err := Fetch(t.Context(), c, AnimalsKey(), fn)
			assert.NoError(t, err)
			results[i] = v
		})
	}

	<-started
	// let the other callers join the flight
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		f := c.flights[AnimalsKey()]
		return f != nil && f.waiters == callers
	}, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "value", r)
	}
}

func TestSharedFetchCancelledOnlyWhenAllCallersLeave(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	fetchCtx := make(chan context.Context, 1)

	fn := func(ctx context.Context) (int, error) {
		fetchCtx <- ctx
		<-ctx.Done()
		return 0, ctx.Err()
	}

	ctxA, cancelA := context.WithCancel(t.Context())
	ctxB, cancelB := context.WithCancel(t.Context())
	defer cancelB()

	var wg sync.WaitGroup
	wg.Go(func() {
		_, err := Fetch(ctxA, c, UserKey(1), fn)
		assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
	})
	inner := <-fetchCtx

	wg.Go(func() {
		_, err := Fetch(ctxB, c, UserKey(1), fn)
		assert.Error(t, err)
	})
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		f := c.flights[UserKey(1)]
		return f != nil && f.waiters == 2
	}, time.Second, time.Millisecond)

	cancelA()
	testutil.AssertNoSignal(t, inner.Done(), testutil.QuietPeriod, "shared fetch cancelled while a caller was still waiting")

	cancelB()
	testutil.WaitForChannel(t, inner.Done(), time.Second, "shared fetch not cancelled after the last caller left")
	wg.Wait()
}

func TestFetchStartedBeforeInvalidationDoesNotWrite(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	entered := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := Fetch(t.Context(), c, SightingsKey(), func(context.Context) (string, error) {
			close(entered)
			<-release
			return "stale", nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "stale", v)
	}()

	<-entered
	require.NoError(t, c.Invalidate(t.Context(), Whole(ResourceSightings)))
	close(release)
	<-done

	_, cached := c.Peek(SightingsKey())
	assert.False(t, cached, "invalidated entry was overwritten by an older fetch")
}

func TestWholeResourceInvalidation(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	c.Set(SightingsKey(), "feed")
	c.Set(UserSightingsKey(7), "mine")
	c.Set(SightingKey(3), "one")
	c.Set(UsersKey(), "users")

	require.NoError(t, c.Invalidate(t.Context(), Whole(ResourceSightings)))

	for _, k := range []Key{SightingsKey(), UserSightingsKey(7), SightingKey(3)} {
		_, ok := c.Peek(k)
		assert.False(t, ok, k.String())
	}
	_, ok := c.Peek(UsersKey())
	assert.True(t, ok)
}

func TestClearDropsEverything(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	c.Set(CurrentUserKey(), model.User{ID: 1})
	c.Set(AnimalsKey(), []model.Animal{})

	c.Clear()

	_, ok := c.Peek(CurrentUserKey())
	assert.False(t, ok)
	_, ok = c.Peek(AnimalsKey())
	assert.False(t, ok)
}

func TestEntriesExpireAfterTTL(t *testing.T) {
	t.Parallel()
	c := New(Config{TTL: 10 * time.Millisecond, Logger: logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)})
	var calls atomic.Int32

	_, err := Fetch(t.Context(), c, AnimalsKey(), counter(&calls, 1))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = Fetch(t.Context(), c, AnimalsKey(), counter(&calls, 1))
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestTypeMismatchIsReported(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	c.Set(UsersKey(), "not a slice")

	_, err := Fetch(t.Context(), c, UsersKey(), func(context.Context) ([]model.User, error) { return nil, nil })
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCache))
}

func TestKeysAreCanonical(t *testing.T) {
	t.Parallel()
	assert.Equal(t, CommentsKey(model.CommentableSighting, 5), CommentsKey("Sighting", 5))
	assert.Equal(t, "comments?commentable_id=5&commentable_type=Sighting", CommentsKey("Sighting", 5).String())
	assert.NotEqual(t, SightingKey(5), UserSightingsKey(5))
	assert.Equal(t, "sightings", SightingsKey().String())
}
