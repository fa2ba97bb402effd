package query

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestWatchRefetchesAfterInvalidation(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	var version atomic.Int32
	fn := func(context.Context) (int32, error) { return version.Add(1), nil }

	var got []int32
	var mu sync.Mutex
	first, sub, err := Watch(t.Context(), c, SightingsKey(), fn, func(v int32, err error) {
		assert.NoError(t, err)
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, int32(1), first)

	require.NoError(t, c.Invalidate(t.Context(), Exact(SightingsKey())))
	require.NoError(t, c.Invalidate(t.Context(), Whole(ResourceSightings)))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int32{2, 3}, got)
}

func TestInitialValueDoesNotOverwriteEarlierRefetch(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	fn := func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	}

	var (
		mu      sync.Mutex
		current string
	)
	set := func(v string) {
		mu.Lock()
		defer mu.Unlock()
		current = v
	}

	mounted := make(chan error, 1)
	go func() {
		first, sub, err := Watch(t.Context(), c, SightingsKey(), fn, func(v string, err error) { set(v) })
		t.Cleanup(sub.Close)
		sub.ApplyInitial(func() { set(first) })
		mounted <- err
	}()

	testutil.WaitForChannel(t, started, testutil.DefaultTestTimeout, "initial fetch did not start")
	require.NoError(t, c.Invalidate(t.Context(), Exact(SightingsKey())))
	close(release)
	require.NoError(t, <-mounted)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "fresh", current)
	assert.Equal(t, int32(2), calls.Load())
}

func TestInitialValueAppliedWithoutRefetch(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	var calls atomic.Int32

	first, sub, err := Watch(t.Context(), c, UsersKey(), counter(&calls, 7), func(int, error) {})
	require.NoError(t, err)
	defer sub.Close()

	applied := 0
	sub.ApplyInitial(func() { applied = first })
	assert.Equal(t, 7, applied)
}

func TestUnrelatedInvalidationDoesNotRefetch(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	var calls atomic.Int32

	_, sub, err := Watch(t.Context(), c, AnimalsKey(), counter(&calls, "animals"), func(string, error) {
		t.Error("unexpected delivery")
	})
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, c.Invalidate(t.Context(), Whole(ResourceSightings), Exact(UserKey(1))))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCloseCancelsInFlightRefetch(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	var calls atomic.Int32
	refetching := make(chan context.Context, 1)

	fn := func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 1, nil
		}
		refetching <- ctx
		<-ctx.Done()
		return 0, ctx.Err()
	}

	_, sub, err := Watch(t.Context(), c, SightingKey(9), fn, func(int, error) {
		t.Error("closed subscription received a value")
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Invalidate(t.Context(), Exact(SightingKey(9))) }()

	inner := <-refetching
	sub.Close()

	testutil.WaitForChannel(t, inner.Done(), time.Second, "refetch not cancelled by Close")
	require.NoError(t, <-done)
}

func TestWatchEndsWithOwnerContext(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(t.Context())
	var calls atomic.Int32

	_, _, err := Watch(ctx, c, UsersKey(), counter(&calls, 1), func(int, error) {
		t.Error("delivery after owner context ended")
	})
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.subs[UsersKey()]) == 0
	}, time.Second, time.Millisecond)

	require.NoError(t, c.Invalidate(t.Context(), Whole(ResourceUsers)))
	assert.Equal(t, int32(1), calls.Load())
}

func TestMutateOrdersSuccessInvalidationAndReturn(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	rec := &recorder{}

	_, sub, err := Watch(t.Context(), c, SightingsKey(), func(context.Context) (string, error) {
		return "feed", nil
	}, func(string, error) { rec.add("refetched") })
	require.NoError(t, err)
	defer sub.Close()

	_, err = Mutate(t.Context(), c, Mutation{Kind: SightingCreate},
		func(context.Context) (model.Sighting, error) {
			rec.add("mutated")
			return model.Sighting{ID: 11}, nil
		},
		func(model.Sighting) { rec.add("success") },
	)
	require.NoError(t, err)
	rec.add("returned")

	assert.Equal(t, []string{"mutated", "success", "refetched", "returned"}, rec.list())
}

func TestFailedMutationInvalidatesNothing(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	c.Set(SightingsKey(), "feed")

	_, err := Mutate(t.Context(), c, Mutation{Kind: SightingDelete, SightingID: 1},
		func(context.Context) (struct{}, error) { return struct{}{}, errors.NewStd("forbidden") },
		func(struct{}) { t.Error("onSuccess after failure") },
	)
	require.Error(t, err)
	_, ok := c.Peek(SightingsKey())
	assert.True(t, ok)
}

func TestCommentDeleteInvalidatesListAndFeed(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)
	comments := CommentsKey(model.CommentableSighting, 5)
	c.Set(comments, []model.Comment{{ID: 1}})
	c.Set(SightingsKey(), []model.Sighting{{ID: 5}})
	c.Set(RepliesKey(1), []model.Comment{{ID: 2}})

	deleted := &model.Comment{ID: 1, CommentableType: model.CommentableSighting, CommentableID: 5}
	_, err := Mutate(t.Context(), c, CommentMutation(CommentDelete, deleted),
		func(context.Context) (struct{}, error) { return struct{}{}, nil }, nil)
	require.NoError(t, err)

	_, ok := c.Peek(comments)
	assert.False(t, ok, "comment list still cached")
	_, ok = c.Peek(SightingsKey())
	assert.False(t, ok, "sighting list still cached")
}

func TestDependencyTable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		m    Mutation
		want []Target
	}{
		{
			name: "like",
			m:    Mutation{Kind: SightingLike, SightingID: 4},
			want: []Target{Whole(ResourceSightings), Exact(SightingKey(4))},
		},
		{
			name: "comment create",
			m:    Mutation{Kind: CommentCreate, CommentableType: "Sighting", CommentableID: 5},
			want: []Target{Exact(CommentsKey("Sighting", 5)), Whole(ResourceSightings)},
		},
		{
			name: "comment update",
			m:    Mutation{Kind: CommentUpdate, CommentID: 8, CommentableType: "Sighting", CommentableID: 5},
			want: []Target{Exact(CommentsKey("Sighting", 5)), Whole(ResourceSightings), Exact(CommentKey(8))},
		},
		{
			name: "reply create leaves reply lists alone",
			m:    Mutation{Kind: ReplyCreate, CommentID: 8, CommentableType: "Sighting", CommentableID: 5},
			want: []Target{Exact(CommentsKey("Sighting", 5))},
		},
		{
			name: "user delete",
			m:    Mutation{Kind: UserDelete, UserID: 2},
			want: []Target{Whole(ResourceUsers), Exact(UserKey(2)), Whole(ResourceSightings)},
		},
		{
			name: "unknown",
			m:    Mutation{Kind: "noop"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Dependencies(tt.m))
		})
	}
}
