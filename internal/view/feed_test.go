package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/navigation"
)

func TestPostSightingAppearsInFeed(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "ana")
	e.srv.SeedAnimal(model.Animal{ID: 3, Name: "Red Tailed Hawk"})

	feed := NewFeed(e.deps)
	mount(t, feed)
	assert.Empty(t, feed.Sightings())
	assert.Contains(t, feed.Render(), msgFeedEmpty)

	post := NewPostSighting(e.deps)
	mount(t, post)
	require.Len(t, post.Animals(), 1)

	created, err := post.Submit(model.NewSighting{
		Title:    "Spotted a Red Tailed Hawk!",
		Body:     "Saw it on Main St",
		AnimalID: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, navigation.RouteHome, e.history.Current())

	// the feed was refetched before Submit returned
	got := feed.Sightings()
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)
	assert.Equal(t, "Spotted a Red Tailed Hawk!", got[0].Title)
	assert.Equal(t, "Saw it on Main St", got[0].Body)
	assert.Equal(t, 0, got[0].Likes)
	assert.Contains(t, feed.Render(), "Spotted a Red Tailed Hawk!")
}

func TestPostSightingValidation(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "ana")
	post := NewPostSighting(e.deps)
	before := e.srv.TotalCalls()

	_, err := post.Submit(model.NewSighting{Title: "No body", AnimalID: 3})
	require.Error(t, err)
	assert.Equal(t, model.MsgSightingRequired, post.Error())
	assert.Equal(t, before, e.srv.TotalCalls())
}

func TestPostSightingRequiresSession(t *testing.T) {
	e := newEnv(t)
	post := NewPostSighting(e.deps)

	_, err := post.Submit(model.NewSighting{Title: "t", Body: "b", AnimalID: 3})
	require.Error(t, err)
	assert.Equal(t, msgLoginToPost, post.Error())
	assert.Equal(t, 0, e.srv.TotalCalls())
}

func TestPostSightingShowsServerError(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "ana")
	post := NewPostSighting(e.deps)

	// no animal 42 on the backend
	_, err := post.Submit(model.NewSighting{Title: "t", Body: "b", AnimalID: 42})
	require.Error(t, err)
	assert.Equal(t, "animal must exist", post.Error())
	assert.Equal(t, navigation.RouteHome, e.history.Current(), "only the login navigated")
	assert.Len(t, e.history.Visited(), 2)
}

func TestFeedLike(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")
	hawk := e.srv.SeedAnimal(model.Animal{Name: "Hawk"})
	s := e.seedSighting(ana.ID, hawk.ID, "Hawk")

	feed := NewFeed(e.deps)
	mount(t, feed)

	require.NoError(t, feed.Like(s.ID))
	require.NoError(t, feed.Like(s.ID))

	got := feed.Sightings()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Likes)
}

func TestFeedLikeWithoutSession(t *testing.T) {
	e := newEnv(t)
	owner := e.srv.SeedUser("bo", "Bo", "secret1")
	hawk := e.srv.SeedAnimal(model.Animal{Name: "Hawk"})
	s := e.seedSighting(owner.ID, hawk.ID, "Hawk")

	feed := NewFeed(e.deps)
	mount(t, feed)

	require.Error(t, feed.Like(s.ID))
	assert.Contains(t, feed.Render(), msgLoginToLike)
	assert.Equal(t, 0, e.srv.Calls("PUT", "/sightings/"+itoa(s.ID)))
}

func TestClosedViewIgnoresRefetch(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")
	hawk := e.srv.SeedAnimal(model.Animal{ID: 3, Name: "Hawk"})

	stale := NewFeed(e.deps)
	require.NoError(t, stale.Mount(t.Context()))
	stale.Close()

	post := NewPostSighting(e.deps)
	_, err := post.Submit(model.NewSighting{Title: "t", Body: "b", UserID: ana.ID, AnimalID: hawk.ID})
	require.NoError(t, err)

	assert.Empty(t, stale.Sightings())
	assert.Equal(t, 1, e.srv.Calls("GET", "/sightings"), "closed view must not refetch")
}
