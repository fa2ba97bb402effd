package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/navigation"
	"github.com/tphakala/faunagram-go/internal/query"
	"github.com/tphakala/faunagram-go/internal/session"
)

func TestUsersDirectory(t *testing.T) {
	e := newEnv(t)
	e.srv.SeedUser("ana", "Ana", "secret1")
	e.srv.SeedUser("bo", "Bo", "secret1")

	users := NewUsers(e.deps)
	mount(t, users)

	require.Len(t, users.Users(), 2)
	out := users.Render()
	assert.Contains(t, out, "Community Members")
	assert.Contains(t, out, "@ana")
	assert.Contains(t, out, "@bo")
}

func TestProfileShowsOwnSightings(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")
	bo := e.srv.SeedUser("bo", "Bo", "secret1")
	fox := e.srv.SeedAnimal(model.Animal{Name: "Fox"})
	e.seedSighting(ana.ID, fox.ID, "Fox in the park")
	e.seedSighting(bo.ID, fox.ID, "Fox on the roof")

	own := NewProfile(e.deps, ana.ID)
	mount(t, own)
	assert.True(t, own.IsOwnProfile())
	require.Len(t, own.Sightings(), 1)
	assert.Contains(t, own.Render(), "My Sightings")
	assert.Contains(t, own.Render(), "Member since")

	other := NewProfile(e.deps, bo.ID)
	mount(t, other)
	assert.False(t, other.IsOwnProfile())
	assert.Contains(t, other.Render(), "Bo's Sightings")
	assert.Contains(t, other.Render(), "Fox on the roof")
}

func TestProfileUpdateRefreshesSessionUser(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")

	profile := NewProfile(e.deps, ana.ID)
	mount(t, profile)

	updated, err := profile.Update(model.UserUpdate{Name: "Ana Maria"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)

	assert.Equal(t, "Ana Maria", e.deps.Session.User().Name)
	assert.Equal(t, "Ana Maria", profile.User().Name)
	cached, ok := e.deps.Cache.Peek(query.CurrentUserKey())
	require.True(t, ok)
	assert.Equal(t, "Ana Maria", cached.(model.User).Name)
}

func TestProfileUpdateOnlyOwn(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "ana")
	bo := e.srv.SeedUser("bo", "Bo", "secret1")

	profile := NewProfile(e.deps, bo.ID)
	mount(t, profile)

	_, err := profile.Update(model.UserUpdate{Name: "Hacked"})
	require.Error(t, err)
	assert.Contains(t, profile.Render(), msgNotOwnProfile)
	assert.Equal(t, 0, e.srv.Calls("PUT", "/users/"+itoa(bo.ID)))
}

func TestDeleteOwnProfileSignsOut(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")

	profile := NewProfile(e.deps, ana.ID)
	mount(t, profile)

	require.NoError(t, profile.Delete())

	assert.Equal(t, session.StateAnonymous, e.deps.Session.State())
	assert.Empty(t, e.deps.Session.Token())
	assert.Equal(t, navigation.RouteLogin, e.history.Current())
	_, ok := e.deps.Cache.Peek(query.CurrentUserKey())
	assert.False(t, ok)
}

func TestDeleteOtherProfileReturnsToDirectory(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "ana")
	bo := e.srv.SeedUser("bo", "Bo", "secret1")

	users := NewUsers(e.deps)
	mount(t, users)
	require.Len(t, users.Users(), 2)

	profile := NewProfile(e.deps, bo.ID)
	mount(t, profile)
	require.NoError(t, profile.Delete())

	assert.Equal(t, navigation.RouteUsers, e.history.Current())
	assert.True(t, e.deps.Session.IsAuthenticated())
	assert.Len(t, users.Users(), 1)
}

func TestProfileNotFound(t *testing.T) {
	e := newEnv(t)

	profile := NewProfile(e.deps, 999)
	require.Error(t, profile.Mount(t.Context()))
	t.Cleanup(profile.Close)

	assert.Nil(t, profile.User())
	assert.Contains(t, profile.Render(), msgUserNotFound)
}
