package resources

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/faunagram-go/internal/api"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/testutil/fakeapi"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestResources(t *testing.T, srv *fakeapi.Server, token string) *Resources {
	t.Helper()
	c, err := api.NewClient(api.Config{
		BaseURL: srv.URL(),
		Logger:  logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil),
	}, staticToken(token))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return New(c)
}

func seedHawk(srv *fakeapi.Server) model.Animal {
	return srv.SeedAnimal(model.Animal{ID: 3, Name: "Red Tailed Hawk", Genus: "Buteo", Species: "jamaicensis"})
}

func TestLoginAndCurrentUser(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	user := srv.SeedUser("ana", "Ana", "secret1")

	anon := newTestResources(t, srv, "")
	resp, err := anon.Auth.Login(t.Context(), model.LoginCredentials{Username: "ana", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	require.NotEmpty(t, resp.Token)

	authed := newTestResources(t, srv, resp.Token)
	me, err := authed.Auth.CurrentUser(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "ana", me.Username)
}

func TestLoginFailureCarriesServerMessage(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	srv.SeedUser("ana", "Ana", "secret1")

	res := newTestResources(t, srv, "")
	_, err := res.Auth.Login(t.Context(), model.LoginCredentials{Username: "ana", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, 401, api.StatusCode(err))
	assert.Equal(t, "Invalid username or password", api.ServerMessage(err))
}

func TestSignupDuplicateUsername(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	srv.SeedUser("ana", "Ana", "secret1")

	res := newTestResources(t, srv, "")
	_, err := res.Auth.Signup(t.Context(), model.SignupData{
		Name: "Other", Username: "ana", Password: "secret2", PasswordConfirmation: "secret2",
	})
	require.Error(t, err)
	assert.Equal(t, 422, api.StatusCode(err))
	assert.Equal(t, "username has already been taken", api.ServerMessage(err))
}

func TestCreateSightingWithoutImage(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	user := srv.SeedUser("ana", "Ana", "secret1")
	hawk := seedHawk(srv)

	res := newTestResources(t, srv, srv.IssueToken(user.ID))
	created, err := res.Sightings.Create(t.Context(), model.NewSighting{
		Title:    "Spotted a Red Tailed Hawk!",
		Body:     "Saw it on Main St",
		UserID:   user.ID,
		AnimalID: hawk.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, created.Likes)
	assert.Equal(t, "Spotted a Red Tailed Hawk!", created.Title)
	require.NotNil(t, created.Animal)
	assert.Equal(t, hawk.Name, created.Animal.Name)

	feed, err := res.Sightings.List(t.Context())
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Saw it on Main St", feed[0].Body)
}

func TestCreateSightingUploadsImage(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	user := srv.SeedUser("ana", "Ana", "secret1")
	hawk := seedHawk(srv)

	img := filepath.Join(t.TempDir(), "hawk.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpeg"), 0o600))

	res := newTestResources(t, srv, srv.IssueToken(user.ID))
	created, err := res.Sightings.Create(t.Context(), model.NewSighting{
		Title: "Hawk", Body: "On a post", UserID: user.ID, AnimalID: hawk.ID, ImagePath: img,
	})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/hawk.jpg", created.Image())
}

func TestLikeIncrementsCurrentCount(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	user := srv.SeedUser("ana", "Ana", "secret1")
	hawk := seedHawk(srv)
	sg := srv.SeedSighting(model.Sighting{Title: "Hawk", Body: "b", UserID: user.ID, AnimalID: hawk.ID, Likes: 4})

	res := newTestResources(t, srv, srv.IssueToken(user.ID))
	liked, err := res.Sightings.Like(t.Context(), sg.ID, sg.Likes)
	require.NoError(t, err)
	assert.Equal(t, 5, liked.Likes)
}

func TestListByUserFiltersFeed(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	ana := srv.SeedUser("ana", "Ana", "secret1")
	bo := srv.SeedUser("bo", "Bo", "secret1")
	hawk := seedHawk(srv)
	srv.SeedSighting(model.Sighting{Title: "a1", UserID: ana.ID, AnimalID: hawk.ID})
	srv.SeedSighting(model.Sighting{Title: "b1", UserID: bo.ID, AnimalID: hawk.ID})
	srv.SeedSighting(model.Sighting{Title: "a2", UserID: ana.ID, AnimalID: hawk.ID})

	res := newTestResources(t, srv, "")
	mine, err := res.Sightings.ListByUser(t.Context(), ana.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, sg := range mine {
		assert.Equal(t, ana.ID, sg.UserID)
	}
}

func TestCommentsAndRepliesAreSeparated(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	user := srv.SeedUser("ana", "Ana", "secret1")
	hawk := seedHawk(srv)
	sg := srv.SeedSighting(model.Sighting{ID: 5, Title: "Hawk", Body: "b", UserID: user.ID, AnimalID: hawk.ID})

	res := newTestResources(t, srv, srv.IssueToken(user.ID))
	top, err := res.Comments.Create(t.Context(), model.NewComment{
		Body: "Cool!", CommentableType: model.CommentableSighting, CommentableID: sg.ID,
	})
	require.NoError(t, err)
	_, err = res.Comments.Create(t.Context(), model.NewComment{
		Body: "Agreed", CommentableType: model.CommentableComment, CommentableID: top.ID,
	})
	require.NoError(t, err)

	comments, err := res.Comments.List(t.Context(), model.CommentableSighting, sg.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Cool!", comments[0].Body)
	assert.Equal(t, "ana", comments[0].Author())

	replies, err := res.Comments.Replies(t.Context(), top.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "Agreed", replies[0].Body)
}

func TestCommentUpdateAndDelete(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	user := srv.SeedUser("ana", "Ana", "secret1")
	hawk := seedHawk(srv)
	sg := srv.SeedSighting(model.Sighting{Title: "Hawk", UserID: user.ID, AnimalID: hawk.ID})
	cm := srv.SeedComment(user.ID, model.NewComment{Body: "first", CommentableType: model.CommentableSighting, CommentableID: sg.ID})

	res := newTestResources(t, srv, srv.IssueToken(user.ID))
	updated, err := res.Comments.Update(t.Context(), cm.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Body)

	require.NoError(t, res.Comments.Delete(t.Context(), cm.ID))
	_, err = res.Comments.Get(t.Context(), cm.ID)
	require.Error(t, err)
	assert.Equal(t, 404, api.StatusCode(err))
}

func TestUserUpdateSendsOnlyChangedFields(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	user := srv.SeedUser("ana", "Ana", "secret1")

	res := newTestResources(t, srv, srv.IssueToken(user.ID))
	updated, err := res.Users.Update(t.Context(), user.ID, model.UserUpdate{Name: "Ana Maria"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, "ana", updated.Username)
}

func TestMutationWithoutTokenIsRejected(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	user := srv.SeedUser("ana", "Ana", "secret1")

	res := newTestResources(t, srv, "")
	err := res.Users.Delete(t.Context(), user.ID)
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
}

func TestAnimals(t *testing.T) {
	t.Parallel()
	srv := fakeapi.New(t)
	hawk := seedHawk(srv)
	srv.SeedAnimal(model.Animal{Name: "Barn Owl"})

	res := newTestResources(t, srv, "")
	all, err := res.Animals.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := res.Animals.Get(t.Context(), hawk.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.TaxonRank{{Rank: "genus", Value: "Buteo"}, {Rank: "species", Value: "jamaicensis"}}, got.Taxonomy())
}
