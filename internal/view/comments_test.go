package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/query"
)

// sightingFixture seeds sighting 5 owned by a second user
func sightingFixture(e *env) model.Sighting {
	owner := e.srv.SeedUser("owner", "Owner", "secret1")
	hawk := e.srv.SeedAnimal(model.Animal{Name: "Hawk"})
	return e.srv.SeedSighting(model.Sighting{ID: 5, Title: "Hawk", Body: "b", UserID: owner.ID, AnimalID: hawk.ID})
}

func repliesPath(id int) string {
	return "/comments/" + itoa(id) + "/comments"
}

func TestTopLevelCommentsAndReplies(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "ana")
	sg := sightingFixture(e)

	comments := NewComments(e.deps, model.CommentableSighting, sg.ID)
	mount(t, comments)

	cool, err := comments.Post("Cool!")
	require.NoError(t, err)
	require.NoError(t, comments.ExpandReplies(cool.ID))
	_, err = comments.Reply(cool.ID, "Agreed")
	require.NoError(t, err)

	top := comments.Comments()
	require.Len(t, top, 1)
	assert.Equal(t, "Cool!", top[0].Body)

	replies, err := e.deps.API.Comments.Replies(t.Context(), cool.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "Agreed", replies[0].Body)

	// appended locally from the confirmed response
	local := comments.Replies(cool.ID)
	require.Len(t, local, 1)
	assert.Equal(t, "Agreed", local[0].Body)
	assert.Equal(t, 1, e.srv.Calls("GET", repliesPath(cool.ID)))

	out := comments.Render()
	assert.Contains(t, out, "Comments (1)")
	assert.Contains(t, out, "Hide Replies (1)")
	assert.Contains(t, out, "Agreed")
}

func TestExpandRepliesFetchesOnce(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")
	sg := sightingFixture(e)
	c := e.srv.SeedComment(ana.ID, model.NewComment{Body: "lonely", CommentableType: model.CommentableSighting, CommentableID: sg.ID})

	comments := NewComments(e.deps, model.CommentableSighting, sg.ID)
	mount(t, comments)

	require.NoError(t, comments.ExpandReplies(c.ID))
	assert.True(t, comments.Expanded(c.ID))
	assert.Empty(t, comments.Replies(c.ID))
	assert.Equal(t, 1, e.srv.Calls("GET", repliesPath(c.ID)))

	require.NoError(t, comments.ExpandReplies(c.ID))
	assert.Equal(t, 1, e.srv.Calls("GET", repliesPath(c.ID)))

	require.NoError(t, comments.ToggleReplies(c.ID))
	assert.False(t, comments.Expanded(c.ID))
	require.NoError(t, comments.ToggleReplies(c.ID))
	assert.True(t, comments.Expanded(c.ID))
	assert.Equal(t, 1, e.srv.Calls("GET", repliesPath(c.ID)))
}

func TestReplyStateIsPerComment(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")
	sg := sightingFixture(e)
	first := e.srv.SeedComment(ana.ID, model.NewComment{Body: "one", CommentableType: model.CommentableSighting, CommentableID: sg.ID})
	second := e.srv.SeedComment(ana.ID, model.NewComment{Body: "two", CommentableType: model.CommentableSighting, CommentableID: sg.ID})

	comments := NewComments(e.deps, model.CommentableSighting, sg.ID)
	mount(t, comments)

	require.NoError(t, comments.ExpandReplies(first.ID))
	assert.True(t, comments.Expanded(first.ID))
	assert.False(t, comments.Expanded(second.ID))
	assert.Equal(t, 0, e.srv.Calls("GET", repliesPath(second.ID)))
}

func TestReplyToUnloadedThreadIsNotAppended(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")
	sg := sightingFixture(e)
	c := e.srv.SeedComment(ana.ID, model.NewComment{Body: "top", CommentableType: model.CommentableSighting, CommentableID: sg.ID})

	comments := NewComments(e.deps, model.CommentableSighting, sg.ID)
	mount(t, comments)

	_, err := comments.Reply(c.ID, "first reply")
	require.NoError(t, err)
	assert.Empty(t, comments.Replies(c.ID))
	assert.False(t, comments.Expanded(c.ID))

	require.NoError(t, comments.ExpandReplies(c.ID))
	require.Len(t, comments.Replies(c.ID), 1)
}

func TestRepliesOfOtherUsersNeedManualRefresh(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")
	sg := sightingFixture(e)
	c := e.srv.SeedComment(ana.ID, model.NewComment{Body: "top", CommentableType: model.CommentableSighting, CommentableID: sg.ID})

	comments := NewComments(e.deps, model.CommentableSighting, sg.ID)
	mount(t, comments)
	require.NoError(t, comments.ExpandReplies(c.ID))

	other := e.srv.SeedUser("bo", "Bo", "secret1")
	e.srv.SeedComment(other.ID, model.NewComment{Body: "from bo", CommentableType: model.CommentableComment, CommentableID: c.ID})

	comments.CollapseReplies(c.ID)
	require.NoError(t, comments.ExpandReplies(c.ID))
	assert.Empty(t, comments.Replies(c.ID))
}

func TestRepliesToggleOnlyForTopLevel(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")
	sg := sightingFixture(e)
	parent := e.srv.SeedComment(ana.ID, model.NewComment{Body: "top", CommentableType: model.CommentableSighting, CommentableID: sg.ID})
	reply := e.srv.SeedComment(ana.ID, model.NewComment{Body: "nested", CommentableType: model.CommentableComment, CommentableID: parent.ID})

	// a section listing replies of a comment
	nested := NewComments(e.deps, model.CommentableComment, parent.ID)
	mount(t, nested)

	require.Error(t, nested.ExpandReplies(reply.ID))
	assert.NotContains(t, nested.Render(), "View Replies")
}

func TestDeleteCommentInvalidatesListAndSightings(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")
	sg := sightingFixture(e)
	c := e.srv.SeedComment(ana.ID, model.NewComment{Body: "bye", CommentableType: model.CommentableSighting, CommentableID: sg.ID})

	feed := NewFeed(e.deps)
	mount(t, feed)
	comments := NewComments(e.deps, model.CommentableSighting, sg.ID)
	mount(t, comments)
	require.Equal(t, 1, feed.Sightings()[0].CommentsCount)

	require.NoError(t, comments.Delete(c.ID))

	assert.Empty(t, comments.Comments())
	assert.Equal(t, 0, feed.Sightings()[0].CommentsCount)
	assert.Equal(t, 2, e.srv.Calls("GET", "/comments"))
	assert.Equal(t, 2, e.srv.Calls("GET", "/sightings"))
}

func TestDeleteOnlyOwnComments(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "ana")
	sg := sightingFixture(e)
	other := e.srv.SeedUser("bo", "Bo", "secret1")
	c := e.srv.SeedComment(other.ID, model.NewComment{Body: "mine", CommentableType: model.CommentableSighting, CommentableID: sg.ID})

	comments := NewComments(e.deps, model.CommentableSighting, sg.ID)
	mount(t, comments)

	require.Error(t, comments.Delete(c.ID))
	assert.Equal(t, msgNotOwnComment, comments.Error())
	assert.Equal(t, 0, e.srv.Calls("DELETE", "/comments/"+itoa(c.ID)))
}

func TestDeleteLoadedReply(t *testing.T) {
	e := newEnv(t)
	ana := e.signIn(t, "ana")
	sg := sightingFixture(e)
	parent := e.srv.SeedComment(ana.ID, model.NewComment{Body: "top", CommentableType: model.CommentableSighting, CommentableID: sg.ID})
	reply := e.srv.SeedComment(ana.ID, model.NewComment{Body: "oops", CommentableType: model.CommentableComment, CommentableID: parent.ID})

	comments := NewComments(e.deps, model.CommentableSighting, sg.ID)
	mount(t, comments)
	require.NoError(t, comments.ExpandReplies(parent.ID))
	require.Len(t, comments.Replies(parent.ID), 1)

	require.NoError(t, comments.Delete(reply.ID))
	assert.Empty(t, comments.Replies(parent.ID))
	cached, ok := e.deps.Cache.Peek(query.RepliesKey(parent.ID))
	require.True(t, ok)
	assert.Empty(t, cached)
}

func TestReadOnlyWithoutSession(t *testing.T) {
	e := newEnv(t)
	sg := sightingFixture(e)
	author := e.srv.SeedUser("ana", "Ana", "secret1")
	e.srv.SeedComment(author.ID, model.NewComment{Body: "visible", CommentableType: model.CommentableSighting, CommentableID: sg.ID})

	comments := NewComments(e.deps, model.CommentableSighting, sg.ID)
	mount(t, comments)

	assert.True(t, comments.ReadOnly())
	out := comments.Render()
	assert.Contains(t, out, msgLoginToComment)
	assert.Contains(t, out, "visible")
	assert.NotContains(t, out, "Add a comment...")

	before := e.srv.TotalCalls()
	_, err := comments.Post("hello")
	require.Error(t, err)
	assert.Equal(t, before, e.srv.TotalCalls())
}

func TestEmptyCommentIsRejected(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "ana")
	sg := sightingFixture(e)

	comments := NewComments(e.deps, model.CommentableSighting, sg.ID)
	mount(t, comments)

	_, err := comments.Post("   ")
	require.Error(t, err)
	assert.Equal(t, model.MsgCommentEmpty, comments.Error())
	assert.Contains(t, comments.Render(), msgNoComments)
}
