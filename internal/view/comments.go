package view

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tphakala/faunagram-go/internal/api"
	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/query"
)

const (
	msgLoginToComment   = "Please log in to view and add comments."
	msgNoComments       = "No comments yet. Be the first to comment!"
	msgCommentsFailed   = "Failed to load comments."
	msgCommentFailed    = "Failed to post comment"
	msgReplyFailed      = "Failed to post reply"
	msgDeleteFailed     = "Failed to delete comment"
	msgRepliesFailed    = "Failed to load replies"
	msgNotOwnComment    = "You can only delete your own comments"
	msgRepliesTopLevel  = "Only top-level comments have replies"
	msgUnknownComment   = "Comment not found"
	msgLoginToReply     = "You must be logged in to reply"
	msgLoginToDelete    = "You must be logged in to delete comments"
	msgLoginToPostComms = "You must be logged in to comment"
)

// thread is the reply state of one top-level comment. Replies are loaded
// on first expand and kept for the lifetime of the view.
type thread struct {
	expanded bool
	loaded   bool
	replies  []model.Comment
}

// CommentsView is the threaded comment section of a commentable
type CommentsView struct {
	lifecycle
	deps            Deps
	log             logger.Logger
	commentableType string
	commentableID   int

	mu        sync.Mutex
	comments  []model.Comment
	threads   map[int]*thread
	loadErr   error
	actionErr string
}

// NewComments creates the comment section of a sighting or comment
func NewComments(d Deps, commentableType string, commentableID int) *CommentsView {
	return &CommentsView{
		deps:            d,
		log:             d.log("comments"),
		commentableType: commentableType,
		commentableID:   commentableID,
		threads:         make(map[int]*thread),
	}
}

func (v *CommentsView) key() query.Key {
	return query.CommentsKey(v.commentableType, v.commentableID)
}

func (v *CommentsView) fetch(ctx context.Context) ([]model.Comment, error) {
	return v.deps.API.Comments.List(ctx, v.commentableType, v.commentableID)
}

// Mount loads the top-level comments and keeps them current until Close
func (v *CommentsView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)
	list, sub, err := query.Watch(ctx, v.deps.Cache, v.key(), v.fetch, v.update)
	v.track(sub)
	sub.ApplyInitial(func() { v.update(list, err) })
	return err
}

func (v *CommentsView) update(list []model.Comment, err error) {
	if !v.alive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadErr = err
	if err == nil {
		v.comments = list
	}
}

// ReadOnly reports whether the form is replaced by the login prompt
func (v *CommentsView) ReadOnly() bool {
	return v.deps.currentUser() == nil
}

// Comments returns the loaded top-level comments
func (v *CommentsView) Comments() []model.Comment {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Comment(nil), v.comments...)
}

// Replies returns the loaded replies of a comment
func (v *CommentsView) Replies(commentID int) []model.Comment {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t := v.threads[commentID]; t != nil {
		return append([]model.Comment(nil), t.replies...)
	}
	return nil
}

// Expanded reports whether the replies of a comment are shown
func (v *CommentsView) Expanded(commentID int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	t := v.threads[commentID]
	return t != nil && t.expanded
}

func (v *CommentsView) findLocked(commentID int) (*model.Comment, bool) {
	i := slices.IndexFunc(v.comments, func(c model.Comment) bool { return c.ID == commentID })
	if i < 0 {
		return nil, false
	}
	return &v.comments[i], true
}

// Post adds a top-level comment as the session user
func (v *CommentsView) Post(body string) (*model.Comment, error) {
	user := v.deps.currentUser()
	if user == nil {
		return nil, v.fail(errors.ValidationError(msgLoginToPostComms), msgCommentFailed)
	}

	in := model.NewComment{
		Body:            strings.TrimSpace(body),
		CommentableType: v.commentableType,
		CommentableID:   v.commentableID,
		Username:        user.Username,
	}
	if err := in.Validate(); err != nil {
		return nil, v.fail(err, msgCommentFailed)
	}

	m := query.Mutation{Kind: query.CommentCreate, CommentableType: v.commentableType, CommentableID: v.commentableID}
	created, err := query.Mutate(v.lifecycle.context(), v.deps.Cache, m,
		func(ctx context.Context) (*model.Comment, error) { return v.deps.API.Comments.Create(ctx, in) },
		func(*model.Comment) { v.clearError() })
	if err != nil {
		return nil, v.fail(err, msgCommentFailed)
	}
	return created, nil
}

// ExpandReplies shows the replies of a top-level comment, fetching them
// the first time only.
func (v *CommentsView) ExpandReplies(commentID int) error {
	v.mu.Lock()
	c, ok := v.findLocked(commentID)
	switch {
	case !ok:
		v.mu.Unlock()
		return v.fail(errors.Newf("comment %d is not in this section", commentID).
			Category(errors.CategoryNotFound).Component("view").Build(), msgUnknownComment)
	case !c.IsTopLevel():
		v.mu.Unlock()
		return v.fail(errors.ValidationError(msgRepliesTopLevel), msgRepliesFailed)
	}
	t := v.threadLocked(commentID)
	if t.expanded {
		v.mu.Unlock()
		return nil
	}
	if t.loaded {
		t.expanded = true
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()

	replies, err := query.Fetch(v.lifecycle.context(), v.deps.Cache, query.RepliesKey(commentID),
		func(ctx context.Context) ([]model.Comment, error) { return v.deps.API.Comments.Replies(ctx, commentID) })
	if err != nil {
		return v.fail(err, msgRepliesFailed)
	}
	if !v.alive() {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !t.loaded {
		t.replies = replies
		t.loaded = true
	}
	t.expanded = true
	return nil
}

// CollapseReplies hides the replies of a comment and keeps them loaded
func (v *CommentsView) CollapseReplies(commentID int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t := v.threads[commentID]; t != nil {
		t.expanded = false
	}
}

// ToggleReplies flips the reply visibility of one comment
func (v *CommentsView) ToggleReplies(commentID int) error {
	if v.Expanded(commentID) {
		v.CollapseReplies(commentID)
		return nil
	}
	return v.ExpandReplies(commentID)
}

func (v *CommentsView) threadLocked(commentID int) *thread {
	t := v.threads[commentID]
	if t == nil {
		t = &thread{}
		v.threads[commentID] = t
	}
	return t
}

// Reply answers a top-level comment. The server-confirmed reply is
// appended to the comment's reply list when that list was already loaded;
// an unloaded list is fetched on its first expand instead.
func (v *CommentsView) Reply(parentID int, body string) (*model.Comment, error) {
	user := v.deps.currentUser()
	if user == nil {
		return nil, v.fail(errors.ValidationError(msgLoginToReply), msgReplyFailed)
	}

	v.mu.Lock()
	parent, ok := v.findLocked(parentID)
	topLevel := ok && parent.IsTopLevel()
	v.mu.Unlock()
	if !ok {
		return nil, v.fail(errors.Newf("comment %d is not in this section", parentID).
			Category(errors.CategoryNotFound).Component("view").Build(), msgUnknownComment)
	}
	if !topLevel {
		return nil, v.fail(errors.ValidationError(msgRepliesTopLevel), msgReplyFailed)
	}

	in := model.NewComment{
		Body:            strings.TrimSpace(body),
		CommentableType: model.CommentableComment,
		CommentableID:   parentID,
		Username:        user.Username,
	}
	if err := in.Validate(); err != nil {
		return nil, v.fail(err, msgReplyFailed)
	}

	m := query.Mutation{
		Kind:            query.ReplyCreate,
		CommentID:       parentID,
		CommentableType: v.commentableType,
		CommentableID:   v.commentableID,
	}
	created, err := query.Mutate(v.lifecycle.context(), v.deps.Cache, m,
		func(ctx context.Context) (*model.Comment, error) { return v.deps.API.Comments.Create(ctx, in) },
		func(reply *model.Comment) { v.appendReply(parentID, *reply) })
	if err != nil {
		return nil, v.fail(err, msgReplyFailed)
	}
	return created, nil
}

func (v *CommentsView) appendReply(parentID int, reply model.Comment) {
	if !v.alive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.actionErr = ""
	t := v.threads[parentID]
	if t == nil || !t.loaded {
		return
	}
	t.replies = append(t.replies, reply)
	v.deps.Cache.Set(query.RepliesKey(parentID), append([]model.Comment(nil), t.replies...))
}

// Delete removes a comment or reply owned by the session user
func (v *CommentsView) Delete(commentID int) error {
	user := v.deps.currentUser()
	if user == nil {
		return v.fail(errors.ValidationError(msgLoginToDelete), msgDeleteFailed)
	}

	target, parentID := v.locate(commentID)
	if target == nil {
		return v.fail(errors.Newf("comment %d is not in this section", commentID).
			Category(errors.CategoryNotFound).Component("view").Build(), msgUnknownComment)
	}
	if target.UserID != user.ID {
		return v.fail(errors.ValidationError(msgNotOwnComment), msgDeleteFailed)
	}

	_, err := query.Mutate(v.lifecycle.context(), v.deps.Cache, query.CommentMutation(query.CommentDelete, target),
		func(ctx context.Context) (struct{}, error) { return struct{}{}, v.deps.API.Comments.Delete(ctx, commentID) },
		func(struct{}) { v.removeLocal(commentID, parentID) })
	if err != nil {
		return v.fail(err, msgDeleteFailed)
	}
	return nil
}

// locate finds a comment among the top-level comments and loaded replies
func (v *CommentsView) locate(commentID int) (*model.Comment, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.findLocked(commentID); ok {
		cp := *c
		return &cp, 0
	}
	for parentID, t := range v.threads {
		for _, r := range t.replies {
			if r.ID == commentID {
				cp := r
				return &cp, parentID
			}
		}
	}
	return nil, 0
}

// removeLocal drops a deleted reply from its loaded thread; top-level
// comments are refreshed through invalidation.
func (v *CommentsView) removeLocal(commentID, parentID int) {
	if !v.alive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.actionErr = ""
	if parentID == 0 {
		delete(v.threads, commentID)
		return
	}
	if t := v.threads[parentID]; t != nil {
		t.replies = slices.DeleteFunc(t.replies, func(r model.Comment) bool { return r.ID == commentID })
		v.deps.Cache.Set(query.RepliesKey(parentID), append([]model.Comment(nil), t.replies...))
	}
}

func (v *CommentsView) clearError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.actionErr = ""
}

func (v *CommentsView) fail(err error, fallback string) error {
	v.log.Debug("comment action failed", logger.Error(err))
	v.mu.Lock()
	defer v.mu.Unlock()
	v.actionErr = api.Message(err, fallback)
	return err
}

// Error returns the last action error
func (v *CommentsView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.actionErr
}

// Render draws the section. Without a session the comments are listed
// read-only with a login prompt in place of the form.
func (v *CommentsView) Render() string {
	user := v.deps.currentUser()

	v.mu.Lock()
	defer v.mu.Unlock()

	header := "Comments"
	if n := len(v.comments); n > 0 {
		header = fmt.Sprintf("Comments (%d)", n)
	}

	var items []string
	switch {
	case v.loadErr != nil && len(v.comments) == 0:
		items = append(items, errorStyle.Render(msgCommentsFailed))
	case len(v.comments) == 0:
		items = append(items, mutedStyle.Render(msgNoComments))
	default:
		for i := range v.comments {
			items = append(items, v.renderCommentLocked(&v.comments[i], user))
		}
	}

	footer := mutedStyle.Render("Add a comment...")
	if user == nil {
		footer = mutedStyle.Render(msgLoginToComment)
	}

	return blocks(headingStyle.Render(header), strings.Join(items, "\n\n"), footer, renderError(v.actionErr))
}

func (v *CommentsView) renderCommentLocked(c *model.Comment, user *model.User) string {
	var b strings.Builder
	b.WriteString(renderCommentLine(c, user, ""))

	if !c.IsTopLevel() {
		return b.String()
	}

	t := v.threads[c.ID]
	n := 0
	if t != nil {
		n = len(t.replies)
	}
	label := fmt.Sprintf("View Replies (%d)", n)
	if t != nil && t.expanded {
		label = fmt.Sprintf("Hide Replies (%d)", n)
	}
	b.WriteString("\n" + mutedStyle.Render("["+label+"]"))

	if t != nil && t.expanded {
		replies := make([]string, 0, len(t.replies))
		for i := range t.replies {
			replies = append(replies, renderCommentLine(&t.replies[i], user, "↳ "))
		}
		if len(replies) > 0 {
			b.WriteString("\n" + indentStyle.Render(strings.Join(replies, "\n")))
		}
	}
	return b.String()
}

func renderCommentLine(c *model.Comment, user *model.User, prefix string) string {
	head := fmt.Sprintf("%s%s %s", prefix, headingStyle.Render(c.Author()), mutedStyle.Render(formatDate(c.CreatedAt)))
	if user != nil && user.ID == c.UserID {
		head += " " + mutedStyle.Render("[delete]")
	}
	return fmt.Sprintf("%s  #%d\n%s%s", head, c.ID, strings.Repeat(" ", len([]rune(prefix))), plainText(c.Body))
}
