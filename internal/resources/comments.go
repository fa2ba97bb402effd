package resources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tphakala/faunagram-go/internal/model"
)

// Comments covers comments and one level of replies
type Comments struct {
	r Requester
}

// List returns the comments attached to a commentable
func (c *Comments) List(ctx context.Context, commentableType string, commentableID int) ([]model.Comment, error) {
	q := url.Values{}
	q.Set("commentable_type", commentableType)
	q.Set("commentable_id", strconv.Itoa(commentableID))

	var out []model.Comment
	if err := c.r.Get(ctx, "/comments", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one comment
func (c *Comments) Get(ctx context.Context, id int) (*model.Comment, error) {
	var out model.Comment
	if err := c.r.Get(ctx, itemPath("comments", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Replies returns the replies of a comment (GET /comments/:id/comments)
func (c *Comments) Replies(ctx context.Context, commentID int) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.r.Get(ctx, itemPath("comments", commentID)+"/comments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a comment or, with commentable type Comment, a reply
func (c *Comments) Create(ctx context.Context, in model.NewComment) (*model.Comment, error) {
	var out model.Comment
	if err := c.r.Post(ctx, "/comments", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a comment body
func (c *Comments) Update(ctx context.Context, id int, body string) (*model.Comment, error) {
	payload := struct {
		Body string `json:"body"`
	}{Body: body}

	var out model.Comment
	if err := c.r.Put(ctx, itemPath("comments", id), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a comment
func (c *Comments) Delete(ctx context.Context, id int) error {
	return c.r.Delete(ctx, itemPath("comments", id))
}
