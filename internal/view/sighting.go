package view

import (
	"context"
	"sync"

	"github.com/tphakala/faunagram-go/internal/api"
	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/navigation"
	"github.com/tphakala/faunagram-go/internal/query"
)

const (
	msgSightingFailed    = "Failed to load sighting."
	msgUpdateFailed      = "Failed to update sighting"
	msgDeleteSightFailed = "Failed to delete sighting"
	msgNotOwnSighting    = "You can only change your own sightings"
)

// SightingView is the detail page of a sighting with its comments
type SightingView struct {
	lifecycle
	deps     Deps
	id       int
	comments *CommentsView

	mu        sync.Mutex
	sighting  *model.Sighting
	loadErr   error
	actionErr string
}

// NewSighting creates the detail view of sighting id
func NewSighting(d Deps, id int) *SightingView {
	return &SightingView{
		deps:     d,
		id:       id,
		comments: NewComments(d, model.CommentableSighting, id),
	}
}

// Comments returns the embedded comment section
func (v *SightingView) Comments() *CommentsView {
	return v.comments
}

// Mount loads the sighting and its comments
func (v *SightingView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)
	fetch := func(ctx context.Context) (*model.Sighting, error) { return v.deps.API.Sightings.Get(ctx, v.id) }
	s, sub, err := query.Watch(ctx, v.deps.Cache, query.SightingKey(v.id), fetch, v.update)
	v.track(sub)
	sub.ApplyInitial(func() { v.update(s, err) })
	if err != nil {
		return err
	}
	return v.comments.Mount(ctx)
}

// Close ends the view and its comment section
func (v *SightingView) Close() {
	v.comments.Close()
	v.lifecycle.Close()
}

func (v *SightingView) update(s *model.Sighting, err error) {
	if !v.alive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadErr = err
	if err == nil {
		v.sighting = s
	}
}

// Sighting returns the loaded sighting
func (v *SightingView) Sighting() *model.Sighting {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sighting == nil {
		return nil
	}
	s := *v.sighting
	return &s
}

// Like adds one like
func (v *SightingView) Like() error {
	s := v.Sighting()
	if s == nil {
		return v.fail(errors.Newf("sighting %d not loaded", v.id).Category(errors.CategoryState).Component("view").Build(), msgLikeFailed)
	}
	return v.fail(likeSighting(v.lifecycle.context(), v.deps, s.ID, s.Likes), msgLikeFailed)
}

// Update edits an own sighting
func (v *SightingView) Update(upd model.SightingUpdate) (*model.Sighting, error) {
	if err := v.requireOwner(); err != nil {
		return nil, v.fail(err, msgUpdateFailed)
	}
	updated, err := query.Mutate(v.lifecycle.context(), v.deps.Cache,
		query.Mutation{Kind: query.SightingUpdate, SightingID: v.id},
		func(ctx context.Context) (*model.Sighting, error) { return v.deps.API.Sightings.Update(ctx, v.id, upd) },
		nil)
	if err != nil {
		return nil, v.fail(err, msgUpdateFailed)
	}
	return updated, nil
}

// Delete removes an own sighting and opens the feed
func (v *SightingView) Delete() error {
	if err := v.requireOwner(); err != nil {
		return v.fail(err, msgDeleteSightFailed)
	}
	_, err := query.Mutate(v.lifecycle.context(), v.deps.Cache,
		query.Mutation{Kind: query.SightingDelete, SightingID: v.id},
		func(ctx context.Context) (struct{}, error) { return struct{}{}, v.deps.API.Sightings.Delete(ctx, v.id) },
		nil)
	if err != nil {
		return v.fail(err, msgDeleteSightFailed)
	}
	v.deps.navigate(navigation.RouteHome)
	return nil
}

func (v *SightingView) requireOwner() error {
	user := v.deps.currentUser()
	s := v.Sighting()
	if user == nil || s == nil || s.UserID != user.ID {
		return errors.ValidationError(msgNotOwnSighting)
	}
	return nil
}

func (v *SightingView) fail(err error, fallback string) error {
	if err == nil {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.actionErr = api.Message(err, fallback)
	return err
}

// Error returns the last action error
func (v *SightingView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.actionErr
}

// Render draws the sighting followed by its comments
func (v *SightingView) Render() string {
	v.mu.Lock()
	s, loadErr, actionErr := v.sighting, v.loadErr, v.actionErr
	v.mu.Unlock()

	if s == nil {
		if loadErr != nil {
			return errorStyle.Render(api.Message(loadErr, msgSightingFailed))
		}
		return mutedStyle.Render("Loading sighting...")
	}
	return blocks(renderSightingCard(s), renderError(actionErr), v.comments.Render())
}
