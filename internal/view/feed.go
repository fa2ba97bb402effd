package view

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tphakala/faunagram-go/internal/api"
	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/query"
)

const (
	msgFeedFailed  = "Failed to load sightings. Please try again later."
	msgFeedEmpty   = "No sightings yet!"
	msgFeedInvite  = "Be the first to share an urban wildlife sighting."
	msgLikeFailed  = "Failed to like sighting"
	msgLoginToLike = "You must be logged in to like a sighting"
)

// FeedView is the list of all sightings (/home)
type FeedView struct {
	lifecycle
	deps Deps
	log  logger.Logger

	mu        sync.Mutex
	sightings []model.Sighting
	loadErr   error
	actionErr string
}

// NewFeed creates the feed view
func NewFeed(d Deps) *FeedView {
	return &FeedView{deps: d, log: d.log("feed")}
}

// Mount loads the feed and keeps it current until Close
func (v *FeedView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)
	list, sub, err := query.Watch(ctx, v.deps.Cache, query.SightingsKey(), v.deps.API.Sightings.List, v.update)
	v.track(sub)
	sub.ApplyInitial(func() { v.update(list, err) })
	return err
}

func (v *FeedView) update(list []model.Sighting, err error) {
	if !v.alive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadErr = err
	if err == nil {
		v.sightings = list
	}
}

// Sightings returns the loaded feed
func (v *FeedView) Sightings() []model.Sighting {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Sighting(nil), v.sightings...)
}

// Like adds one like to a sighting of the feed
func (v *FeedView) Like(id int) error {
	v.mu.Lock()
	v.actionErr = ""
	likes, found := 0, false
	for _, s := range v.sightings {
		if s.ID == id {
			likes, found = s.Likes, true
			break
		}
	}
	v.mu.Unlock()

	if !found {
		return v.fail(errors.Newf("sighting %d is not in the feed", id).
			Category(errors.CategoryNotFound).
			Component("view").
			Build(), msgLikeFailed)
	}
	return v.fail(likeSighting(v.lifecycle.context(), v.deps, id, likes), msgLikeFailed)
}

func (v *FeedView) fail(err error, fallback string) error {
	if err == nil {
		return nil
	}
	v.log.Debug("feed action failed", logger.Error(err))
	v.mu.Lock()
	v.actionErr = api.Message(err, fallback)
	v.mu.Unlock()
	return err
}

// likeSighting is shared by the feed and the detail view
func likeSighting(ctx context.Context, d Deps, id, currentLikes int) error {
	if d.currentUser() == nil {
		return errors.ValidationError(msgLoginToLike)
	}
	_, err := query.Mutate(ctx, d.Cache, query.Mutation{Kind: query.SightingLike, SightingID: id},
		func(ctx context.Context) (*model.Sighting, error) {
			return d.API.Sightings.Like(ctx, id, currentLikes)
		}, nil)
	return err
}

// Error returns the last action error
func (v *FeedView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.actionErr
}

// Render draws the feed
func (v *FeedView) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loadErr != nil && len(v.sightings) == 0 {
		return errorStyle.Render(msgFeedFailed)
	}
	if len(v.sightings) == 0 {
		return blocks("🦝", headingStyle.Render(msgFeedEmpty), mutedStyle.Render(msgFeedInvite))
	}

	cards := make([]string, 0, len(v.sightings)+2)
	cards = append(cards, titleStyle.Render("Urban Wildlife Feed 🐾"))
	for i := range v.sightings {
		cards = append(cards, renderSightingCard(&v.sightings[i]))
	}
	cards = append(cards, renderError(v.actionErr))
	return blocks(cards...)
}

func renderSightingCard(s *model.Sighting) string {
	author := "Unknown"
	if s.User != nil && s.User.Username != "" {
		author = s.User.Username
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", s.ID, headingStyle.Render(s.Title))
	fmt.Fprintf(&b, "%s\n", mutedStyle.Render("by "+author+" · "+formatDate(s.CreatedAt)))
	b.WriteString(plainText(s.Body))
	if s.Animal != nil {
		b.WriteString("\n" + badgeStyle.Render(s.Animal.Name))
	}
	if img := s.Image(); img != "" {
		b.WriteString("\n" + mutedStyle.Render("image: "+img))
	}
	fmt.Fprintf(&b, "\n❤️ %d  💬 %s", s.Likes, plural(s.CommentsCount, "comment", "comments"))
	return cardStyle.Render(b.String())
}
