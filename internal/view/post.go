package view

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tphakala/faunagram-go/internal/api"
	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/navigation"
	"github.com/tphakala/faunagram-go/internal/query"
)

const (
	msgCreateFailed  = "Failed to create sighting"
	msgLoginToPost   = "You must be logged in to post a sighting"
	msgAnimalsFailed = "Failed to load animals. Please try again later."
)

// PostSightingView is the new sighting form (/post-sighting)
type PostSightingView struct {
	lifecycle
	deps Deps

	mu      sync.Mutex
	animals []model.Animal
	loadErr error
	err     string
	created *model.Sighting
}

// NewPostSighting creates the form
func NewPostSighting(d Deps) *PostSightingView {
	return &PostSightingView{deps: d}
}

// Mount loads the animals offered by the form
func (v *PostSightingView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)
	animals, sub, err := query.Watch(ctx, v.deps.Cache, query.AnimalsKey(), v.deps.API.Animals.List, v.update)
	v.track(sub)
	sub.ApplyInitial(func() { v.update(animals, err) })
	return err
}

func (v *PostSightingView) update(animals []model.Animal, err error) {
	if !v.alive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadErr = err
	if err == nil {
		v.animals = animals
	}
}

// Animals returns the selectable animals
func (v *PostSightingView) Animals() []model.Animal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Animal(nil), v.animals...)
}

// Submit posts the sighting as the session user. On success the feed is
// invalidated and opened.
func (v *PostSightingView) Submit(in model.NewSighting) (*model.Sighting, error) {
	v.setError("")

	if err := in.Validate(); err != nil {
		v.setError(err.Error())
		return nil, err
	}
	user := v.deps.currentUser()
	if user == nil {
		err := errors.ValidationError(msgLoginToPost)
		v.setError(msgLoginToPost)
		return nil, err
	}
	in.UserID = user.ID

	created, err := query.Mutate(v.lifecycle.context(), v.deps.Cache, query.Mutation{Kind: query.SightingCreate},
		func(ctx context.Context) (*model.Sighting, error) {
			return v.deps.API.Sightings.Create(ctx, in)
		},
		func(s *model.Sighting) {
			v.mu.Lock()
			v.created = s
			v.mu.Unlock()
		})
	if err != nil {
		v.setError(api.Message(err, msgCreateFailed))
		return nil, err
	}

	v.deps.navigate(navigation.RouteHome)
	return created, nil
}

func (v *PostSightingView) setError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = msg
}

// Error returns the inline error
func (v *PostSightingView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Render draws the form with the animal choices
func (v *PostSightingView) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Post a Sighting"))
	switch {
	case v.loadErr != nil && len(v.animals) == 0:
		b.WriteString("\n" + errorStyle.Render(msgAnimalsFailed))
	case len(v.animals) == 0:
		b.WriteString("\n" + mutedStyle.Render("No animals available"))
	default:
		b.WriteString("\nAnimals:")
		for _, a := range v.animals {
			fmt.Fprintf(&b, "\n  %3d  %s", a.ID, a.Name)
		}
	}
	if v.created != nil {
		b.WriteString("\n\nPosted sighting #" + fmt.Sprint(v.created.ID) + ": " + v.created.Title)
	}
	return blocks(b.String(), renderError(v.err))
}
