package resources

import (
	"context"
	"strconv"

	"github.com/tphakala/faunagram-go/internal/api"
	"github.com/tphakala/faunagram-go/internal/model"
)

// Sightings covers the feed and sighting mutations
type Sightings struct {
	r Requester
}

// List returns the feed
func (s *Sightings) List(ctx context.Context) ([]model.Sighting, error) {
	var out []model.Sighting
	if err := s.r.Get(ctx, "/sightings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns the sightings authored by userID. The backend has no
// per-user endpoint, so the full list is filtered here.
func (s *Sightings) ListByUser(ctx context.Context, userID int) ([]model.Sighting, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Sighting, 0, len(all))
	for i := range all {
		if all[i].UserID == userID {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Get returns one sighting
func (s *Sightings) Get(ctx context.Context, id int) (*model.Sighting, error) {
	var out model.Sighting
	if err := s.r.Get(ctx, itemPath("sightings", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts a sighting as multipart with an optional image
func (s *Sightings) Create(ctx context.Context, in model.NewSighting) (*model.Sighting, error) {
	form := api.NewForm().
		Field("title", in.Title).
		Field("body", in.Body).
		Field("user_id", strconv.Itoa(in.UserID)).
		Field("animal_id", strconv.Itoa(in.AnimalID))
	if in.ImagePath != "" {
		form.File("image", in.ImagePath)
	}

	var out model.Sighting
	if err := s.r.PostMultipart(ctx, "/sightings", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sends the changed fields as multipart
func (s *Sightings) Update(ctx context.Context, id int, upd model.SightingUpdate) (*model.Sighting, error) {
	form := api.NewForm().
		FieldIfSet("title", upd.Title).
		FieldIfSet("body", upd.Body)
	if upd.AnimalID > 0 {
		form.Field("animal_id", strconv.Itoa(upd.AnimalID))
	}
	if upd.ImagePath != "" {
		form.File("image", upd.ImagePath)
	}

	var out model.Sighting
	if err := s.r.PutMultipart(ctx, itemPath("sightings", id), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a sighting
func (s *Sightings) Delete(ctx context.Context, id int) error {
	return s.r.Delete(ctx, itemPath("sightings", id))
}

// Like increments the like count. The backend stores the value it is sent,
// so concurrent likes from other clients can be lost.
func (s *Sightings) Like(ctx context.Context, id, currentLikes int) (*model.Sighting, error) {
	body := struct {
		Likes int `json:"likes"`
	}{Likes: currentLikes + 1}

	var out model.Sighting
	if err := s.r.Put(ctx, itemPath("sightings", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
