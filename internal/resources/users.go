package resources

import (
	"context"

	"github.com/tphakala/faunagram-go/internal/api"
	"github.com/tphakala/faunagram-go/internal/model"
)

// Users covers the user directory and profile edits
type Users struct {
	r Requester
}

// List returns all users
func (u *Users) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := u.r.Get(ctx, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one user
func (u *Users) Get(ctx context.Context, id int) (*model.User, error) {
	var out model.User
	if err := u.r.Get(ctx, itemPath("users", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sends the changed profile fields as multipart, with an optional avatar
func (u *Users) Update(ctx context.Context, id int, upd model.UserUpdate) (*model.User, error) {
	form := api.NewForm().
		FieldIfSet("name", upd.Name).
		FieldIfSet("username", upd.Username)
	if upd.AvatarPath != "" {
		form.File("avatar", upd.AvatarPath)
	}

	var out model.User
	if err := u.r.PutMultipart(ctx, itemPath("users", id), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a user
func (u *Users) Delete(ctx context.Context, id int) error {
	return u.r.Delete(ctx, itemPath("users", id))
}
