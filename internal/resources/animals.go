package resources

import (
	"context"

	"github.com/tphakala/faunagram-go/internal/model"
)

// Animals is read-only
type Animals struct {
	r Requester
}

// List returns all animals
func (a *Animals) List(ctx context.Context) ([]model.Animal, error) {
	var out []model.Animal
	if err := a.r.Get(ctx, "/animals", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one animal
func (a *Animals) Get(ctx context.Context, id int) (*model.Animal, error) {
	var out model.Animal
	if err := a.r.Get(ctx, itemPath("animals", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
