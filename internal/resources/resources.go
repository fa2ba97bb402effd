// Package resources exposes one typed method per backend operation. Methods
// do not cache or retry; that is the query layer's job.
package resources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tphakala/faunagram-go/internal/api"
)

// Requester is the subset of *api.Client used by the resource modules
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
	PostMultipart(ctx context.Context, path string, form *api.Form, out any) error
	PutMultipart(ctx context.Context, path string, form *api.Form, out any) error
}

// Resources groups the resource modules over one Requester
type Resources struct {
	Auth      *Auth
	Users     *Users
	Animals   *Animals
	Sightings *Sightings
	Comments  *Comments
}

// New creates all resource modules
func New(r Requester) *Resources {
	return &Resources{
		Auth:      &Auth{r: r},
		Users:     &Users{r: r},
		Animals:   &Animals{r: r},
		Sightings: &Sightings{r: r},
		Comments:  &Comments{r: r},
	}
}

func itemPath(collection string, id int) string {
	return "/" + collection + "/" + strconv.Itoa(id)
}
