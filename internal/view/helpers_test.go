package view

import (
	"context"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/faunagram-go/internal/api"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/navigation"
	"github.com/tphakala/faunagram-go/internal/query"
	"github.com/tphakala/faunagram-go/internal/resources"
	"github.com/tphakala/faunagram-go/internal/session"
	"github.com/tphakala/faunagram-go/internal/testutil/fakeapi"
)

type env struct {
	srv     *fakeapi.Server
	deps    Deps
	history *navigation.History
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	e := &env{
		srv:     fakeapi.New(t),
		history: navigation.NewHistory(navigation.RouteLogin),
	}

	var store *session.Store
	client, err := api.NewClient(api.Config{BaseURL: e.srv.URL(), Logger: log},
		api.TokenFunc(func() string { return store.Token() }))
	require.NoError(t, err)
	t.Cleanup(client.Close)

	res := resources.New(client)
	cache := query.New(query.Config{Logger: log})
	store = session.New(res.Auth, session.Config{
		Tokens:    session.NewMemoryTokenStore(""),
		Cache:     cache,
		Navigator: e.history,
		Logger:    log,
	})
	client.SetUnauthorizedHandler(store.HandleUnauthorized)

	e.deps = Deps{
		Session:   store,
		Cache:     cache,
		API:       res,
		Navigator: e.history,
		Logger:    log,
	}
	return e
}

// signIn seeds a user and logs in through the session
func (e *env) signIn(t *testing.T, username string) model.User {
	t.Helper()
	u := e.srv.SeedUser(username, username, "secret1")
	_, err := e.deps.Session.Login(t.Context(), username, "secret1")
	require.NoError(t, err)
	return u
}

func (e *env) seedSighting(userID, animalID int, title string) model.Sighting {
	return e.srv.SeedSighting(model.Sighting{Title: title, Body: "body of " + title, UserID: userID, AnimalID: animalID})
}

func mount(t *testing.T, v interface {
	Mount(ctx context.Context) error
	Close()
}) {
	t.Helper()
	require.NoError(t, v.Mount(t.Context()))
	t.Cleanup(v.Close)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
