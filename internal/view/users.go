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
	msgUsersFailed       = "Failed to load users. Please try again later."
	msgUsersEmpty        = "No users yet!"
	msgUserNotFound      = "User not found."
	msgProfileFailed     = "Failed to update profile"
	msgDeleteUserFailed  = "Failed to delete account"
	msgNotOwnProfile     = "You can only change your own profile"
	msgNoOwnSightings    = "You haven't posted any sightings yet."
	msgNoSightingsByUser = "No sightings yet."
)

// UsersView is the user directory (/users)
type UsersView struct {
	lifecycle
	deps Deps

	mu      sync.Mutex
	users   []model.User
	loadErr error
}

// NewUsers creates the directory view
func NewUsers(d Deps) *UsersView {
	return &UsersView{deps: d}
}

// Mount loads the directory
func (v *UsersView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)
	users, sub, err := query.Watch(ctx, v.deps.Cache, query.UsersKey(), v.deps.API.Users.List, v.update)
	v.track(sub)
	sub.ApplyInitial(func() { v.update(users, err) })
	return err
}

func (v *UsersView) update(users []model.User, err error) {
	if !v.alive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadErr = err
	if err == nil {
		v.users = users
	}
}

// Users returns the loaded users
func (v *UsersView) Users() []model.User {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.User(nil), v.users...)
}

// Render draws the directory
func (v *UsersView) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loadErr != nil && len(v.users) == 0 {
		return errorStyle.Render(msgUsersFailed)
	}
	if len(v.users) == 0 {
		return headingStyle.Render(msgUsersEmpty)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Community Members"))
	for _, u := range v.users {
		fmt.Fprintf(&b, "\n%4d  %s %s", u.ID, headingStyle.Render(u.DisplayName()), mutedStyle.Render("@"+u.Username))
	}
	return b.String()
}

// ProfileView is a user's page with their sightings (/users/:id)
type ProfileView struct {
	lifecycle
	deps   Deps
	userID int

	mu        sync.Mutex
	user      *model.User
	sightings []model.Sighting
	loadErr   error
	actionErr string
}

// NewProfile creates the profile view of userID
func NewProfile(d Deps, userID int) *ProfileView {
	return &ProfileView{deps: d, userID: userID}
}

// Mount loads the user and the user's sightings
func (v *ProfileView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)

	fetchUser := func(ctx context.Context) (*model.User, error) { return v.deps.API.Users.Get(ctx, v.userID) }
	user, sub, err := query.Watch(ctx, v.deps.Cache, query.UserKey(v.userID), fetchUser, v.updateUser)
	v.track(sub)
	sub.ApplyInitial(func() { v.updateUser(user, err) })
	if err != nil {
		return err
	}

	fetchSightings := func(ctx context.Context) ([]model.Sighting, error) {
		return v.deps.API.Sightings.ListByUser(ctx, v.userID)
	}
	list, sub, err := query.Watch(ctx, v.deps.Cache, query.UserSightingsKey(v.userID), fetchSightings, v.updateSightings)
	v.track(sub)
	sub.ApplyInitial(func() { v.updateSightings(list, err) })
	return err
}

func (v *ProfileView) updateUser(u *model.User, err error) {
	if !v.alive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadErr = err
	if err == nil {
		v.user = u
	}
}

func (v *ProfileView) updateSightings(list []model.Sighting, err error) {
	if !v.alive() || err != nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sightings = list
}

// User returns the loaded user
func (v *ProfileView) User() *model.User {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.user == nil {
		return nil
	}
	u := *v.user
	return &u
}

// Sightings returns the user's sightings
func (v *ProfileView) Sightings() []model.Sighting {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Sighting(nil), v.sightings...)
}

// IsOwnProfile reports whether the profile belongs to the session user
func (v *ProfileView) IsOwnProfile() bool {
	u := v.deps.currentUser()
	return u != nil && u.ID == v.userID
}

// Update edits the own profile
func (v *ProfileView) Update(upd model.UserUpdate) (*model.User, error) {
	if !v.IsOwnProfile() {
		return nil, v.fail(errors.ValidationError(msgNotOwnProfile), msgProfileFailed)
	}
	updated, err := query.Mutate(v.lifecycle.context(), v.deps.Cache,
		query.Mutation{Kind: query.UserUpdate, UserID: v.userID},
		func(ctx context.Context) (*model.User, error) { return v.deps.API.Users.Update(ctx, v.userID, upd) },
		func(u *model.User) {
			if v.deps.Session != nil {
				v.deps.Session.UpdateUser(*u)
			}
			v.deps.Cache.Set(query.CurrentUserKey(), *u)
		})
	if err != nil {
		return nil, v.fail(err, msgProfileFailed)
	}
	return updated, nil
}

// Delete removes the account shown. Deleting the own account signs out
// and opens the login page; any other account returns to the directory.
func (v *ProfileView) Delete() error {
	own := v.IsOwnProfile()
	if v.deps.currentUser() == nil {
		return v.fail(errors.ValidationError(msgNotOwnProfile), msgDeleteUserFailed)
	}

	_, err := query.Mutate(v.lifecycle.context(), v.deps.Cache,
		query.Mutation{Kind: query.UserDelete, UserID: v.userID},
		func(ctx context.Context) (struct{}, error) { return struct{}{}, v.deps.API.Users.Delete(ctx, v.userID) },
		nil)
	if err != nil {
		return v.fail(err, msgDeleteUserFailed)
	}

	if own {
		v.deps.Session.Logout()
		return nil
	}
	v.deps.navigate(navigation.RouteUsers)
	return nil
}

func (v *ProfileView) fail(err error, fallback string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.actionErr = api.Message(err, fallback)
	return err
}

// Error returns the last action error
func (v *ProfileView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.actionErr
}

// Render draws the profile header and the user's sightings
func (v *ProfileView) Render() string {
	own := v.IsOwnProfile()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.user == nil {
		if v.loadErr != nil {
			return errorStyle.Render(msgUserNotFound)
		}
		return mutedStyle.Render("Loading profile...")
	}

	header := headingStyle.Render(v.user.DisplayName()) + "\n@" + v.user.Username
	if since := formatDate(v.user.CreatedAt); since != "" {
		header += "\n" + mutedStyle.Render("Member since "+since)
	}
	if v.user.AvatarURL != "" {
		header += "\n" + mutedStyle.Render("avatar: "+v.user.AvatarURL)
	}

	title := v.user.Name + "'s Sightings"
	empty := msgNoSightingsByUser
	if own {
		title, empty = "My Sightings", msgNoOwnSightings
	}

	cards := []string{headingStyle.Render(title)}
	if len(v.sightings) == 0 {
		cards = append(cards, mutedStyle.Render(empty))
	}
	for i := range v.sightings {
		cards = append(cards, renderSightingCard(&v.sightings[i]))
	}
	return blocks(cardStyle.Render(header), strings.Join(cards, "\n"), renderError(v.actionErr))
}
