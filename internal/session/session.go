// Package session holds the authenticated user and token. A Store is
// created explicitly and passed to the views that need it.
package session

import (
	"context"
	"sync"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/navigation"
	"github.com/tphakala/faunagram-go/internal/query"
)

// State of the session
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

// String implements fmt.Stringer
func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Authenticator is the backend surface used by the session
type Authenticator interface {
	Login(ctx context.Context, creds model.LoginCredentials) (*model.AuthResponse, error)
	Signup(ctx context.Context, data model.SignupData) (*model.AuthResponse, error)
	CurrentUser(ctx context.Context) (*model.User, error)
}

// ChangeFunc is called after every state change
type ChangeFunc func(state State, user *model.User)

// Config holds the collaborators of a Store
type Config struct {
	Tokens    TokenStore
	Cache     *query.Client
	Navigator navigation.Navigator
	Logger    logger.Logger
}

// Store is the session state machine:
// anonymous -> authenticating -> authenticated -> anonymous.
type Store struct {
	auth   Authenticator
	tokens TokenStore
	cache  *query.Client
	nav    navigation.Navigator
	log    logger.Logger

	mu        sync.RWMutex
	state     State
	token     string
	user      *model.User
	listeners []ChangeFunc
}

// New creates an anonymous session
func New(auth Authenticator, cfg Config) *Store {
	log := cfg.Logger
	if log == nil {
		log = logger.Global().Module("session")
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = NewMemoryTokenStore("")
	}
	return &Store{
		auth:   auth,
		tokens: tokens,
		cache:  cfg.Cache,
		nav:    cfg.Navigator,
		log:    log,
	}
}

// Token returns the bearer token, empty when anonymous. It satisfies the
// API client's token source and is safe on a nil Store.
func (s *Store) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the session user, nil when anonymous
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a user is signed in
func (s *Store) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// OnChange registers a listener for state changes
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Init restores a persisted session. A stored token that the backend no
// longer accepts, or a token file that cannot be parsed, is discarded and
// the session stays anonymous.
func (s *Store) Init(ctx context.Context) error {
	token, err := s.tokens.Load()
	if err != nil {
		if !errors.IsCategory(err, errors.CategoryFileParsing) {
			s.log.Warn("failed to load session token", logger.Error(err))
			return err
		}
		s.log.Warn("unreadable session token, discarding", logger.Error(err))
		if clearErr := s.tokens.Clear(); clearErr != nil {
			s.log.Warn("failed to remove session token", logger.Error(clearErr))
		}
		return nil
	}
	if token == "" {
		return nil
	}

	if !s.begin(token) {
		return errInProgress()
	}

	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		if errors.IsCategory(err, errors.CategoryCancellation) || errors.Is(err, context.Canceled) {
			s.reset()
			return err
		}
		s.log.Info("stored session rejected, discarding token", logger.Error(err))
		if clearErr := s.tokens.Clear(); clearErr != nil {
			s.log.Warn("failed to remove session token", logger.Error(clearErr))
		}
		s.reset()
		return nil
	}

	s.complete(token, user)
	s.log.Debug("session restored", logger.Int("user_id", user.ID))
	return nil
}

// Login authenticates with username and password. On success the token is
// persisted, the current-user cache entry seeded and the feed opened.
func (s *Store) Login(ctx context.Context, username, password string) (*model.User, error) {
	creds := model.LoginCredentials{Username: username, Password: password}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, func(ctx context.Context) (*model.AuthResponse, error) {
		return s.auth.Login(ctx, creds)
	})
}

// Signup validates the form, creates the account and signs in. Validation
// failures never reach the backend.
func (s *Store) Signup(ctx context.Context, data model.SignupData) (*model.User, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, func(ctx context.Context) (*model.AuthResponse, error) {
		return s.auth.Signup(ctx, data)
	})
}

func (s *Store) authenticate(ctx context.Context, call func(context.Context) (*model.AuthResponse, error)) (*model.User, error) {
	if !s.begin("") {
		return nil, errInProgress()
	}

	resp, err := call(ctx)
	if err != nil {
		s.reset()
		return nil, err
	}
	if resp.Token == "" {
		s.reset()
		return nil, errors.Newf("authentication response has no token").
			Category(errors.CategoryAuthentication).
			Component("session").
			Build()
	}

	if err := s.tokens.Save(resp.Token); err != nil {
		s.reset()
		return nil, err
	}

	user := resp.User
	s.complete(resp.Token, &user)
	if s.cache != nil {
		s.cache.Set(query.CurrentUserKey(), user)
	}
	s.log.Info("signed in", logger.String("username", user.Username))
	s.navigate(navigation.RouteHome)
	return &user, nil
}

// UpdateUser replaces the session user after a confirmed profile edit
func (s *Store) UpdateUser(u model.User) {
	s.mu.Lock()
	if s.state != StateAuthenticated || s.user == nil || s.user.ID != u.ID {
		s.mu.Unlock()
		return
	}
	s.user = &u
	s.mu.Unlock()
	s.notify()
}

// Logout forgets the token, the user and every cached query and opens the
// login page.
func (s *Store) Logout() {
	s.clear()
	s.log.Info("signed out")
	s.navigate(navigation.RouteLogin)
}

// HandleUnauthorized is installed as the API client's 401 handler
func (s *Store) HandleUnauthorized() {
	s.log.Warn("session rejected by backend")
	s.clear()
	s.navigate(navigation.RouteLogin)
}

func (s *Store) clear() {
	if err := s.tokens.Clear(); err != nil {
		s.log.Warn("failed to remove session token", logger.Error(err))
	}
	s.reset()
	if s.cache != nil {
		s.cache.Clear()
	}
}

// begin moves to authenticating; false when another attempt is running
func (s *Store) begin(token string) bool {
	s.mu.Lock()
	if s.state == StateAuthenticating {
		s.mu.Unlock()
		return false
	}
	s.state = StateAuthenticating
	s.token = token
	s.user = nil
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Store) complete(token string, user *model.User) {
	s.mu.Lock()
	s.state = StateAuthenticated
	s.token = token
	s.user = user
	s.mu.Unlock()
	s.notify()
}

func (s *Store) reset() {
	s.mu.Lock()
	s.state = StateAnonymous
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mu.RLock()
	state := s.state
	var user *model.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(state, user)
	}
}

func (s *Store) navigate(to navigation.Route) {
	if s.nav != nil {
		s.nav.Navigate(to)
	}
}

func errInProgress() error {
	return errors.Newf("authentication already in progress").
		Category(errors.CategoryState).
		Component("session").
		Build()
}
