package view

import (
	"context"
	"strings"
	"sync"

	"github.com/tphakala/faunagram-go/internal/api"
	"github.com/tphakala/faunagram-go/internal/model"
)

const (
	msgLoginFailed  = "Login failed. Please check your username and password."
	msgSignupFailed = "Signup failed. Please try again."
)

// LoginView is the login form
type LoginView struct {
	deps Deps

	mu    sync.Mutex
	err   string
	busy  bool
	login string
}

// NewLogin creates the login form
func NewLogin(d Deps) *LoginView {
	return &LoginView{deps: d}
}

// Submit signs in; failures are kept as the inline error
func (v *LoginView) Submit(ctx context.Context, username, password string) error {
	v.mu.Lock()
	v.err, v.busy, v.login = "", true, username
	v.mu.Unlock()

	_, err := v.deps.Session.Login(ctx, username, password)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy = false
	if err != nil {
		v.err = api.Message(err, msgLoginFailed)
		return err
	}
	return nil
}

// Error returns the inline error
func (v *LoginView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Render draws the form state
func (v *LoginView) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Welcome back to Faunagram"))
	if v.busy {
		b.WriteString("\n" + mutedStyle.Render("Signing in..."))
	}
	if v.login != "" && v.err == "" && !v.busy {
		b.WriteString("\nSigned in as " + v.login)
	}
	return blocks(b.String(), renderError(v.err))
}

// SignupView is the account creation form
type SignupView struct {
	deps Deps

	mu   sync.Mutex
	err  string
	user *model.User
}

// NewSignup creates the signup form
func NewSignup(d Deps) *SignupView {
	return &SignupView{deps: d}
}

// Submit validates and creates the account. Validation errors are shown
// without contacting the backend.
func (v *SignupView) Submit(ctx context.Context, data model.SignupData) error {
	v.mu.Lock()
	v.err = ""
	v.mu.Unlock()

	user, err := v.deps.Session.Signup(ctx, data)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.err = api.Message(err, msgSignupFailed)
		return err
	}
	v.user = user
	return nil
}

// Error returns the inline error
func (v *SignupView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Render draws the form state
func (v *SignupView) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	head := titleStyle.Render("Join Faunagram")
	if v.user != nil {
		head += "\nWelcome, " + v.user.DisplayName() + "!"
	}
	return blocks(head, renderError(v.err))
}
