package resources

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/tphakala/faunagram-go/internal/errors"
	"github.com/tphakala/faunagram-go/internal/model"
)

// Auth covers login, signup and the current user
type Auth struct {
	r Requester
}

// Login exchanges credentials for a token (POST /login)
func (a *Auth) Login(ctx context.Context, creds model.LoginCredentials) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := a.r.Post(ctx, "/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup creates an account (POST /users). The confirmation is not sent.
func (a *Auth) Signup(ctx context.Context, data model.SignupData) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := a.r.Post(ctx, "/users", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser returns the user owning the token (GET /current_user).
// Both a bare user and {"user": ...} are accepted.
func (a *Auth) CurrentUser(ctx context.Context) (*model.User, error) {
	var raw json.RawMessage
	if err := a.r.Get(ctx, "/current_user", nil, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		User *model.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil && bytes.Contains(raw, []byte(`"user"`)) {
		return wrapped.User, nil
	}

	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileParsing).
			Component("resources").
			Context("operation", "decode-current-user").
			Build()
	}
	if user.ID == 0 {
		return nil, errors.Newf("current user response has no id").
			Category(errors.CategoryAuthentication).
			Component("resources").
			Build()
	}
	return &user, nil
}
