package model

import (
	"strings"
	"unicode/utf8"

	"github.com/tphakala/faunagram-go/internal/errors"
)

// MinPasswordLength is the shortest password accepted at signup
const MinPasswordLength = 5

// Validation messages shown inline by the forms
const (
	MsgPasswordMismatch   = "Passwords do not match!"
	MsgPasswordTooShort   = "Password must be at least 5 characters"
	MsgSignupFieldMissing = "Name and username are required"
	MsgLoginFieldMissing  = "Username and password are required"
	MsgSightingRequired   = "Please fill in all required fields"
	MsgCommentEmpty       = "Comment cannot be empty"
)

func validationError(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Category(errors.CategoryValidation).
		Component("model").
		Build()
}

// Validate checks the login form before dispatch
func (c LoginCredentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return validationError(MsgLoginFieldMissing)
	}
	return nil
}

// Validate checks the signup form before dispatch
func (d SignupData) Validate() error {
	if d.Password != d.PasswordConfirmation {
		return validationError(MsgPasswordMismatch)
	}
	if utf8.RuneCountInString(d.Password) < MinPasswordLength {
		return validationError(MsgPasswordTooShort)
	}
	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Username) == "" {
		return validationError(MsgSignupFieldMissing)
	}
	return nil
}

// Validate checks the post sighting form before dispatch
func (s NewSighting) Validate() error {
	if strings.TrimSpace(s.Title) == "" || strings.TrimSpace(s.Body) == "" || s.AnimalID <= 0 {
		return validationError(MsgSightingRequired)
	}
	return nil
}

// Validate checks a comment or reply before dispatch
func (c NewComment) Validate() error {
	if strings.TrimSpace(c.Body) == "" {
		return validationError(MsgCommentEmpty)
	}
	if c.CommentableType != CommentableSighting && c.CommentableType != CommentableComment {
		return validationError("commentable type must be Sighting or Comment")
	}
	if c.CommentableID <= 0 {
		return validationError("commentable id is required")
	}
	return nil
}
