// Package model defines the Faunagram entities exchanged with the backend API.
package model

import "time"

// Commentable types accepted by the comments endpoints
const (
	CommentableSighting = "Sighting"
	CommentableComment  = "Comment"
)

// User is a Faunagram account
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the name, falling back to the username
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Animal is a species entry with its taxonomy
type Animal struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Kingdom     string `json:"kingdom,omitempty"`
	Phylum      string `json:"phylum,omitempty"`
	Order       string `json:"order,omitempty"`
	Family      string `json:"family,omitempty"`
	Genus       string `json:"genus,omitempty"`
	Species     string `json:"species,omitempty"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

// TaxonRank is one named level of an animal's classification
type TaxonRank struct {
	Rank  string
	Value string
}

// Taxonomy returns the classification from kingdom to species, skipping unknown ranks
func (a *Animal) Taxonomy() []TaxonRank {
	ranks := []TaxonRank{
		{"kingdom", a.Kingdom},
		{"phylum", a.Phylum},
		{"order", a.Order},
		{"family", a.Family},
		{"genus", a.Genus},
		{"species", a.Species},
	}
	out := ranks[:0]
	for _, r := range ranks {
		if r.Value != "" {
			out = append(out, r)
		}
	}
	return out
}

// Sighting is a user post about an observed animal
type Sighting struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	UserID        int       `json:"user_id"`
	AnimalID      int       `json:"animal_id"`
	ImagePath     string    `json:"image_path,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	Likes         int       `json:"likes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	User          *User     `json:"user,omitempty"`
	Animal        *Animal   `json:"animal,omitempty"`
	CommentsCount int       `json:"comments_count,omitempty"`
}

// Image returns the best available image reference
func (s *Sighting) Image() string {
	if s.ImageURL != "" {
		return s.ImageURL
	}
	return s.ImagePath
}

// Comment belongs to a Sighting or, as a reply, to another Comment
type Comment struct {
	ID              int       `json:"id"`
	Body            string    `json:"body"`
	UserID          int       `json:"user_id"`
	Username        string    `json:"username,omitempty"`
	CommentableType string    `json:"commentable_type"`
	CommentableID   int       `json:"commentable_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
	User            *User     `json:"user,omitempty"`
}

// Author returns the name shown next to the comment
func (c *Comment) Author() string {
	switch {
	case c.User != nil && c.User.Username != "":
		return c.User.Username
	case c.Username != "":
		return c.Username
	default:
		return "Anonymous"
	}
}

// IsTopLevel reports whether the comment is attached directly to a sighting
func (c *Comment) IsTopLevel() bool {
	return c.CommentableType == CommentableSighting
}

// AuthResponse is returned by login and signup
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// LoginCredentials is the login request body
type LoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupData is collected by the signup form; only name, username and
// password are sent to the backend.
type SignupData struct {
	Name                 string `json:"name"`
	Username             string `json:"username"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"-"`
}

// NewSighting is the input of the post sighting form
type NewSighting struct {
	Title     string
	Body      string
	UserID    int
	AnimalID  int
	ImagePath string // optional local file uploaded as "image"
}

// SightingUpdate carries edited sighting fields; empty fields are not sent
type SightingUpdate struct {
	Title     string
	Body      string
	AnimalID  int
	ImagePath string
}

// UserUpdate carries edited profile fields; empty fields are not sent
type UserUpdate struct {
	Name       string
	Username   string
	AvatarPath string
}

// NewComment is a comment or reply body addressed to a commentable
type NewComment struct {
	Body            string `json:"body"`
	CommentableType string `json:"commentable_type"`
	CommentableID   int    `json:"commentable_id"`
	Username        string `json:"username,omitempty"`
}
