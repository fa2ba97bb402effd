package query

import (
	"net/url"
	"strconv"
)

// Resource names used in keys. Invalidating a resource drops every key
// carrying that name.
const (
	ResourceSightings   = "sightings"
	ResourceComments    = "comments"
	ResourceComment     = "comment"
	ResourceReplies     = "replies"
	ResourceUsers       = "users"
	ResourceAnimals     = "animals"
	ResourceCurrentUser = "current_user"
)

// Key identifies a cached result: a resource plus canonical parameters.
// Keys are comparable and can be used as map keys.
type Key struct {
	Resource string
	Params   string
}

// NewKey builds a key whose parameters are canonicalized by sorting
func NewKey(resource string, params url.Values) Key {
	return Key{Resource: resource, Params: params.Encode()}
}

// String renders the key as resource?params
func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "?" + k.Params
}

func idKey(resource, name string, id int) Key {
	return NewKey(resource, url.Values{name: {strconv.Itoa(id)}})
}

// SightingsKey is the feed
func SightingsKey() Key { return Key{Resource: ResourceSightings} }

// SightingKey is a single sighting
func SightingKey(id int) Key { return idKey(ResourceSightings, "id", id) }

// UserSightingsKey is the sightings authored by one user
func UserSightingsKey(userID int) Key { return idKey(ResourceSightings, "user_id", userID) }

// CommentsKey is the comment list of a commentable
func CommentsKey(commentableType string, commentableID int) Key {
	return NewKey(ResourceComments, url.Values{
		"commentable_type": {commentableType},
		"commentable_id":   {strconv.Itoa(commentableID)},
	})
}

// CommentKey is a single comment
func CommentKey(id int) Key { return idKey(ResourceComment, "id", id) }

// RepliesKey is the reply list of a comment
func RepliesKey(commentID int) Key { return idKey(ResourceReplies, "comment_id", commentID) }

// UsersKey is the user directory
func UsersKey() Key { return Key{Resource: ResourceUsers} }

// UserKey is a single user
func UserKey(id int) Key { return idKey(ResourceUsers, "id", id) }

// AnimalsKey is the animal directory
func AnimalsKey() Key { return Key{Resource: ResourceAnimals} }

// AnimalKey is a single animal
func AnimalKey(id int) Key { return idKey(ResourceAnimals, "id", id) }

// CurrentUserKey holds the session user
func CurrentUserKey() Key { return Key{Resource: ResourceCurrentUser} }
