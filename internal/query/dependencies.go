package query

import "github.com/tphakala/faunagram-go/internal/model"

// MutationKind names a server-side change the cache must react to
type MutationKind string

const (
	SightingCreate MutationKind = "sighting-create"
	SightingUpdate MutationKind = "sighting-update"
	SightingDelete MutationKind = "sighting-delete"
	SightingLike   MutationKind = "sighting-like"
	CommentCreate  MutationKind = "comment-create"
	CommentUpdate  MutationKind = "comment-update"
	CommentDelete  MutationKind = "comment-delete"
	ReplyCreate    MutationKind = "reply-create"
	UserUpdate     MutationKind = "user-update"
	UserDelete     MutationKind = "user-delete"
)

// Mutation describes one change. Only the ids relevant to Kind are read.
//
// For comment mutations CommentableType and CommentableID address the list
// the comment belongs to. For ReplyCreate they address the list of the
// parent comment, i.e. the sighting the thread hangs off.
type Mutation struct {
	Kind            MutationKind
	SightingID      int
	CommentID       int
	CommentableType string
	CommentableID   int
	UserID          int
}

// Target is one invalidation: an exact key, or every key of a resource
type Target struct {
	Key   Key
	Whole bool
}

// Exact targets a single key
func Exact(k Key) Target { return Target{Key: k} }

// Whole targets every key of a resource
func Whole(resource string) Target { return Target{Key: Key{Resource: resource}, Whole: true} }

// Dependencies returns the keys invalidated by m. Reply lists are never
// listed; they are refreshed by the thread that owns them.
func Dependencies(m Mutation) []Target {
	switch m.Kind {
	case SightingCreate, SightingUpdate, SightingDelete, SightingLike:
		targets := []Target{Whole(ResourceSightings)}
		if m.SightingID > 0 {
			targets = append(targets, Exact(SightingKey(m.SightingID)))
		}
		return targets

	case CommentCreate:
		return []Target{
			Exact(CommentsKey(m.CommentableType, m.CommentableID)),
			Whole(ResourceSightings),
		}

	case CommentUpdate, CommentDelete:
		return []Target{
			Exact(CommentsKey(m.CommentableType, m.CommentableID)),
			Whole(ResourceSightings),
			Exact(CommentKey(m.CommentID)),
		}

	case ReplyCreate:
		return []Target{Exact(CommentsKey(m.CommentableType, m.CommentableID))}

	case UserUpdate, UserDelete:
		return []Target{
			Whole(ResourceUsers),
			Exact(UserKey(m.UserID)),
			Whole(ResourceSightings),
		}
	}
	return nil
}

// CommentMutation fills the commentable fields from a comment
func CommentMutation(kind MutationKind, c *model.Comment) Mutation {
	return Mutation{
		Kind:            kind,
		CommentID:       c.ID,
		CommentableType: c.CommentableType,
		CommentableID:   c.CommentableID,
	}
}
