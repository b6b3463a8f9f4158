package domain

import (
	"time"
)

// Collaborator permission levels.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
)

// DefaultBackgroundColor is applied to notes created without an explicit color.
const DefaultBackgroundColor = "#ffffff"

// Collaborator grants another user access to a note.
type Collaborator struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

// Note represents a single note owned by a user.
type Note struct {
	ID              string         `json:"id"`
	OwnerID         string         `json:"owner_id"`
	Title           string         `json:"title"`
	Content         string         `json:"content"`
	Tags            []string       `json:"tags"`
	IsPinned        bool           `json:"is_pinned"`
	IsArchived      bool           `json:"is_archived"`
	IsDeleted       bool           `json:"is_deleted"`
	BackgroundColor string         `json:"background_color"`
	Collaborators   []Collaborator `json:"collaborators"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// AddTags appends the given tags with set semantics: tags already present are
// skipped, order of existing tags is preserved.
func (n *Note) AddTags(tags []string) {
	seen := make(map[string]struct{}, len(n.Tags))
	for _, t := range n.Tags {
		seen[t] = struct{}{}
	}
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		n.Tags = append(n.Tags, t)
	}
}

// RemoveTags deletes the given tags if present.
func (n *Note) RemoveTags(tags []string) {
	drop := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		drop[t] = struct{}{}
	}
	kept := n.Tags[:0]
	for _, t := range n.Tags {
		if _, ok := drop[t]; !ok {
			kept = append(kept, t)
		}
	}
	n.Tags = kept
}

// HasCollaborator reports whether the user is already a collaborator.
func (n *Note) HasCollaborator(userID string) bool {
	for _, c := range n.Collaborators {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// RemoveCollaborator drops the collaborator with the given user id, reporting
// whether one was removed.
func (n *Note) RemoveCollaborator(userID string) bool {
	for i, c := range n.Collaborators {
		if c.UserID == userID {
			n.Collaborators = append(n.Collaborators[:i], n.Collaborators[i+1:]...)
			return true
		}
	}
	return false
}
