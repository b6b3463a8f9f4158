package repository

import (
	"context"

	"github.com/leafnote/leafnote/internal/domain"
)

// NoteFilter selects which slice of a user's notes a listing returns.
type NoteFilter int

const (
	// FilterActive returns notes that are neither archived nor trashed.
	FilterActive NoteFilter = iota
	// FilterPinned returns pinned, non-trashed notes.
	FilterPinned
	// FilterArchived returns archived, non-trashed notes.
	FilterArchived
	// FilterTrash returns trashed notes.
	FilterTrash
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their normalized email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByOAuthOrEmail retrieves a user matching either the external
	// provider identity or the email address. The OR lookup lets an account
	// created through federation be found by provider id, and an account
	// created locally be found by email.
	GetByOAuthOrEmail(ctx context.Context, provider, oauthID, email string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error
}

// NoteRepository defines the interface for note persistence operations.
type NoteRepository interface {
	// Create inserts a new note into the store.
	Create(ctx context.Context, note *domain.Note) error

	// GetForOwner retrieves a note by id, scoped to the owning user.
	GetForOwner(ctx context.Context, id, ownerID string) (*domain.Note, error)

	// List returns one page of the owner's notes matching the filter plus
	// the total count for that filter.
	List(ctx context.Context, ownerID string, filter NoteFilter, limit, offset int) ([]domain.Note, int, error)

	// Update persists all mutable fields of an existing note.
	Update(ctx context.Context, note *domain.Note) error

	// Delete permanently removes a note, scoped to the owning user.
	Delete(ctx context.Context, id, ownerID string) error
}
