package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/leafnote/leafnote/internal/domain"
	"github.com/leafnote/leafnote/internal/repository"
	apperrors "github.com/leafnote/leafnote/pkg/errors"
)

// NoteRepository implements repository.NoteRepository using PostgreSQL.
// Tags are stored as a text[] column, collaborators as a jsonb document.
type NoteRepository struct {
	db DB
}

// NewNoteRepository creates a new PostgreSQL-backed note repository.
func NewNoteRepository(db DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = "id, owner_id, title, content, tags, is_pinned, is_archived, is_deleted, background_color, collaborators, created_at, updated_at"

// filterPredicate returns the WHERE fragment selecting one listing view.
func filterPredicate(filter repository.NoteFilter) string {
	switch filter {
	case repository.FilterPinned:
		return "is_pinned = true AND is_deleted = false"
	case repository.FilterArchived:
		return "is_archived = true AND is_deleted = false"
	case repository.FilterTrash:
		return "is_deleted = true"
	default:
		return "is_archived = false AND is_deleted = false"
	}
}

// Create inserts a new note into the database.
func (r *NoteRepository) Create(ctx context.Context, n *domain.Note) error {
	collaborators, err := json.Marshal(n.Collaborators)
	if err != nil {
		return fmt.Errorf("marshal collaborators: %w", err)
	}

	query := `
		INSERT INTO notes (id, owner_id, title, content, tags, is_pinned, is_archived, is_deleted, background_color, collaborators, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.Exec(ctx, query,
		n.ID,
		n.OwnerID,
		n.Title,
		n.Content,
		n.Tags,
		n.IsPinned,
		n.IsArchived,
		n.IsDeleted,
		n.BackgroundColor,
		collaborators,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}

	return nil
}

// GetForOwner retrieves a note by id, scoped to the owning user.
func (r *NoteRepository) GetForOwner(ctx context.Context, id, ownerID string) (*domain.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE id = $1 AND owner_id = $2`

	return r.scanNote(r.db.QueryRow(ctx, query, id, ownerID))
}

// List returns one page of the owner's notes matching the filter plus the
// total count for that filter. Pinned notes sort first within the active view.
func (r *NoteRepository) List(ctx context.Context, ownerID string, filter repository.NoteFilter, limit, offset int) ([]domain.Note, int, error) {
	predicate := filterPredicate(filter)

	countQuery := `SELECT COUNT(*) FROM notes WHERE owner_id = $1 AND ` + predicate

	var total int
	if err := r.db.QueryRow(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notes: %w", err)
	}

	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE owner_id = $1 AND ` + predicate + `
		ORDER BY is_pinned DESC, updated_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		n, err := r.scanNote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan note row: %w", err)
		}
		notes = append(notes, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate note rows: %w", err)
	}

	if notes == nil {
		notes = []domain.Note{}
	}

	return notes, total, nil
}

// Update persists all mutable fields of an existing note.
func (r *NoteRepository) Update(ctx context.Context, n *domain.Note) error {
	n.UpdatedAt = time.Now().UTC()

	collaborators, err := json.Marshal(n.Collaborators)
	if err != nil {
		return fmt.Errorf("marshal collaborators: %w", err)
	}

	query := `
		UPDATE notes
		SET title = $1, content = $2, tags = $3, is_pinned = $4, is_archived = $5,
		    is_deleted = $6, background_color = $7, collaborators = $8, updated_at = $9
		WHERE id = $10 AND owner_id = $11`

	ct, err := r.db.Exec(ctx, query,
		n.Title,
		n.Content,
		n.Tags,
		n.IsPinned,
		n.IsArchived,
		n.IsDeleted,
		n.BackgroundColor,
		collaborators,
		n.UpdatedAt,
		n.ID,
		n.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("note", n.ID)
	}

	return nil
}

// Delete permanently removes a note, scoped to the owning user.
func (r *NoteRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := `DELETE FROM notes WHERE id = $1 AND owner_id = $2`

	ct, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("note", id)
	}

	return nil
}

// scanNote reads one note row, decoding the collaborators jsonb column.
func (r *NoteRepository) scanNote(row pgx.Row) (*domain.Note, error) {
	var (
		n             domain.Note
		collaborators []byte
	)

	err := row.Scan(
		&n.ID,
		&n.OwnerID,
		&n.Title,
		&n.Content,
		&n.Tags,
		&n.IsPinned,
		&n.IsArchived,
		&n.IsDeleted,
		&n.BackgroundColor,
		&collaborators,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	if len(collaborators) > 0 {
		if err := json.Unmarshal(collaborators, &n.Collaborators); err != nil {
			return nil, fmt.Errorf("unmarshal collaborators: %w", err)
		}
	}
	if n.Collaborators == nil {
		n.Collaborators = []domain.Collaborator{}
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}

	return &n, nil
}
