package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafnote/leafnote/internal/domain"
	"github.com/leafnote/leafnote/internal/repository"
	apperrors "github.com/leafnote/leafnote/pkg/errors"
)

func newNoteTestFixture(t *testing.T) (*NoteRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewNoteRepository(mock)
	return repo, mock
}

func sampleNote() *domain.Note {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Note{
		ID:              "n-1",
		OwnerID:         "u-1",
		Title:           "Groceries",
		Content:         "milk, eggs",
		Tags:            []string{"shopping"},
		IsPinned:        false,
		IsArchived:      false,
		IsDeleted:       false,
		BackgroundColor: domain.DefaultBackgroundColor,
		Collaborators:   []domain.Collaborator{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func noteTestColumns() []string {
	return []string{
		"id", "owner_id", "title", "content", "tags", "is_pinned",
		"is_archived", "is_deleted", "background_color", "collaborators",
		"created_at", "updated_at",
	}
}

func noteRow(t *testing.T, n *domain.Note) *pgxmock.Rows {
	t.Helper()
	collab, err := json.Marshal(n.Collaborators)
	require.NoError(t, err)
	return pgxmock.NewRows(noteTestColumns()).AddRow(
		n.ID, n.OwnerID, n.Title, n.Content, n.Tags, n.IsPinned,
		n.IsArchived, n.IsDeleted, n.BackgroundColor, collab,
		n.CreatedAt, n.UpdatedAt,
	)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestNoteRepository_Create_Success(t *testing.T) {
	repo, mock := newNoteTestFixture(t)
	defer mock.Close()

	n := sampleNote()

	mock.ExpectExec("INSERT INTO notes").
		WithArgs(
			n.ID, n.OwnerID, n.Title, n.Content, n.Tags, n.IsPinned,
			n.IsArchived, n.IsDeleted, n.BackgroundColor, pgxmock.AnyArg(),
			n.CreatedAt, n.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), n)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetForOwner
// ---------------------------------------------------------------------------

func TestNoteRepository_GetForOwner_Success(t *testing.T) {
	repo, mock := newNoteTestFixture(t)
	defer mock.Close()

	n := sampleNote()
	n.Collaborators = []domain.Collaborator{
		{UserID: "u-2", Email: "bob@example.com", Permission: domain.PermissionRead},
	}

	mock.ExpectQuery("SELECT .+ FROM notes").
		WithArgs(n.ID, n.OwnerID).
		WillReturnRows(noteRow(t, n))

	got, err := repo.GetForOwner(context.Background(), n.ID, n.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, n.Title, got.Title)
	require.Len(t, got.Collaborators, 1)
	assert.Equal(t, "bob@example.com", got.Collaborators[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepository_GetForOwner_NotFound(t *testing.T) {
	repo, mock := newNoteTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM notes").
		WithArgs("missing", "u-1").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetForOwner(context.Background(), "missing", "u-1")
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestNoteRepository_List_ActiveFilter(t *testing.T) {
	repo, mock := newNoteTestFixture(t)
	defer mock.Close()

	n := sampleNote()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(n.OwnerID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .+ FROM notes").
		WithArgs(n.OwnerID, 10, 0).
		WillReturnRows(noteRow(t, n))

	notes, total, err := repo.List(context.Background(), n.OwnerID, repository.FilterActive, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, notes, 1)
	assert.Equal(t, n.ID, notes[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepository_List_EmptyPageReturnsSlice(t *testing.T) {
	repo, mock := newNoteTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT .+ FROM notes").
		WithArgs("u-1", 10, 0).
		WillReturnRows(pgxmock.NewRows(noteTestColumns()))

	notes, total, err := repo.List(context.Background(), "u-1", repository.FilterTrash, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterPredicate(t *testing.T) {
	tests := []struct {
		name   string
		filter repository.NoteFilter
		want   string
	}{
		{"active", repository.FilterActive, "is_archived = false AND is_deleted = false"},
		{"pinned", repository.FilterPinned, "is_pinned = true AND is_deleted = false"},
		{"archived", repository.FilterArchived, "is_archived = true AND is_deleted = false"},
		{"trash", repository.FilterTrash, "is_deleted = true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filterPredicate(tt.filter))
		})
	}
}

// ---------------------------------------------------------------------------
// Update / Delete
// ---------------------------------------------------------------------------

func TestNoteRepository_Update_Success(t *testing.T) {
	repo, mock := newNoteTestFixture(t)
	defer mock.Close()

	n := sampleNote()
	n.Title = "Groceries v2"

	mock.ExpectExec("UPDATE notes").
		WithArgs(
			n.Title, n.Content, n.Tags, n.IsPinned, n.IsArchived,
			n.IsDeleted, n.BackgroundColor, pgxmock.AnyArg(), pgxmock.AnyArg(),
			n.ID, n.OwnerID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), n)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepository_Update_NotFound(t *testing.T) {
	repo, mock := newNoteTestFixture(t)
	defer mock.Close()

	n := sampleNote()

	mock.ExpectExec("UPDATE notes").
		WithArgs(
			n.Title, n.Content, n.Tags, n.IsPinned, n.IsArchived,
			n.IsDeleted, n.BackgroundColor, pgxmock.AnyArg(), pgxmock.AnyArg(),
			n.ID, n.OwnerID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), n)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepository_Delete_Success(t *testing.T) {
	repo, mock := newNoteTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM notes").
		WithArgs("n-1", "u-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "n-1", "u-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newNoteTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM notes").
		WithArgs("missing", "u-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing", "u-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
