package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leafnote/leafnote/internal/domain"
	"github.com/leafnote/leafnote/internal/event"
	"github.com/leafnote/leafnote/internal/repository"
	apperrors "github.com/leafnote/leafnote/pkg/errors"
	"github.com/leafnote/leafnote/pkg/pagination"
)

// NoteService implements the business logic for note operations. Every
// operation is scoped to the requesting owner; a note belonging to someone
// else behaves exactly like a missing one.
type NoteService struct {
	noteRepo repository.NoteRepository
	userRepo repository.UserRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(noteRepo repository.NoteRepository, userRepo repository.UserRepository, producer *event.Producer, logger *slog.Logger) *NoteService {
	return &NoteService{
		noteRepo: noteRepo,
		userRepo: userRepo,
		producer: producer,
		logger:   logger,
	}
}

// CreateNoteInput holds the parameters for creating a note.
type CreateNoteInput struct {
	Title           string
	Content         string
	Tags            []string
	IsPinned        bool
	BackgroundColor string
}

// UpdateNoteInput holds the parameters for updating a note's content fields.
// Nil fields are left unchanged.
type UpdateNoteInput struct {
	Title           *string
	Content         *string
	Tags            []string
	BackgroundColor *string
}

// UpdateStatusInput holds the parameters for flipping a note's status flags.
// Nil fields are left unchanged.
type UpdateStatusInput struct {
	IsPinned   *bool
	IsArchived *bool
}

// CollaboratorInput identifies a collaborator to add by email.
type CollaboratorInput struct {
	Email      string
	Permission string
}

// Create creates a new note owned by the given user.
func (s *NoteService) Create(ctx context.Context, ownerID string, input CreateNoteInput) (*domain.Note, error) {
	if input.Title == "" && input.Content == "" {
		return nil, apperrors.InvalidInput("note must have a title or content")
	}

	color := input.BackgroundColor
	if color == "" {
		color = domain.DefaultBackgroundColor
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now().UTC()
	note := &domain.Note{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		Title:           input.Title,
		Content:         input.Content,
		Tags:            tags,
		IsPinned:        input.IsPinned,
		BackgroundColor: color,
		Collaborators:   []domain.Collaborator{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	s.logger.InfoContext(ctx, "note created",
		slog.String("note_id", note.ID),
		slog.String("owner_id", ownerID),
	)

	return note, nil
}

// List returns one page of the owner's notes for the given filter.
func (s *NoteService) List(ctx context.Context, ownerID string, filter repository.NoteFilter, params pagination.Params) (*pagination.Result[domain.Note], error) {
	notes, total, err := s.noteRepo.List(ctx, ownerID, filter, params.PerPage, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	result := pagination.NewResult(notes, total, params)
	return &result, nil
}

// Get retrieves a single note owned by the user.
func (s *NoteService) Get(ctx context.Context, id, ownerID string) (*domain.Note, error) {
	note, err := s.noteRepo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// Update applies the non-nil content fields of the input to the note.
func (s *NoteService) Update(ctx context.Context, id, ownerID string, input UpdateNoteInput) (*domain.Note, error) {
	note, err := s.noteRepo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get note for update: %w", err)
	}

	if input.Title != nil {
		note.Title = *input.Title
	}
	if input.Content != nil {
		note.Content = *input.Content
	}
	if input.Tags != nil {
		note.Tags = input.Tags
	}
	if input.BackgroundColor != nil {
		note.BackgroundColor = *input.BackgroundColor
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	return note, nil
}

// UpdateStatus flips the pin/archive flags of the note.
func (s *NoteService) UpdateStatus(ctx context.Context, id, ownerID string, input UpdateStatusInput) (*domain.Note, error) {
	note, err := s.noteRepo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get note for status update: %w", err)
	}

	if input.IsPinned != nil {
		note.IsPinned = *input.IsPinned
	}
	if input.IsArchived != nil {
		note.IsArchived = *input.IsArchived
		// Archiving unpins: the archive view has no pin ordering.
		if note.IsArchived {
			note.IsPinned = false
		}
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("update note status: %w", err)
	}

	return note, nil
}

// Trash soft-deletes the note, moving it to the trash view.
func (s *NoteService) Trash(ctx context.Context, id, ownerID string) (*domain.Note, error) {
	note, err := s.noteRepo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get note for trash: %w", err)
	}

	note.IsDeleted = true
	note.IsPinned = false

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("trash note: %w", err)
	}

	// Publish trash event (non-blocking on failure).
	if err := s.producer.PublishNoteTrashed(ctx, note); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish note.trashed event",
			slog.String("note_id", note.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "note trashed",
		slog.String("note_id", note.ID),
		slog.String("owner_id", ownerID),
	)

	return note, nil
}

// Restore moves a trashed note back to the active view.
func (s *NoteService) Restore(ctx context.Context, id, ownerID string) (*domain.Note, error) {
	note, err := s.noteRepo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get note for restore: %w", err)
	}

	if !note.IsDeleted {
		return nil, apperrors.InvalidInput("note is not in trash")
	}

	note.IsDeleted = false

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("restore note: %w", err)
	}

	return note, nil
}

// PermanentDelete removes a note from storage entirely.
func (s *NoteService) PermanentDelete(ctx context.Context, id, ownerID string) error {
	if err := s.noteRepo.Delete(ctx, id, ownerID); err != nil {
		return fmt.Errorf("permanently delete note: %w", err)
	}

	s.logger.InfoContext(ctx, "note permanently deleted",
		slog.String("note_id", id),
		slog.String("owner_id", ownerID),
	)

	return nil
}

// AddTags appends tags to the note with set semantics.
func (s *NoteService) AddTags(ctx context.Context, id, ownerID string, tags []string) (*domain.Note, error) {
	if len(tags) == 0 {
		return nil, apperrors.InvalidInput("at least one tag is required")
	}

	note, err := s.noteRepo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get note for tag add: %w", err)
	}

	note.AddTags(tags)

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("add tags: %w", err)
	}

	return note, nil
}

// RemoveTags deletes the given tags from the note.
func (s *NoteService) RemoveTags(ctx context.Context, id, ownerID string, tags []string) (*domain.Note, error) {
	if len(tags) == 0 {
		return nil, apperrors.InvalidInput("at least one tag is required")
	}

	note, err := s.noteRepo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get note for tag removal: %w", err)
	}

	note.RemoveTags(tags)

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("remove tags: %w", err)
	}

	return note, nil
}

// AddCollaborators resolves each email to a registered account and grants it
// access to the note. Unknown emails and the owner's own email are rejected;
// an already present collaborator is skipped.
func (s *NoteService) AddCollaborators(ctx context.Context, id, ownerID string, inputs []CollaboratorInput) (*domain.Note, error) {
	if len(inputs) == 0 {
		return nil, apperrors.InvalidInput("at least one collaborator is required")
	}

	note, err := s.noteRepo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get note for collaborator add: %w", err)
	}

	for _, input := range inputs {
		email := normalizeEmail(input.Email)
		if email == "" {
			return nil, apperrors.InvalidInput("collaborator email is required")
		}

		permission := input.Permission
		if permission == "" {
			permission = domain.PermissionRead
		}
		if permission != domain.PermissionRead && permission != domain.PermissionWrite {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid permission %q", permission))
		}

		collaborator, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, apperrors.NotFound("user", email)
		}

		if collaborator.ID == ownerID {
			return nil, apperrors.InvalidInput("owner cannot be added as a collaborator")
		}

		if note.HasCollaborator(collaborator.ID) {
			continue
		}

		note.Collaborators = append(note.Collaborators, domain.Collaborator{
			UserID:     collaborator.ID,
			Email:      collaborator.Email,
			Permission: permission,
		})
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("add collaborators: %w", err)
	}

	return note, nil
}

// RemoveCollaborators revokes access for the given user ids.
func (s *NoteService) RemoveCollaborators(ctx context.Context, id, ownerID string, userIDs []string) (*domain.Note, error) {
	if len(userIDs) == 0 {
		return nil, apperrors.InvalidInput("at least one collaborator is required")
	}

	note, err := s.noteRepo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get note for collaborator removal: %w", err)
	}

	for _, userID := range userIDs {
		note.RemoveCollaborator(userID)
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("remove collaborators: %w", err)
	}

	return note, nil
}
