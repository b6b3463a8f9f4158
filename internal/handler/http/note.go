package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leafnote/leafnote/internal/repository"
	"github.com/leafnote/leafnote/internal/service"
	"github.com/leafnote/leafnote/pkg/pagination"
	"github.com/leafnote/leafnote/pkg/validator"
)

// NoteHandler handles HTTP requests for note endpoints.
type NoteHandler struct {
	service *service.NoteService
	logger  *slog.Logger
}

// NewNoteHandler creates a new note HTTP handler.
func NewNoteHandler(svc *service.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateNoteRequest is the JSON request body for creating a note.
type CreateNoteRequest struct {
	Title           string   `json:"title" validate:"omitempty,max=200"`
	Content         string   `json:"content" validate:"omitempty,max=50000"`
	Tags            []string `json:"tags" validate:"omitempty,dive,min=1,max=50"`
	IsPinned        bool     `json:"is_pinned"`
	BackgroundColor string   `json:"background_color" validate:"omitempty,hexcolor"`
}

// UpdateNoteRequest is the JSON request body for updating a note.
type UpdateNoteRequest struct {
	Title           *string  `json:"title" validate:"omitempty,max=200"`
	Content         *string  `json:"content" validate:"omitempty,max=50000"`
	Tags            []string `json:"tags" validate:"omitempty,dive,min=1,max=50"`
	BackgroundColor *string  `json:"background_color" validate:"omitempty,hexcolor"`
}

// UpdateStatusRequest is the JSON request body for flipping status flags.
type UpdateStatusRequest struct {
	IsPinned   *bool `json:"is_pinned"`
	IsArchived *bool `json:"is_archived"`
}

// TagsRequest is the JSON request body for tag operations.
type TagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,min=1,max=50"`
}

// AddCollaboratorsRequest is the JSON request body for granting access.
type AddCollaboratorsRequest struct {
	Collaborators []CollaboratorEntry `json:"collaborators" validate:"required,min=1,dive"`
}

// CollaboratorEntry identifies one collaborator to add.
type CollaboratorEntry struct {
	Email      string `json:"email" validate:"required,email"`
	Permission string `json:"permission" validate:"omitempty,oneof=read write"`
}

// RemoveCollaboratorsRequest is the JSON request body for revoking access.
type RemoveCollaboratorsRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,required"`
}

// --- Handlers ---

// Create handles POST /api/v1/notes
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	note, err := h.service.Create(r.Context(), userID, service.CreateNoteInput{
		Title:           req.Title,
		Content:         req.Content,
		Tags:            req.Tags,
		IsPinned:        req.IsPinned,
		BackgroundColor: req.BackgroundColor,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: note})
}

// List handles GET /api/v1/notes
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, repository.FilterActive)
}

// ListPinned handles GET /api/v1/notes/pinned
func (h *NoteHandler) ListPinned(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, repository.FilterPinned)
}

// ListArchived handles GET /api/v1/notes/archived
func (h *NoteHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, repository.FilterArchived)
}

// ListTrash handles GET /api/v1/notes/trash
func (h *NoteHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, repository.FilterTrash)
}

func (h *NoteHandler) list(w http.ResponseWriter, r *http.Request, filter repository.NoteFilter) {
	userID := UserIDFromContext(r.Context())
	params := pagination.FromRequest(r)

	result, err := h.service.List(r.Context(), userID, filter, params)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

// Get handles GET /api/v1/notes/{id}
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	note, err := h.service.Get(r.Context(), noteID, userID)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: note})
}

// Update handles PUT /api/v1/notes/{id}
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	note, err := h.service.Update(r.Context(), noteID, userID, service.UpdateNoteInput{
		Title:           req.Title,
		Content:         req.Content,
		Tags:            req.Tags,
		BackgroundColor: req.BackgroundColor,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: note})
}

// UpdateStatus handles PATCH /api/v1/notes/{id}/status
func (h *NoteHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	note, err := h.service.UpdateStatus(r.Context(), noteID, userID, service.UpdateStatusInput{
		IsPinned:   req.IsPinned,
		IsArchived: req.IsArchived,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: note})
}

// Trash handles DELETE /api/v1/notes/{id}
func (h *NoteHandler) Trash(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	note, err := h.service.Trash(r.Context(), noteID, userID)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: note})
}

// Restore handles PATCH /api/v1/notes/{id}/restore
func (h *NoteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	note, err := h.service.Restore(r.Context(), noteID, userID)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: note})
}

// PermanentDelete handles DELETE /api/v1/notes/{id}/permanent-delete
func (h *NoteHandler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	if err := h.service.PermanentDelete(r.Context(), noteID, userID); err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"id": noteID, "status": "deleted"}})
}

// AddTags handles PATCH /api/v1/notes/{id}/tags
func (h *NoteHandler) AddTags(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	var req TagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	note, err := h.service.AddTags(r.Context(), noteID, userID, req.Tags)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: note})
}

// RemoveTags handles DELETE /api/v1/notes/{id}/tags
func (h *NoteHandler) RemoveTags(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	var req TagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	note, err := h.service.RemoveTags(r.Context(), noteID, userID, req.Tags)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: note})
}

// AddCollaborators handles PATCH /api/v1/notes/{id}/collaborators
func (h *NoteHandler) AddCollaborators(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	var req AddCollaboratorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	inputs := make([]service.CollaboratorInput, 0, len(req.Collaborators))
	for _, c := range req.Collaborators {
		inputs = append(inputs, service.CollaboratorInput{
			Email:      c.Email,
			Permission: c.Permission,
		})
	}

	note, err := h.service.AddCollaborators(r.Context(), noteID, userID, inputs)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: note})
}

// RemoveCollaborators handles DELETE /api/v1/notes/{id}/collaborators
func (h *NoteHandler) RemoveCollaborators(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")

	var req RemoveCollaboratorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	note, err := h.service.RemoveCollaborators(r.Context(), noteID, userID, req.UserIDs)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: note})
}
