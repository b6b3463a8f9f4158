package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/leafnote/leafnote/internal/auth"
	"github.com/leafnote/leafnote/internal/service"
	"github.com/leafnote/leafnote/pkg/validator"
)

// AuthHandler handles HTTP requests for local auth endpoints.
type AuthHandler struct {
	service *service.UserService
	issuer  *auth.SessionIssuer
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.UserService, issuer *auth.SessionIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, issuer: issuer, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- Response types ---

// SessionResponse carries the user plus the access token. The refresh token
// travels only in the cookie, never in the body.
type SessionResponse struct {
	User        any    `json:"user"`
	AccessToken string `json:"access_token"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RegisterRequest
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

	user, err := h.service.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	accessToken, err := h.issuer.Issue(w, user.ID)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, response{
		Data: SessionResponse{
			User:        user,
			AccessToken: accessToken,
		},
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LoginRequest
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

	user, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	accessToken, err := h.issuer.Issue(w, user.ID)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: SessionResponse{
			User:        user,
			AccessToken: accessToken,
		},
	})
}

// Logout handles POST /api/v1/auth/logout. With no server-side session state,
// logout just expires the refresh cookie on this client.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.issuer.Clear(w)
	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "logged out"}})
}
