package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/leafnote/leafnote/internal/auth"
	"github.com/leafnote/leafnote/internal/repository"
	"github.com/leafnote/leafnote/pkg/middleware"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext returns the authenticated user id, or "" if the request
// did not pass the auth gate.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// AuthGate authorizes requests with a Bearer access token. An expired access
// token is refreshed silently from the refresh cookie: on success a new token
// pair is minted, the refresh cookie is replaced, and the new access token is
// surfaced via the X-New-Access-Token response header so the request proceeds
// without the client noticing. Any other failure ends with a 401 and never
// touches the cookie.
func AuthGate(codec *auth.TokenCodec, issuer *auth.SessionIssuer, users repository.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeUnauthorized(w, "authorization header missing")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w, "authorization header must use the Bearer scheme")
				return
			}

			userID, err := codec.VerifyAccess(token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
				return
			}

			// A malformed or forged token is never refreshed.
			if !errors.Is(err, auth.ErrTokenExpired) {
				writeUnauthorized(w, "invalid access token")
				return
			}

			cookie, err := r.Cookie(auth.RefreshCookieName)
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w, "access token expired and no refresh token provided")
				return
			}

			userID, err = codec.VerifyRefresh(cookie.Value)
			if err != nil {
				middleware.CountTokenRefresh("leafnote", "failure")
				writeUnauthorized(w, "invalid or expired refresh token")
				return
			}

			// The subject must still resolve to a live account; a deleted or
			// deactivated user cannot ride out a 7-day refresh window.
			user, err := users.GetByID(r.Context(), userID)
			if err != nil || !user.IsActive {
				middleware.CountTokenRefresh("leafnote", "failure")
				writeUnauthorized(w, "invalid or expired refresh token")
				return
			}

			newAccess, err := issuer.Issue(w, user.ID)
			if err != nil {
				middleware.CountTokenRefresh("leafnote", "failure")
				logger.ErrorContext(r.Context(), "silent token refresh failed",
					slog.String("user_id", user.ID),
					slog.String("error", err.Error()),
				)
				writeUnauthorized(w, "invalid or expired refresh token")
				return
			}

			w.Header().Set(auth.NewAccessTokenHeader, newAccess)
			middleware.CountTokenRefresh("leafnote", "success")

			logger.DebugContext(r.Context(), "access token silently refreshed",
				slog.String("user_id", user.ID),
			)

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), user.ID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, response{
		Error: &errorResponse{Code: "UNAUTHORIZED", Message: message},
	})
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	AllowedOrigins []string
	Environment    string
}

// CORS returns a middleware that sets Cross-Origin Resource Sharing headers.
// Credentialed requests (the refresh cookie) require an exact origin echo, so
// the wildcard is only used in development.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowWildcard := cfg.Environment == "development"
	originSet := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowWildcard = true
		}
		originSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				if _, ok := originSet[origin]; ok || allowWildcard {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Vary", "Origin")
				}
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Correlation-ID")
			w.Header().Set("Access-Control-Expose-Headers", auth.NewAccessTokenHeader)
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
