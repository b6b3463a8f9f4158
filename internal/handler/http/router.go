package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leafnote/leafnote/internal/auth"
	"github.com/leafnote/leafnote/internal/provider"
	"github.com/leafnote/leafnote/internal/repository"
	"github.com/leafnote/leafnote/internal/service"
	"github.com/leafnote/leafnote/pkg/health"
	"github.com/leafnote/leafnote/pkg/middleware"
)

// RouterConfig bundles everything the router needs.
type RouterConfig struct {
	UserService       *service.UserService
	NoteService       *service.NoteService
	FederationService *service.FederationService
	OAuthProvider     provider.OAuthProvider
	Codec             *auth.TokenCodec
	Issuer            *auth.SessionIssuer
	UserRepo          repository.UserRepository
	HealthHandler     *health.Handler
	Logger            *slog.Logger
	CORS              CORSConfig
	FrontendURL       string
	SecureCookies     bool
}

// NewRouter creates a chi router with all leafnote routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("leafnote"))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(cfg.UserService, cfg.Issuer, cfg.Logger)

	// Public auth endpoints
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		// Browser-facing OAuth flow: no JSON content type, no auth gate.
		if cfg.OAuthProvider != nil {
			oauthHandler := NewOAuthHandler(
				cfg.OAuthProvider,
				cfg.FederationService,
				cfg.Issuer,
				cfg.FrontendURL,
				cfg.SecureCookies,
				cfg.Logger,
			)
			r.Get("/google", oauthHandler.Start)
			r.Get("/google/callback", oauthHandler.Callback)
		}
	})

	gate := AuthGate(cfg.Codec, cfg.Issuer, cfg.UserRepo, cfg.Logger)

	// User profile endpoints (auth required)
	userHandler := NewUserHandler(cfg.UserService, cfg.Logger)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(gate)

		r.Get("/me", userHandler.GetProfile)
		r.Put("/me", userHandler.UpdateProfile)
	})

	// Note endpoints (auth required)
	noteHandler := NewNoteHandler(cfg.NoteService, cfg.Logger)
	r.Route("/api/v1/notes", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(gate)

		r.Post("/", noteHandler.Create)
		r.Get("/", noteHandler.List)
		r.Get("/pinned", noteHandler.ListPinned)
		r.Get("/archived", noteHandler.ListArchived)
		r.Get("/trash", noteHandler.ListTrash)

		r.Get("/{id}", noteHandler.Get)
		r.Put("/{id}", noteHandler.Update)
		r.Delete("/{id}", noteHandler.Trash)

		r.Patch("/{id}/status", noteHandler.UpdateStatus)
		r.Patch("/{id}/restore", noteHandler.Restore)
		r.Delete("/{id}/permanent-delete", noteHandler.PermanentDelete)

		r.Patch("/{id}/tags", noteHandler.AddTags)
		r.Delete("/{id}/tags", noteHandler.RemoveTags)

		r.Patch("/{id}/collaborators", noteHandler.AddCollaborators)
		r.Delete("/{id}/collaborators", noteHandler.RemoveCollaborators)
	})

	return r
}
