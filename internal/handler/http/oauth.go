package http

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/leafnote/leafnote/internal/auth"
	"github.com/leafnote/leafnote/internal/provider"
	"github.com/leafnote/leafnote/internal/service"
	apperrors "github.com/leafnote/leafnote/pkg/errors"
)

// oauthStateCookie carries the anti-forgery state between the start and
// callback legs of the OAuth flow. SameSite=Lax so the provider's redirect
// back to us still sends it.
const oauthStateCookie = "oauthState"

const oauthStateMaxAge = 5 * 60 // seconds

// OAuthHandler handles the browser-facing OAuth federation flow.
type OAuthHandler struct {
	provider      provider.OAuthProvider
	federation    *service.FederationService
	issuer        *auth.SessionIssuer
	frontendURL   string
	secureCookies bool
	logger        *slog.Logger
}

// NewOAuthHandler creates a new OAuth HTTP handler.
func NewOAuthHandler(
	p provider.OAuthProvider,
	federation *service.FederationService,
	issuer *auth.SessionIssuer,
	frontendURL string,
	secureCookies bool,
	logger *slog.Logger,
) *OAuthHandler {
	return &OAuthHandler{
		provider:      p,
		federation:    federation,
		issuer:        issuer,
		frontendURL:   frontendURL,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// Start handles GET /api/v1/auth/google. It plants the state cookie and
// redirects the browser to the provider's consent screen.
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	state, err := newState()
	if err != nil {
		writeAppError(w, r, fmt.Errorf("generate oauth state: %w", err), h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback handles GET /api/v1/auth/google/callback. It validates the state,
// exchanges the code for a verified identity, resolves that identity onto a
// local account, mints a session, and sends the browser back to the frontend
// with the access token in the query string. The refresh token only ever
// travels in its cookie.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" {
		writeAppError(w, r, apperrors.Unauthorized("missing oauth state"), h.logger)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	if r.URL.Query().Get("state") != stateCookie.Value {
		writeAppError(w, r, apperrors.Unauthorized("oauth state mismatch"), h.logger)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeAppError(w, r, apperrors.Unauthorized("authorization code missing"), h.logger)
		return
	}

	identity, err := h.provider.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "oauth code exchange failed",
			slog.String("provider", h.provider.Name()),
			slog.String("error", err.Error()),
		)
		writeAppError(w, r, apperrors.Federation("could not verify external identity"), h.logger)
		return
	}

	user, _, err := h.federation.Resolve(r.Context(), identity)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	accessToken, err := h.issuer.Issue(w, user.ID)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	redirectURL := fmt.Sprintf("%s/login-success?token=%s", h.frontendURL, accessToken)
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

// newState returns a fresh URL-safe random state value.
func newState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
