package auth

import (
	"fmt"
	"net/http"
)

// RefreshCookieName is the dedicated cookie carrying the refresh token. The
// cookie is the only transport for refresh tokens: they never appear in
// response bodies or script-readable storage.
const RefreshCookieName = "refreshToken"

// NewAccessTokenHeader is the response side-channel used when the auth
// middleware silently refreshes an expired access token. Clients adopt the
// header value for subsequent requests.
const NewAccessTokenHeader = "X-New-Access-Token"

// SessionIssuer mints access/refresh token pairs for an authenticated user
// and delivers them over the two mandated channels: the refresh token as a
// protected cookie on the response, the access token as a return value for
// whatever transport the caller uses (JSON body, header, or redirect query).
type SessionIssuer struct {
	codec         *TokenCodec
	secureCookies bool
}

// NewSessionIssuer creates a session issuer. secureCookies should be true in
// production deployments so the refresh cookie is only sent over TLS.
func NewSessionIssuer(codec *TokenCodec, secureCookies bool) *SessionIssuer {
	return &SessionIssuer{
		codec:         codec,
		secureCookies: secureCookies,
	}
}

// Issue mints a brand-new token pair for the user, sets the refresh cookie on
// the response, and returns the access token. Prior pairs are not invalidated
// server-side (the session model is stateless); the overwritten cookie
// supersedes them client-side.
func (s *SessionIssuer) Issue(w http.ResponseWriter, userID string) (string, error) {
	accessToken, err := s.codec.IssueAccess(userID)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.codec.IssueRefresh(userID)
	if err != nil {
		return "", fmt.Errorf("issue refresh token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(s.codec.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	return accessToken, nil
}

// Clear expires the refresh cookie. Logout is best-effort on the issuing
// client only: with no server-side token state there is nothing further to
// revoke.
func (s *SessionIssuer) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
