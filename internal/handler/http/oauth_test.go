package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafnote/leafnote/internal/auth"
	"github.com/leafnote/leafnote/internal/domain"
	"github.com/leafnote/leafnote/internal/event"
	"github.com/leafnote/leafnote/internal/provider"
	"github.com/leafnote/leafnote/internal/service"
	pkgkafka "github.com/leafnote/leafnote/pkg/kafka"
)

// fakeProvider returns a canned identity for any code.
type fakeProvider struct {
	identity    *provider.Identity
	exchangeErr error
}

func (f *fakeProvider) Name() string { return domain.ProviderGoogle }

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) ExchangeCode(ctx context.Context, code string) (*provider.Identity, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.identity, nil
}

func newOAuthTestHandler(t *testing.T, p provider.OAuthProvider) (*OAuthHandler, *auth.TokenCodec) {
	t.Helper()

	logger := newTestLogger()
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	producer := event.NewProducer(kafkaProducer, logger)
	federation := service.NewFederationService(&stubUserRepository{users: map[string]*domain.User{}}, producer, logger)

	codec, err := auth.NewTokenCodec(auth.CodecConfig{
		AccessSecret:  "oauth-access-secret",
		RefreshSecret: "oauth-refresh-secret",
	})
	require.NoError(t, err)
	issuer := auth.NewSessionIssuer(codec, false)

	return NewOAuthHandler(p, federation, issuer, "http://localhost:5173", false, logger), codec
}

func TestOAuthStart_RedirectsWithStateCookie(t *testing.T) {
	h, _ := newOAuthTestHandler(t, &fakeProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google", nil)
	rec := httptest.NewRecorder()

	h.Start(rec, req)

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	state := cookies[0]
	assert.Equal(t, oauthStateCookie, state.Name)
	assert.NotEmpty(t, state.Value)
	assert.True(t, state.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, state.SameSite)

	// The redirect carries the same state the cookie does.
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state.Value, location.Query().Get("state"))
}

func TestOAuthCallback_IssuesSessionAndRedirects(t *testing.T) {
	identity := &provider.Identity{
		Provider:       domain.ProviderGoogle,
		ProviderUserID: "google-sub-42",
		Email:          "john@example.com",
		EmailVerified:  true,
	}
	h, codec := newOAuthTestHandler(t, &fakeProvider{identity: identity})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=abc&code=xyz", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "abc"})
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login-success", location.Path)

	// The token in the redirect is a verifiable access token.
	accessToken := location.Query().Get("token")
	require.NotEmpty(t, accessToken)
	_, err = codec.VerifyAccess(accessToken)
	assert.NoError(t, err)

	// Cookies: the state cookie is cleared and the refresh cookie is set.
	var sawCleared, sawRefresh bool
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case oauthStateCookie:
			sawCleared = c.MaxAge < 0
		case auth.RefreshCookieName:
			sawRefresh = c.Value != ""
			_, err := codec.VerifyRefresh(c.Value)
			assert.NoError(t, err)
		}
	}
	assert.True(t, sawCleared)
	assert.True(t, sawRefresh)
}

func TestOAuthCallback_StateMismatch(t *testing.T) {
	h, _ := newOAuthTestHandler(t, &fakeProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=tampered&code=xyz", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "abc"})
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOAuthCallback_MissingStateCookie(t *testing.T) {
	h, _ := newOAuthTestHandler(t, &fakeProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=abc&code=xyz", nil)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOAuthCallback_IdentityWithoutEmail(t *testing.T) {
	identity := &provider.Identity{
		Provider:       domain.ProviderGoogle,
		ProviderUserID: "google-sub-42",
	}
	h, _ := newOAuthTestHandler(t, &fakeProvider{identity: identity})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=abc&code=xyz", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "abc"})
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "FEDERATION_FAILED")
}
