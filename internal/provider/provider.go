package provider

import (
	"context"
)

// Identity is the normalized fact set an external provider asserts about a
// user. Providers return identity facts only; account creation, linking, and
// session management happen elsewhere.
type Identity struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
}

// OAuthProvider defines the contract every external auth provider implements.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google").
	Name() string

	// AuthCodeURL returns the provider's authorization URL carrying the
	// given anti-forgery state.
	AuthCodeURL(state string) string

	// ExchangeCode exchanges the authorization code for provider
	// credentials and returns the normalized identity.
	ExchangeCode(ctx context.Context, code string) (*Identity, error)
}
