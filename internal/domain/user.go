package domain

import (
	"time"
)

// Provider values for User.Provider.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User represents a registered account, created either with a local password
// or through an external identity provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Provider     string    `json:"provider"`
	OAuthID      string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsDeleted    bool      `json:"is_deleted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the account carries a local password credential.
// Accounts created through federation have none until one is set explicitly.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// LinkedTo reports whether the account is linked to the given external provider.
func (u *User) LinkedTo(provider string) bool {
	return u.Provider == provider && u.OAuthID != ""
}
