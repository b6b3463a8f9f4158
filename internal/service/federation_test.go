package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leafnote/leafnote/internal/domain"
	"github.com/leafnote/leafnote/internal/provider"
	apperrors "github.com/leafnote/leafnote/pkg/errors"
)

func newTestFederationService(userRepo *mockUserRepository) *FederationService {
	return NewFederationService(userRepo, newTestEventProducer(), newTestLogger())
}

func googleIdentity() *provider.Identity {
	return &provider.Identity{
		Provider:       domain.ProviderGoogle,
		ProviderUserID: "google-sub-42",
		Email:          "john@example.com",
		EmailVerified:  true,
	}
}

func TestResolve_CreatesNewFederatedAccount(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestFederationService(userRepo)
	ctx := context.Background()

	userRepo.On("GetByOAuthOrEmail", ctx, domain.ProviderGoogle, "google-sub-42", "john@example.com").
		Return(nil, apperrors.ErrNotFound)
	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, outcome, err := svc.Resolve(ctx, googleIdentity())

	require.NoError(t, err)
	assert.Equal(t, ResolutionCreated, outcome)
	assert.Equal(t, "john@example.com", user.Email)
	assert.Equal(t, domain.ProviderGoogle, user.Provider)
	assert.Equal(t, "google-sub-42", user.OAuthID)
	assert.True(t, user.IsActive)
	assert.False(t, user.HasPassword())
	userRepo.AssertExpectations(t)
}

func TestResolve_LinksExistingLocalAccount(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestFederationService(userRepo)
	ctx := context.Background()

	// A local account with the same email, no external identity yet.
	local := &domain.User{
		ID:           "u-1",
		Email:        "john@example.com",
		PasswordHash: "some-hash",
		Provider:     domain.ProviderLocal,
		IsActive:     true,
	}
	userRepo.On("GetByOAuthOrEmail", ctx, domain.ProviderGoogle, "google-sub-42", "john@example.com").
		Return(local, nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, outcome, err := svc.Resolve(ctx, googleIdentity())

	require.NoError(t, err)
	assert.Equal(t, ResolutionLinked, outcome)
	assert.Equal(t, "u-1", user.ID, "linking must reuse the existing account, not create a new one")
	assert.Equal(t, domain.ProviderGoogle, user.Provider)
	assert.Equal(t, "google-sub-42", user.OAuthID)
	// Linking must not discard the local password credential.
	assert.True(t, user.HasPassword())
	userRepo.AssertNotCalled(t, "Create")
}

func TestResolve_PassesThroughLinkedAccount(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestFederationService(userRepo)
	ctx := context.Background()

	linked := &domain.User{
		ID:       "u-1",
		Email:    "john@example.com",
		Provider: domain.ProviderGoogle,
		OAuthID:  "google-sub-42",
		IsActive: true,
	}
	userRepo.On("GetByOAuthOrEmail", ctx, domain.ProviderGoogle, "google-sub-42", "john@example.com").
		Return(linked, nil)

	user, outcome, err := svc.Resolve(ctx, googleIdentity())

	require.NoError(t, err)
	assert.Equal(t, ResolutionExisting, outcome)
	assert.Equal(t, "u-1", user.ID)
	userRepo.AssertNotCalled(t, "Create")
	userRepo.AssertNotCalled(t, "Update")
}

func TestResolve_IsIdempotent(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestFederationService(userRepo)
	ctx := context.Background()

	linked := &domain.User{
		ID:       "u-1",
		Email:    "john@example.com",
		Provider: domain.ProviderGoogle,
		OAuthID:  "google-sub-42",
		IsActive: true,
	}
	userRepo.On("GetByOAuthOrEmail", ctx, domain.ProviderGoogle, "google-sub-42", "john@example.com").
		Return(linked, nil)

	// Repeated logins with the same identity keep resolving to the same
	// account without touching the store.
	for i := 0; i < 3; i++ {
		user, outcome, err := svc.Resolve(ctx, googleIdentity())
		require.NoError(t, err)
		assert.Equal(t, ResolutionExisting, outcome)
		assert.Equal(t, "u-1", user.ID)
	}
	userRepo.AssertNotCalled(t, "Create")
	userRepo.AssertNotCalled(t, "Update")
}

func TestResolve_RejectsIdentityWithoutEmail(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestFederationService(userRepo)

	identity := googleIdentity()
	identity.Email = ""

	user, outcome, err := svc.Resolve(context.Background(), identity)

	assert.Nil(t, user)
	assert.Empty(t, outcome)
	assert.True(t, errors.Is(err, apperrors.ErrFederation))
	userRepo.AssertNotCalled(t, "GetByOAuthOrEmail")
}

func TestResolve_RejectsDeactivatedAccount(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestFederationService(userRepo)
	ctx := context.Background()

	deactivated := &domain.User{
		ID:       "u-1",
		Email:    "john@example.com",
		Provider: domain.ProviderGoogle,
		OAuthID:  "google-sub-42",
		IsActive: false,
	}
	userRepo.On("GetByOAuthOrEmail", ctx, domain.ProviderGoogle, "google-sub-42", "john@example.com").
		Return(deactivated, nil)

	user, _, err := svc.Resolve(ctx, googleIdentity())

	assert.Nil(t, user)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestResolve_NormalizesAssertedEmail(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestFederationService(userRepo)
	ctx := context.Background()

	identity := googleIdentity()
	identity.Email = "John@Example.COM"

	userRepo.On("GetByOAuthOrEmail", ctx, domain.ProviderGoogle, "google-sub-42", "john@example.com").
		Return(nil, apperrors.ErrNotFound)
	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, _, err := svc.Resolve(ctx, identity)

	require.NoError(t, err)
	assert.Equal(t, "john@example.com", user.Email)
}
