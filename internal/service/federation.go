package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leafnote/leafnote/internal/domain"
	"github.com/leafnote/leafnote/internal/event"
	"github.com/leafnote/leafnote/internal/provider"
	"github.com/leafnote/leafnote/internal/repository"
	apperrors "github.com/leafnote/leafnote/pkg/errors"
)

// ResolutionOutcome records how an external identity mapped onto a local
// account.
type ResolutionOutcome string

const (
	// ResolutionCreated means no account matched and a new federated
	// account was created.
	ResolutionCreated ResolutionOutcome = "created"
	// ResolutionLinked means an account matched by email and the external
	// identity was attached to it.
	ResolutionLinked ResolutionOutcome = "linked"
	// ResolutionExisting means the account was already linked to this
	// identity and nothing changed.
	ResolutionExisting ResolutionOutcome = "existing"
)

// FederationService maps verified external identities onto local accounts.
type FederationService struct {
	userRepo repository.UserRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewFederationService creates a new federation service.
func NewFederationService(userRepo repository.UserRepository, producer *event.Producer, logger *slog.Logger) *FederationService {
	return &FederationService{
		userRepo: userRepo,
		producer: producer,
		logger:   logger,
	}
}

// Resolve maps a verified identity assertion onto exactly one local account.
// Three outcomes are possible: a new federated account is created, the
// identity is linked to an existing account matched by email, or the already
// linked account is returned unchanged. An assertion without an email cannot
// be resolved.
func (s *FederationService) Resolve(ctx context.Context, identity *provider.Identity) (*domain.User, ResolutionOutcome, error) {
	if identity.Email == "" {
		return nil, "", apperrors.Federation("external account has no email")
	}
	email := normalizeEmail(identity.Email)

	user, err := s.userRepo.GetByOAuthOrEmail(ctx, identity.Provider, identity.ProviderUserID, email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup user for federation: %w", err)
	}

	var outcome ResolutionOutcome
	switch {
	case user == nil:
		user, err = s.createFederated(ctx, identity, email)
		if err != nil {
			return nil, "", err
		}
		outcome = ResolutionCreated

	case !user.LinkedTo(identity.Provider):
		// Found by email only: attach the external identity, keeping any
		// local password the account already has.
		user.Provider = identity.Provider
		user.OAuthID = identity.ProviderUserID
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, "", fmt.Errorf("link identity to user: %w", err)
		}
		outcome = ResolutionLinked

	default:
		outcome = ResolutionExisting
	}

	if !user.IsActive {
		return nil, "", apperrors.Unauthorized("account is deactivated")
	}

	// Publish federated login event (non-blocking on failure).
	if err := s.producer.PublishUserFederatedLogin(ctx, user, string(outcome)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.federated_login event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "federated identity resolved",
		slog.String("user_id", user.ID),
		slog.String("provider", identity.Provider),
		slog.String("outcome", string(outcome)),
	)

	return user, outcome, nil
}

func (s *FederationService) createFederated(ctx context.Context, identity *provider.Identity, email string) (*domain.User, error) {
	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Provider:  identity.Provider,
		OAuthID:   identity.ProviderUserID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create federated user: %w", err)
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}
