package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leafnote/leafnote/internal/domain"
	pkgkafka "github.com/leafnote/leafnote/pkg/kafka"
)

// Kafka topic constants for leafnote domain events.
const (
	TopicUserRegistered     = "leafnote.user.registered"
	TopicUserFederatedLogin = "leafnote.user.federated_login"
	TopicNoteTrashed        = "leafnote.note.trashed"
)

// Aggregate type constants.
const (
	AggregateTypeUser = "user"
	AggregateTypeNote = "note"
)

// Source identifier for events originating from this service.
const SourceLeafnote = "leafnote-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

// UserFederatedLoginData is the payload for a user.federated_login event.
// Outcome records how the external identity was resolved: created, linked,
// or an existing linked account.
type UserFederatedLoginData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
	Outcome  string `json:"outcome"`
}

// NoteTrashedData is the payload for a note.trashed event.
type NoteTrashedData struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
}

// Producer publishes leafnote domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:       user.ID,
		Email:    user.Email,
		Provider: user.Provider,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceLeafnote, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	return nil
}

// PublishUserFederatedLogin publishes a user.federated_login event.
func (p *Producer) PublishUserFederatedLogin(ctx context.Context, user *domain.User, outcome string) error {
	data := UserFederatedLoginData{
		ID:       user.ID,
		Email:    user.Email,
		Provider: user.Provider,
		Outcome:  outcome,
	}

	event, err := pkgkafka.NewEvent(TopicUserFederatedLogin, user.ID, AggregateTypeUser, SourceLeafnote, data)
	if err != nil {
		return fmt.Errorf("create user.federated_login event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserFederatedLogin, event); err != nil {
		return fmt.Errorf("publish user.federated_login event: %w", err)
	}

	return nil
}

// PublishNoteTrashed publishes a note.trashed event.
func (p *Producer) PublishNoteTrashed(ctx context.Context, note *domain.Note) error {
	data := NoteTrashedData{
		ID:      note.ID,
		OwnerID: note.OwnerID,
	}

	event, err := pkgkafka.NewEvent(TopicNoteTrashed, note.ID, AggregateTypeNote, SourceLeafnote, data)
	if err != nil {
		return fmt.Errorf("create note.trashed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicNoteTrashed, event); err != nil {
		return fmt.Errorf("publish note.trashed event: %w", err)
	}

	return nil
}
