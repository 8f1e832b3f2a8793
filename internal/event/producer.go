package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/relayhq/identity/internal/domain"
	pkgkafka "github.com/relayhq/identity/pkg/kafka"
)

// Kafka topics for identity domain events.
var (
	TopicUserRegistered = pkgkafka.Topic("user", "registered")
	TopicUserLoggedIn   = pkgkafka.Topic("user", "logged_in")
	TopicSessionRevoked = pkgkafka.Topic("session", "revoked")
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from this service.
const SourceIdentityService = "identity-service"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name,omitempty"`
	GitHubUsername string `json:"github_username"`
}

// UserLoggedInData is the payload for a user.logged_in event.
type UserLoggedInData struct {
	ID             string `json:"id"`
	GitHubUsername string `json:"github_username"`
}

// SessionRevokedData is the payload for a session.revoked event.
type SessionRevokedData struct {
	UserID            string `json:"user_id"`
	CredentialVersion int64  `json:"credential_version"`
}

// Producer publishes identity domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the identity service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event for a first login.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		GitHubUsername: user.GitHubUsername,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceIdentityService, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("github_username", user.GitHubUsername),
	)

	return nil
}

// PublishUserLoggedIn publishes a user.logged_in event.
func (p *Producer) PublishUserLoggedIn(ctx context.Context, user *domain.User) error {
	data := UserLoggedInData{
		ID:             user.ID,
		GitHubUsername: user.GitHubUsername,
	}

	event, err := pkgkafka.NewEvent(TopicUserLoggedIn, user.ID, AggregateTypeUser, SourceIdentityService, data)
	if err != nil {
		return fmt.Errorf("create user.logged_in event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserLoggedIn, event); err != nil {
		return fmt.Errorf("publish user.logged_in event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.logged_in event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishSessionRevoked publishes a session.revoked event after a
// credential rotation invalidates outstanding sessions.
func (p *Producer) PublishSessionRevoked(ctx context.Context, userID string, credentialVersion int64) error {
	data := SessionRevokedData{
		UserID:            userID,
		CredentialVersion: credentialVersion,
	}

	event, err := pkgkafka.NewEvent(TopicSessionRevoked, userID, AggregateTypeUser, SourceIdentityService, data)
	if err != nil {
		return fmt.Errorf("create session.revoked event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionRevoked, event); err != nil {
		return fmt.Errorf("publish session.revoked event: %w", err)
	}

	p.logger.DebugContext(ctx, "published session.revoked event",
		slog.String("user_id", userID),
		slog.Int64("credential_version", credentialVersion),
	)

	return nil
}
