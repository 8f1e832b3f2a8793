package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/relayhq/identity/internal/crypto"
	"github.com/relayhq/identity/internal/domain"
	apperrors "github.com/relayhq/identity/pkg/errors"
)

// ValidateSession verifies a session token and resolves it to a live
// user. A token minted against an older credential version than the
// user's current one has been revoked by a later login and is rejected
// distinctly from a missing or invalid token.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperrors.Unauthenticated("missing session")
	}

	claims, err := s.sessions.Verify(token)
	if err != nil {
		s.logger.DebugContext(ctx, "session rejected", slog.String("reason", err.Error()))
		return nil, apperrors.Unauthenticated("invalid session")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthenticated("unknown session subject")
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}

	if claims.Ver < user.CredentialVersion {
		s.logger.DebugContext(ctx, "stale session rejected",
			slog.String("user_id", user.ID),
			slog.Int64("token_version", claims.Ver),
			slog.Int64("current_version", user.CredentialVersion),
		)
		return nil, apperrors.SessionRevoked()
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// DecryptCredential opens a user's stored provider credential. Users
// who never linked a provider get ErrCredentialNotLinked; a stored
// credential that fails its integrity check gets ErrCredentialCorrupt,
// which the account owner can only clear by logging in again.
func (s *AuthService) DecryptCredential(ctx context.Context, user *domain.User) (string, error) {
	if !user.HasCredential() {
		return "", apperrors.CredentialNotLinked()
	}

	plaintext, err := s.cipher.Open(crypto.Sealed{
		Ciphertext: user.Credential.Ciphertext,
		IV:         user.Credential.IV,
		AuthTag:    user.Credential.AuthTag,
	})
	if err != nil {
		if errors.Is(err, crypto.ErrIntegrity) {
			s.logger.ErrorContext(ctx, "stored credential failed integrity check",
				slog.String("user_id", user.ID),
			)
			return "", apperrors.CredentialCorrupt()
		}
		return "", fmt.Errorf("open credential: %w", err)
	}

	return string(plaintext), nil
}
