package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/relayhq/identity/internal/auth"
	"github.com/relayhq/identity/internal/crypto"
	"github.com/relayhq/identity/internal/domain"
	"github.com/relayhq/identity/internal/event"
	"github.com/relayhq/identity/internal/repository"
	"github.com/relayhq/identity/internal/state"
	apperrors "github.com/relayhq/identity/pkg/errors"
)

// Provider abstracts the external OAuth provider.
type Provider interface {
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error)
}

// AuthService implements the login flow: provider handshake, account
// upsert, credential sealing and session issuance.
type AuthService struct {
	users    repository.UserRepository
	provider Provider
	states   state.Store
	cipher   *crypto.Cipher
	sessions *auth.SessionManager
	producer *event.Producer
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	provider Provider,
	states state.Store,
	cipher *crypto.Cipher,
	sessions *auth.SessionManager,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		provider: provider,
		states:   states,
		cipher:   cipher,
		sessions: sessions,
		producer: producer,
		logger:   logger,
	}
}

// LoginResult is the outcome of a completed login.
type LoginResult struct {
	User         *domain.User
	SessionToken string
	SessionTTL   time.Duration
	NewUser      bool
}

// StartLogin issues a fresh anti-forgery state and returns the provider
// authorize URL to redirect the browser to.
func (s *AuthService) StartLogin(ctx context.Context) (string, error) {
	st, err := s.states.Issue(ctx)
	if err != nil {
		return "", fmt.Errorf("issue login state: %w", err)
	}
	return s.provider.AuthorizeURL(st), nil
}

// CompleteLogin finishes the callback leg: it redeems the anti-forgery
// state, exchanges the code, fetches the external profile, upserts the
// account with a freshly sealed credential, and issues a session token.
//
// Every login rotates the stored credential and bumps the credential
// version, which revokes all previously issued sessions for the account.
func (s *AuthService) CompleteLogin(ctx context.Context, code, stateParam string) (*LoginResult, error) {
	if err := s.states.Redeem(ctx, stateParam); err != nil {
		if errors.Is(err, state.ErrUnknownState) {
			return nil, apperrors.OAuthExchange("state mismatch")
		}
		return nil, fmt.Errorf("redeem login state: %w", err)
	}
	if code == "" {
		return nil, apperrors.OAuthExchange("missing authorization code")
	}

	accessToken, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "code exchange failed", slog.String("error", err.Error()))
		return nil, apperrors.OAuthExchange("authorization code exchange failed")
	}

	profile, err := s.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		s.logger.WarnContext(ctx, "profile fetch failed", slog.String("error", err.Error()))
		return nil, apperrors.ProfileFetch("could not fetch provider profile")
	}

	sealed, err := s.cipher.Seal([]byte(accessToken))
	if err != nil {
		return nil, fmt.Errorf("seal credential: %w", err)
	}
	credential := &domain.EncryptedCredential{
		Ciphertext: sealed.Ciphertext,
		IV:         sealed.IV,
		AuthTag:    sealed.AuthTag,
	}
	version := time.Now().UTC().UnixMilli()

	user, created, err := s.upsertUser(ctx, profile, credential, version)
	if err != nil {
		return nil, err
	}

	token, err := s.sessions.Issue(user.ID, version)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.publishLoginEvents(ctx, user, created)

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("github_username", user.GitHubUsername),
		slog.Bool("new_user", created),
	)

	return &LoginResult{
		User:         user,
		SessionToken: token,
		SessionTTL:   s.sessions.TTL(),
		NewUser:      created,
	}, nil
}

// upsertUser finds the account for a provider profile, by email first
// and provider username second, creating it when neither matches. The
// provider username is always refreshed; name and email are only
// back-filled when empty so user-supplied values survive relinking.
func (s *AuthService) upsertUser(ctx context.Context, profile *domain.Profile, credential *domain.EncryptedCredential, version int64) (*domain.User, bool, error) {
	email := profile.Email
	if email == "" {
		email = placeholderEmail(profile)
	}

	user, err := s.findUser(ctx, email, profile.Username)
	if err != nil {
		return nil, false, err
	}

	if user == nil {
		now := time.Now().UTC()
		user = &domain.User{
			ID:                uuid.New().String(),
			Name:              profile.Name,
			Email:             email,
			GitHubUsername:    profile.Username,
			Credential:        credential,
			CredentialVersion: version,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if !errors.Is(err, apperrors.ErrAlreadyExists) {
				return nil, false, fmt.Errorf("create user: %w", err)
			}
			// Lost a concurrent-insert race on the unique email
			// constraint; fall through to updating the winner's row.
			user, err = s.findUser(ctx, email, profile.Username)
			if err != nil || user == nil {
				return nil, false, fmt.Errorf("reload user after insert conflict: %w", err)
			}
		} else {
			return user, true, nil
		}
	}

	user.GitHubUsername = profile.Username
	if user.Name == "" {
		user.Name = profile.Name
	}
	if user.Email == "" {
		user.Email = email
	}
	user.Credential = credential
	user.CredentialVersion = version

	if err := s.users.Update(ctx, user); err != nil {
		return nil, false, fmt.Errorf("update user: %w", err)
	}
	return user, false, nil
}

// findUser looks an account up by email, then by provider username.
// A nil user with a nil error means no account exists yet.
func (s *AuthService) findUser(ctx context.Context, email, username string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	user, err = s.users.GetByGitHubUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by username: %w", err)
	}
	return nil, nil
}

// publishLoginEvents emits domain events for a completed login. Publish
// failures are logged and do not fail the login.
func (s *AuthService) publishLoginEvents(ctx context.Context, user *domain.User, created bool) {
	if created {
		if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "publish user.registered failed", slog.String("error", err.Error()))
		}
	} else {
		if err := s.producer.PublishSessionRevoked(ctx, user.ID, user.CredentialVersion); err != nil {
			s.logger.WarnContext(ctx, "publish session.revoked failed", slog.String("error", err.Error()))
		}
	}
	if err := s.producer.PublishUserLoggedIn(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "publish user.logged_in failed", slog.String("error", err.Error()))
	}
}

// placeholderEmail synthesizes a stable address for provider accounts
// that withhold their email, mirroring GitHub's own noreply scheme.
func placeholderEmail(profile *domain.Profile) string {
	return fmt.Sprintf("%d+%s@users.noreply.github.com", profile.ProviderID, profile.Username)
}
