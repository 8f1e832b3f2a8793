package http

import (
	"context"

	"github.com/relayhq/identity/internal/domain"
)

type contextKey string

const (
	userKey       contextKey = "session_user"
	credentialKey contextKey = "provider_credential"
)

// UserFromContext returns the session user attached by RequireSession.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}

func withUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// CredentialFromContext returns the decrypted provider token attached by
// RequireCredential. The plaintext lives only in the request context and
// is never written back to storage or logs.
func CredentialFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(credentialKey).(string)
	return token, ok
}

func withCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey, token)
}
