package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/relayhq/identity/internal/auth"
	"github.com/relayhq/identity/internal/service"
	"github.com/relayhq/identity/pkg/httputil"
	pkgmiddleware "github.com/relayhq/identity/pkg/middleware"
)

// RequireSession validates the session cookie and attaches the resolved
// user to the request context. Requests with a missing, invalid, expired
// or revoked session are rejected with a 401.
func RequireSession(svc *service.AuthService, cookies *auth.CookieWriter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := svc.ValidateSession(r.Context(), cookies.Read(r))
			if err != nil {
				httputil.WriteError(w, r, err, logger)
				return
			}

			ctx := withUser(r.Context(), user)
			ctx = pkgmiddleware.WithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCredential decrypts the session user's stored provider token
// and attaches the plaintext to the request context. Must run inside
// RequireSession. Users without a linked credential get a 409, as does a
// stored credential that fails its integrity check.
func RequireCredential(svc *service.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				// Middleware misordering; RequireSession must run first.
				httputil.WriteError(w, r, fmt.Errorf("session user missing from context"), logger)
				return
			}

			token, err := svc.DecryptCredential(r.Context(), user)
			if err != nil {
				httputil.WriteError(w, r, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(withCredential(r.Context(), token)))
		})
	}
}
