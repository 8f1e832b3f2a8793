package middleware

import (
	"log/slog"
	"net/http"

	"github.com/relayhq/identity/pkg/logger"
)

// resolveUserID prefers the user ID established by session validation over
// the X-User-ID header that internal callers set when no session is present.
func resolveUserID(r *http.Request) string {
	if id := UserIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-User-ID")
}

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, user_id, trace_id, and span_id. Handlers retrieve it with
// logger.FromContext(ctx).
//
// Mount it after RequestLogging and Tracing so the correlation ID and span
// context are already in place.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := resolveUserID(r); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			enriched := logger.WithContext(ctx, base)
			next.ServeHTTP(w, r.WithContext(logger.NewContext(ctx, enriched)))
		})
	}
}
