package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/relayhq/identity/pkg/logger"
)

const correlationHeader = "X-Correlation-ID"

type accessLogWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *accessLogWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *accessLogWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// requestCorrelationID returns the inbound correlation ID, minting a fresh
// one when the caller did not supply a header.
func requestCorrelationID(r *http.Request) string {
	if id := r.Header.Get(correlationHeader); id != "" {
		return id
	}
	return uuid.New().String()
}

// RequestLogging emits one access-log line per request and propagates the
// correlation ID through the request context and the response header.
// Server errors are logged at warn level so they stand out without grepping
// status fields.
func RequestLogging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := requestCorrelationID(r)
			ctx := logger.WithCorrelationID(r.Context(), correlationID)
			w.Header().Set(correlationHeader, correlationID)

			alw := &accessLogWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(alw, r.WithContext(ctx))

			level := slog.LevelInfo
			if alw.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			l.LogAttrs(ctx, level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", alw.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", alw.bytes),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
				slog.String("correlation_id", correlationID),
			)
		})
	}
}
