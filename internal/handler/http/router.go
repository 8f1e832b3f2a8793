package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relayhq/identity/internal/auth"
	"github.com/relayhq/identity/internal/service"
	"github.com/relayhq/identity/pkg/health"
	"github.com/relayhq/identity/pkg/middleware"
)

// RouterConfig carries the handler-level settings the router needs.
type RouterConfig struct {
	LandingURL string
	CORS       middleware.CORSConfig
}

// NewRouter creates a chi router with all identity service routes registered.
func NewRouter(
	authService *service.AuthService,
	provider service.Provider,
	cookies *auth.CookieWriter,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("identity"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("identity"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Login flow (public)
	oauthHandler := NewOAuthHandler(authService, cookies, cfg.LandingURL, logger)
	r.Route("/auth", func(r chi.Router) {
		r.Get("/github/start", oauthHandler.Start)
		r.Get("/github/callback", oauthHandler.Callback)
		r.Post("/logout", oauthHandler.Logout)
	})

	// Authenticated endpoints
	userHandler := NewUserHandler(authService, provider, logger)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequireSession(authService, cookies, logger))

		r.Get("/users/me", userHandler.Me)

		r.Route("/github", func(r chi.Router) {
			r.Use(RequireCredential(authService, logger))
			r.Get("/profile", userHandler.GitHubProfile)
		})
	})

	return r
}
