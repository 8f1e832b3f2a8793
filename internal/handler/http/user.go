package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/relayhq/identity/internal/service"
	apperrors "github.com/relayhq/identity/pkg/errors"
	"github.com/relayhq/identity/pkg/httputil"
)

// UserHandler handles HTTP requests for authenticated user endpoints.
type UserHandler struct {
	service  *service.AuthService
	provider service.Provider
	logger   *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.AuthService, provider service.Provider, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, provider: provider, logger: logger}
}

// Me handles GET /api/v1/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, fmt.Errorf("session user missing from context"), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// GitHubProfile handles GET /api/v1/github/profile. It exercises the
// stored credential: the vaulted token is decrypted by middleware and
// used for a live call to the provider.
func (h *UserHandler) GitHubProfile(w http.ResponseWriter, r *http.Request) {
	token, ok := CredentialFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, fmt.Errorf("provider credential missing from context"), h.logger)
		return
	}

	profile, err := h.provider.FetchProfile(r.Context(), token)
	if err != nil {
		h.logger.WarnContext(r.Context(), "live profile fetch failed", slog.String("error", err.Error()))
		httputil.WriteError(w, r, apperrors.ProfileFetch("could not fetch provider profile"), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}
