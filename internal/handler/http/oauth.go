package http

import (
	"log/slog"
	"net/http"

	"github.com/relayhq/identity/internal/auth"
	"github.com/relayhq/identity/internal/service"
	"github.com/relayhq/identity/pkg/httputil"
	"github.com/relayhq/identity/pkg/validator"
)

// OAuthHandler handles the browser-facing login flow.
type OAuthHandler struct {
	service    *service.AuthService
	cookies    *auth.CookieWriter
	landingURL string
	logger     *slog.Logger
}

// NewOAuthHandler creates a new OAuth HTTP handler. landingURL is where
// the browser is sent after a completed login.
func NewOAuthHandler(svc *service.AuthService, cookies *auth.CookieWriter, landingURL string, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		service:    svc,
		cookies:    cookies,
		landingURL: landingURL,
		logger:     logger,
	}
}

// CallbackParams are the query parameters GitHub appends to the
// callback redirect.
type CallbackParams struct {
	Code  string `validate:"required"`
	State string `validate:"required"`
}

// Start handles GET /auth/github/start. It redirects the browser to the
// provider's authorize page with a freshly issued anti-forgery state.
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.StartLogin(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// Callback handles GET /auth/github/callback. On success it attaches
// the session cookie and redirects to the landing page; failures get a
// JSON error body.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	params := CallbackParams{
		Code:  r.URL.Query().Get("code"),
		State: r.URL.Query().Get("state"),
	}
	if err := validator.Validate(params); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.service.CompleteLogin(r.Context(), params.Code, params.State)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.Set(w, result.SessionToken, result.SessionTTL)
	http.Redirect(w, r, h.landingURL, http.StatusFound)
}

// Logout handles POST /auth/logout. Logout is purely client-side: the
// cookie is cleared with the same attributes it was set with. The
// session token itself remains valid until its TTL elapses or a new
// login rotates the credential version.
func (h *OAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"status": "logged_out"},
	})
}
