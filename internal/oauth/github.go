// Package oauth implements the GitHub authorization-code flow and
// profile fetch.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/relayhq/identity/internal/domain"
	"github.com/relayhq/identity/pkg/httpclient"
)

const defaultAPIBaseURL = "https://api.github.com"

// Config holds GitHub application credentials and endpoint overrides.
// The endpoint fields default to the public GitHub endpoints and exist
// so tests can point the client at a local server.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	AuthURL    string
	TokenURL   string
	APIBaseURL string
}

// GitHubClient drives the GitHub side of a login: building the
// authorization redirect, exchanging the callback code for an access
// token, and fetching the account profile.
type GitHubClient struct {
	oauth      *oauth2.Config
	api        *httpclient.CircuitBreakerClient
	tokenHTTP  *http.Client
	apiBaseURL string
}

// breakerTransport routes a round trip through a circuit breaker client
// so oauth2's token exchange shares the same failure handling as the
// profile fetch.
type breakerTransport struct {
	cb *httpclient.CircuitBreakerClient
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.cb.Do(req.Context(), req)
}

// NewGitHubClient creates a GitHub client. Both provider calls go
// through circuit breakers so a GitHub outage degrades fast instead of
// piling up blocked logins. The token exchange client does not retry:
// its POST body is not replayable.
func NewGitHubClient(cfg Config, logger *slog.Logger) *GitHubClient {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = 10 * time.Second
	api := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig("github-api"),
		logger,
	)

	tokenCfg := httpclient.DefaultConfig()
	tokenCfg.Timeout = 10 * time.Second
	tokenCfg.MaxRetries = 0
	token := httpclient.NewCircuitBreakerClient(
		httpclient.New(tokenCfg),
		httpclient.DefaultCircuitBreakerConfig("github-token"),
		logger,
	)

	return &GitHubClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		api:        api,
		tokenHTTP:  &http.Client{Transport: &breakerTransport{cb: token}},
		apiBaseURL: apiBase,
	}
}

// AuthorizeURL builds the GitHub authorization redirect for the given
// anti-forgery state.
func (c *GitHubClient) AuthorizeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (c *GitHubClient) Exchange(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.tokenHTTP)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("exchange authorization code: empty access token")
	}
	return token.AccessToken, nil
}

// FetchProfile retrieves the authenticated account's profile. Name and
// Email may be empty; GitHub returns null for accounts that hide them.
func (c *GitHubClient) FetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.api.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	var profile domain.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if profile.ProviderID == 0 {
		return nil, fmt.Errorf("decode profile: missing id")
	}
	if profile.Username == "" {
		return nil, fmt.Errorf("decode profile: missing login")
	}
	return &profile, nil
}
