package oauth

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) (*GitHubClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewGitHubClient(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/auth/github/callback",
		Scopes:       []string{"read:user"},
		AuthURL:      srv.URL + "/login/oauth/authorize",
		TokenURL:     srv.URL + "/login/oauth/access_token",
		APIBaseURL:   srv.URL,
	}, testLogger())
	return client, srv
}

func TestAuthorizeURL(t *testing.T) {
	client, srv := newTestClient(t, http.NotFoundHandler())

	raw := client.AuthorizeURL("state-xyz")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/login/oauth/authorize", u.Scheme+"://"+u.Host+u.Path)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "read:user", q.Get("scope"))
	assert.Equal(t, "https://app.example.com/auth/github/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
}

func TestExchange_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"gho_abc123","token_type":"bearer","scope":"read:user"}`)
	})
	client, _ := newTestClient(t, mux)

	token, err := client.Exchange(t.Context(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "gho_abc123", token)
}

func TestExchange_ProviderRejectsCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"bad_verification_code"}`)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.Exchange(t.Context(), "expired-code")
	require.Error(t, err)
}

func TestExchange_OutageTripsBreaker(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	client, _ := newTestClient(t, mux)

	for i := 0; i < 5; i++ {
		_, err := client.Exchange(t.Context(), "the-code")
		require.Error(t, err)
	}

	before := hits.Load()
	_, err := client.Exchange(t.Context(), "the-code")
	require.Error(t, err)
	assert.Equal(t, before, hits.Load(), "open breaker must not reach the token endpoint")
}

func TestExchange_EmptyAccessToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"token_type":"bearer"}`)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.Exchange(t.Context(), "the-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty access token")
}

func TestFetchProfile_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gho_abc123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":583231,"login":"octocat","name":"The Octocat","email":"octocat@github.com"}`)
	})
	client, _ := newTestClient(t, mux)

	profile, err := client.FetchProfile(t.Context(), "gho_abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(583231), profile.ProviderID)
	assert.Equal(t, "octocat", profile.Username)
	assert.Equal(t, "The Octocat", profile.Name)
	assert.Equal(t, "octocat@github.com", profile.Email)
}

func TestFetchProfile_NullNameAndEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":99,"login":"ghost","name":null,"email":null}`)
	})
	client, _ := newTestClient(t, mux)

	profile, err := client.FetchProfile(t.Context(), "gho_abc123")
	require.NoError(t, err)
	assert.Equal(t, "ghost", profile.Username)
	assert.Empty(t, profile.Name)
	assert.Empty(t, profile.Email)
}

func TestFetchProfile_BadToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.FetchProfile(t.Context(), "revoked-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestFetchProfile_MissingLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":1}`)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.FetchProfile(t.Context(), "gho_abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing login")
}

func TestFetchProfile_MissingID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"login":"monalisa"}`)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.FetchProfile(t.Context(), "gho_abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")
}
