package auth

import (
	"net/http"
	"time"
)

// CookieWriter attaches and clears the session cookie. Attributes are
// fixed at construction so that Clear always matches Set; browsers only
// drop a cookie when the clearing attributes match the ones it was set
// with.
type CookieWriter struct {
	name   string
	secure bool
}

// NewCookieWriter creates a cookie writer. secure should be true in any
// environment served over TLS.
func NewCookieWriter(name string, secure bool) *CookieWriter {
	return &CookieWriter{name: name, secure: secure}
}

// Name returns the session cookie name.
func (c *CookieWriter) Name() string {
	return c.name
}

// Set attaches a session token to the response.
func (c *CookieWriter) Set(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (c *CookieWriter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read extracts the session token from the request. It returns an empty
// string when the cookie is absent.
func (c *CookieWriter) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
