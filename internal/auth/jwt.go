package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session verification errors. Handlers treat all of them as an
// unauthenticated request; the distinction exists for logging.
var (
	ErrExpired          = errors.New("auth: session token expired")
	ErrInvalidSignature = errors.New("auth: session token signature invalid")
	ErrMalformed        = errors.New("auth: session token malformed")
)

// SessionClaims represents the claims carried by a session token. Ver is
// the credential version the session was minted against; a session is
// live only while Ver is at least the user's current credential version.
type SessionClaims struct {
	Ver int64 `json:"ver"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies signed session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionManager creates a session manager with the given signing
// secret and session lifetime.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed session token for the given user bound to the
// given credential version.
func (m *SessionManager) Issue(userID string, version int64) (string, error) {
	now := time.Now().UTC()
	claims := &SessionClaims{
		Ver: version,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Issuer:    "identity-service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signedToken, nil
}

// Verify parses and validates a session token, returning its claims.
// Expired tokens return ErrExpired, tokens whose signature does not
// check out return ErrInvalidSignature, and any other failure, including
// a token signed with a non-HMAC algorithm, returns ErrMalformed.
func (m *SessionManager) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}

	return claims, nil
}
