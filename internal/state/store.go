// Package state issues and redeems the single-use anti-forgery tokens
// that tie an OAuth callback to a login started by this service.
package state

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnknownState is returned when a callback presents a state that was
// never issued, already redeemed, or expired.
var ErrUnknownState = errors.New("state: unknown or expired state")

// Store issues single-use state tokens and redeems them exactly once.
type Store interface {
	Issue(ctx context.Context) (string, error)
	Redeem(ctx context.Context, state string) error
}

// RedisStore keeps issued states in Redis with a short TTL. Redemption
// uses GETDEL so each state is consumable at most once even under
// concurrent callbacks.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a state store with the given time-to-live for
// issued states.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Issue generates a fresh random state and records it.
func (s *RedisStore) Issue(ctx context.Context) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	if err := s.client.Set(ctx, s.key(state), "1", s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	return state, nil
}

// Redeem consumes a state, deleting it in the same operation.
func (s *RedisStore) Redeem(ctx context.Context, state string) error {
	if state == "" {
		return ErrUnknownState
	}

	err := s.client.GetDel(ctx, s.key(state)).Err()
	if errors.Is(err, redis.Nil) {
		return ErrUnknownState
	}
	if err != nil {
		return fmt.Errorf("redeem state: %w", err)
	}
	return nil
}

func (s *RedisStore) key(state string) string {
	return "oauth:state:" + state
}
