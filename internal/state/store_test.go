package state

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, 10*time.Minute), mr
}

func TestStore_IssueThenRedeem(t *testing.T) {
	store, _ := setupTestStore(t)

	state, err := store.Issue(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, state)

	require.NoError(t, store.Redeem(t.Context(), state))
}

func TestStore_Issue_StatesAreUnique(t *testing.T) {
	store, _ := setupTestStore(t)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		state, err := store.Issue(t.Context())
		require.NoError(t, err)
		_, dup := seen[state]
		require.False(t, dup, "duplicate state issued")
		seen[state] = struct{}{}
	}
}

func TestStore_Redeem_SingleUse(t *testing.T) {
	store, _ := setupTestStore(t)

	state, err := store.Issue(t.Context())
	require.NoError(t, err)

	require.NoError(t, store.Redeem(t.Context(), state))
	assert.ErrorIs(t, store.Redeem(t.Context(), state), ErrUnknownState)
}

func TestStore_Redeem_NeverIssued(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.ErrorIs(t, store.Redeem(t.Context(), "forged-state"), ErrUnknownState)
}

func TestStore_Redeem_Empty(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.ErrorIs(t, store.Redeem(t.Context(), ""), ErrUnknownState)
}

func TestStore_Redeem_Expired(t *testing.T) {
	store, mr := setupTestStore(t)

	state, err := store.Issue(t.Context())
	require.NoError(t, err)

	mr.FastForward(11 * time.Minute)

	assert.ErrorIs(t, store.Redeem(t.Context(), state), ErrUnknownState)
}

func TestStore_Issue_SetsTTL(t *testing.T) {
	store, mr := setupTestStore(t)

	state, err := store.Issue(t.Context())
	require.NoError(t, err)

	ttl := mr.TTL("oauth:state:" + state)
	assert.Equal(t, 10*time.Minute, ttl)
}
