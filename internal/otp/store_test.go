package otp

import (
	"context"
	"testing"
	"time"

	"provider-onboarding/internal/common/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Redis Store Tests
// ==========================

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := &database.RedisClient{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_SaveLoadDelete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "9876543210", "1234", time.Minute))

	code, ok, err := store.Load(ctx, "9876543210")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1234", code)

	require.NoError(t, store.Delete(ctx, "9876543210"))

	_, ok, err = store.Load(ctx, "9876543210")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Load_Missing(t *testing.T) {
	store, _ := newRedisStore(t)

	_, ok, err := store.Load(context.Background(), "0000000000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "9876543210", "1234", time.Minute))

	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Load(ctx, "9876543210")
	require.NoError(t, err)
	assert.False(t, ok, "code must expire with its TTL")
}

func TestRedisStore_IncrAttempts(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "9876543210", "1234", time.Minute))

	for want := 1; want <= 3; want++ {
		n, err := store.IncrAttempts(ctx, "9876543210", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

func TestRedisStore_Save_ResetsAttempts(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "9876543210", "1234", time.Minute))
	_, err := store.IncrAttempts(ctx, "9876543210", time.Minute)
	require.NoError(t, err)

	// re-issuing a code starts a fresh attempt budget
	require.NoError(t, store.Save(ctx, "9876543210", "5678", time.Minute))

	n, err := store.IncrAttempts(ctx, "9876543210", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// RedisStore must satisfy the service's store contract.
var _ CodeStore = (*RedisStore)(nil)
var _ CodeStore = (*MemoryStore)(nil)
