package redisstore_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	redisstore "price-tracker/internal/infrastructure/redis"
)

func newLock(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *redisstore.RunLock) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redisstore.NewRunLock(client, ttl)
}

func TestTryAcquire(t *testing.T) {
	_, lock := newLock(t, time.Hour)

	ctx := context.Background()
	ok, err := lock.TryAcquire(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = lock.TryAcquire(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRelease_FreesKey(t *testing.T) {
	mr, lock := newLock(t, time.Hour)
	ctx := context.Background()

	ok, err := lock.TryAcquire(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, lock.Release(ctx, "k1"))
	require.False(t, mr.Exists("k1"))

	ok, err = lock.TryAcquire(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	mr, lock := newLock(t, time.Minute)
	ctx := context.Background()

	ok, err := lock.TryAcquire(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	other := redisstore.NewRunLock(lock.Client, time.Minute)
	ok, err = other.TryAcquire(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)

	// the first holder's release must not drop the second holder's lock
	require.NoError(t, lock.Release(ctx, "k1"))
	require.True(t, mr.Exists("k1"))
}

func TestTryAcquire_RedisDown(t *testing.T) {
	mr, lock := newLock(t, time.Minute)
	mr.Close()

	_, err := lock.TryAcquire(context.Background(), "k1")
	require.Error(t, err)
}
