package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisBackend(rdb), mr
}

func TestRedisBackendRoundTrip(t *testing.T) {
	backend, mr := newRedisBackend(t)
	ctx := context.Background()

	rec := &Record{
		ID:          "abc",
		PrincipalID: "user-1",
		Messages:    []string{"hi"},
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, backend.Save(ctx, rec))
	assert.True(t, mr.Exists("session:abc"))
	ttl := mr.TTL("session:abc")
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl=%s", ttl)

	got, err := backend.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.PrincipalID)
	assert.Equal(t, []string{"hi"}, got.Messages)
}

func TestRedisBackendMissingAndExpired(t *testing.T) {
	backend, mr := newRedisBackend(t)
	ctx := context.Background()

	_, err := backend.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, backend.Save(ctx, &Record{ID: "short", ExpiresAt: time.Now().Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)
	_, err = backend.Load(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisBackendSaveAlreadyExpiredDeletes(t *testing.T) {
	backend, mr := newRedisBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Save(ctx, &Record{ID: "x", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, backend.Save(ctx, &Record{ID: "x", ExpiresAt: time.Now().Add(-time.Second)}))
	assert.False(t, mr.Exists("session:x"))
}

func TestRedisBackendDelete(t *testing.T) {
	backend, mr := newRedisBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Save(ctx, &Record{ID: "d", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, backend.Delete(ctx, "d"))
	assert.False(t, mr.Exists("session:d"))
}
