package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// storeContract runs the behaviour every Store must share
func storeContract(t *testing.T, store Store, expire func(time.Duration)) {
	ctx := context.Background()

	t.Run("get on a missing key is a miss", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "summary", []byte(`{"a":1}`), time.Minute))
		got, err := store.Get(ctx, "summary")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(got))
	})

	t.Run("values expire", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "short", []byte("x"), 50*time.Millisecond))
		expire(100 * time.Millisecond)
		_, err := store.Get(ctx, "short")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("setnx only sets once", func(t *testing.T) {
		ok, err := store.SetNX(ctx, "idem:1", []byte("1"), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.SetNX(ctx, "idem:1", []byte("2"), time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := store.Get(ctx, "idem:1")
		require.NoError(t, err)
		assert.Equal(t, "1", string(got))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, store.Set(ctx, "b", []byte("2"), 0))
		require.NoError(t, store.Delete(ctx, "a", "b", "never-set"))
		_, err := store.Get(ctx, "a")
		assert.ErrorIs(t, err, ErrCacheMiss)
		require.NoError(t, store.Delete(ctx))
	})

	t.Run("incr counts from one", func(t *testing.T) {
		n, err := store.Incr(ctx, "generation")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		n, err = store.Incr(ctx, "generation")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	assert.NoError(t, store.Ping(ctx))
}

func TestInMemoryStore(t *testing.T) {
	store := NewInMemoryStore(time.Hour)
	defer store.Close()

	storeContract(t, store, time.Sleep)
}

func TestInMemoryStore_SweepAndCopies(t *testing.T) {
	store := NewInMemoryStore(10 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	buf := []byte("original")
	require.NoError(t, store.Set(ctx, "k", buf, 20*time.Millisecond))
	buf[0] = 'X'
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	assert.Eventually(t, func() bool { return store.Size() == 0 }, time.Second, 10*time.Millisecond)
	assert.NoError(t, store.Close())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, KeyPrefix)
	storeContract(t, store, mr.FastForward)

	assert.True(t, mr.Exists(KeyPrefix+"summary"), "keys are namespaced")
}

func TestRedisStore_ErrorsAreWrapped(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, KeyPrefix)

	mr.SetError("LOADING")
	_, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Contains(t, err.Error(), "redis get k")
}

func TestNewStore(t *testing.T) {
	mem := NewStore(nil, zap.NewNop())
	_, ok := mem.(*InMemoryStore)
	assert.True(t, ok)
	_ = mem.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	_, ok = NewStore(client, zap.NewNop()).(*RedisStore)
	assert.True(t, ok)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewRedisClient(context.Background(), config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port})
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	mr.Close()
	_, err = NewRedisClient(context.Background(), config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: port})
	assert.Error(t, err)
}
