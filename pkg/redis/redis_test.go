package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/universe/pkg/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewFromAddr(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Publish(context.Background(), SnapshotChannel, "x"))
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	cache := NewCache(client, "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))
	assert.NoError(t, cache.SetMany(ctx, map[string]interface{}{"a": 1}, TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_SetGet(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client, "universe")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, UniverseKey("2026-01-09"), []int{1, 2}, TTLDaily))
	assert.True(t, mr.Exists("universe:cache:universe:2026-01-09"))

	var got []int
	found, err := cache.Get(ctx, UniverseKey("2026-01-09"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{1, 2}, got)

	mr.FastForward(25 * time.Hour)
	found, err = cache.Get(ctx, UniverseKey("2026-01-09"), &got)
	require.NoError(t, err)
	assert.False(t, found, "expired after TTL")
}

func TestCache_SetMany(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client, "universe")

	require.NoError(t, cache.SetMany(context.Background(), map[string]interface{}{
		LatestUniverseKey: []string{"A"},
		LatestVersionKey:  map[string]int64{"timestamp": 1},
	}, TTLWeek))

	v, err := mr.Get("universe:cache:" + LatestVersionKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":1}`, v)
}

func TestCache_GetOrSet(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewCache(client, "universe")
	ctx := context.Background()

	calls := 0
	load := func() (interface{}, error) {
		calls++
		return map[string]int{"count": 3}, nil
	}

	var out map[string]int
	require.NoError(t, cache.GetOrSet(ctx, "k", &out, TTLShort, load))
	require.NoError(t, cache.GetOrSet(ctx, "k", &out, TTLShort, load))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, out["count"])

	err := cache.GetOrSet(ctx, "other", &out, TTLShort, func() (interface{}, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
}

func TestClient_Publish(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	sub := client.Redis().Subscribe(ctx, SnapshotChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, SnapshotChannel, "2026-01-09"))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-09", msg.Payload)
}
