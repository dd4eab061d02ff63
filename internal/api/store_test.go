package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryStoreLazyExpiry(t *testing.T) {
	clk := newClock()
	s := NewMemoryStore().WithClock(clk.now)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Second))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	clk.advance(time.Second)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(), "expired entry removed on read")
}

func TestMemoryStoreSweep(t *testing.T) {
	clk := newClock()
	s := NewMemoryStore().WithClock(clk.now)
	ctx := context.Background()

	_ = s.Set(ctx, "short", []byte("1"), time.Second)
	_ = s.Set(ctx, "short2", []byte("2"), 2*time.Second)
	_ = s.Set(ctx, "long", []byte("3"), time.Hour)
	clk.advance(5 * time.Second)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.Sweep())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.Sweep())
}

func TestMemoryStoreRunSweeperStops(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunSweeper(ctx, time.Millisecond, zap.NewNop())
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "market/list/bid{}", []byte(`{"bids":[]}`), 10*time.Second))
	v, ok, err := s.Get(ctx, "market/list/bid{}")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"bids":[]}`, string(v))
	assert.True(t, mr.Exists("dexcore:cache:market/list/bid{}"))

	mr.FastForward(11 * time.Second)
	_, ok, err = s.Get(ctx, "market/list/bid{}")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreErrorFallsThroughCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	cache := NewCache(NewRedisStore(client), zap.NewNop())
	raw, err := cache.Call(context.Background(), func(context.Context, string, map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`1`), nil
	}, "e", nil, time.Minute)

	require.NoError(t, err)
	assert.Equal(t, "1", string(raw))
}
