package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tandemflight-backend/pkg/config"
)

func TestSetNXClaimsKeyOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeStore()}
	key := client.IdempotencyKey("notification", "evt-1")

	first, err := client.SetNX(ctx, key, "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := client.SetNX(ctx, key, "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestDelWithoutKeysIsNoop(t *testing.T) {
	store := newFakeStore()
	client := &Client{store: store}
	require.NoError(t, client.Del(context.Background()))
	assert.Zero(t, store.delCalls)
}

func TestIncrWithTTLStartsWindowOnce(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	client := &Client{store: store}

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, "tf:rl:x", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 1, store.expireCalls)
}

func TestPublishForwardsPayload(t *testing.T) {
	store := newFakeStore()
	client := &Client{store: store}

	require.NoError(t, client.Publish(context.Background(), "tf:bookings:changes", []byte(`{"version":2}`)))
	assert.Equal(t, []string{`{"version":2}`}, store.published["tf:bookings:changes"])
}

func TestZeroClientFailsFast(t *testing.T) {
	ctx := context.Background()
	client := &Client{}

	assert.ErrorIs(t, client.Ping(ctx), errNotInitialized)
	_, err := client.IncrWithTTL(ctx, "k", time.Second)
	assert.ErrorIs(t, err, errNotInitialized)
	_, _, err = client.Subscribe(ctx, "x")
	assert.ErrorIs(t, err, errNotInitialized)
	_, err = client.DeleteIfValue(ctx, "k", "v")
	assert.ErrorIs(t, err, errNotInitialized)
	assert.NoError(t, client.Close())
}

func TestKeyLayout(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("scope", "id"):      "tf:idempotency:scope:id",
		client.IdempotencyKey("scope", ""):        "tf:idempotency:scope",
		client.LockKey(" cron "):                  "tf:lock:cron",
		client.RateLimitKey("mutations:actor:a1"): "tf:rl:mutations:actor:a1",
	}
	for got, want := range cases {
		assert.Equal(t, want, got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", DB: 5, PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB, "db from the url wins")
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}

type fakeStore struct {
	data        map[string]string
	counters    map[string]int64
	published   map[string][]string
	expireCalls int
	delCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:      map[string]string{},
		counters:  map[string]int64{},
		published: map[string][]string{},
	}
}

func (f *fakeStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, taken := f.data[key]; taken {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.delCalls++
	for _, key := range keys {
		delete(f.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeStore) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	if b, ok := message.([]byte); ok {
		message = string(b)
	}
	f.published[channel] = append(f.published[channel], fmt.Sprint(message))
	return redis.NewIntResult(1, nil)
}

func (f *fakeStore) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeStore) Expire(context.Context, string, time.Duration) *redis.BoolCmd {
	f.expireCalls++
	return redis.NewBoolResult(true, nil)
}
