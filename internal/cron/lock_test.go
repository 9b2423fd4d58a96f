package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryRedis) DeleteIfValue(_ context.Context, key, value string) (bool, error) {
	if m.values[key] != value {
		return false, nil
	}
	delete(m.values, key)
	delete(m.ttls, key)
	return true, nil
}

func (m *memoryRedis) ExpireIfValue(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	if m.values[key] != value {
		return false, nil
	}
	m.ttls[key] = ttl
	return true, nil
}

func TestRedisLockIsExclusiveAndOwnerScoped(t *testing.T) {
	store := newMemoryRedis()
	first, err := NewRedisLock(store, "tf:lock:cron", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "tf:lock:cron", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Release(ctx))
	assert.Contains(t, store.values, "tf:lock:cron", "non-owner must not release")

	require.NoError(t, first.Release(ctx))
	assert.NotContains(t, store.values, "tf:lock:cron")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExtendRequiresOwnership(t *testing.T) {
	store := newMemoryRedis()
	lock, err := NewRedisLock(store, "tf:lock:cron", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, lock.Extend(ctx), ErrLockLost)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	store.ttls["tf:lock:cron"] = time.Second
	require.NoError(t, lock.Extend(ctx))
	assert.Equal(t, time.Minute, store.ttls["tf:lock:cron"])

	store.values["tf:lock:cron"] = "someone-else"
	assert.ErrorIs(t, lock.Extend(ctx), ErrLockLost)
	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, "someone-else", store.values["tf:lock:cron"])
}

func TestNewRedisLockDefaultsTTL(t *testing.T) {
	lock, err := NewRedisLock(newMemoryRedis(), "k", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)

	_, err = NewRedisLock(nil, "k", time.Second)
	assert.Error(t, err)
}
