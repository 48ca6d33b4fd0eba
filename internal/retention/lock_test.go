package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	data map[string]string
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisLockExcludesSecondHolder(t *testing.T) {
	store := &fakeRedis{data: map[string]string{}}
	a, err := NewRedisLock(store, "uptrade:retention:lock", 0)
	require.NoError(t, err)
	b, err := NewRedisLock(store, "uptrade:retention:lock", 0)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// b never owned the key, so its release leaves a's hold intact
	require.NoError(t, b.Release(ctx))
	assert.Contains(t, store.data, "uptrade:retention:lock")

	require.NoError(t, a.Release(ctx))
	assert.NotContains(t, store.data, "uptrade:retention:lock")

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	store := &fakeRedis{data: map[string]string{}}
	l, err := NewRedisLock(store, "k", time.Minute)
	require.NoError(t, err)
	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	delete(store.data, "k")
	assert.NoError(t, l.Release(context.Background()))
}

func TestNewRedisLockValidation(t *testing.T) {
	_, err := NewRedisLock(nil, "k", 0)
	assert.Error(t, err)
	_, err = NewRedisLock(&fakeRedis{}, "", 0)
	assert.Error(t, err)
}

func TestLocalLock(t *testing.T) {
	var l LocalLock
	ok, _ := l.Acquire(context.Background())
	assert.True(t, ok)
	ok, _ = l.Acquire(context.Background())
	assert.False(t, ok)
	require.NoError(t, l.Release(context.Background()))
	ok, _ = l.Acquire(context.Background())
	assert.True(t, ok)
}

type brokenLock struct {
	acquires int
	released int
}

func (b *brokenLock) Acquire(context.Context) (bool, error) {
	b.acquires++
	return false, errors.New("dial tcp: connection refused")
}

func (b *brokenLock) Release(context.Context) error {
	b.released++
	return nil
}

func TestFallbackLockUsesLocalWhenSharedFails(t *testing.T) {
	ctx := context.Background()
	shared := &brokenLock{}
	lock := NewFallbackLock(shared, nil)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "local lock still held")

	require.NoError(t, lock.Release(ctx))
	assert.Zero(t, shared.released)

	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, 3, shared.acquires)
}

func TestFallbackLockPrefersShared(t *testing.T) {
	ctx := context.Background()
	store := &fakeRedis{data: map[string]string{}}
	shared, err := NewRedisLock(store, "k", time.Minute)
	require.NoError(t, err)
	lock := NewFallbackLock(shared, nil)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, store.data, "k")

	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx))
	assert.NotContains(t, store.data, "k")
	require.NoError(t, lock.Release(ctx))
}
