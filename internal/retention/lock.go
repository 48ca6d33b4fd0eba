package retention

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultLockTTL = 30 * time.Minute

// Lock serializes sweeps. Acquire reports false when another run holds it.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// redisStore is the subset of *redis.Client used by RedisLock.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisLock serializes sweeps across instances with SETNX and a TTL.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	owner string
}

func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.mu.Lock()
		l.owner = owner
		l.mu.Unlock()
	}
	return ok, nil
}

// Release deletes the key only while this instance still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner == "" {
		return nil
	}
	value, err := l.client.Get(ctx, l.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			l.owner = ""
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		l.owner = ""
		return nil
	}
	if err := l.client.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}

// LocalLock serializes sweeps inside one process.
type LocalLock struct {
	mu sync.Mutex
}

func (l *LocalLock) Acquire(context.Context) (bool, error) { return l.mu.TryLock(), nil }

func (l *LocalLock) Release(context.Context) error {
	l.mu.Unlock()
	return nil
}

// FallbackLock prefers the shared lock and drops to a process-local lock whenever the
// shared one errors, so an unreachable Redis degrades to per-instance serialization.
type FallbackLock struct {
	shared Lock
	local  LocalLock
	logger *logrus.Logger

	mu   sync.Mutex
	held Lock
}

func NewFallbackLock(shared Lock, logger *logrus.Logger) *FallbackLock {
	return &FallbackLock{shared: shared, logger: logger}
}

func (l *FallbackLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.shared.Acquire(ctx)
	if err != nil {
		if l.logger != nil {
			l.logger.WithError(err).Warn("shared retention lock unavailable; using local lock")
		}
		ok, _ = l.local.Acquire(ctx)
		if ok {
			l.setHeld(&l.local)
		}
		return ok, nil
	}
	if ok {
		l.setHeld(l.shared)
	}
	return ok, nil
}

func (l *FallbackLock) Release(ctx context.Context) error {
	l.mu.Lock()
	held := l.held
	l.held = nil
	l.mu.Unlock()
	if held == nil {
		return nil
	}
	return held.Release(ctx)
}

func (l *FallbackLock) setHeld(lock Lock) {
	l.mu.Lock()
	l.held = lock
	l.mu.Unlock()
}
