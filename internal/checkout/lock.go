package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/redis"
)

const defaultLockTTL = 30 * time.Second

// Locker serializes passes over one session. The returned release func is
// always safe to call.
type Locker interface {
	Acquire(ctx context.Context, sessionID string) (release func(context.Context) error, err error)
}

type lockRedis interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(sessionID string) string
}

// RedisLocker implements Locker using Redis SETNX + TTL.
type RedisLocker struct {
	client lockRedis
	ttl    time.Duration
}

// NewRedisLocker constructs a Redis-backed session locker.
func NewRedisLocker(client lockRedis, ttl time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl}, nil
}

// Acquire owns the session lock for the configured TTL or fails with a
// conflict when another pass holds it.
func (l *RedisLocker) Acquire(ctx context.Context, sessionID string) (func(context.Context) error, error) {
	key := l.client.LockKey(sessionID)
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("setnx: %w", err), "acquire session lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout session is busy")
	}
	return func(ctx context.Context) error {
		return l.release(ctx, key, owner)
	}, nil
}

// release frees the lock only if the owner value still matches.
func (l *RedisLocker) release(ctx context.Context, key, owner string) error {
	value, err := l.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != owner {
		return nil
	}
	if err := l.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}
