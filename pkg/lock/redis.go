package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultRedisPrefix   = "gather:lock:"
	DefaultRetryInterval = 25 * time.Millisecond
)

// Deletes the key only while it still holds our token, so an expired lease
// never releases a lock someone else has since acquired.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker shares exclusion boundaries across service instances using
// SET NX PX. The TTL bounds how long a crashed holder can block a key.
type RedisLocker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
	prefix        string
}

type RedisOption func(*RedisLocker)

func WithRetryInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.retryInterval = d
		}
	}
}

func WithPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) {
		l.prefix = prefix
	}
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: DefaultRetryInterval,
		prefix:        DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}

	var (
		once       sync.Once
		releaseErr error
	)
	return func(ctx context.Context) error {
		once.Do(func() {
			if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
				releaseErr = fmt.Errorf("failed to release lock %s: %w", key, err)
			}
		})
		return releaseErr
	}, nil
}
