package middleware

import (
	"context"
	"encoding/json"
	"time"

	"gather/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const redisIdempotencyPrefix = "gather:idem:"

// RedisIdempotencyStore shares replayable responses between API instances.
// Store errors degrade to a cache miss.
type RedisIdempotencyStore struct {
	client  redis.UniversalClient
	ttl     time.Duration
	timeout time.Duration
	log     *logger.Logger
}

func NewRedisIdempotencyStore(client redis.UniversalClient, ttl time.Duration, log *logger.Logger) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		client:  client,
		ttl:     ttl,
		timeout: 500 * time.Millisecond,
		log:     log,
	}
}

func (s *RedisIdempotencyStore) Get(key string) (*CachedResponse, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, redisIdempotencyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("Idempotency lookup failed", "error", err)
		}
		return nil, false
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		s.log.Warn("Discarding unreadable idempotency entry", "error", err)
		return nil, false
	}
	return &cached, true
}

func (s *RedisIdempotencyStore) Set(key string, response *CachedResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	response.CreatedAt = time.Now()
	data, err := json.Marshal(response)
	if err != nil {
		s.log.Warn("Failed to encode idempotency entry", "error", err)
		return
	}
	if err := s.client.Set(ctx, redisIdempotencyPrefix+key, data, s.ttl).Err(); err != nil {
		s.log.Warn("Failed to store idempotency entry", "error", err)
	}
}

func (s *RedisIdempotencyStore) Stop() {}
