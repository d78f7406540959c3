package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"blackyoga/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idempotency:"
	reservationKeyPrefix = "idempotency:pending:"
)

// RedisIdempotencyStore shares cached responses between API replicas.
// Lookups that fail are treated as misses so Redis outages never block writes.
type RedisIdempotencyStore struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedisIdempotencyStore(client redis.Cmdable, ttl time.Duration, log *logger.Logger) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl, log: log}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, bool) {
	raw, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("Idempotency lookup failed", "error", err)
		}
		return nil, false
	}

	var cached CachedResponse
	if err := json.Unmarshal(raw, &cached); err != nil {
		s.log.Warn("Discarding corrupt idempotency entry", "error", err)
		return nil, false
	}
	return &cached, true
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, response *CachedResponse) {
	response.CreatedAt = time.Now()
	raw, err := json.Marshal(response)
	if err != nil {
		s.log.Warn("Failed to encode idempotent response", "error", err)
		return
	}
	if err := s.client.Set(ctx, idempotencyKeyPrefix+key, raw, s.ttl).Err(); err != nil {
		s.log.Warn("Failed to store idempotent response", "error", err)
	}
	s.Release(ctx, key)
}

// Reserve takes the in-flight marker with SETNX. A Redis error grants the
// reservation.
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string) bool {
	ok, err := s.client.SetNX(ctx, reservationKeyPrefix+key, "1", ReservationTTL).Result()
	if err != nil {
		s.log.Warn("Idempotency reservation failed", "error", err)
		return true
	}
	return ok
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) {
	if err := s.client.Del(ctx, reservationKeyPrefix+key).Err(); err != nil {
		s.log.Warn("Failed to release idempotency reservation", "error", err)
	}
}

// Stop is a no-op; the Redis client is closed with the rest of the clients.
func (s *RedisIdempotencyStore) Stop() {}
