package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSlotStore keeps slots under "<prefix>:<session>:<name>" with a
// sliding TTL refreshed on every write.
type RedisSlotStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSlotStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisSlotStore {
	if prefix == "" {
		prefix = "slot"
	}
	return &RedisSlotStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisSlotStore) key(sessionID, name string) string {
	return s.prefix + ":" + sessionID + ":" + name
}

func (s *RedisSlotStore) Get(ctx context.Context, sessionID, name string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.key(sessionID, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *RedisSlotStore) Set(ctx context.Context, sessionID, name string, value []byte) error {
	return s.rdb.Set(ctx, s.key(sessionID, name), value, s.ttl).Err()
}

func (s *RedisSlotStore) Delete(ctx context.Context, sessionID, name string) error {
	return s.rdb.Del(ctx, s.key(sessionID, name)).Err()
}
