package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"go-restaurant-ordering/services"
)

// RedisIdempotencyStore keeps checkout Idempotency-Keys in redis. The lock
// key marks a request in flight; the map key holds the order it produced.
type RedisIdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisIdempotencyStore(rdb *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl}
}

func lockKey(scope, key string) string {
	return "idemp:checkout:" + scope + ":" + key
}

func mapKey(scope, key string) string {
	return "idemp:checkout:map:" + scope + ":" + key
}

func (s *RedisIdempotencyStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return s.rdb.SetNX(ctx, lockKey(scope, key), "1", s.ttl).Result()
}

func (s *RedisIdempotencyStore) Remember(ctx context.Context, scope, key, orderID string) error {
	return s.rdb.Set(ctx, mapKey(scope, key), orderID, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Recall(ctx context.Context, scope, key string) (string, error) {
	val, err := s.rdb.Get(ctx, mapKey(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", services.ErrKeyNotFound
	}
	return val, err
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, scope, key string) error {
	return s.rdb.Del(ctx, lockKey(scope, key)).Err()
}

var _ services.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// Open connects to redis and pings it.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
