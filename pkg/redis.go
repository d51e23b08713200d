package pkg

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 5 * time.Second

// RedisCache stores JSON values under a common key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (slf *RedisCache) key(k string) string {
	return slf.prefix + k
}

// Set stores a value in Redis with a TTL. The value is JSON-serialized.
func (slf *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return slf.client.Set(ctx, slf.key(key), data, ttl).Err()
}

// Get JSON-deserializes the value stored under key into dest.
// A missing key reports false with a nil error.
func (slf *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := slf.client.Get(ctx, slf.key(key)).Bytes()
	if IsRedisNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, json.Unmarshal(data, dest)
}

// Delete removes a key from Redis.
func (slf *RedisCache) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	return slf.client.Del(ctx, slf.key(key)).Err()
}

// IsRedisNil returns true if the error is a redis key-not-found error.
func IsRedisNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
