package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "otp:pending:"

// consumeScript deletes the key only when its value equals the candidate,
// making check-and-consume a single atomic step on the Redis side.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRegistry stores pending codes in Redis so multiple instances can
// share one registry.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry builds a Redis-backed registry. ttl of zero stores codes
// without expiration.
func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

// Put stores code for principal, overwriting any outstanding entry.
func (r *RedisRegistry) Put(ctx context.Context, principal, code string) error {
	if err := r.client.Set(ctx, redisKeyPrefix+principal, code, r.ttl).Err(); err != nil {
		return fmt.Errorf("store pending code: %w", err)
	}
	return nil
}

// CheckAndConsume atomically compares and deletes the pending code.
func (r *RedisRegistry) CheckAndConsume(ctx context.Context, principal, candidate string) (bool, error) {
	n, err := consumeScript.Run(ctx, r.client, []string{redisKeyPrefix + principal}, candidate).Int()
	if err != nil {
		return false, fmt.Errorf("consume pending code: %w", err)
	}
	return n == 1, nil
}
