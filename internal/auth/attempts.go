package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter tracks failed logins per account key.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// RedisAttemptLimiter counts failures in Redis with a sliding expiry window.
type RedisAttemptLimiter struct {
	client redis.Cmdable
	max    int
	window time.Duration
	prefix string
}

// NewRedisAttemptLimiter builds a limiter. A non-positive max disables it.
func NewRedisAttemptLimiter(client redis.Cmdable, max int, window time.Duration) *RedisAttemptLimiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RedisAttemptLimiter{client: client, max: max, window: window, prefix: "login:failures:"}
}

// Allow reports whether key is still under the failure limit.
func (l *RedisAttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil || l.max <= 0 {
		return true, nil
	}
	count, err := l.client.Get(ctx, l.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return count < l.max, nil
}

// Fail records one failed attempt and starts the window on the first one.
func (l *RedisAttemptLimiter) Fail(ctx context.Context, key string) error {
	if l == nil || l.client == nil || l.max <= 0 {
		return nil
	}
	k := l.key(key)
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return l.client.Expire(ctx, k, l.window).Err()
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	if l == nil || l.client == nil || l.max <= 0 {
		return nil
	}
	return l.client.Del(ctx, l.key(key)).Err()
}

// key folds case even though login matches emails case-sensitively, so
// attempts against case variants of one address share a counter.
func (l *RedisAttemptLimiter) key(account string) string {
	return l.prefix + strings.ToLower(strings.TrimSpace(account))
}
