package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"backlog/internal/ports"
)

const (
	DefaultTTL       = 30 * time.Second
	DefaultRetry     = 50 * time.Millisecond
	defaultKeyPrefix = "backlog:lock:"
)

// release deletes the key only while it still holds our token
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis implements ports.Locker across processes sharing one Redis
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

var _ ports.Locker = (*Redis)(nil)

// NewRedis creates a locker from an existing client
func NewRedis(client *redis.Client, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    DefaultTTL,
		retry:  DefaultRetry,
		logger: logger,
	}
}

// NewRedisFromURL connects to redisURL and checks it is reachable
func NewRedisFromURL(redisURL string, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedis(client, logger), nil
}

// WithTTL sets how long a lock survives a holder that never releases it
func (r *Redis) WithTTL(ttl time.Duration) *Redis {
	r.ttl = ttl
	return r
}

// Lock polls SET NX until the key is acquired or ctx is done
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := uuid.NewString()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire %s: %w", k, err)
		}
		if ok {
			return r.unlocker(k, token), nil
		}
		timer.Reset(r.retry)
	}
}

func (r *Redis) unlocker(key, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		n, err := release.Run(ctx, r.client, []string{key}, token).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			r.logger.Warn("release lock failed", "key", key, "error", err)
			return
		}
		if n == 0 {
			r.logger.Warn("lock expired before release", "key", key)
		}
	}
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}
