// Package ratelimit counts attempts per key in fixed windows.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter shared by every server instance that
// points at the same Redis.
type Redis struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Limit    int
	Window   time.Duration
}

// NewRedis connects and pings. The caller owns Close.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("ratelimit: redis addr is required")
	}
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return nil, errors.New("ratelimit: limit and window must be positive")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ratelimit: connect to redis: %w", err)
	}

	return &Redis{
		client: client,
		prefix: cfg.Prefix,
		limit:  int64(cfg.Limit),
		window: cfg.Window,
	}, nil
}

// Allow counts one attempt for key and reports whether it is within the
// limit. The window starts at the first attempt and is not extended by
// later ones. A counter left without a TTL gets one on the next call.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := r.prefix + key

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.TTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit: incr: %w", err)
	}

	// TTL is negative when the key has no expiry, which is the case right
	// after the first INCR of a window.
	if ttl.Val() < 0 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit: expire: %w", err)
		}
	}
	return incr.Val() <= r.limit, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
