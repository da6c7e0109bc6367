// Package ratelimit counts attempts per key in fixed windows stored in redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rpupo63/rooms-blog-backend/config"
)

const (
	DefaultLimit  = 10
	DefaultWindow = time.Minute
)

// Limiter allows at most limit hits per key in each window. A nil *Limiter
// allows everything, which is what runs when no redis is configured.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// New connects to redisURL and pings it.
func New(redisURL, prefix string, limit int, window time.Duration) (*Limiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewWithClient(client, prefix, limit, window), nil
}

func NewWithClient(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

// FromConfig builds the join limiter from REDIS_URL, JOIN_RATE_LIMIT and
// JOIN_RATE_WINDOW_SECONDS. It returns nil when REDIS_URL is unset.
func FromConfig(cfg map[string]string) (*Limiter, error) {
	redisURL := config.GetString(cfg, "REDIS_URL", "")
	if redisURL == "" {
		return nil, nil
	}
	limit := config.GetInt(cfg, "JOIN_RATE_LIMIT", DefaultLimit)
	window := time.Duration(config.GetInt(cfg, "JOIN_RATE_WINDOW_SECONDS", int(DefaultWindow/time.Second))) * time.Second
	return New(redisURL, "ratelimit:join:", limit, window)
}

// Allow records a hit for key. When the window is full it returns false and
// how long until the window resets. On redis errors the hit is allowed and
// the error returned for logging.
//
// The counter and its TTL are read in one transaction. A counter found
// without a TTL gets the window set again, so a lost EXPIRE cannot leave a
// key that never resets.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l == nil || l.client == nil {
		return true, 0, nil
	}

	k := l.prefix + key
	var incr *redis.IntCmd
	var ttlCmd *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttlCmd = pipe.TTL(ctx, k)
		return nil
	})
	if err != nil {
		return true, 0, fmt.Errorf("increment %s: %w", k, err)
	}

	count := incr.Val()
	ttl := ttlCmd.Val()
	if ttl < 0 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return true, 0, fmt.Errorf("expire %s: %w", k, err)
		}
		ttl = l.window
	}
	if count <= l.limit {
		return true, 0, nil
	}
	return false, ttl, nil
}

// Reset clears the counter for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, l.prefix+key).Err()
}

func (l *Limiter) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}
