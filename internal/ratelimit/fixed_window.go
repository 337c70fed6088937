// Package ratelimit implements a Redis-backed fixed-window request limiter.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

const defaultPrefix = "nightingale:ratelimit"

// Options configure a FixedWindow limiter.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Limit    int
	Window   time.Duration
}

// FixedWindow allows Limit requests per key per Window. Counters live in
// Redis so several processes share one quota.
type FixedWindow struct {
	limit  int
	window time.Duration
	prefix string
	client *redis.Client
}

// New builds a limiter. It does not contact Redis; call Ping to check
// connectivity.
func New(opts Options) (*FixedWindow, error) {
	if opts.Limit <= 0 || opts.Window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &FixedWindow{
		limit:  opts.Limit,
		window: opts.Window,
		prefix: prefix,
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}, nil
}

// Ping checks that Redis is reachable.
func (l *FixedWindow) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Allow counts one request for key and reports whether it is within quota.
// Redis failures are returned with allowed=false; callers decide whether to
// fail open or closed.
func (l *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	slot := time.Now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)
	n, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return n <= int64(l.limit), nil
}

// Limit is the number of requests allowed per window.
func (l *FixedWindow) Limit() int { return l.limit }

// Window is the length of one counting window.
func (l *FixedWindow) Window() time.Duration { return l.window }

func (l *FixedWindow) Close() error { return l.client.Close() }
