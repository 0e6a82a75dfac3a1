package http

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/event-gallery/internal/config"
	apperrors "github.com/spec-kit/event-gallery/pkg/util/errorutil"
)

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// BucketResult is the outcome of taking one token from a bucket.
type BucketResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Bucket takes a token from the bucket stored under key.
type Bucket interface {
	Take(ctx context.Context, key string, now time.Time) (BucketResult, error)
}

// RedisBucket runs the token bucket as a Lua script so concurrent replicas share state.
type RedisBucket struct {
	client redis.Scripter
	cfg    config.RateLimitConfig
}

// NewRedisBucket returns a bucket backed by client.
func NewRedisBucket(client redis.Scripter, cfg config.RateLimitConfig) *RedisBucket {
	return &RedisBucket{client: client, cfg: cfg}
}

// Take implements Bucket.
func (b *RedisBucket) Take(ctx context.Context, key string, now time.Time) (BucketResult, error) {
	ttl := int64(b.cfg.TTL / time.Second)
	if ttl <= 0 {
		ttl = 60
	}
	vals, err := tokenBucketScript.Run(ctx, b.client, []string{key},
		now.UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		ttl,
	).Int64Slice()
	if err != nil {
		return BucketResult{}, err
	}
	if len(vals) != 3 {
		return BucketResult{}, fmt.Errorf("unexpected token bucket result %v", vals)
	}
	return BucketResult{
		Allowed:    vals[0] == 1,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// RateLimit limits requests per client IP and route. A nil bucket or a disabled config
// lets everything through, and a bucket error fails open.
func RateLimit(cfg config.RateLimitConfig, bucket Bucket, logger *zap.Logger) fiber.Handler {
	if !cfg.Enabled || bucket == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		key := rateKey(cfg.Prefix, c)
		result, err := bucket.Take(c.UserContext(), key, time.Now())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		if !result.Allowed {
			secs := int(math.Ceil(result.RetryAfter.Seconds()))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			logger.Debug("rate limited", zap.String("key", key))
			return apperrors.NewTooManyRequests(secs)
		}
		return c.Next()
	}
}

func rateKey(prefix string, c *fiber.Ctx) string {
	ip := c.IP()
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{prefix, "ip", ip, "route", c.Method() + " " + c.Path()}, ":")
}
