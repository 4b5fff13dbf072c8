package pkg

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LimiterConfig configures a DistributedLimiter.
type LimiterConfig struct {
	Prefix       string        // redis key prefix, e.g. "rl:checkout"
	LocalRate    int           // requests/sec admitted by this replica; 0 disables limiting
	LocalBurst   int           // local token bucket burst
	WindowLimit  int64         // max requests per client key per window across replicas
	Window       time.Duration // fixed window length
	RedisTimeout time.Duration // cap on the redis round trip
}

// DistributedLimiter combines a process-local token bucket with a per-client fixed window kept in Redis.
type DistributedLimiter struct {
	local       *rate.Limiter
	redisClient *redis.Client
	cfg         LimiterConfig
	logger      *zap.Logger
}

// NewDistributedLimiter creates a limiter; if LocalRate=0, it's unlimited.
func NewDistributedLimiter(redisClient *redis.Client, cfg LimiterConfig, logger *zap.Logger) *DistributedLimiter {
	var local *rate.Limiter
	if cfg.LocalRate > 0 {
		burst := cfg.LocalBurst
		if burst <= 0 {
			burst = cfg.LocalRate
		}
		local = rate.NewLimiter(rate.Limit(cfg.LocalRate), burst)
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.RedisTimeout <= 0 {
		cfg.RedisTimeout = 200 * time.Millisecond
	}
	return &DistributedLimiter{
		local:       local,
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger,
	}
}

// Allow reports whether the client identified by key may proceed.
// Redis failures fail open; the local bucket still applies.
func (d *DistributedLimiter) Allow(ctx context.Context, key string) bool {
	if d.local == nil {
		return true // Unlimited
	}

	// Local check first (fast path)
	if !d.local.Allow() {
		return false
	}
	if d.redisClient == nil || d.cfg.WindowLimit <= 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.RedisTimeout)
	defer cancel()

	windowKey := d.cfg.Prefix + ":" + key + ":" + time.Now().Truncate(d.cfg.Window).Format("20060102150405")
	pipe := d.redisClient.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, d.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		d.logger.Error("redis_rate_limit_error_falling_back_to_local", zap.Error(err))
		return true
	}

	if count := incr.Val(); count > d.cfg.WindowLimit {
		d.logger.Warn("rate_limit_exceeded", zap.String("client", key), zap.Int64("count", count))
		return false
	}
	return true
}
