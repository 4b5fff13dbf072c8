package cache

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds Redis connection options. Zero values fall back to the defaults below.
type Config struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	UseTLS       bool
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
}

const (
	defaultDialTimeout  = 3 * time.Second
	defaultIOTimeout    = 2 * time.Second
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	defaultMaxRetries   = 3
)

// New returns a configured redis.Client and verifies connectivity with PING.
// The returned closer must be called during shutdown.
func New(ctx context.Context, logger *zap.Logger, cfg Config) (*redis.Client, func(), error) {
	opts := &redis.Options{
		Addr:            cfg.Addr,
		Username:        cfg.Username,
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     orDuration(cfg.DialTimeout, defaultDialTimeout),
		ReadTimeout:     orDuration(cfg.ReadTimeout, defaultIOTimeout),
		WriteTimeout:    orDuration(cfg.WriteTimeout, defaultIOTimeout),
		PoolSize:        orInt(cfg.PoolSize, defaultPoolSize),
		MinIdleConns:    orInt(cfg.MinIdleConns, defaultMinIdleConns),
		MaxRetries:      orInt(cfg.MaxRetries, defaultMaxRetries),
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("redis_client_initialized", zap.String("addr", cfg.Addr))

	closer := func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis_close_failed", zap.Error(err))
			return
		}
		logger.Info("redis_client_closed")
	}
	return client, closer, nil
}

func orDuration(v, d time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return d
}

func orInt(v, d int) int {
	if v > 0 {
		return v
	}
	return d
}
