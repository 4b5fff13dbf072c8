package pkg

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDistributedLimiter_Unlimited(t *testing.T) {
	l := NewDistributedLimiter(nil, LimiterConfig{}, zap.NewNop())
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(context.Background(), "10.0.0.1"))
	}
}

func TestDistributedLimiter_LocalBurstExhausted(t *testing.T) {
	l := NewDistributedLimiter(nil, LimiterConfig{LocalRate: 1, LocalBurst: 2}, zap.NewNop())

	assert.True(t, l.Allow(context.Background(), "10.0.0.1"))
	assert.True(t, l.Allow(context.Background(), "10.0.0.1"))
	assert.False(t, l.Allow(context.Background(), "10.0.0.1"))
}

func TestDistributedLimiter_RedisDownFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewDistributedLimiter(client, LimiterConfig{
		Prefix:       "rl:test",
		LocalRate:    1,
		LocalBurst:   1,
		WindowLimit:  1,
		RedisTimeout: 100 * time.Millisecond,
	}, zap.NewNop())

	assert.True(t, l.Allow(context.Background(), "10.0.0.1"), "redis failure must not block traffic")
	assert.False(t, l.Allow(context.Background(), "10.0.0.1"), "local bucket still applies")
}
