package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/cache"
	testutil "github.com/nimeshabuddhika/garmentix-payments/pkg/utils/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDistributedLimiter_SharedWindow(t *testing.T) {
	addr := testutil.StartRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, closer, err := cache.New(ctx, zap.NewNop(), cache.Config{Addr: addr})
	require.NoError(t, err)
	defer closer()

	cfg := pkg.LimiterConfig{
		Prefix:      "rl:test",
		LocalRate:   1000,
		LocalBurst:  1000,
		WindowLimit: 3,
		Window:      time.Minute,
	}
	// two replicas share one redis window
	a := pkg.NewDistributedLimiter(client, cfg, zap.NewNop())
	b := pkg.NewDistributedLimiter(client, cfg, zap.NewNop())

	assert.True(t, a.Allow(ctx, "10.0.0.1"))
	assert.True(t, b.Allow(ctx, "10.0.0.1"))
	assert.True(t, a.Allow(ctx, "10.0.0.1"))
	assert.False(t, b.Allow(ctx, "10.0.0.1"))
	assert.True(t, a.Allow(ctx, "10.0.0.2"), "other clients keep their own window")
}

func TestNew_Unreachable(t *testing.T) {
	_, _, err := cache.New(context.Background(), zap.NewNop(), cache.Config{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	assert.Error(t, err)
}
