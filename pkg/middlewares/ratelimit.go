package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"go.uber.org/zap"
)

// Limiter is satisfied by *pkg.DistributedLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimit rejects requests with 429 once the client IP exceeds the limiter budget.
func RateLimit(logger *zap.Logger, limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.Request.Context(), c.ClientIP()) {
			pkg.AbortWithError(c, logger, pkg.NewAppError(pkg.ErrRateLimitedCode, pkg.ErrRateLimitedCode.Message, nil))
			return
		}
		c.Next()
	}
}
