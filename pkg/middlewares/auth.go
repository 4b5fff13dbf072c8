package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/auth"
	"go.uber.org/zap"
)

// Auth verifies the caller's token (Authorization header or token cookie) and stores the auth.Identity under pkg.Identity.
func Auth(logger *zap.Logger, verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.TokenFromRequest(c.Request)
		if err == nil {
			var identity auth.Identity
			identity, err = verifier.Verify(c.Request.Context(), token)
			if err == nil {
				c.Set(pkg.Identity, identity)
				c.Next()
				return
			}
		}

		msg := "invalid token"
		if errors.Is(err, auth.ErrMissingToken) {
			msg = "missing token"
		}
		pkg.AbortWithError(c, logger, pkg.NewAppError(pkg.ErrUnauthorizedCode, msg, err))
	}
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(pkg.Identity)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}
