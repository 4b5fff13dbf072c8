package pkg

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIResponse represents the structure of a standard API response.
type APIResponse struct {
	TraceID string                 `json:"traceId"` // unique identifier for the API request
	Data    map[string]interface{} `json:"data"`
}

// AbortWithError renders err as an ErrorResponse and stops the handler chain.
func AbortWithError(c *gin.Context, logger *zap.Logger, err error) {
	resp := ToErrorResponse(logger, c.GetString(TraceId), err)
	c.AbortWithStatusJSON(resp.Status, resp)
}
