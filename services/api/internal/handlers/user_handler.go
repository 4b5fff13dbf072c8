package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/services"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/views"
	"go.uber.org/zap"
)

type UserHandler struct {
	logger  *zap.Logger
	service services.UserService
}

func NewUserHandler(logger *zap.Logger, svc services.UserService) *UserHandler {
	return &UserHandler{logger: logger, service: svc}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/users", h.CreateUser)
}

// CreateUser godoc
// @Summary      Register a user unless the email is already known
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      views.CreateUserRequest  true  "user"
// @Success      200      {object}  pkg.APIResponse
// @Failure      400      {object}  pkg.ErrorResponse
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	traceID := c.GetString(pkg.TraceId)

	var req views.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.AbortWithError(c, h.logger, pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid request body", err))
		return
	}

	inserted, err := h.service.CreateUser(c.Request.Context(), traceID, req)
	if err != nil {
		pkg.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"inserted": inserted,
		},
	})
}
