package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/auth"
	middleware "github.com/nimeshabuddhika/garmentix-payments/pkg/middlewares"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/services"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/views"
	"go.uber.org/zap"
)

type OrderHandler struct {
	logger  *zap.Logger
	service services.OrderService
}

func NewOrderHandler(logger *zap.Logger, svc services.OrderService) *OrderHandler {
	return &OrderHandler{logger: logger, service: svc}
}

// RegisterRoutes registers order routes on the provided group. Everything except creation requires auth.
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	r.POST("/orders", h.CreateOrder)

	owned := r.Group("/orders", requireAuth)
	owned.GET("", h.ListOrders)
	owned.GET("/:id", h.GetOrder)
	owned.PATCH("/:id/status", h.UpdateStatus)
	owned.DELETE("/:id", h.DeleteOrder)
}

// CreateOrder godoc
// @Summary      Create an unpaid order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request  body      views.CreateOrderRequest  true  "order"
// @Success      201      {object}  pkg.APIResponse
// @Failure      400      {object}  pkg.ErrorResponse
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	traceID := c.GetString(pkg.TraceId)

	var req views.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.AbortWithError(c, h.logger, pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid request body", err))
		return
	}

	orderID, err := h.service.CreateOrder(c.Request.Context(), traceID, req)
	if err != nil {
		pkg.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"orderId": orderID,
		},
	})
}

// ListOrders godoc
// @Summary      List the caller's orders, newest first
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        email  query     string  true  "customer email"
// @Success      200    {array}   pkgviews.Order
// @Failure      401    {object}  pkg.ErrorResponse
// @Failure      403    {object}  pkg.ErrorResponse
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	orders, err := h.service.ListOrders(c.Request.Context(), c.GetString(pkg.TraceId), identity, c.Query("email"))
	if err != nil {
		pkg.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder godoc
// @Summary      Get one of the caller's orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "order id"
// @Success      200  {object}  pkgviews.Order
// @Failure      401  {object}  pkg.ErrorResponse
// @Failure      403  {object}  pkg.ErrorResponse
// @Failure      404  {object}  pkg.ErrorResponse
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	order, err := h.service.GetOrder(c.Request.Context(), c.GetString(pkg.TraceId), identity, c.Param("id"))
	if err != nil {
		pkg.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateStatus godoc
// @Summary      Update the fulfilment status of an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "order id"
// @Param        request  body      views.UpdateOrderStatusRequest  true  "new status"
// @Success      200      {object}  pkg.APIResponse
// @Failure      400      {object}  pkg.ErrorResponse
// @Failure      401      {object}  pkg.ErrorResponse
// @Failure      403      {object}  pkg.ErrorResponse
// @Failure      404      {object}  pkg.ErrorResponse
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	var req views.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.AbortWithError(c, h.logger, pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid request body", err))
		return
	}

	traceID := c.GetString(pkg.TraceId)
	res, err := h.service.UpdateStatus(c.Request.Context(), traceID, identity, c.Param("id"), req.Status)
	if err != nil {
		pkg.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"matchedCount":  res.MatchedCount,
			"modifiedCount": res.ModifiedCount,
		},
	})
}

// DeleteOrder godoc
// @Summary      Delete an unpaid order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "order id"
// @Success      200  {object}  pkg.APIResponse
// @Failure      401  {object}  pkg.ErrorResponse
// @Failure      403  {object}  pkg.ErrorResponse
// @Failure      404  {object}  pkg.ErrorResponse
// @Failure      409  {object}  pkg.ErrorResponse
// @Router       /orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	traceID := c.GetString(pkg.TraceId)
	deleted, err := h.service.DeleteOrder(c.Request.Context(), traceID, identity, c.Param("id"))
	if err != nil {
		pkg.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pkg.APIResponse{
		TraceID: traceID,
		Data: map[string]interface{}{
			"deletedCount": deleted,
		},
	})
}

func (h *OrderHandler) identity(c *gin.Context) (auth.Identity, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		pkg.AbortWithError(c, h.logger, pkg.NewAppError(pkg.ErrUnauthorizedCode, "unauthorized access", nil))
	}
	return identity, ok
}
