package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	middleware "github.com/nimeshabuddhika/garmentix-payments/pkg/middlewares"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/services"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/views"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	logger  *zap.Logger
	service services.PaymentService
}

func NewPaymentHandler(logger *zap.Logger, svc services.PaymentService) *PaymentHandler {
	return &PaymentHandler{logger: logger, service: svc}
}

// RegisterRoutes registers payment routes. checkoutLimit guards session creation, requireAuth guards reads.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, checkoutLimit gin.HandlerFunc, requireAuth gin.HandlerFunc) {
	r.POST("/create-checkout-session", checkoutLimit, h.CreateCheckoutSession)
	r.PATCH("/payment-success", h.PaymentSuccess)
	r.GET("/payments", requireAuth, h.ListPayments)
}

// CreateCheckoutSession godoc
// @Summary      Create a hosted checkout session for an order
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request  body      views.CheckoutRequest  true  "checkout request"
// @Success      200      {object}  views.CheckoutResponse
// @Failure      400      {object}  pkg.ErrorResponse
// @Failure      404      {object}  pkg.ErrorResponse
// @Failure      409      {object}  pkg.ErrorResponse
// @Failure      429      {object}  pkg.ErrorResponse
// @Failure      502      {object}  pkg.ErrorResponse
// @Router       /create-checkout-session [post]
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	traceID := c.GetString(pkg.TraceId)

	var req views.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.AbortWithError(c, h.logger, pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid request body", err))
		return
	}

	url, err := h.service.CreateCheckoutSession(c.Request.Context(), traceID, req)
	if err != nil {
		pkg.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views.CheckoutResponse{URL: url})
}

// PaymentSuccess godoc
// @Summary      Reconcile a completed checkout session
// @Description  Records the payment and marks the order paid. Repeated calls for one session are idempotent.
// @Tags         payments
// @Produce      json
// @Param        session_id  query     string  true  "checkout session id"
// @Success      200         {object}  views.ReconcileResponse
// @Failure      400         {object}  pkg.ErrorResponse
// @Failure      404         {object}  pkg.ErrorResponse
// @Failure      500         {object}  pkg.ErrorResponse
// @Failure      502         {object}  pkg.ErrorResponse
// @Router       /payment-success [patch]
func (h *PaymentHandler) PaymentSuccess(c *gin.Context) {
	traceID := c.GetString(pkg.TraceId)

	resp, err := h.service.Reconcile(c.Request.Context(), traceID, c.Query("session_id"))
	if err != nil {
		pkg.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPayments godoc
// @Summary      List the caller's payments, newest first
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        email  query     string  true  "customer email"
// @Success      200    {array}   pkgviews.Payment
// @Failure      400    {object}  pkg.ErrorResponse
// @Failure      401    {object}  pkg.ErrorResponse
// @Failure      403    {object}  pkg.ErrorResponse
// @Router       /payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	traceID := c.GetString(pkg.TraceId)
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		pkg.AbortWithError(c, h.logger, pkg.NewAppError(pkg.ErrUnauthorizedCode, "unauthorized access", nil))
		return
	}

	payments, err := h.service.ListPayments(c.Request.Context(), traceID, identity, c.Query("email"))
	if err != nil {
		pkg.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}
