package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/services"
	"go.uber.org/zap"
)

type ProductHandler struct {
	logger  *zap.Logger
	service services.ProductService
}

func NewProductHandler(logger *zap.Logger, svc services.ProductService) *ProductHandler {
	return &ProductHandler{logger: logger, service: svc}
}

func (h *ProductHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
}

// ListProducts godoc
// @Summary      List catalogue products
// @Tags         products
// @Produce      json
// @Success      200  {array}  pkgviews.Product
// @Router       /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context(), c.GetString(pkg.TraceId))
	if err != nil {
		pkg.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct godoc
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "product id"
// @Success      200  {object}  pkgviews.Product
// @Failure      404  {object}  pkg.ErrorResponse
// @Router       /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.service.GetProduct(c.Request.Context(), c.GetString(pkg.TraceId), c.Param("id"))
	if err != nil {
		pkg.AbortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
