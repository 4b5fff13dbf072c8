package views

import "github.com/nimeshabuddhika/garmentix-payments/pkg"

type CreateOrderRequest struct {
	Email       string         `json:"email" binding:"required,email"`
	Cost        float64        `json:"cost" binding:"required,gt=0"`
	ProductID   string         `json:"productId"`
	ProductName string         `json:"productName" binding:"required"`
	Quantity    int            `json:"quantity" binding:"omitempty,min=1"`
	Details     map[string]any `json:"details"`
}

type UpdateOrderStatusRequest struct {
	Status pkg.OrderStatus `json:"status" binding:"required,oneof=pending shipped delivered cancelled"`
}
