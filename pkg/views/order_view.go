package views

import (
	"time"

	"github.com/nimeshabuddhika/garmentix-payments/pkg"
)

type Order struct {
	ID            string            `json:"id"`
	Email         string            `json:"email"`
	Cost          float64           `json:"cost"`
	PaymentStatus pkg.PaymentStatus `json:"paymentStatus"`
	TrackingID    string            `json:"trackingId,omitempty"`
	Status        pkg.OrderStatus   `json:"status"`
	ProductID     string            `json:"productId"`
	ProductName   string            `json:"productName"`
	Quantity      int               `json:"quantity"`
	Details       map[string]any    `json:"details,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
