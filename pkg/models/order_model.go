package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/views"
)

// Order maps to table `orders`
type Order struct {
	ID            uuid.UUID
	Email         string
	Cost          float64
	PaymentStatus pkg.PaymentStatus
	TrackingID    *string // nil until paid
	Status        pkg.OrderStatus
	ProductID     string
	ProductName   string
	Quantity      int
	Details       map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (o Order) IsPaid() bool {
	return o.PaymentStatus == pkg.PaymentStatusPaid
}

func (o Order) ToView() views.Order {
	v := views.Order{
		ID:            o.ID.String(),
		Email:         o.Email,
		Cost:          o.Cost,
		PaymentStatus: o.PaymentStatus,
		Status:        o.Status,
		ProductID:     o.ProductID,
		ProductName:   o.ProductName,
		Quantity:      o.Quantity,
		Details:       o.Details,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.TrackingID != nil {
		v.TrackingID = *o.TrackingID
	}
	return v
}
