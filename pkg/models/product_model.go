package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/views"
)

// Product maps to table `products`
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       float64
	ImageURL    string
	Stock       int
	CreatedAt   time.Time
}

func (p Product) ToView() views.Product {
	return views.Product{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}
