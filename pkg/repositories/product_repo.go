package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/database"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/models"
)

type ProductRepository interface {
	List(ctx context.Context, q database.Querier) ([]models.Product, error)
	FindByID(ctx context.Context, q database.Querier, id uuid.UUID) (models.Product, error)
	Create(ctx context.Context, q database.Querier, product models.Product) (uuid.UUID, error)
}

type ProductRepositoryImpl struct {
}

func NewProductRepository() ProductRepository {
	return &ProductRepositoryImpl{}
}

func (p ProductRepositoryImpl) List(ctx context.Context, q database.Querier) ([]models.Product, error) {
	rows, err := q.Query(ctx, `SELECT id, name, description, price, image_url, stock, created_at FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (p ProductRepositoryImpl) FindByID(ctx context.Context, q database.Querier, id uuid.UUID) (models.Product, error) {
	row := q.QueryRow(ctx, `SELECT id, name, description, price, image_url, stock, created_at FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// Create inserts a catalogue product. Only the seeder writes products.
func (p ProductRepositoryImpl) Create(ctx context.Context, q database.Querier, product models.Product) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(ctx,
		`INSERT INTO products (name, description, price, image_url, stock) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		product.Name, product.Description, product.Price, product.ImageURL, product.Stock,
	).Scan(&id)
	return id, err
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var product models.Product
	err := row.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.ImageURL, &product.Stock, &product.CreatedAt)
	return product, err
}
