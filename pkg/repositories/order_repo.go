package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/database"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/models"
)

const orderColumns = `id, email, cost, payment_status, tracking_id, status, product_id, product_name, quantity, details, created_at, updated_at`

type OrderRepository interface {
	// Create inserts a new order and returns the store-assigned id.
	Create(ctx context.Context, q database.Querier, order models.Order) (uuid.UUID, error)
	// FindByID returns pgx.ErrNoRows when the order does not exist.
	FindByID(ctx context.Context, q database.Querier, id uuid.UUID) (models.Order, error)
	// FindByIDForUpdate row-locks the order until the surrounding transaction ends. q must be a pgx.Tx on the primary.
	FindByIDForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (models.Order, error)
	// FindByEmail lists orders of a customer, newest first.
	FindByEmail(ctx context.Context, q database.Querier, email string) ([]models.Order, error)
	// MarkPaid sets payment status and tracking id unless the order is already paid.
	MarkPaid(ctx context.Context, q database.Querier, id uuid.UUID, trackingID string) (UpdateResult, error)
	UpdateStatus(ctx context.Context, q database.Querier, id uuid.UUID, status pkg.OrderStatus) (UpdateResult, error)
	Delete(ctx context.Context, q database.Querier, id uuid.UUID) (int64, error)
}

type OrderRepositoryImpl struct {
}

func NewOrderRepository() OrderRepository {
	return &OrderRepositoryImpl{}
}

func (o OrderRepositoryImpl) Create(ctx context.Context, q database.Querier, order models.Order) (uuid.UUID, error) {
	details := order.Details
	if details == nil {
		details = map[string]any{}
	}
	var id uuid.UUID
	err := q.QueryRow(ctx, `
		INSERT INTO orders (email, cost, payment_status, status, product_id, product_name, quantity, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		order.Email,
		order.Cost,
		pkg.PaymentStatusUnpaid,
		order.Status,
		order.ProductID,
		order.ProductName,
		order.Quantity,
		details,
	).Scan(&id)
	return id, err
}

func (o OrderRepositoryImpl) FindByID(ctx context.Context, q database.Querier, id uuid.UUID) (models.Order, error) {
	row := q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (o OrderRepositoryImpl) FindByIDForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (models.Order, error) {
	row := q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	return scanOrder(row)
}

func (o OrderRepositoryImpl) FindByEmail(ctx context.Context, q database.Querier, email string) ([]models.Order, error) {
	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE lower(email) = lower($1) ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (o OrderRepositoryImpl) MarkPaid(ctx context.Context, q database.Querier, id uuid.UUID, trackingID string) (UpdateResult, error) {
	var res UpdateResult
	err := q.QueryRow(ctx, `
		WITH target AS (
			SELECT id, payment_status FROM orders WHERE id = $1 FOR UPDATE
		), updated AS (
			UPDATE orders o
			SET payment_status = $3, tracking_id = $2, updated_at = NOW()
			FROM target t
			WHERE o.id = t.id AND t.payment_status <> $3
			RETURNING o.id
		)
		SELECT (SELECT COUNT(*) FROM target), (SELECT COUNT(*) FROM updated)`,
		id, trackingID, pkg.PaymentStatusPaid,
	).Scan(&res.MatchedCount, &res.ModifiedCount)
	return res, err
}

func (o OrderRepositoryImpl) UpdateStatus(ctx context.Context, q database.Querier, id uuid.UUID, status pkg.OrderStatus) (UpdateResult, error) {
	var res UpdateResult
	err := q.QueryRow(ctx, `
		WITH target AS (
			SELECT id, status FROM orders WHERE id = $1 FOR UPDATE
		), updated AS (
			UPDATE orders o
			SET status = $2, updated_at = NOW()
			FROM target t
			WHERE o.id = t.id AND t.status <> $2
			RETURNING o.id
		)
		SELECT (SELECT COUNT(*) FROM target), (SELECT COUNT(*) FROM updated)`,
		id, status,
	).Scan(&res.MatchedCount, &res.ModifiedCount)
	return res, err
}

func (o OrderRepositoryImpl) Delete(ctx context.Context, q database.Querier, id uuid.UUID) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.Email,
		&order.Cost,
		&order.PaymentStatus,
		&order.TrackingID,
		&order.Status,
		&order.ProductID,
		&order.ProductName,
		&order.Quantity,
		&order.Details,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	return order, err
}
