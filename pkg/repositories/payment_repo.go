package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/database"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/models"
)

const paymentColumns = `id, transaction_id, session_id, amount, currency, customer_email, order_id, order_name, payment_status, tracking_id, paid_at`

type PaymentRepository interface {
	// FindByTransactionID reports found=false when no payment carries the transaction id.
	FindByTransactionID(ctx context.Context, q database.Querier, transactionID string) (models.Payment, bool, error)
	// InsertIfAbsent inserts the payment unless its transaction id is already recorded.
	// inserted=false means another request won the race; the returned payment is then empty.
	InsertIfAbsent(ctx context.Context, q database.Querier, payment models.Payment) (models.Payment, bool, error)
	// FindByEmail lists payments of a customer, most recent first.
	FindByEmail(ctx context.Context, q database.Querier, email string) ([]models.Payment, error)
}

type PaymentRepositoryImpl struct {
}

func NewPaymentRepository() PaymentRepository {
	return &PaymentRepositoryImpl{}
}

func (p PaymentRepositoryImpl) FindByTransactionID(ctx context.Context, q database.Querier, transactionID string) (models.Payment, bool, error) {
	row := q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID)
	payment, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Payment{}, false, nil
	}
	if err != nil {
		return models.Payment{}, false, err
	}
	return payment, true, nil
}

func (p PaymentRepositoryImpl) InsertIfAbsent(ctx context.Context, q database.Querier, payment models.Payment) (models.Payment, bool, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO payments (transaction_id, session_id, amount, currency, customer_email, order_id, order_name, payment_status, tracking_id, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (transaction_id) DO NOTHING
		RETURNING `+paymentColumns,
		payment.TransactionID,
		payment.SessionID,
		payment.Amount,
		payment.Currency,
		payment.CustomerEmail,
		payment.OrderID,
		payment.OrderName,
		payment.PaymentStatus,
		payment.TrackingID,
		payment.PaidAt,
	)
	inserted, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Payment{}, false, nil
	}
	if err != nil {
		return models.Payment{}, false, err
	}
	return inserted, true, nil
}

func (p PaymentRepositoryImpl) FindByEmail(ctx context.Context, q database.Querier, email string) ([]models.Payment, error) {
	rows, err := q.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE lower(customer_email) = lower($1) ORDER BY paid_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.TransactionID,
		&payment.SessionID,
		&payment.Amount,
		&payment.Currency,
		&payment.CustomerEmail,
		&payment.OrderID,
		&payment.OrderName,
		&payment.PaymentStatus,
		&payment.TrackingID,
		&payment.PaidAt,
	)
	return payment, err
}
