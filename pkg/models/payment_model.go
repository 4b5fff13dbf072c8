package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/views"
)

// Payment maps to table `payments`. Rows are never updated after insert.
type Payment struct {
	ID            uuid.UUID
	TransactionID string
	SessionID     string
	Amount        float64 // major units
	Currency      string
	CustomerEmail string
	OrderID       string
	OrderName     string
	PaymentStatus pkg.PaymentStatus
	TrackingID    string
	PaidAt        time.Time
}

func (p Payment) ToView() views.Payment {
	return views.Payment{
		ID:            p.ID.String(),
		TransactionID: p.TransactionID,
		SessionID:     p.SessionID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		CustomerEmail: p.CustomerEmail,
		OrderID:       p.OrderID,
		OrderName:     p.OrderName,
		PaymentStatus: p.PaymentStatus,
		TrackingID:    p.TrackingID,
		PaidAt:        p.PaidAt,
	}
}

// ToRecordedEvent builds the payload published once the payment is committed.
func (p Payment) ToRecordedEvent() views.PaymentRecordedEvent {
	return views.PaymentRecordedEvent{
		EventType:     pkg.EventPaymentRecorded,
		TransactionID: p.TransactionID,
		OrderID:       p.OrderID,
		TrackingID:    p.TrackingID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		CustomerEmail: p.CustomerEmail,
		PaidAt:        p.PaidAt,
	}
}
