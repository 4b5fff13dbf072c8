package views

import (
	"time"

	"github.com/nimeshabuddhika/garmentix-payments/pkg"
)

type Payment struct {
	ID            string            `json:"id"`
	TransactionID string            `json:"transactionId"`
	SessionID     string            `json:"sessionId"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customerEmail"`
	OrderID       string            `json:"orderId"`
	OrderName     string            `json:"orderName"`
	PaymentStatus pkg.PaymentStatus `json:"paymentStatus"`
	TrackingID    string            `json:"trackingId"`
	PaidAt        time.Time         `json:"paidAt"`
}

// PaymentRecordedEvent is the Kafka payload for pkg.EventPaymentRecorded.
type PaymentRecordedEvent struct {
	EventType     string    `json:"eventType"`
	TransactionID string    `json:"transactionId"`
	OrderID       string    `json:"orderId"`
	TrackingID    string    `json:"trackingId"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	CustomerEmail string    `json:"customerEmail"`
	PaidAt        time.Time `json:"paidAt"`
}
