// Package gateway wraps the hosted checkout provider behind a small interface.
package gateway

import (
	"context"
	"errors"
	"math"
)

var (
	// ErrSessionNotFound is returned when the provider does not know the session reference.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrGateway wraps any other provider or network failure.
	ErrGateway = errors.New("payment gateway error")
)

// PaymentStatus of a checkout session as reported by the provider.
type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusOther  PaymentStatus = "other"
)

const (
	MetadataOrderID   = "orderId"
	MetadataOrderName = "orderName"
)

// CreateSessionInput describes a one-item checkout. Cost is in major currency units.
type CreateSessionInput struct {
	Cost    float64
	Name    string
	Email   string
	OrderID string
}

// Session is the provider-owned checkout state, read-only for this service.
type Session struct {
	ID            string
	PaymentStatus PaymentStatus
	TransactionID string // payment intent id
	AmountTotal   int64  // minor units
	Currency      string
	CustomerEmail string
	OrderID       string
	OrderName     string
	URL           string
}

func (s Session) IsPaid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// AmountMajor converts AmountTotal back to major units.
func (s Session) AmountMajor() float64 {
	return float64(s.AmountTotal) / 100
}

// Gateway is implemented by StripeGateway. Calls are never retried.
type Gateway interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (string, error)
	RetrieveSession(ctx context.Context, sessionID string) (Session, error)
}

// ToMinorUnits rounds to the nearest cent so 19.99 becomes 1999, not 1998.
func ToMinorUnits(cost float64) int64 {
	return int64(math.Round(cost * 100))
}
