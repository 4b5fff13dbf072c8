package views

import (
	"github.com/nimeshabuddhika/garmentix-payments/pkg/repositories"
	pkgviews "github.com/nimeshabuddhika/garmentix-payments/pkg/views"
)

type CheckoutRequest struct {
	Cost        float64 `json:"cost" binding:"required,gt=0"` // major units
	ParcelName  string  `json:"parcelName" binding:"required"`
	ParcelID    string  `json:"parcelId" binding:"required"`
	SenderEmail string  `json:"senderEmail" binding:"required,email"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

// ReconcileResponse is the body of PATCH /payment-success. Unpaid sessions only carry success=false.
type ReconcileResponse struct {
	Success         bool                       `json:"success"`
	TrackingID      string                     `json:"trackingId,omitempty"`
	TransactionID   string                     `json:"transactionId,omitempty"`
	PaymentInfo     *pkgviews.Payment          `json:"paymentInfo,omitempty"`
	ModifiedParcel  *repositories.UpdateResult `json:"modifiedparcel,omitempty"`
	AlreadyRecorded bool                       `json:"alreadyRecorded,omitempty"`
}
