package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.uber.org/zap"
)

type StripeConfig struct {
	SecretKey string
	SiteURL   string // storefront origin used for redirect URLs
	Currency  string
	APIURL    string // optional override of the Stripe API base URL
}

type StripeGateway struct {
	logger   *zap.Logger
	sessions *session.Client
	siteURL  string
	currency string
}

var _ Gateway = (*StripeGateway)(nil)

// NewStripeGateway builds a gateway whose API calls go through httpClient.
func NewStripeGateway(logger *zap.Logger, cfg StripeConfig, httpClient *http.Client) *StripeGateway {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeGateway{
		logger: logger,
		sessions: &session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		siteURL:  strings.TrimRight(cfg.SiteURL, "/"),
		currency: currency,
	}
}

func (g *StripeGateway) CreateSession(ctx context.Context, in CreateSessionInput) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(in.Email),
		SuccessURL:    stripe.String(g.siteURL + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(g.siteURL + "/dashboard/payment-cancelled"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(ToMinorUnits(in.Cost)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.Name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataOrderID, in.OrderID)
	params.AddMetadata(MetadataOrderName, in.Name)

	s, err := g.sessions.New(params)
	if err != nil {
		return "", g.mapError("stripe_create_session_failed", err)
	}
	g.logger.Debug("stripe_session_created", zap.String("session_id", s.ID), zap.String("order_id", in.OrderID))
	return s.URL, nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(sessionID, params)
	if err != nil {
		return Session{}, g.mapError("stripe_retrieve_session_failed", err)
	}
	return toSession(s), nil
}

func (g *StripeGateway) mapError(event string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) &&
		(stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing) {
		g.logger.Warn(event, zap.String("code", string(stripeErr.Code)), zap.Error(err))
		return fmt.Errorf("%w: %s", ErrSessionNotFound, stripeErr.Msg)
	}
	g.logger.Error(event, zap.Error(err))
	return fmt.Errorf("%w: %w", ErrGateway, err)
}

func toSession(s *stripe.CheckoutSession) Session {
	out := Session{
		ID:            s.ID,
		PaymentStatus: PaymentStatusOther,
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		CustomerEmail: s.CustomerEmail,
		URL:           s.URL,
	}
	switch s.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid:
		out.PaymentStatus = PaymentStatusPaid
	case stripe.CheckoutSessionPaymentStatusUnpaid:
		out.PaymentStatus = PaymentStatusUnpaid
	}
	if s.PaymentIntent != nil {
		out.TransactionID = s.PaymentIntent.ID
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if s.Metadata != nil {
		out.OrderID = s.Metadata[MetadataOrderID]
		out.OrderName = s.Metadata[MetadataOrderName]
	}
	return out
}
