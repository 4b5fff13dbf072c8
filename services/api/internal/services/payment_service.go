package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/auth"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/gateway"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/models"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/repositories"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/tracking"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/utils"
	pkgviews "github.com/nimeshabuddhika/garmentix-payments/pkg/views"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/observability"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/views"
	"go.uber.org/zap"
)

type PaymentService interface {
	// CreateCheckoutSession returns the provider redirect URL for an order.
	CreateCheckoutSession(ctx context.Context, traceID string, req views.CheckoutRequest) (string, error)
	// Reconcile records the outcome of a completed checkout session exactly once per transaction id.
	Reconcile(ctx context.Context, traceID string, sessionID string) (views.ReconcileResponse, error)
	// ListPayments returns the payments of email, newest first, if identity owns that email.
	ListPayments(ctx context.Context, traceID string, identity auth.Identity, email string) ([]pkgviews.Payment, error)
}

type PaymentServiceImpl struct {
	logger      *zap.Logger
	store       Store
	gateway     gateway.Gateway
	tracking    *tracking.Generator
	orderRepo   repositories.OrderRepository
	paymentRepo repositories.PaymentRepository
	outboxRepo  repositories.OutboxRepository
	now         func() time.Time
}

func NewPaymentService(
	logger *zap.Logger,
	store Store,
	gw gateway.Gateway,
	trackingGen *tracking.Generator,
	orderRepo repositories.OrderRepository,
	paymentRepo repositories.PaymentRepository,
	outboxRepo repositories.OutboxRepository,
) PaymentService {
	return &PaymentServiceImpl{
		logger:      logger,
		store:       store,
		gateway:     gw,
		tracking:    trackingGen,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		outboxRepo:  outboxRepo,
		now:         time.Now,
	}
}

func (s *PaymentServiceImpl) CreateCheckoutSession(ctx context.Context, traceID string, req views.CheckoutRequest) (string, error) {
	// Legacy order ids are not UUIDs; those skip the paid check.
	if orderID, err := uuid.Parse(req.ParcelID); err == nil {
		order, err := s.orderRepo.FindByID(ctx, s.store, orderID)
		if err != nil {
			observability.CheckoutSessions.WithLabelValues("rejected").Inc()
			return "", pkg.HandleSQLError(traceID, s.logger, err)
		}
		if order.IsPaid() {
			observability.CheckoutSessions.WithLabelValues("rejected").Inc()
			return "", pkg.NewAppError(pkg.ErrOrderAlreadyPaidCode, "order "+req.ParcelID+" is already paid", nil)
		}
	}

	url, err := s.gateway.CreateSession(ctx, gateway.CreateSessionInput{
		Cost:    req.Cost,
		Name:    req.ParcelName,
		Email:   req.SenderEmail,
		OrderID: req.ParcelID,
	})
	if err != nil {
		observability.CheckoutSessions.WithLabelValues("gateway_error").Inc()
		return "", pkg.NewAppError(pkg.ErrGatewayCode, "failed to create checkout session", err)
	}
	observability.CheckoutSessions.WithLabelValues("created").Inc()
	s.logger.Info("checkout_session_created",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.OrderId, req.ParcelID),
		zap.Float64("cost", req.Cost))
	return url, nil
}

func (s *PaymentServiceImpl) Reconcile(ctx context.Context, traceID string, sessionID string) (views.ReconcileResponse, error) {
	start := time.Now()
	defer func() { observability.ReconcileLatency.Observe(time.Since(start).Seconds()) }()

	if utils.IsEmpty(sessionID) {
		observability.ReconcileOutcomes.WithLabelValues(observability.OutcomeInvalid).Inc()
		return views.ReconcileResponse{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "session_id is required", nil)
	}
	logger := s.logger.With(zap.String(pkg.TraceId, traceID), zap.String(pkg.SessionId, sessionID))

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gateway.ErrSessionNotFound) {
			observability.ReconcileOutcomes.WithLabelValues(observability.OutcomeNotFound).Inc()
			return views.ReconcileResponse{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode, "checkout session not found", err)
		}
		observability.ReconcileOutcomes.WithLabelValues(observability.OutcomeGatewayError).Inc()
		return views.ReconcileResponse{}, pkg.NewAppError(pkg.ErrGatewayCode, "failed to retrieve checkout session", err)
	}

	if session.TransactionID != "" {
		existing, found, err := s.paymentRepo.FindByTransactionID(ctx, s.store, session.TransactionID)
		if err != nil {
			observability.ReconcileOutcomes.WithLabelValues(observability.OutcomeStoreError).Inc()
			return views.ReconcileResponse{}, pkg.NewAppError(pkg.ErrStoreCode, "failed to look up payment", err)
		}
		if found {
			observability.ReconcileOutcomes.WithLabelValues(observability.OutcomeAlreadyRecorded).Inc()
			logger.Info("payment_already_recorded", zap.String(pkg.TransactionId, session.TransactionID))
			return alreadyRecorded(existing), nil
		}
	}

	if !session.IsPaid() {
		observability.ReconcileOutcomes.WithLabelValues(observability.OutcomeUnpaid).Inc()
		logger.Info("checkout_session_not_paid", zap.String("payment_status", string(session.PaymentStatus)))
		return views.ReconcileResponse{Success: false}, nil
	}
	if session.TransactionID == "" {
		observability.ReconcileOutcomes.WithLabelValues(observability.OutcomeGatewayError).Inc()
		return views.ReconcileResponse{}, pkg.NewAppError(pkg.ErrGatewayCode, "paid session has no payment intent", nil)
	}

	trackingID, err := s.tracking.Next()
	if err != nil {
		return views.ReconcileResponse{}, pkg.NewAppError(pkg.ErrServerCode, "failed to generate tracking id", err)
	}
	logger = logger.With(zap.String(pkg.TransactionId, session.TransactionID))

	resp, err := s.record(ctx, logger, session, trackingID)
	if err != nil {
		observability.ReconcileOutcomes.WithLabelValues(observability.OutcomeStoreError).Inc()
		return views.ReconcileResponse{}, pkg.NewAppError(pkg.ErrStoreCode, "failed to record payment", err)
	}
	if resp.AlreadyRecorded {
		observability.ReconcileOutcomes.WithLabelValues(observability.OutcomeAlreadyRecorded).Inc()
		logger.Info("payment_recorded_concurrently")
		return resp, nil
	}
	observability.ReconcileOutcomes.WithLabelValues(observability.OutcomeRecorded).Inc()
	return resp, nil
}

// record locks the order, inserts the payment, marks the order paid and queues the payment event in one transaction.
// An order already paid by another transaction lends its tracking id to the new payment.
// Every read here runs on tx so it sees the primary.
func (s *PaymentServiceImpl) record(ctx context.Context, logger *zap.Logger, session gateway.Session, trackingID string) (views.ReconcileResponse, error) {
	orderID, parseErr := uuid.Parse(session.OrderID)
	hasOrderID := parseErr == nil

	var resp views.ReconcileResponse
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		paymentTracking := trackingID
		if hasOrderID {
			order, err := s.orderRepo.FindByIDForUpdate(ctx, tx, orderID)
			switch {
			case errors.Is(err, pgx.ErrNoRows):
			case err != nil:
				return err
			case order.IsPaid() && order.TrackingID != nil:
				paymentTracking = *order.TrackingID
			}
		}

		payment := models.Payment{
			TransactionID: session.TransactionID,
			SessionID:     session.ID,
			Amount:        session.AmountMajor(),
			Currency:      session.Currency,
			CustomerEmail: session.CustomerEmail,
			OrderID:       session.OrderID,
			OrderName:     session.OrderName,
			PaymentStatus: pkg.PaymentStatusPaid,
			TrackingID:    paymentTracking,
			PaidAt:        s.now().UTC(),
		}
		inserted, ok, err := s.paymentRepo.InsertIfAbsent(ctx, tx, payment)
		if err != nil {
			return err
		}
		if !ok {
			// Lost the race: the winner has committed, nothing was written here.
			existing, found, err := s.paymentRepo.FindByTransactionID(ctx, tx, payment.TransactionID)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("payment %s conflicted on insert but is not readable", payment.TransactionID)
			}
			resp = alreadyRecorded(existing)
			return nil
		}

		var update repositories.UpdateResult
		if hasOrderID {
			if update, err = s.orderRepo.MarkPaid(ctx, tx, orderID, paymentTracking); err != nil {
				return err
			}
		}
		switch {
		case update.MatchedCount == 0:
			// The payment stays recorded; the order needs manual follow-up.
			observability.UnmatchedOrders.Inc()
			logger.Warn("payment_order_not_found", zap.String(pkg.OrderId, session.OrderID))
		case update.ModifiedCount == 0:
			logger.Warn("payment_order_already_paid",
				zap.String(pkg.OrderId, session.OrderID),
				zap.String("tracking_id", paymentTracking))
		}

		payload, err := json.Marshal(inserted.ToRecordedEvent())
		if err != nil {
			return err
		}
		if err = s.outboxRepo.Save(ctx, tx, models.OutboxEvent{
			EventType:   pkg.EventPaymentRecorded,
			AggregateID: inserted.TransactionID,
			Payload:     payload,
		}); err != nil {
			return err
		}

		paymentView := inserted.ToView()
		resp = views.ReconcileResponse{
			Success:        true,
			TrackingID:     inserted.TrackingID,
			TransactionID:  inserted.TransactionID,
			PaymentInfo:    &paymentView,
			ModifiedParcel: &update,
		}
		return nil
	})
	if err != nil {
		return views.ReconcileResponse{}, err
	}
	if !resp.AlreadyRecorded {
		logger.Info("payment_recorded",
			zap.String(pkg.OrderId, session.OrderID),
			zap.String("tracking_id", resp.TrackingID),
			zap.Int64("modified_count", resp.ModifiedParcel.ModifiedCount))
	}
	return resp, nil
}

func alreadyRecorded(p models.Payment) views.ReconcileResponse {
	paymentView := p.ToView()
	return views.ReconcileResponse{
		Success:         true,
		TrackingID:      p.TrackingID,
		TransactionID:   p.TransactionID,
		PaymentInfo:     &paymentView,
		AlreadyRecorded: true,
	}
}

func (s *PaymentServiceImpl) ListPayments(ctx context.Context, traceID string, identity auth.Identity, email string) ([]pkgviews.Payment, error) {
	if utils.IsEmpty(email) {
		return nil, pkg.NewAppError(pkg.ErrInvalidInputCode, "email is required", nil)
	}
	if !identity.Owns(email) {
		return nil, pkg.NewAppError(pkg.ErrForbiddenCode, "forbidden access", nil)
	}
	payments, err := s.paymentRepo.FindByEmail(ctx, s.store, email)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	out := make([]pkgviews.Payment, 0, len(payments))
	for _, p := range payments {
		out = append(out, p.ToView())
	}
	return out, nil
}
