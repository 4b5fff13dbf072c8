package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/auth"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/database"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/models"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/repositories"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/utils"
	pkgviews "github.com/nimeshabuddhika/garmentix-payments/pkg/views"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/views"
	"go.uber.org/zap"
)

type OrderService interface {
	CreateOrder(ctx context.Context, traceID string, req views.CreateOrderRequest) (string, error)
	ListOrders(ctx context.Context, traceID string, identity auth.Identity, email string) ([]pkgviews.Order, error)
	GetOrder(ctx context.Context, traceID string, identity auth.Identity, orderID string) (pkgviews.Order, error)
	UpdateStatus(ctx context.Context, traceID string, identity auth.Identity, orderID string, status pkg.OrderStatus) (repositories.UpdateResult, error)
	DeleteOrder(ctx context.Context, traceID string, identity auth.Identity, orderID string) (int64, error)
}

type OrderServiceImpl struct {
	logger    *zap.Logger
	store     Store
	orderRepo repositories.OrderRepository
}

func NewOrderService(logger *zap.Logger, store Store, orderRepo repositories.OrderRepository) OrderService {
	return &OrderServiceImpl{
		logger:    logger,
		store:     store,
		orderRepo: orderRepo,
	}
}

func (s *OrderServiceImpl) CreateOrder(ctx context.Context, traceID string, req views.CreateOrderRequest) (string, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	// INSERT ... RETURNING goes through QueryRow, so it needs the writer transaction
	var id uuid.UUID
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		id, err = s.orderRepo.Create(ctx, tx, models.Order{
			Email:       req.Email,
			Cost:        req.Cost,
			Status:      pkg.OrderStatusPending,
			ProductID:   req.ProductID,
			ProductName: req.ProductName,
			Quantity:    quantity,
			Details:     req.Details,
		})
		return err
	})
	if err != nil {
		return "", pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("order_created",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.OrderId, id.String()),
		zap.Float64("cost", req.Cost))
	return id.String(), nil
}

func (s *OrderServiceImpl) ListOrders(ctx context.Context, traceID string, identity auth.Identity, email string) ([]pkgviews.Order, error) {
	if utils.IsEmpty(email) {
		return nil, pkg.NewAppError(pkg.ErrInvalidInputCode, "email is required", nil)
	}
	if !identity.Owns(email) {
		return nil, pkg.NewAppError(pkg.ErrForbiddenCode, "forbidden access", nil)
	}
	orders, err := s.orderRepo.FindByEmail(ctx, s.store, email)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	out := make([]pkgviews.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ToView())
	}
	return out, nil
}

func (s *OrderServiceImpl) GetOrder(ctx context.Context, traceID string, identity auth.Identity, orderID string) (pkgviews.Order, error) {
	order, err := s.ownedOrder(ctx, traceID, s.store, identity, orderID, s.orderRepo.FindByID)
	if err != nil {
		return pkgviews.Order{}, err
	}
	return order.ToView(), nil
}

func (s *OrderServiceImpl) UpdateStatus(ctx context.Context, traceID string, identity auth.Identity, orderID string, status pkg.OrderStatus) (repositories.UpdateResult, error) {
	var res repositories.UpdateResult
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		order, err := s.ownedOrder(ctx, traceID, tx, identity, orderID, s.orderRepo.FindByIDForUpdate)
		if err != nil {
			return err
		}
		res, err = s.orderRepo.UpdateStatus(ctx, tx, order.ID, status)
		if err != nil {
			return pkg.HandleSQLError(traceID, s.logger, err)
		}
		return nil
	})
	if err != nil {
		return repositories.UpdateResult{}, err
	}
	s.logger.Info("order_status_updated",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.OrderId, orderID),
		zap.String("status", string(status)),
		zap.Int64("modified_count", res.ModifiedCount))
	return res, nil
}

func (s *OrderServiceImpl) DeleteOrder(ctx context.Context, traceID string, identity auth.Identity, orderID string) (int64, error) {
	var deleted int64
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		order, err := s.ownedOrder(ctx, traceID, tx, identity, orderID, s.orderRepo.FindByIDForUpdate)
		if err != nil {
			return err
		}
		if order.IsPaid() {
			return pkg.NewAppError(pkg.ErrOrderAlreadyPaidCode, "paid orders cannot be deleted", nil)
		}
		deleted, err = s.orderRepo.Delete(ctx, tx, order.ID)
		if err != nil {
			return pkg.HandleSQLError(traceID, s.logger, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("order_deleted", zap.String(pkg.TraceId, traceID), zap.String(pkg.OrderId, orderID))
	return deleted, nil
}

// ownedOrder loads the order and checks that identity owns it. Malformed ids read as not found.
func (s *OrderServiceImpl) ownedOrder(
	ctx context.Context,
	traceID string,
	q database.Querier,
	identity auth.Identity,
	orderID string,
	find func(ctx context.Context, q database.Querier, id uuid.UUID) (models.Order, error),
) (models.Order, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return models.Order{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode, "order not found", err)
	}
	order, err := find(ctx, q, id)
	if err != nil {
		return models.Order{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if !identity.Owns(order.Email) {
		return models.Order{}, pkg.NewAppError(pkg.ErrForbiddenCode, "forbidden access", nil)
	}
	return order, nil
}
