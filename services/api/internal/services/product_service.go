package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/repositories"
	pkgviews "github.com/nimeshabuddhika/garmentix-payments/pkg/views"
	"go.uber.org/zap"
)

type ProductService interface {
	ListProducts(ctx context.Context, traceID string) ([]pkgviews.Product, error)
	GetProduct(ctx context.Context, traceID string, productID string) (pkgviews.Product, error)
}

type ProductServiceImpl struct {
	logger      *zap.Logger
	store       Store
	productRepo repositories.ProductRepository
}

func NewProductService(logger *zap.Logger, store Store, productRepo repositories.ProductRepository) ProductService {
	return &ProductServiceImpl{logger: logger, store: store, productRepo: productRepo}
}

func (s *ProductServiceImpl) ListProducts(ctx context.Context, traceID string) ([]pkgviews.Product, error) {
	products, err := s.productRepo.List(ctx, s.store)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	out := make([]pkgviews.Product, 0, len(products))
	for _, p := range products {
		out = append(out, p.ToView())
	}
	return out, nil
}

func (s *ProductServiceImpl) GetProduct(ctx context.Context, traceID string, productID string) (pkgviews.Product, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return pkgviews.Product{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode, "product not found", err)
	}
	product, err := s.productRepo.FindByID(ctx, s.store, id)
	if err != nil {
		return pkgviews.Product{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return product.ToView(), nil
}
