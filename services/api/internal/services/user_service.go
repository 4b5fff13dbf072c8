package services

import (
	"context"
	"strings"

	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/models"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/repositories"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/internal/views"
	"go.uber.org/zap"
)

type UserService interface {
	// CreateUser registers the user unless the email exists and reports whether a row was inserted.
	CreateUser(ctx context.Context, traceID string, req views.CreateUserRequest) (bool, error)
}

type UserServiceImpl struct {
	logger   *zap.Logger
	store    Store
	userRepo repositories.UserRepository
}

func NewUserService(logger *zap.Logger, store Store, userRepo repositories.UserRepository) UserService {
	return &UserServiceImpl{logger: logger, store: store, userRepo: userRepo}
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, traceID string, req views.CreateUserRequest) (bool, error) {
	inserted, err := s.userRepo.CreateIfAbsent(ctx, s.store, models.User{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		return false, pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("user_registration", zap.String(pkg.TraceId, traceID), zap.Bool("inserted", inserted))
	return inserted, nil
}
