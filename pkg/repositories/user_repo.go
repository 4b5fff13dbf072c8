package repositories

import (
	"context"

	"github.com/nimeshabuddhika/garmentix-payments/pkg/database"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/models"
)

// UserRepository defines the interface for user repository.
type UserRepository interface {
	// CreateIfAbsent inserts the user unless the email is already registered.
	CreateIfAbsent(ctx context.Context, q database.Querier, user models.User) (bool, error)
}

type UserRepositoryImpl struct {
}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (u UserRepositoryImpl) CreateIfAbsent(ctx context.Context, q database.Querier, user models.User) (bool, error) {
	role := user.Role
	if role == "" {
		role = "customer"
	}
	tag, err := q.Exec(ctx, `INSERT INTO users (email, name, photo_url, role)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (email) DO NOTHING`,
		user.Email,
		user.Name,
		user.PhotoURL,
		role,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
