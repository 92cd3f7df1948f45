package users

import (
	"context"

	"github.com/aleksvolk/connectboard/internal/server/models"
)

// Repository stores the email to connected-account mappings.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByAccountID(ctx context.Context, accountID string) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
