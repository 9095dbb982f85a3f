package repositories

import (
	"context"

	"garage/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// List returns users whose username or email contains query; an empty query lists everyone.
	List(ctx context.Context, query string) ([]models.User, error)
	// Delete removes the user together with its boxes and their items.
	Delete(ctx context.Context, id uint) error
}
