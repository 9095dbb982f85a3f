package repositories

import (
	"context"

	"garage/internal/models"
)

// BoxRepository defines the interface for box data access. Boxes returned by
// the Get and List methods carry their items.
type BoxRepository interface {
	Create(ctx context.Context, box *models.Box) error
	Save(ctx context.Context, box *models.Box) error
	GetByID(ctx context.Context, id uint) (*models.Box, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Box, error)
	// Search matches name, location and description within one user's boxes.
	Search(ctx context.Context, userID uint, query string) ([]models.Box, error)
	// ListAll is the unscoped listing used by the admin back-office.
	ListAll(ctx context.Context, query string) ([]models.Box, error)
	// Delete removes the box and its items.
	Delete(ctx context.Context, id uint) error
	// Transaction runs fn against a repository bound to a single database transaction.
	Transaction(ctx context.Context, fn func(repo BoxRepository) error) error
}
