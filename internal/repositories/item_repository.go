package repositories

import (
	"context"

	"garage/internal/models"
)

// ItemRepository defines the interface for item data access. Items returned
// by the Get and List methods carry their parent box.
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	Save(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id uint) (*models.Item, error)
	Delete(ctx context.Context, id uint) error
	// Search matches name, category and notes within one user's boxes,
	// optionally narrowed to an exact category.
	Search(ctx context.Context, userID uint, query, category string) ([]models.Item, error)
	// Categories lists the distinct non-empty categories used in one user's boxes.
	Categories(ctx context.Context, userID uint) ([]string, error)
	// ListAll is the unscoped listing used by the admin back-office.
	ListAll(ctx context.Context, query string) ([]models.Item, error)
}
