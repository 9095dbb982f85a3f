package repositories

import (
	"context"
	"errors"
	"fmt"

	"garage/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMItemRepository is a GORM implementation of ItemRepository.
type GORMItemRepository struct {
	db *gorm.DB
}

// NewGORMItemRepository creates a new instance of GORMItemRepository.
func NewGORMItemRepository(db *gorm.DB) *GORMItemRepository {
	return &GORMItemRepository{
		db: db,
	}
}

// Create inserts an item into an existing box.
func (r *GORMItemRepository) Create(ctx context.Context, item *models.Item) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// Save writes every column of an existing item, including its box reference.
func (r *GORMItemRepository) Save(ctx context.Context, item *models.Item) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error; err != nil {
		return fmt.Errorf("failed to update item %d: %w", item.ID, err)
	}
	return nil
}

// GetByID retrieves an item and its parent box.
func (r *GORMItemRepository) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Preload("Box").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item with id %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return &item, nil
}

// Delete removes a single item.
func (r *GORMItemRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Item{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item with id %d: %w", id, ErrNotFound)
	}
	return nil
}

// Search retrieves a user's items ordered by name.
func (r *GORMItemRepository) Search(ctx context.Context, userID uint, query, category string) ([]models.Item, error) {
	var items []models.Item
	tx := r.ownedBy(ctx, userID).Preload("Box")
	if query != "" {
		tx = tx.Where(matchAny("items.name", "items.category", "items.notes"), likeArgs(query, 3)...)
	}
	if category != "" {
		tx = tx.Where("items.category = ?", category)
	}
	if err := tx.Order("items.name").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to search items of user %d: %w", userID, err)
	}
	return items, nil
}

// Categories retrieves the sorted distinct categories of a user's items.
func (r *GORMItemRepository) Categories(ctx context.Context, userID uint) ([]string, error) {
	categories := []string{}
	err := r.ownedBy(ctx, userID).
		Where("items.category IS NOT NULL AND items.category <> ''").
		Distinct().
		Order("items.category").
		Pluck("items.category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories of user %d: %w", userID, err)
	}
	return categories, nil
}

// ListAll retrieves every item, optionally filtered by name, category or notes.
func (r *GORMItemRepository) ListAll(ctx context.Context, query string) ([]models.Item, error) {
	var items []models.Item
	tx := r.db.WithContext(ctx).Preload("Box").Order("name")
	if query != "" {
		tx = tx.Where(matchAny("name", "category", "notes"), likeArgs(query, 3)...)
	}
	if err := tx.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (r *GORMItemRepository) ownedBy(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Joins("JOIN boxes ON boxes.id = items.box_id").
		Where("boxes.user_id = ?", userID)
}
