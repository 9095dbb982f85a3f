package repositories

import (
	"context"
	"errors"
	"fmt"

	"garage/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMBoxRepository is a GORM implementation of BoxRepository.
type GORMBoxRepository struct {
	db *gorm.DB
}

// NewGORMBoxRepository creates a new instance of GORMBoxRepository.
func NewGORMBoxRepository(db *gorm.DB) *GORMBoxRepository {
	return &GORMBoxRepository{
		db: db,
	}
}

// Create inserts a box. Its ID is assigned on return.
func (r *GORMBoxRepository) Create(ctx context.Context, box *models.Box) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(box).Error; err != nil {
		return fmt.Errorf("failed to create box: %w", err)
	}
	return nil
}

// Save writes every column of an existing box, leaving its items untouched.
func (r *GORMBoxRepository) Save(ctx context.Context, box *models.Box) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(box).Error; err != nil {
		return fmt.Errorf("failed to update box %d: %w", box.ID, err)
	}
	return nil
}

// GetByID retrieves a box and its items.
func (r *GORMBoxRepository) GetByID(ctx context.Context, id uint) (*models.Box, error) {
	var box models.Box
	if err := r.withItems(ctx).First(&box, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("box with id %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get box %d: %w", id, err)
	}
	return &box, nil
}

// ListByUser retrieves a user's boxes ordered by name.
func (r *GORMBoxRepository) ListByUser(ctx context.Context, userID uint) ([]models.Box, error) {
	var boxes []models.Box
	if err := r.withItems(ctx).Where("user_id = ?", userID).Order("name").Find(&boxes).Error; err != nil {
		return nil, fmt.Errorf("failed to list boxes of user %d: %w", userID, err)
	}
	return boxes, nil
}

// Search retrieves a user's boxes whose name, location or description contains query.
func (r *GORMBoxRepository) Search(ctx context.Context, userID uint, query string) ([]models.Box, error) {
	var boxes []models.Box
	err := r.withItems(ctx).
		Where("user_id = ?", userID).
		Where(matchAny("name", "location", "description"), likeArgs(query, 3)...).
		Order("name").
		Find(&boxes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search boxes of user %d: %w", userID, err)
	}
	return boxes, nil
}

// ListAll retrieves every box, optionally filtered by name, location or description.
func (r *GORMBoxRepository) ListAll(ctx context.Context, query string) ([]models.Box, error) {
	var boxes []models.Box
	tx := r.withItems(ctx).Order("name")
	if query != "" {
		tx = tx.Where(matchAny("name", "location", "description"), likeArgs(query, 3)...)
	}
	if err := tx.Find(&boxes).Error; err != nil {
		return nil, fmt.Errorf("failed to list boxes: %w", err)
	}
	return boxes, nil
}

// Delete removes the box and its items in one transaction.
func (r *GORMBoxRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("box_id = ?", id).Delete(&models.Item{}).Error; err != nil {
			return fmt.Errorf("failed to delete items of box %d: %w", id, err)
		}
		res := tx.Delete(&models.Box{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete box %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("box with id %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Transaction runs fn inside a database transaction. fn must only use the
// repository it is handed; returning an error rolls everything back.
func (r *GORMBoxRepository) Transaction(ctx context.Context, fn func(repo BoxRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMBoxRepository(tx))
	})
}

func (r *GORMBoxRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("items.name")
	})
}
