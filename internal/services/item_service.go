package services

import (
	"context"
	"errors"

	"garage/internal/models"
	"garage/internal/repositories"

	"go.uber.org/zap"
)

// ItemInput holds the user-editable fields of an item.
type ItemInput struct {
	Name     string
	Quantity int
	Category string
	Notes    string
	Value    float64
}

// ItemService manages items. Callers pass items and boxes that already went
// through the OwnershipGuard.
type ItemService struct {
	items  repositories.ItemRepository
	boxes  repositories.BoxRepository
	events eventSink
	log    *zap.SugaredLogger
}

// NewItemService creates a new ItemService.
func NewItemService(items repositories.ItemRepository, boxes repositories.BoxRepository, publisher EventPublisher, log *zap.SugaredLogger) *ItemService {
	return &ItemService{
		items:  items,
		boxes:  boxes,
		events: eventSink{publisher: publisher, log: log},
		log:    log,
	}
}

// Create adds an item to box.
func (s *ItemService) Create(ctx context.Context, box *models.Box, in ItemInput) (*models.Item, error) {
	item := &models.Item{
		Name:     in.Name,
		Quantity: in.Quantity,
		Category: in.Category,
		Notes:    in.Notes,
		Value:    in.Value,
		BoxID:    box.ID,
	}
	if err := s.items.Create(ctx, item); err != nil {
		s.log.Errorw("failed to create item", "box_id", box.ID, "error", err)
		return nil, err
	}
	item.Box = box

	s.log.Infow("item created", "item_id", item.ID, "item_name", item.Name, "box_id", box.ID, "user_id", box.UserID)
	s.events.emit(ctx, Event{Type: EventItemCreated, UserID: box.UserID, BoxID: box.ID, ItemID: item.ID, Name: item.Name})
	return item, nil
}

// Update overwrites an item's fields.
func (s *ItemService) Update(ctx context.Context, item *models.Item, in ItemInput) (*models.Item, error) {
	item.Name = in.Name
	item.Quantity = in.Quantity
	item.Category = in.Category
	item.Notes = in.Notes
	item.Value = in.Value
	if err := s.items.Save(ctx, item); err != nil {
		s.log.Errorw("failed to update item", "item_id", item.ID, "error", err)
		return nil, err
	}

	s.log.Infow("item updated", "item_id", item.ID, "item_name", item.Name, "box_id", item.BoxID)
	s.events.emit(ctx, Event{Type: EventItemUpdated, UserID: ownerOf(item), BoxID: item.BoxID, ItemID: item.ID, Name: item.Name})
	return item, nil
}

// Delete removes an item.
func (s *ItemService) Delete(ctx context.Context, item *models.Item) error {
	if err := s.items.Delete(ctx, item.ID); err != nil {
		s.log.Errorw("failed to delete item", "item_id", item.ID, "error", err)
		return err
	}

	s.log.Infow("item deleted", "item_id", item.ID, "item_name", item.Name, "box_id", item.BoxID, "user_id", ownerOf(item))
	s.events.emit(ctx, Event{Type: EventItemDeleted, UserID: ownerOf(item), BoxID: item.BoxID, ItemID: item.ID, Name: item.Name})
	return nil
}

// Move puts an item into another box owned by userID. A destination that does
// not exist or belongs to someone else yields ErrInvalidDestination.
func (s *ItemService) Move(ctx context.Context, userID uint, item *models.Item, newBoxID uint) (*models.Item, error) {
	dest, err := s.boxes.GetByID(ctx, newBoxID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidDestination
		}
		return nil, err
	}
	if !dest.IsOwnedBy(userID) {
		s.log.Warnw("attempted to move item to unauthorized box",
			"item_id", item.ID, "source_box_id", item.BoxID, "target_box_id", newBoxID, "user_id", userID)
		return nil, ErrInvalidDestination
	}

	fromBoxID := item.BoxID
	item.BoxID = dest.ID
	item.Box = nil
	if err := s.items.Save(ctx, item); err != nil {
		s.log.Errorw("failed to move item", "item_id", item.ID, "error", err)
		return nil, err
	}
	dest.Items = nil
	item.Box = dest

	s.log.Infow("item moved", "item_id", item.ID, "item_name", item.Name, "from_box_id", fromBoxID, "to_box_id", dest.ID, "user_id", userID)
	s.events.emit(ctx, Event{Type: EventItemMoved, UserID: userID, BoxID: dest.ID, FromBoxID: fromBoxID, ItemID: item.ID, Name: item.Name})
	return item, nil
}

// Duplicate copies an item within its box under the name "<name> (copy)".
func (s *ItemService) Duplicate(ctx context.Context, item *models.Item) (*models.Item, error) {
	dup := &models.Item{
		Name:     item.Name + " (copy)",
		Quantity: item.Quantity,
		Category: item.Category,
		Notes:    item.Notes,
		Value:    item.Value,
		BoxID:    item.BoxID,
	}
	if err := s.items.Create(ctx, dup); err != nil {
		s.log.Errorw("failed to duplicate item", "item_id", item.ID, "error", err)
		return nil, err
	}
	dup.Box = item.Box

	s.log.Infow("item duplicated", "original_item_id", item.ID, "new_item_id", dup.ID, "box_id", dup.BoxID)
	s.events.emit(ctx, Event{Type: EventItemCreated, UserID: ownerOf(item), BoxID: dup.BoxID, ItemID: dup.ID, Name: dup.Name})
	return dup, nil
}

func ownerOf(item *models.Item) uint {
	if item.Box == nil {
		return 0
	}
	return item.Box.UserID
}
