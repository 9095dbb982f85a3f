package services

import (
	"context"
	"errors"
	"fmt"

	"garage/internal/models"
	"garage/internal/repositories"

	"go.uber.org/zap"
)

// Outcome is the result of an ownership check.
type Outcome int

const (
	Authorized Outcome = iota
	Denied
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	case NotFound:
		return "not_found"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Access carries the entity only when the outcome is Authorized.
type Access[T any] struct {
	Outcome Outcome
	Entity  T
}

// OwnershipGuard resolves box and item ids on behalf of a user. Items are
// owned through their parent box. Denials are logged with actor and target.
type OwnershipGuard struct {
	boxes repositories.BoxRepository
	items repositories.ItemRepository
	log   *zap.SugaredLogger
}

// NewOwnershipGuard creates an OwnershipGuard.
func NewOwnershipGuard(boxes repositories.BoxRepository, items repositories.ItemRepository, log *zap.SugaredLogger) *OwnershipGuard {
	return &OwnershipGuard{boxes: boxes, items: items, log: log}
}

// Box loads boxID for userID. The error is non-nil only when the lookup itself failed.
func (g *OwnershipGuard) Box(ctx context.Context, userID, boxID uint) (Access[*models.Box], error) {
	box, err := g.boxes.GetByID(ctx, boxID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			g.log.Infow("box not found", "user_id", userID, "box_id", boxID)
			return Access[*models.Box]{Outcome: NotFound}, nil
		}
		return Access[*models.Box]{}, err
	}
	if !box.IsOwnedBy(userID) {
		g.log.Warnw("unauthorized box access attempt", "user_id", userID, "box_id", boxID, "box_owner_id", box.UserID)
		return Access[*models.Box]{Outcome: Denied}, nil
	}
	return Access[*models.Box]{Outcome: Authorized, Entity: box}, nil
}

// Item loads itemID for userID, delegating ownership to the item's box.
func (g *OwnershipGuard) Item(ctx context.Context, userID, itemID uint) (Access[*models.Item], error) {
	item, err := g.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			g.log.Infow("item not found", "user_id", userID, "item_id", itemID)
			return Access[*models.Item]{Outcome: NotFound}, nil
		}
		return Access[*models.Item]{}, err
	}
	if !item.IsOwnedBy(userID) {
		owner := uint(0)
		if item.Box != nil {
			owner = item.Box.UserID
		}
		g.log.Warnw("unauthorized item access attempt", "user_id", userID, "item_id", itemID, "box_id", item.BoxID, "box_owner_id", owner)
		return Access[*models.Item]{Outcome: Denied}, nil
	}
	return Access[*models.Item]{Outcome: Authorized, Entity: item}, nil
}
