package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Event types published after a successful commit.
const (
	EventBoxCreated        = "box.created"
	EventBoxUpdated        = "box.updated"
	EventBoxDeleted        = "box.deleted"
	EventItemCreated       = "item.created"
	EventItemUpdated       = "item.updated"
	EventItemDeleted       = "item.deleted"
	EventItemMoved         = "item.moved"
	EventUserRegistered    = "user.registered"
	EventUserPasswordReset = "user.password_reset"
)

// Event describes an inventory change.
type Event struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	BoxID      uint      `json:"box_id,omitempty"`
	ItemID     uint      `json:"item_id,omitempty"`
	FromBoxID  uint      `json:"from_box_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher sends events to a broker. pkg/rabbitmq.Client implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event interface{}) error
}

// eventSink publishes best-effort: a nil publisher disables events and
// failures are only logged.
type eventSink struct {
	publisher EventPublisher
	log       *zap.SugaredLogger
}

func (s eventSink) emit(ctx context.Context, event Event) {
	if s.publisher == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.log.Warnw("failed to publish event", "type", event.Type, "user_id", event.UserID, "error", err)
	}
}
