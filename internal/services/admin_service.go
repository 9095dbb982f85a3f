package services

import (
	"context"
	"fmt"

	"garage/internal/models"
	"garage/internal/repositories"
	"garage/internal/storage"

	"go.uber.org/zap"
)

// AdminService backs the administrative back-office. Its operations are not
// scoped by ownership; access is gated on the admin flag instead.
type AdminService struct {
	users   repositories.UserRepository
	boxes   repositories.BoxRepository
	items   repositories.ItemRepository
	storage storage.Backend
	log     *zap.SugaredLogger
}

// NewAdminService creates a new AdminService.
func NewAdminService(users repositories.UserRepository, boxes repositories.BoxRepository, items repositories.ItemRepository, backend storage.Backend, log *zap.SugaredLogger) *AdminService {
	return &AdminService{users: users, boxes: boxes, items: items, storage: backend, log: log}
}

// IsAdmin reads the admin flag from the database.
func (s *AdminService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// ListUsers lists users whose username or email contains query.
func (s *AdminService) ListUsers(ctx context.Context, query string) ([]models.User, error) {
	return s.users.List(ctx, query)
}

// ListBoxes lists all boxes matching query.
func (s *AdminService) ListBoxes(ctx context.Context, query string) ([]models.Box, error) {
	return s.boxes.ListAll(ctx, query)
}

// ListItems lists all items matching query.
func (s *AdminService) ListItems(ctx context.Context, query string) ([]models.Item, error) {
	return s.items.ListAll(ctx, query)
}

// SetAdmin promotes or demotes a user.
func (s *AdminService) SetAdmin(ctx context.Context, actorID, userID uint, isAdmin bool) (*models.User, error) {
	if actorID == userID && !isAdmin {
		return nil, ErrSelfModification
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.log.Infow("admin flag changed", "actor_id", actorID, "user_id", userID, "is_admin", isAdmin)
	return user, nil
}

// DeleteUser removes a user, their boxes and items, then the boxes' stored files.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID uint) error {
	if actorID == userID {
		return ErrSelfModification
	}
	boxes, err := s.boxes.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	for _, box := range boxes {
		for _, location := range []string{box.ImagePath, box.QRCodePath} {
			if location != "" {
				s.storage.Delete(ctx, location)
			}
		}
	}
	s.log.Infow("user deleted", "actor_id", actorID, "user_id", userID, "box_count", len(boxes))
	return nil
}

// Bootstrap promotes username to admin. It is idempotent.
func (s *AdminService) Bootstrap(ctx context.Context, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("bootstrap admin %q: %w", username, err)
	}
	if user.IsAdmin {
		return nil
	}
	user.IsAdmin = true
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("bootstrap admin %q: %w", username, err)
	}
	s.log.Infow("bootstrap admin promoted", "user_id", user.ID, "username", username)
	return nil
}
