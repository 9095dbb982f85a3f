package services

import (
	"context"
	"fmt"
	"io"

	"garage/internal/models"
	"garage/internal/repositories"
	"garage/internal/storage"

	"go.uber.org/zap"
)

// BoxInput holds the user-editable fields of a box.
type BoxInput struct {
	Name        string
	Location    string
	Description string
}

// Upload is an image received from a client.
type Upload struct {
	Filename string
	Content  io.Reader
}

// BoxService manages boxes and their stored artifacts. Callers pass boxes
// that already went through the OwnershipGuard.
type BoxService struct {
	boxes             repositories.BoxRepository
	storage           storage.Backend
	qr                *QRService
	allowedExtensions map[string]struct{}
	events            eventSink
	log               *zap.SugaredLogger
}

// NewBoxService creates a new BoxService. allowedExtensions are lower-case without dots.
func NewBoxService(boxes repositories.BoxRepository, backend storage.Backend, qr *QRService, allowedExtensions []string, publisher EventPublisher, log *zap.SugaredLogger) *BoxService {
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[ext] = struct{}{}
	}
	return &BoxService{
		boxes:             boxes,
		storage:           backend,
		qr:                qr,
		allowedExtensions: allowed,
		events:            eventSink{publisher: publisher, log: log},
		log:               log,
	}
}

// ExtensionAllowed reports whether an upload named filename may be stored.
func (s *BoxService) ExtensionAllowed(filename string) bool {
	_, ok := s.allowedExtensions[storage.Extension(filename)]
	return ok
}

// List returns the user's boxes ordered by name, items included.
func (s *BoxService) List(ctx context.Context, userID uint) ([]models.Box, error) {
	return s.boxes.ListByUser(ctx, userID)
}

// Create inserts a box, generates its QR code and stores the optional image
// in one transaction. A QR failure is not fatal and leaves QRCodePath empty.
// An image failure rolls the box back. Files written before a rollback are deleted.
func (s *BoxService) Create(ctx context.Context, userID uint, in BoxInput, image *Upload) (*models.Box, error) {
	if image != nil && !s.ExtensionAllowed(image.Filename) {
		return nil, ErrDisallowedExtension
	}

	var (
		box     *models.Box
		written []string
	)
	err := s.boxes.Transaction(ctx, func(repo repositories.BoxRepository) error {
		box = &models.Box{
			Name:        in.Name,
			Location:    in.Location,
			Description: in.Description,
			UserID:      userID,
		}
		if err := repo.Create(ctx, box); err != nil {
			return err
		}

		if location := s.qr.Generate(ctx, box.ID); location != "" {
			box.QRCodePath = location
			written = append(written, location)
		}

		if image != nil {
			location, err := s.storage.SaveImage(ctx, image.Content, image.Filename, box.ID, storage.KindBoxPhoto)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrStorageFailed, err)
			}
			box.ImagePath = location
			written = append(written, location)
		}

		return repo.Save(ctx, box)
	})
	if err != nil {
		s.discard(ctx, written)
		s.log.Errorw("failed to create box", "user_id", userID, "error", err)
		return nil, err
	}

	s.log.Infow("box created", "user_id", userID, "box_id", box.ID, "box_name", box.Name)
	s.events.emit(ctx, Event{Type: EventBoxCreated, UserID: userID, BoxID: box.ID, Name: box.Name})
	return box, nil
}

// Update changes a box's fields and optionally deletes or replaces its image.
// A replaced image is removed only after the new state is saved.
func (s *BoxService) Update(ctx context.Context, box *models.Box, in BoxInput, image *Upload, deleteImage bool) (*models.Box, error) {
	if image != nil && !deleteImage && !s.ExtensionAllowed(image.Filename) {
		return nil, ErrDisallowedExtension
	}

	oldImage := box.ImagePath
	var newImage string

	box.Name = in.Name
	box.Location = in.Location
	box.Description = in.Description

	switch {
	case deleteImage:
		box.ImagePath = ""
	case image != nil:
		location, err := s.storage.SaveImage(ctx, image.Content, image.Filename, box.ID, storage.KindBoxPhoto)
		if err != nil {
			s.log.Errorw("failed to update box image", "box_id", box.ID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		newImage = location
		box.ImagePath = location
	}

	if err := s.boxes.Save(ctx, box); err != nil {
		if newImage != "" {
			s.discard(ctx, []string{newImage})
		}
		s.log.Errorw("failed to update box", "box_id", box.ID, "error", err)
		return nil, err
	}

	if oldImage != "" && oldImage != box.ImagePath {
		s.storage.Delete(ctx, oldImage)
		s.log.Infow("box image removed", "box_id", box.ID, "path", oldImage)
	}

	s.log.Infow("box updated", "box_id", box.ID, "box_name", box.Name)
	s.events.emit(ctx, Event{Type: EventBoxUpdated, UserID: box.UserID, BoxID: box.ID, Name: box.Name})
	return box, nil
}

// Delete removes a box with its items, then its image and QR files.
func (s *BoxService) Delete(ctx context.Context, box *models.Box) error {
	if err := s.boxes.Delete(ctx, box.ID); err != nil {
		s.log.Errorw("failed to delete box", "box_id", box.ID, "error", err)
		return err
	}
	s.discard(ctx, []string{box.ImagePath, box.QRCodePath})

	s.log.Infow("box deleted", "user_id", box.UserID, "box_id", box.ID, "box_name", box.Name)
	s.events.emit(ctx, Event{Type: EventBoxDeleted, UserID: box.UserID, BoxID: box.ID, Name: box.Name})
	return nil
}

// RegenerateQR replaces the box's QR code. If no new code could be stored and
// the old one is gone, the QR field is cleared instead of left dangling.
func (s *BoxService) RegenerateQR(ctx context.Context, box *models.Box) (*models.Box, error) {
	location := s.qr.Regenerate(ctx, box.ID, box.QRCodePath)
	if location == "" {
		if box.QRCodePath != "" && !s.storage.Exists(ctx, box.QRCodePath) {
			box.QRCodePath = ""
			if err := s.boxes.Save(ctx, box); err != nil {
				s.log.Errorw("failed to clear QR code path", "box_id", box.ID, "error", err)
			}
		}
		return nil, ErrStorageFailed
	}
	box.QRCodePath = location
	if err := s.boxes.Save(ctx, box); err != nil {
		s.log.Errorw("failed to record regenerated QR code", "box_id", box.ID, "error", err)
		return nil, err
	}
	s.log.Infow("QR code regenerated", "box_id", box.ID)
	return box, nil
}

// DisplayURL converts a stored location for rendering.
func (s *BoxService) DisplayURL(location string) string {
	return s.storage.DisplayURL(location)
}

func (s *BoxService) discard(ctx context.Context, locations []string) {
	for _, location := range locations {
		if location != "" {
			s.storage.Delete(ctx, location)
		}
	}
}
