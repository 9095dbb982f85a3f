package services

import (
	"context"
	"fmt"
	"image"

	"garage/internal/storage"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrImageSize = 290

// QRPayload is the string encoded in a box's QR code. Printed labels depend
// on this exact shape.
func QRPayload(boxID uint) string {
	return fmt.Sprintf("/qr/%d", boxID)
}

// QRService renders box QR codes and persists them through the storage backend.
type QRService struct {
	storage storage.Backend
	level   qrcode.RecoveryLevel
	log     *zap.SugaredLogger
}

// NewQRService creates a QRService. Codes use medium (15%) error correction.
func NewQRService(backend storage.Backend, log *zap.SugaredLogger) *QRService {
	return &QRService{
		storage: backend,
		level:   qrcode.Medium,
		log:     log,
	}
}

// Image encodes the payload for boxID.
func (s *QRService) Image(boxID uint) (image.Image, error) {
	code, err := qrcode.New(QRPayload(boxID), s.level)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code for box %d: %w", boxID, err)
	}
	return code.Image(qrImageSize), nil
}

// PNG encodes the payload for boxID as PNG bytes, for embedding in labels.
func (s *QRService) PNG(boxID uint) ([]byte, error) {
	return qrcode.Encode(QRPayload(boxID), s.level, qrImageSize)
}

// Generate renders and stores the QR code for boxID and returns its location.
// It returns "" on any failure; the caller leaves the box's QR field unset.
func (s *QRService) Generate(ctx context.Context, boxID uint) string {
	img, err := s.Image(boxID)
	if err != nil {
		s.log.Errorw("failed to generate QR code", "box_id", boxID, "error", err)
		return ""
	}
	location, err := s.storage.SaveGeneratedImage(ctx, img, boxID)
	if err != nil {
		s.log.Warnw("QR code generation returned no location", "box_id", boxID, "error", err)
		return ""
	}
	s.log.Infow("QR code generated", "box_id", boxID, "path", location)
	return location
}

// Regenerate removes oldLocation, if any, then generates a fresh code. The
// payload is unchanged since it depends only on boxID.
func (s *QRService) Regenerate(ctx context.Context, boxID uint, oldLocation string) string {
	s.log.Infow("regenerating QR code", "box_id", boxID, "old_path", oldLocation)
	if oldLocation != "" && s.storage.Delete(ctx, oldLocation) {
		s.log.Infow("deleted old QR code", "box_id", boxID, "path", oldLocation)
	}
	return s.Generate(ctx, boxID)
}
