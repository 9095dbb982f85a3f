package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"garage/internal/config"

	"go.uber.org/zap"
)

// LocalBackend stores files below a base directory, split into images/ and qrcodes/.
type LocalBackend struct {
	basePath string
	log      *zap.SugaredLogger
}

// NewLocalBackend creates a LocalBackend rooted at basePath. Directories are
// created lazily on the first write.
func NewLocalBackend(basePath string, log *zap.SugaredLogger) *LocalBackend {
	log.Infow("initialized local storage backend", "base_path", basePath)
	return &LocalBackend{basePath: basePath, log: log}
}

// Kind implements Backend.
func (b *LocalBackend) Kind() config.StorageKind { return config.StorageLocal }

// BasePath is the directory all locations are relative to.
func (b *LocalBackend) BasePath() string { return b.basePath }

// SaveImage implements Backend.
func (b *LocalBackend) SaveImage(ctx context.Context, content io.Reader, filename string, ownerID uint, kind ImageKind) (string, error) {
	name := fmt.Sprintf("%s_%d_%s.%s", kind, ownerID, uniqueSuffix(), Extension(filename))
	location := filepath.Join(b.basePath, "images", name)

	err := b.write(location, func(w io.Writer) error {
		_, err := io.Copy(w, content)
		return err
	})
	if err != nil {
		b.log.Errorw("failed to save image locally", "box_id", ownerID, "path", location, "error", err)
		return "", err
	}
	b.log.Infow("image saved locally", "box_id", ownerID, "path", location)
	return location, nil
}

// SaveGeneratedImage implements Backend.
func (b *LocalBackend) SaveGeneratedImage(ctx context.Context, img image.Image, ownerID uint) (string, error) {
	location := filepath.Join(b.basePath, "qrcodes", fmt.Sprintf("box_%d.png", ownerID))

	err := b.write(location, func(w io.Writer) error {
		return png.Encode(w, img)
	})
	if err != nil {
		b.log.Errorw("failed to save QR code locally", "box_id", ownerID, "path", location, "error", err)
		return "", err
	}
	b.log.Infow("QR code saved locally", "box_id", ownerID, "path", location)
	return location, nil
}

// write fills a temporary sibling and renames it into place. A failed write
// leaves nothing behind.
func (b *LocalBackend) write(location string, fill func(io.Writer) error) error {
	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", location, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", location, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", location, err)
	}
	if err := os.Rename(tmp.Name(), location); err != nil {
		return fmt.Errorf("rename to %s: %w", location, err)
	}
	return nil
}

// Delete implements Backend.
func (b *LocalBackend) Delete(ctx context.Context, location string) bool {
	if location == "" || isAbsoluteURL(location) {
		return false
	}
	if err := os.Remove(location); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			b.log.Warnw("file not found for deletion", "path", location)
		} else {
			b.log.Errorw("failed to delete file locally", "path", location, "error", err)
		}
		return false
	}
	b.log.Infow("file deleted locally", "path", location)
	return true
}

// Exists implements Backend.
func (b *LocalBackend) Exists(ctx context.Context, location string) bool {
	if location == "" || isAbsoluteURL(location) {
		return false
	}
	info, err := os.Stat(location)
	return err == nil && !info.IsDir()
}

// DisplayURL implements Backend. Filesystem paths become root-relative URLs.
func (b *LocalBackend) DisplayURL(location string) string {
	if location == "" {
		return ""
	}
	if isAbsoluteURL(location) {
		return location
	}
	location = filepath.ToSlash(location)
	if !strings.HasPrefix(location, "/") {
		return "/" + location
	}
	return location
}
