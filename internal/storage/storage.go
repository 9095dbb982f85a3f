// Package storage persists uploaded box photos and generated QR images and
// turns stored locations back into displayable URLs.
package storage

import (
	"context"
	"image"
	"io"
	"path"
	"strings"

	"garage/internal/config"

	"github.com/google/uuid"
)

// ImageKind tags what an uploaded image depicts.
type ImageKind string

// KindBoxPhoto is a user photo of a box.
const KindBoxPhoto ImageKind = "box"

// Backend is implemented by every storage medium. Save methods return an
// opaque location (a filesystem path or an absolute URL) that callers store
// as-is and hand back to Delete, Exists and DisplayURL.
//
// Implementations never panic on I/O. Save failures are logged and returned
// as ("", err); Delete and Exists report false for missing content.
type Backend interface {
	// SaveImage stores an upload under a unique name derived from ownerID.
	// filename only contributes its extension.
	SaveImage(ctx context.Context, content io.Reader, filename string, ownerID uint, kind ImageKind) (string, error)
	// SaveGeneratedImage stores a PNG under a name that depends only on ownerID,
	// so saving again for the same owner overwrites the previous image.
	SaveGeneratedImage(ctx context.Context, img image.Image, ownerID uint) (string, error)
	Delete(ctx context.Context, location string) bool
	Exists(ctx context.Context, location string) bool
	// DisplayURL returns something a browser can load, or "" for an empty location.
	DisplayURL(location string) string
	Kind() config.StorageKind
}

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// ContentType maps a file extension to its MIME type.
func ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Extension returns the lower-cased extension of filename without the dot,
// falling back to "jpg" like browsers that upload unnamed camera captures.
func Extension(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		return "jpg"
	}
	return ext
}

func isAbsoluteURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func uniqueSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
