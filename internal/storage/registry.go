package storage

import (
	"context"
	"fmt"
	"sync"

	"garage/internal/config"

	"go.uber.org/zap"
)

// New builds the backend selected by cfg.Backend. Misconfiguration, such as
// a missing bucket, is reported here rather than on first use.
func New(ctx context.Context, cfg config.StorageConfig, log *zap.SugaredLogger) (Backend, error) {
	switch cfg.Backend {
	case config.StorageLocal, "":
		return NewLocalBackend(cfg.Path, log), nil
	case config.StorageS3:
		return NewS3Backend(ctx, cfg.S3, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Registry caches one backend per configuration scope. A scope is an explicit
// handle chosen by the caller, such as an application instance name, so
// independently configured instances never share a backend.
type Registry struct {
	mu       sync.Mutex
	backends map[string]Backend
	build    func(ctx context.Context, cfg config.StorageConfig, log *zap.SugaredLogger) (Backend, error)
	log      *zap.SugaredLogger
}

// NewRegistry creates an empty registry that builds backends with New.
func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		build:    New,
		log:      log,
	}
}

// Get returns the backend cached for scope, building it from cfg on first use.
// Construction errors are not cached.
func (r *Registry) Get(ctx context.Context, scope string, cfg config.StorageConfig) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.backends[scope]; ok {
		return b, nil
	}
	b, err := r.build(ctx, cfg, r.log)
	if err != nil {
		return nil, fmt.Errorf("storage backend for scope %q: %w", scope, err)
	}
	r.backends[scope] = b
	r.log.Infow("storage backend created", "scope", scope, "backend", b.Kind())
	return b, nil
}

// Set installs a backend for scope, replacing any cached one.
func (r *Registry) Set(scope string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[scope] = b
}

// Reset drops every cached backend.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends = make(map[string]Backend)
	r.log.Infow("storage backend cache cleared")
}
