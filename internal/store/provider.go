package store

import (
	"context"
	"log/slog"
	"sync"
)

// Provider owns the process-wide pieces every tenant store shares: the index
// backend, the embedding function and the single lock that serializes index
// access. It is constructed once at process start and passed down by
// dependency injection.
//
// The lock is coarse-grained by design: embedding and index calls dominate
// latency, not lock contention.
type Provider struct {
	mu       sync.Mutex
	backend  Backend
	embedder Embedder
	logger   *slog.Logger
}

// NewProvider wires a backend and embedder into a shared provider.
func NewProvider(backend Backend, embedder Embedder, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		backend:  backend,
		embedder: embedder,
		logger:   logger,
	}
}

// OpenStore returns a TenantStore bound to the named collection, creating
// the collection if needed. A store whose collection cannot be initialized
// is returned in degraded mode: every operation logs and reports empty
// results instead of failing the caller.
func (p *Provider) OpenStore(ctx context.Context, collection string) *TenantStore {
	s := &TenantStore{
		provider:   p,
		collection: collection,
		logger:     p.logger.With("collection", collection),
	}

	if p.backend == nil || p.embedder == nil {
		s.logger.Error("store provider missing backend or embedder, store is degraded")
		return s
	}

	p.mu.Lock()
	err := p.backend.EnsureCollection(ctx, collection, p.embedder.Dimension())
	p.mu.Unlock()
	if err != nil {
		s.logger.Error("failed to initialize collection, store is degraded", "error", err)
		return s
	}

	s.ready.Store(true)
	return s
}
