// Package store implements the per-tenant vector store: one index collection
// per tenant, wrapped in an exclusive-access discipline with id management.
//
// Store operations fail soft: when the index or embedding collaborator is
// unavailable or errors, operations log with full context and return empty
// results rather than propagating a fault across the store boundary. The
// worst outcome is a no-op ingestion or an empty search.
package store

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// defaultSearchK is used when a caller passes a non-positive k.
const defaultSearchK = 5

// TenantStore is one tenant's view of the index: a single collection plus
// the shared provider lock. Create stores through Provider.OpenStore.
type TenantStore struct {
	provider   *Provider
	collection string
	logger     *slog.Logger

	// ready flips to false when the collection is deleted; it is read by
	// operations that may run concurrently with Delete, so it is atomic.
	ready atomic.Bool
}

// Collection returns the backing collection name.
func (s *TenantStore) Collection() string { return s.collection }

// Ready reports whether the underlying collection initialized successfully.
func (s *TenantStore) Ready() bool { return s.ready.Load() }

// Add embeds and indexes texts with their metadata, returning the assigned
// ids. When ids are supplied and contain duplicates, the whole id set is
// discarded and regenerated; partial dedup could silently drop data.
// Mismatched batch lengths and unavailable collections yield an empty result
// and a logged error, never a fault.
func (s *TenantStore) Add(ctx context.Context, texts []string, metadatas []Metadata, ids []string) []string {
	if len(texts) == 0 {
		return nil
	}
	if !s.ready.Load() {
		s.logger.Error("collection not initialized, dropping add", "texts", len(texts))
		return nil
	}

	if metadatas == nil {
		metadatas = make([]Metadata, len(texts))
	}
	if len(metadatas) != len(texts) || (ids != nil && len(ids) != len(texts)) {
		s.logger.Error("rejecting malformed batch", "error", ErrBatchMismatch,
			"texts", len(texts), "metadatas", len(metadatas), "ids", len(ids))
		return nil
	}

	if ids == nil {
		ids = freshIDs(len(texts))
	} else if hasDuplicates(ids) {
		s.logger.Warn("duplicate ids supplied, regenerating the full id set")
		ids = freshIDs(len(texts))
	}

	points := make([]Point, len(texts))
	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()

	vectors, err := s.provider.embedder.Embed(ctx, texts)
	if err != nil {
		s.logger.Error("embedding failed, dropping add", "texts", len(texts), "error", err)
		return nil
	}
	if len(vectors) != len(texts) {
		s.logger.Error("embedder returned wrong vector count",
			"expected", len(texts), "got", len(vectors))
		return nil
	}

	for i := range texts {
		points[i] = Point{
			ID:       ids[i],
			Vector:   vectors[i],
			Text:     texts[i],
			Metadata: metadatas[i],
		}
	}

	if err := s.provider.backend.Upsert(ctx, s.collection, points); err != nil {
		s.logger.Error("index upsert failed, dropping add", "points", len(points), "error", err)
		return nil
	}

	return ids
}

// Search embeds the query and returns up to k passages ordered by
// descending similarity. k is clamped to the live record count; an empty
// store yields an empty result with no error.
func (s *TenantStore) Search(ctx context.Context, query string, k int) []Result {
	if !s.ready.Load() {
		s.logger.Warn("collection not initialized, returning no results")
		return nil
	}
	if k <= 0 {
		k = defaultSearchK
	}

	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()

	count, err := s.provider.backend.Count(ctx, s.collection)
	if err != nil {
		s.logger.Error("count failed during search", "error", err)
		return nil
	}
	if count == 0 {
		return nil
	}
	if uint64(k) > count {
		k = int(count)
	}

	vectors, err := s.provider.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		s.logger.Error("query embedding failed", "error", err)
		return nil
	}

	hits, err := s.provider.backend.Search(ctx, s.collection, vectors[0], uint64(k))
	if err != nil {
		s.logger.Error("index search failed", "error", err)
		return nil
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			ID:       h.ID,
			Content:  h.Text,
			Metadata: h.Metadata,
			Score:    h.Score,
		})
	}
	return results
}

// Count returns the number of indexed records, or 0 when unavailable.
func (s *TenantStore) Count(ctx context.Context) int {
	if !s.ready.Load() {
		return 0
	}
	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()

	count, err := s.provider.backend.Count(ctx, s.collection)
	if err != nil {
		s.logger.Error("count failed", "error", err)
		return 0
	}
	return int(count)
}

// Delete removes the entire underlying collection. Repeated calls after a
// successful delete report failure.
func (s *TenantStore) Delete(ctx context.Context) bool {
	if !s.ready.Load() {
		return false
	}
	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()

	if err := s.provider.backend.DeleteCollection(ctx, s.collection); err != nil {
		s.logger.Error("collection delete failed", "error", err)
		return false
	}
	s.ready.Store(false)
	s.logger.Info("deleted collection")
	return true
}

func freshIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.New().String()
	}
	return ids
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
