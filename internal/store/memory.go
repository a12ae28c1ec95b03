package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryBackend is a brute-force cosine-similarity index kept entirely in
// memory. It implements the same Backend contract as Qdrant and serves
// tests and no-infrastructure setups.
type MemoryBackend struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	dimension int
	points    []Point
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{collections: make(map[string]*memCollection)}
}

func (b *MemoryBackend) EnsureCollection(_ context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", ErrDimensionMismatch, dimension)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[name]; !ok {
		b.collections[name] = &memCollection{dimension: dimension}
	}
	return nil
}

func (b *MemoryBackend) DeleteCollection(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[name]; !ok {
		return fmt.Errorf("collection %s not found", name)
	}
	delete(b.collections, name)
	return nil
}

func (b *MemoryBackend) Upsert(_ context.Context, collection string, points []Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s not found", collection)
	}
	for _, p := range points {
		if len(p.Vector) != c.dimension {
			return fmt.Errorf("%w: point has %d dimensions, collection expects %d",
				ErrDimensionMismatch, len(p.Vector), c.dimension)
		}
	}
	for _, p := range points {
		replaced := false
		for i := range c.points {
			if c.points[i].ID == p.ID {
				c.points[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			c.points = append(c.points, p)
		}
	}
	return nil
}

func (b *MemoryBackend) Search(_ context.Context, collection string, vector []float32, limit uint64) ([]ScoredPoint, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s not found", collection)
	}
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection expects %d",
			ErrDimensionMismatch, len(vector), c.dimension)
	}

	hits := make([]ScoredPoint, 0, len(c.points))
	for _, p := range c.points {
		hits = append(hits, ScoredPoint{
			ID:       p.ID,
			Text:     p.Text,
			Metadata: p.Metadata,
			Score:    cosine(vector, p.Vector),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if uint64(len(hits)) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (b *MemoryBackend) Count(_ context.Context, collection string) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.collections[collection]
	if !ok {
		return 0, fmt.Errorf("collection %s not found", collection)
	}
	return uint64(len(c.points)), nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
