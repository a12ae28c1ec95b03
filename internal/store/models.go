package store

import (
	"context"
	"time"
)

// Source types recorded in chunk metadata.
const (
	SourceText     = "text"
	SourcePDF      = "pdf"
	SourceDOCX     = "docx"
	SourceURL      = "url"
	SourceTextFile = "text_file"
)

// Metadata describes the document a chunk came from. SourceType, the
// identifying field (Filename or URL) and DateAdded are always set; Extra
// carries source-specific fields such as page, chunk_index or total_pages.
type Metadata struct {
	SourceType string
	Filename   string
	URL        string
	Title      string
	DateAdded  time.Time
	Extra      map[string]any
}

// Key returns the field identifying the source document: URL for web
// sources, Filename otherwise.
func (m Metadata) Key() string {
	if m.SourceType == SourceURL {
		return m.URL
	}
	return m.Filename
}

// Clone returns a copy with its own Extra map, so per-chunk mutation never
// aliases another chunk's metadata.
func (m Metadata) Clone() Metadata {
	c := m
	c.Extra = make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		c.Extra[k] = v
	}
	return c
}

// Point is one embedded record handed to the index backend.
type Point struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata Metadata
}

// ScoredPoint is a search hit from the index backend. Score is a similarity
// in [0,1] where 1.0 means identical.
type ScoredPoint struct {
	ID       string
	Text     string
	Metadata Metadata
	Score    float64
}

// Result is a ranked passage returned by TenantStore.Search.
type Result struct {
	ID       string
	Content  string
	Metadata Metadata
	Score    float64
}

// Embedder turns texts into fixed-size vectors. Implementations are expected
// to be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Backend is the embedding-index collaborator contract. The store depends
// only on this shape, not on any particular engine.
type Backend interface {
	EnsureCollection(ctx context.Context, name string, dimension int) error
	DeleteCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, limit uint64) ([]ScoredPoint, error)
	Count(ctx context.Context, collection string) (uint64, error)
}
