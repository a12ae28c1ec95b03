package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hexfield/ragd/internal/store"
)

// DocumentSummary is the per-source provenance record tracked for a tenant:
// at most one summary exists per distinct filename or URL.
type DocumentSummary struct {
	SourceType  string
	Filename    string
	URL         string
	Title       string
	Chunks      int
	Size        int64
	FromSitemap bool
	DateAdded   time.Time
	DateUpdated time.Time
}

// key returns the identity field for dedup: URL for web sources, filename
// otherwise. An empty key means the document can never be deduplicated.
func (d DocumentSummary) key() string {
	if d.SourceType == store.SourceURL {
		return d.URL
	}
	return d.Filename
}

// Tenant is one isolated RAG instance: a vector store collection plus its
// document ledger. Tenants are created and deleted through the Registry.
type Tenant struct {
	ID             string
	Name           string
	Description    string
	CollectionName string
	CreatedAt      time.Time

	store *store.TenantStore

	// docMu guards the ledger independently of the index lock, so
	// concurrent ingestions into the same tenant never lose updates.
	docMu     sync.Mutex
	documents []DocumentSummary
}

// Store returns the tenant's vector store.
func (t *Tenant) Store() *store.TenantStore { return t.store }

// Documents returns a copy of the ledger in insertion order.
func (t *Tenant) Documents() []DocumentSummary {
	t.docMu.Lock()
	defer t.docMu.Unlock()
	out := make([]DocumentSummary, len(t.documents))
	copy(out, t.documents)
	return out
}

// DocumentCount returns the number of distinct recorded sources.
func (t *Tenant) DocumentCount() int {
	t.docMu.Lock()
	defer t.docMu.Unlock()
	return len(t.documents)
}

// VectorCount returns the live record count from the store.
func (t *Tenant) VectorCount(ctx context.Context) int {
	return t.store.Count(ctx)
}

// RecordDocument upserts a ledger entry. Re-ingesting the same filename or
// URL updates the existing summary in place, refreshing its chunk count
// from the store's live count, rather than appending a duplicate. Sources
// without an identifying key always append; raw text can therefore pile up
// duplicate summaries, which mirrors how the upsert key is defined.
func (t *Tenant) RecordDocument(ctx context.Context, doc DocumentSummary) {
	if doc.DateAdded.IsZero() {
		doc.DateAdded = time.Now()
	}

	key := doc.key()

	t.docMu.Lock()
	defer t.docMu.Unlock()

	if key != "" {
		for i := range t.documents {
			if t.documents[i].key() == key {
				existing := &t.documents[i]
				existing.SourceType = doc.SourceType
				existing.Size = doc.Size
				existing.FromSitemap = doc.FromSitemap
				if doc.Title != "" {
					existing.Title = doc.Title
				}
				existing.Chunks = t.store.Count(ctx)
				existing.DateUpdated = time.Now()
				return
			}
		}
	}

	t.documents = append(t.documents, doc)
}

// Summary is the management view of a tenant.
type Summary struct {
	ID            string
	Name          string
	Description   string
	DocumentCount int
	VectorCount   int
	CreatedAt     time.Time
}

// Summary returns the tenant's management view, including live counts.
func (t *Tenant) Summary(ctx context.Context) Summary {
	return Summary{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		DocumentCount: t.DocumentCount(),
		VectorCount:   t.VectorCount(ctx),
		CreatedAt:     t.CreatedAt,
	}
}

// collectionName derives a deterministic, human-readable collection name
// from the tenant name and id prefix, e.g. "rag_product_docs_1a2b3c4d".
func collectionName(name, id string) string {
	prefix := id
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "rag_" + slugify(name) + "_" + prefix
}

// slugify lowercases the name, maps spaces to underscores and drops
// anything the index would reject in a collection name.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}
