// Package ingest drives raw text from the acquisition collaborators through
// the segmentation engine into a tenant's vector store, and records document
// provenance in the tenant ledger.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hexfield/ragd/internal/registry"
	"github.com/hexfield/ragd/internal/segment"
	"github.com/hexfield/ragd/internal/source"
	"github.com/hexfield/ragd/internal/store"
)

// Result summarizes one ingestion operation.
type Result struct {
	Chunks      int
	Units       int // pages, paragraphs or URLs processed
	FailedUnits []FailedUnit
	Bytes       int64
}

// FailedUnit is a page or URL that failed and was skipped.
type FailedUnit struct {
	Unit   string
	Reason string
}

// Coordinator mediates between content acquisition and tenant stores.
type Coordinator struct {
	sizes          segment.Sizes
	overlap        int
	maxContentSize int
	fetcher        *source.WebFetcher
	logger         *slog.Logger
}

// New creates a coordinator. fetcher may be nil when URL ingestion is not
// needed.
func New(sizes segment.Sizes, overlap, maxContentSize int, fetcher *source.WebFetcher, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if overlap < 0 {
		overlap = segment.DefaultOverlap
	}
	if maxContentSize <= 0 {
		maxContentSize = 10 * 1024 * 1024
	}
	return &Coordinator{
		sizes:          sizes,
		overlap:        overlap,
		maxContentSize: maxContentSize,
		fetcher:        fetcher,
		logger:         logger,
	}
}

// truncate enforces the content size ceiling: oversized input is cut, a
// warning logged, and processing continues. Input is never rejected for
// size alone.
func (c *Coordinator) truncate(text, unit string) string {
	if len(text) > c.maxContentSize {
		c.logger.Warn("content exceeds size limit, truncating",
			"unit", unit, "size", len(text), "limit", c.maxContentSize)
		return text[:c.maxContentSize]
	}
	return text
}

// chunk picks the chunk size from the text's density and splits.
func (c *Coordinator) chunk(text string) []segment.Chunk {
	return segment.Split(text, segment.EstimateDensity(text, c.sizes), c.overlap)
}

// IngestText segments raw text into the tenant's store and records the
// document. Returns the number of chunks added.
func (c *Coordinator) IngestText(ctx context.Context, tenant *registry.Tenant, text string, meta store.Metadata) int {
	text = c.truncate(text, meta.Key())

	chunks := c.chunk(text)
	if len(chunks) == 0 {
		return 0
	}

	texts := make([]string, len(chunks))
	metas := make([]store.Metadata, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
		m := meta.Clone()
		m.Extra["chunk_index"] = ch.Index + 1
		metas[i] = m
	}

	ids := tenant.Store().Add(ctx, texts, metas, nil)
	if len(ids) == 0 {
		return 0
	}

	tenant.RecordDocument(ctx, registry.DocumentSummary{
		SourceType: meta.SourceType,
		Filename:   meta.Filename,
		URL:        meta.URL,
		Title:      meta.Title,
		Chunks:     len(ids),
		Size:       int64(len(text)),
		DateAdded:  time.Now(),
	})

	c.logger.Info("ingested text", "tenant", tenant.ID, "source", meta.Key(), "chunks", len(ids))
	return len(ids)
}

// IngestFile routes a local file by extension: PDF and DOCX get their
// dedicated extractors, markdown is rendered to plain text, and common
// text/code extensions are read as-is.
func (c *Coordinator) IngestFile(ctx context.Context, tenant *registry.Tenant, path string) (*Result, error) {
	name := filepath.Base(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return c.IngestPDF(ctx, tenant, path, name)
	case ".docx":
		return c.IngestDOCX(ctx, tenant, path, name)
	case ".txt", ".md", ".py", ".js", ".html", ".css", ".go":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		text := string(data)
		if strings.EqualFold(filepath.Ext(path), ".md") {
			text = source.MarkdownToText(data)
		}
		added := c.IngestText(ctx, tenant, text, store.Metadata{
			SourceType: store.SourceTextFile,
			Filename:   name,
			DateAdded:  time.Now(),
		})
		return &Result{Chunks: added, Units: 1, Bytes: int64(len(data))}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", name)
	}
}

// IngestPDF extracts the PDF page by page, sizes chunks per page from that
// page's density, and adds all chunks in one batched call to bound the
// number of embedding round-trips. A page that fails to extract is logged
// and skipped; one bad page never aborts the document.
func (c *Coordinator) IngestPDF(ctx context.Context, tenant *registry.Tenant, path, filename string) (*Result, error) {
	pages, totalPages, err := source.ExtractPDFPages(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}

	base := store.Metadata{
		SourceType: store.SourcePDF,
		Filename:   filename,
		DateAdded:  time.Now(),
		Extra:      map[string]any{"total_pages": totalPages},
	}

	result := &Result{}
	var allTexts []string
	var allMetas []store.Metadata

	for _, page := range pages {
		if page.Err != nil {
			c.logger.Error("failed to extract page, skipping",
				"file", filename, "page", page.Number, "error", page.Err)
			result.FailedUnits = append(result.FailedUnits, FailedUnit{
				Unit:   fmt.Sprintf("page %d", page.Number),
				Reason: page.Err.Error(),
			})
			continue
		}
		result.Units++

		text := c.truncate(page.Text, fmt.Sprintf("%s page %d", filename, page.Number))
		for _, ch := range c.chunk(text) {
			m := base.Clone()
			m.Extra["page"] = page.Number
			allTexts = append(allTexts, ch.Text)
			allMetas = append(allMetas, m)
		}
	}

	if len(allTexts) == 0 {
		return result, nil
	}

	ids := tenant.Store().Add(ctx, allTexts, allMetas, nil)
	result.Chunks = len(ids)
	if info, err := os.Stat(path); err == nil {
		result.Bytes = info.Size()
	}

	if result.Chunks > 0 {
		tenant.RecordDocument(ctx, registry.DocumentSummary{
			SourceType: store.SourcePDF,
			Filename:   filename,
			Chunks:     result.Chunks,
			Size:       result.Bytes,
			DateAdded:  time.Now(),
		})
	}

	c.logger.Info("ingested pdf", "tenant", tenant.ID, "file", filename,
		"pages", result.Units, "failed_pages", len(result.FailedUnits), "chunks", result.Chunks)
	return result, nil
}

// IngestDOCX joins the document's paragraphs and chunks the whole text
// once, sized from its overall density.
func (c *Coordinator) IngestDOCX(ctx context.Context, tenant *registry.Tenant, path, filename string) (*Result, error) {
	text, paragraphs, err := source.ExtractDOCX(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}

	meta := store.Metadata{
		SourceType: store.SourceDOCX,
		Filename:   filename,
		DateAdded:  time.Now(),
		Extra:      map[string]any{"total_paragraphs": paragraphs},
	}

	added := c.IngestText(ctx, tenant, text, meta)

	result := &Result{Chunks: added, Units: paragraphs}
	if info, err := os.Stat(path); err == nil {
		result.Bytes = info.Size()
	}
	return result, nil
}

// IngestURL fetches a page, segments it and records it. With sitemap
// discovery enabled, sitemap URLs are ingested as separate documents, each
// its own batched add; individual failures are logged and skipped.
func (c *Coordinator) IngestURL(ctx context.Context, tenant *registry.Tenant, pageURL string, useSitemap bool, maxSitemapURLs int) (*Result, error) {
	if c.fetcher == nil {
		return nil, fmt.Errorf("no web fetcher configured")
	}

	result := &Result{}

	added, err := c.ingestOneURL(ctx, tenant, pageURL, false)
	if err != nil {
		return nil, err
	}
	result.Chunks += added
	result.Units++

	if !useSitemap || added == 0 {
		return result, nil
	}
	if maxSitemapURLs <= 0 {
		maxSitemapURLs = 50
	}

	seen := map[string]struct{}{pageURL: {}}
	for _, u := range c.fetcher.SitemapURLs(ctx, pageURL, maxSitemapURLs) {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}

		n, err := c.ingestOneURL(ctx, tenant, u, true)
		if err != nil {
			c.logger.Warn("failed to ingest sitemap url, skipping", "url", u, "error", err)
			result.FailedUnits = append(result.FailedUnits, FailedUnit{Unit: u, Reason: err.Error()})
			continue
		}
		result.Chunks += n
		result.Units++
	}

	c.logger.Info("ingested url", "tenant", tenant.ID, "url", pageURL,
		"urls", result.Units, "failed_urls", len(result.FailedUnits), "chunks", result.Chunks)
	return result, nil
}

func (c *Coordinator) ingestOneURL(ctx context.Context, tenant *registry.Tenant, pageURL string, fromSitemap bool) (int, error) {
	content, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return 0, err
	}
	// Sitemaps can list images and other assets; only pages carry text.
	if fromSitemap && !strings.Contains(strings.ToLower(content.ContentType), "text/html") {
		return 0, nil
	}

	text := c.truncate(content.Text, pageURL)
	chunks := c.chunk(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	meta := store.Metadata{
		SourceType: store.SourceURL,
		URL:        pageURL,
		Title:      content.Title,
		DateAdded:  time.Now(),
	}

	texts := make([]string, len(chunks))
	metas := make([]store.Metadata, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
		m := meta.Clone()
		m.Extra["chunk_index"] = ch.Index + 1
		metas[i] = m
	}

	ids := tenant.Store().Add(ctx, texts, metas, nil)
	if len(ids) == 0 {
		return 0, nil
	}

	tenant.RecordDocument(ctx, registry.DocumentSummary{
		SourceType:  store.SourceURL,
		URL:         pageURL,
		Title:       content.Title,
		Chunks:      len(ids),
		Size:        content.Size,
		FromSitemap: fromSitemap,
		DateAdded:   time.Now(),
	})

	return len(ids), nil
}

// IngestRepo ingests every markdown file under a GitHub repository subtree
// as its own document. Files that fail to fetch are logged and skipped.
func (c *Coordinator) IngestRepo(ctx context.Context, tenant *registry.Tenant, fetcher *source.RepoFetcher) (*Result, error) {
	paths, err := fetcher.ListDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repo docs: %w", err)
	}

	result := &Result{}
	for _, p := range paths {
		doc, err := fetcher.FetchDoc(ctx, p)
		if err != nil {
			c.logger.Warn("failed to fetch repo doc, skipping", "path", p, "error", err)
			result.FailedUnits = append(result.FailedUnits, FailedUnit{Unit: p, Reason: err.Error()})
			continue
		}

		added := c.IngestText(ctx, tenant, source.MarkdownToText([]byte(doc.Content)), store.Metadata{
			SourceType: store.SourceTextFile,
			Filename:   doc.Path,
			URL:        doc.URL,
			DateAdded:  time.Now(),
		})
		result.Chunks += added
		result.Units++
		result.Bytes += int64(len(doc.Content))
	}

	c.logger.Info("ingested repo docs", "tenant", tenant.ID,
		"docs", result.Units, "failed", len(result.FailedUnits), "chunks", result.Chunks)
	return result, nil
}
