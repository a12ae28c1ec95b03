// Package mcp exposes corpus management and retrieval over the Model
// Context Protocol.
package mcp

import "time"

// SearchCorpusInput defines the input parameters for the search_corpus tool.
type SearchCorpusInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query"`
	// CorpusID selects the corpus to search. Defaults to the active corpus.
	CorpusID string `json:"corpus_id,omitempty" jsonschema:"description=Corpus to search; defaults to the active corpus"`
	// MaxResults is the maximum number of passages to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of passages to return"`
	// MinScore is the minimum similarity threshold (0-1).
	MinScore float64 `json:"min_score,omitempty" jsonschema:"minimum=0,maximum=1,description=Minimum similarity score threshold (0-1)"`
}

// SearchCorpusOutput contains the search results.
type SearchCorpusOutput struct {
	Results []PassageResult `json:"results"`
	// Message provides informational context (e.g., "No matching passages found").
	Message string `json:"message,omitempty"`
}

// PassageResult is a single retrieved passage with its provenance.
type PassageResult struct {
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	SourceType string  `json:"source_type"`
	Title      string  `json:"title,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	URL        string  `json:"url,omitempty"`
}

// ListCorporaInput defines the input parameters for the list_corpora tool.
// This tool takes no parameters.
type ListCorporaInput struct{}

// ListCorporaOutput lists every corpus with its live counts.
type ListCorporaOutput struct {
	Corpora []CorpusInfo `json:"corpora"`
	Count   int          `json:"count"`
}

// CorpusInfo is the management view of one corpus.
type CorpusInfo struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	DocumentCount int       `json:"document_count"`
	VectorCount   int       `json:"vector_count"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateCorpusInput defines the input parameters for the create_corpus tool.
type CreateCorpusInput struct {
	Name string `json:"name" jsonschema:"required,description=Human-readable corpus name"`
	// Description is an optional free-text note about the corpus.
	Description string `json:"description,omitempty" jsonschema:"description=Optional description of the corpus"`
}

// CreateCorpusOutput reports the new corpus id.
type CreateCorpusOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CorpusStatusInput defines the input parameters for the corpus_status tool.
type CorpusStatusInput struct {
	// CorpusID selects the corpus. Defaults to the active corpus.
	CorpusID string `json:"corpus_id,omitempty" jsonschema:"description=Corpus to inspect; defaults to the active corpus"`
}

// CorpusStatusOutput details one corpus and its document ledger.
type CorpusStatusOutput struct {
	Corpus    CorpusInfo     `json:"corpus"`
	Documents []DocumentInfo `json:"documents"`
}

// DocumentInfo is one ledger entry.
type DocumentInfo struct {
	SourceType  string    `json:"source_type"`
	Filename    string    `json:"filename,omitempty"`
	URL         string    `json:"url,omitempty"`
	Title       string    `json:"title,omitempty"`
	Chunks      int       `json:"chunks"`
	Size        int64     `json:"size,omitempty"`
	FromSitemap bool      `json:"from_sitemap,omitempty"`
	DateAdded   time.Time `json:"date_added"`
}

// IngestURLInput defines the input parameters for the ingest_url tool.
type IngestURLInput struct {
	URL string `json:"url" jsonschema:"required,description=Page URL to fetch and index"`
	// CorpusID selects the target corpus. Defaults to the active corpus.
	CorpusID string `json:"corpus_id,omitempty" jsonschema:"description=Target corpus; defaults to the active corpus"`
	// UseSitemap expands ingestion to the site's sitemap URLs.
	UseSitemap bool `json:"use_sitemap,omitempty" jsonschema:"description=Also ingest URLs discovered from the site's sitemap"`
}

// IngestURLOutput reports what was indexed.
type IngestURLOutput struct {
	Chunks     int      `json:"chunks"`
	URLs       int      `json:"urls"`
	FailedURLs []string `json:"failed_urls,omitempty"`
}
