package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hexfield/ragd/internal/ingest"
	"github.com/hexfield/ragd/internal/registry"
)

// resolveTenant picks the tenant named by id, falling back to the active
// one when id is empty.
func resolveTenant(reg *registry.Registry, id string) (*registry.Tenant, error) {
	if id != "" {
		tenant, ok := reg.Get(id)
		if !ok {
			return nil, fmt.Errorf("corpus not found: %s", id)
		}
		return tenant, nil
	}
	tenant, ok := reg.Active()
	if !ok {
		return nil, fmt.Errorf("no active corpus; create one or pass corpus_id")
	}
	return tenant, nil
}

// makeSearchHandler creates the search_corpus tool handler.
func makeSearchHandler(reg *registry.Registry) func(
	context.Context, *mcp.CallToolRequest, SearchCorpusInput,
) (*mcp.CallToolResult, SearchCorpusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchCorpusInput) (
		*mcp.CallToolResult, SearchCorpusOutput, error,
	) {
		tenant, err := resolveTenant(reg, input.CorpusID)
		if err != nil {
			return nil, SearchCorpusOutput{}, err
		}

		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 5
		}

		hits := tenant.Store().Search(ctx, input.Query, maxResults)

		results := make([]PassageResult, 0, len(hits))
		for _, hit := range hits {
			if hit.Score < input.MinScore {
				continue
			}
			results = append(results, PassageResult{
				Content:    hit.Content,
				Score:      hit.Score,
				SourceType: hit.Metadata.SourceType,
				Title:      hit.Metadata.Title,
				Filename:   hit.Metadata.Filename,
				URL:        hit.Metadata.URL,
			})
		}

		if len(results) == 0 {
			return nil, SearchCorpusOutput{
				Results: []PassageResult{},
				Message: "No matching passages found. Try broader search terms.",
			}, nil
		}

		return nil, SearchCorpusOutput{Results: results}, nil
	}
}

// makeListHandler creates the list_corpora tool handler.
func makeListHandler(reg *registry.Registry) func(
	context.Context, *mcp.CallToolRequest, ListCorporaInput,
) (*mcp.CallToolResult, ListCorporaOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListCorporaInput) (
		*mcp.CallToolResult, ListCorporaOutput, error,
	) {
		var activeID string
		if active, ok := reg.Active(); ok {
			activeID = active.ID
		}

		tenants := reg.List()
		corpora := make([]CorpusInfo, 0, len(tenants))
		for _, t := range tenants {
			corpora = append(corpora, corpusInfo(ctx, t, activeID))
		}

		return nil, ListCorporaOutput{Corpora: corpora, Count: len(corpora)}, nil
	}
}

// makeCreateHandler creates the create_corpus tool handler.
func makeCreateHandler(reg *registry.Registry) func(
	context.Context, *mcp.CallToolRequest, CreateCorpusInput,
) (*mcp.CallToolResult, CreateCorpusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateCorpusInput) (
		*mcp.CallToolResult, CreateCorpusOutput, error,
	) {
		if input.Name == "" {
			return nil, CreateCorpusOutput{}, fmt.Errorf("corpus name is required")
		}

		id := reg.Create(ctx, input.Name, input.Description)
		reg.SwitchActive(id)

		return nil, CreateCorpusOutput{ID: id, Name: input.Name}, nil
	}
}

// makeStatusHandler creates the corpus_status tool handler.
func makeStatusHandler(reg *registry.Registry) func(
	context.Context, *mcp.CallToolRequest, CorpusStatusInput,
) (*mcp.CallToolResult, CorpusStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CorpusStatusInput) (
		*mcp.CallToolResult, CorpusStatusOutput, error,
	) {
		tenant, err := resolveTenant(reg, input.CorpusID)
		if err != nil {
			return nil, CorpusStatusOutput{}, err
		}

		var activeID string
		if active, ok := reg.Active(); ok {
			activeID = active.ID
		}

		docs := tenant.Documents()
		infos := make([]DocumentInfo, 0, len(docs))
		for _, d := range docs {
			infos = append(infos, DocumentInfo{
				SourceType:  d.SourceType,
				Filename:    d.Filename,
				URL:         d.URL,
				Title:       d.Title,
				Chunks:      d.Chunks,
				Size:        d.Size,
				FromSitemap: d.FromSitemap,
				DateAdded:   d.DateAdded,
			})
		}

		return nil, CorpusStatusOutput{
			Corpus:    corpusInfo(ctx, tenant, activeID),
			Documents: infos,
		}, nil
	}
}

// makeIngestURLHandler creates the ingest_url tool handler.
func makeIngestURLHandler(reg *registry.Registry, coord *ingest.Coordinator) func(
	context.Context, *mcp.CallToolRequest, IngestURLInput,
) (*mcp.CallToolResult, IngestURLOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestURLInput) (
		*mcp.CallToolResult, IngestURLOutput, error,
	) {
		tenant, err := resolveTenant(reg, input.CorpusID)
		if err != nil {
			return nil, IngestURLOutput{}, err
		}

		result, err := coord.IngestURL(ctx, tenant, input.URL, input.UseSitemap, 0)
		if err != nil {
			return nil, IngestURLOutput{}, fmt.Errorf("failed to ingest %s: %w", input.URL, err)
		}

		out := IngestURLOutput{Chunks: result.Chunks, URLs: result.Units}
		for _, f := range result.FailedUnits {
			out.FailedURLs = append(out.FailedURLs, f.Unit)
		}
		return nil, out, nil
	}
}

func corpusInfo(ctx context.Context, t *registry.Tenant, activeID string) CorpusInfo {
	summary := t.Summary(ctx)
	return CorpusInfo{
		ID:            summary.ID,
		Name:          summary.Name,
		Description:   summary.Description,
		DocumentCount: summary.DocumentCount,
		VectorCount:   summary.VectorCount,
		Active:        summary.ID == activeID,
		CreatedAt:     summary.CreatedAt,
	}
}
