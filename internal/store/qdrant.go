package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// upsertBatchSize bounds how many points go to Qdrant in one call.
const upsertBatchSize = 100

// QdrantBackend implements Backend on a Qdrant server over gRPC, with
// connection health checks and retry on upserts.
type QdrantBackend struct {
	client *qdrant.Client
	host   string
	port   int
}

// NewQdrantBackend creates a Qdrant client and validates connectivity.
// It retries the health check with exponential backoff and fails fast if
// Qdrant stays unreachable.
func NewQdrantBackend(host string, port int) (*QdrantBackend, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	b := &QdrantBackend{
		client: client,
		host:   host,
		port:   port,
	}

	if err := b.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrIndexUnreachable, err)
	}

	return b, nil
}

// healthCheckWithRetry probes the server with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (b *QdrantBackend) healthCheckWithRetry(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return b.Health(ctx)
	}, backoff.WithContext(bo, ctx))
}

// Health performs a single health check against Qdrant.
func (b *QdrantBackend) Health(ctx context.Context) error {
	result, err := b.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// Close closes the underlying gRPC connection.
func (b *QdrantBackend) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// EnsureCollection creates the named collection with cosine distance if it
// does not already exist. Idempotent.
func (b *QdrantBackend) EnsureCollection(ctx context.Context, name string, dimension int) error {
	collections, err := b.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, existing := range collections {
		if existing == name {
			return nil
		}
	}

	err = b.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

// DeleteCollection removes the named collection and all its points.
func (b *QdrantBackend) DeleteCollection(ctx context.Context, name string) error {
	if err := b.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	return nil
}

// Upsert stores points in batches of 100, retrying each batch with
// exponential backoff.
func (b *QdrantBackend) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	for i := 0; i < len(points); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(points))
		batch := points[i:end]

		qpoints := make([]*qdrant.PointStruct, len(batch))
		for j, p := range batch {
			qpoints[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(p.ID),
				Vectors: qdrant.NewVectors(p.Vector...),
				Payload: qdrant.NewValueMap(payloadFromPoint(p)),
			}
		}

		if err := b.upsertWithRetry(ctx, collection, qpoints); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

func (b *QdrantBackend) upsertWithRetry(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := b.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(bo, ctx))
}

// Search runs nearest-neighbor search and returns hits ordered by
// descending similarity.
func (b *QdrantBackend) Search(ctx context.Context, collection string, vector []float32, limit uint64) ([]ScoredPoint, error) {
	results, err := b.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search collection %s: %w", collection, err)
	}

	hits := make([]ScoredPoint, 0, len(results))
	for _, r := range results {
		hits = append(hits, ScoredPoint{
			ID:       r.Id.GetUuid(),
			Text:     r.Payload["content"].GetStringValue(),
			Metadata: metadataFromPayload(r.Payload),
			// Cosine similarity: 1.0 means identical.
			Score: float64(r.Score),
		})
	}
	return hits, nil
}

// Count returns the exact number of points in the collection.
func (b *QdrantBackend) Count(ctx context.Context, collection string) (uint64, error) {
	count, err := b.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("count collection %s: %w", collection, err)
	}
	return count, nil
}

// payloadFromPoint flattens chunk text and metadata into a Qdrant payload.
func payloadFromPoint(p Point) map[string]any {
	payload := map[string]any{
		"content":     p.Text,
		"source_type": p.Metadata.SourceType,
		"date_added":  p.Metadata.DateAdded.Format(time.RFC3339),
	}
	if p.Metadata.Filename != "" {
		payload["filename"] = p.Metadata.Filename
	}
	if p.Metadata.URL != "" {
		payload["url"] = p.Metadata.URL
	}
	if p.Metadata.Title != "" {
		payload["title"] = p.Metadata.Title
	}
	for k, v := range p.Metadata.Extra {
		payload[k] = v
	}
	return payload
}

// metadataFromPayload rebuilds typed metadata from a payload, collecting
// unknown keys into Extra.
func metadataFromPayload(payload map[string]*qdrant.Value) Metadata {
	meta := Metadata{
		SourceType: payload["source_type"].GetStringValue(),
		Filename:   payload["filename"].GetStringValue(),
		URL:        payload["url"].GetStringValue(),
		Title:      payload["title"].GetStringValue(),
		Extra:      map[string]any{},
	}

	if added, err := time.Parse(time.RFC3339, payload["date_added"].GetStringValue()); err == nil {
		meta.DateAdded = added
	}

	for k, v := range payload {
		switch k {
		case "content", "source_type", "filename", "url", "title", "date_added":
			continue
		}
		switch kind := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			meta.Extra[k] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			meta.Extra[k] = int(kind.IntegerValue)
		case *qdrant.Value_DoubleValue:
			meta.Extra[k] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			meta.Extra[k] = kind.BoolValue
		}
	}
	return meta
}
