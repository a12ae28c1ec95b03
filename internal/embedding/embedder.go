// Package embedding generates fixed-size vectors for text through the
// OpenAI embeddings API, batching requests and backing off on rate limits.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultModel is the embedding model used unless configured otherwise.
	DefaultModel = "text-embedding-3-small"

	// DefaultDimension is the vector size of DefaultModel.
	DefaultDimension = 1536

	// DefaultBatchSize balances requests-per-minute against tokens-per-minute
	// limits. The API accepts up to 2048 texts per call.
	DefaultBatchSize = 500
)

// Embedder generates embeddings through a shared Client. It satisfies the
// store's Embedder contract.
type Embedder struct {
	client    *Client
	model     string
	dimension int
	batchSize int
}

// NewEmbedder creates an Embedder. Zero-valued model, dimension or batchSize
// fall back to the defaults.
func NewEmbedder(client *Client, model string, dimension, batchSize int) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:    client,
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
	}
}

// Dimension returns the configured vector size.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed generates embeddings for texts, batched, retrying rate-limited
// batches with exponential backoff.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var all [][]float32

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))

		vectors, err := e.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, vectors...)
	}

	return all, nil
}

// embedBatchWithRetry embeds one batch. Rate-limit errors (HTTP 429) retry
// with backoff; anything else is permanent.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		vectors = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			if len(data.Embedding) != e.dimension {
				return backoff.Permanent(fmt.Errorf(
					"model returned %d dimensions, expected %d", len(data.Embedding), e.dimension))
			}
			vectors[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	return vectors, err
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 narrows the API's float64 vectors for storage.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
