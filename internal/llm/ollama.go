// Package llm provides a client for text generation against a local Ollama
// server.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "http://localhost:11434"

// ErrTimeout reports that the model did not answer within the request
// deadline.
var ErrTimeout = errors.New("generation request timed out")

// Client wraps the Ollama HTTP API. Generation calls are serialized so that
// a local single-GPU server is never asked to run two completions at once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	genMu sync.Mutex
}

// NewClient creates an Ollama client. baseURL defaults to the local server.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GenerateRequest is one non-streaming completion request.
type GenerateRequest struct {
	Model       string
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

type generatePayload struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate runs one completion and returns the model's text. Timeouts are
// reported as ErrTimeout so callers can phrase them differently from hard
// API failures.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Temperature == 0 {
		req.Temperature = 0.7
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 2048
	}

	payload := generatePayload{
		Model:  req.Model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.genMu.Lock()
	resp, err := c.httpClient.Do(httpReq)
	c.genMu.Unlock()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			c.logger.Error("generation timed out", "model", req.Model, "error", err)
			return "", ErrTimeout
		}
		return "", fmt.Errorf("failed to reach ollama at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API error: %d - %s", resp.StatusCode, string(raw))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return strings.TrimSpace(result.Response), nil
}

func isTimeout(err error) bool {
	var tErr interface{ Timeout() bool }
	return errors.As(err, &tErr) && tErr.Timeout()
}

// ModelInfo describes one installed model.
type ModelInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

type listModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ListModels lists the models installed on the server. A server that cannot
// be reached yields an empty list and a logged error, so the caller's UI
// can still render.
func (c *Client) ListModels(ctx context.Context) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		c.logger.Error("failed to create model list request", "error", err)
		return nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("failed to list ollama models", "base_url", c.baseURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("ollama model list error", "status", resp.StatusCode, "body", string(raw))
		return nil
	}

	var result listModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Error("failed to decode model list", "error", err)
		return nil
	}

	names := make([]string, 0, len(result.Models))
	for _, m := range result.Models {
		names = append(names, m.Name)
	}
	return names
}
