// Package chat runs the retrieval-augmented answer loop: search the active
// tenant, build adaptive prompts, call the model, and fold the exchange back
// into the session.
package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hexfield/ragd/internal/llm"
	"github.com/hexfield/ragd/internal/prompting"
	"github.com/hexfield/ragd/internal/registry"
	"github.com/hexfield/ragd/internal/session"
	"github.com/hexfield/ragd/internal/store"
)

const (
	defaultTopK = 5

	// promptHeadroom leaves room for the model's own processing when the
	// assembled prompt approaches the content ceiling.
	promptHeadroom = 0.8
)

// Answer is one assistant turn with its supporting material.
type Answer struct {
	Text      string
	Sources   []store.Result
	FollowUps []string
}

// Engine answers queries against the active tenant's corpus.
type Engine struct {
	registry      *registry.Registry
	sess          *session.Session
	client        *llm.Client
	model         string
	topK          int
	maxPromptSize int
	logger        *slog.Logger
}

// New creates an engine. The session must be the same one the registry
// resets on tenant switches.
func New(reg *registry.Registry, sess *session.Session, client *llm.Client, model string, topK, maxPromptSize int, logger *slog.Logger) *Engine {
	if topK <= 0 {
		topK = defaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		registry:      reg,
		sess:          sess,
		client:        client,
		model:         model,
		topK:          topK,
		maxPromptSize: maxPromptSize,
		logger:        logger,
	}
}

// Ask answers one user query. Failures surface as a readable assistant
// message rather than an error; the underlying cause is logged.
func (e *Engine) Ask(ctx context.Context, query string) *Answer {
	tenant, ok := e.registry.Active()
	if !ok {
		return &Answer{Text: "No corpus selected. Please create or select one, and add data sources."}
	}
	if tenant.VectorCount(ctx) == 0 {
		return &Answer{Text: "The current corpus has no data. Please add documents or URLs first."}
	}

	sources := tenant.Store().Search(ctx, query, e.topK)

	systemPrompt := prompting.AdaptiveSystemPrompt(e.sess)
	userPrompt := prompting.UserPrompt(query, sources, e.sess)

	if limit := int(float64(e.maxPromptSize) * promptHeadroom); e.maxPromptSize > 0 && len(userPrompt) > limit {
		e.logger.Warn("prompt is large, truncating", "size", len(userPrompt), "limit", limit)
		userPrompt = userPrompt[:limit] + "\n[PROMPT TRUNCATED DUE TO LENGTH]"
	}

	text, err := e.client.Generate(ctx, llm.GenerateRequest{
		Model:  e.model,
		Prompt: userPrompt,
		System: systemPrompt,
	})
	if err != nil {
		e.logger.Error("generation failed", "model", e.model, "error", err)
		if errors.Is(err, llm.ErrTimeout) {
			text = "The language model took too long to respond. Please try a simpler query or try again later."
		} else {
			text = "I encountered an error communicating with the language model. Please check your Ollama server."
		}
	}

	followUps := prompting.FollowUpQuestions(query, text, sources)

	e.sess.Append("user", query)
	e.sess.Append("assistant", text)
	e.sess.ObserveExchange(query, text)

	return &Answer{Text: text, Sources: sources, FollowUps: followUps}
}
