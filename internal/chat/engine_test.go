package chat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfield/ragd/internal/llm"
	"github.com/hexfield/ragd/internal/registry"
	"github.com/hexfield/ragd/internal/session"
	"github.com/hexfield/ragd/internal/store"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Dimension() int { return 4 }

func (fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, 4)
		for j, r := range t {
			v[(j+int(r))%4] += float32(int(r)%7) + 1
		}
		out[i] = v
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ollamaStub answers every generate call with a fixed response.
func ollamaStub(t *testing.T, response string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"response": response, "done": true})
	}))
}

func newEngine(t *testing.T, ollamaURL string) (*Engine, *registry.Registry, *session.Session) {
	t.Helper()
	sess := session.New()
	provider := store.NewProvider(store.NewMemoryBackend(), fakeEmbedder{}, testLogger())
	reg := registry.New(provider, sess, testLogger())
	client := llm.NewClient(ollamaURL, time.Second, testLogger())
	return New(reg, sess, client, "test-model", 3, 0, testLogger()), reg, sess
}

func TestAsk_NoActiveCorpus(t *testing.T) {
	engine, _, _ := newEngine(t, "http://127.0.0.1:1")
	answer := engine.Ask(context.Background(), "anything")
	assert.Contains(t, answer.Text, "No corpus selected")
	assert.Empty(t, answer.Sources)
}

func TestAsk_EmptyCorpus(t *testing.T) {
	engine, reg, _ := newEngine(t, "http://127.0.0.1:1")
	ctx := context.Background()
	reg.SwitchActive(reg.Create(ctx, "empty", ""))

	answer := engine.Ask(ctx, "anything")
	assert.Contains(t, answer.Text, "has no data")
}

func TestAsk_AnswersWithSources(t *testing.T) {
	srv := ollamaStub(t, "Widgets are assembled per the manual [Source 1].")
	defer srv.Close()

	engine, reg, sess := newEngine(t, srv.URL)
	ctx := context.Background()

	id := reg.Create(ctx, "manuals", "")
	reg.SwitchActive(id)
	tenant, _ := reg.Get(id)
	tenant.Store().Add(ctx,
		[]string{"widgets are assembled in bay three", "unrelated shipping policy text"},
		[]store.Metadata{{Title: "Assembly Manual"}, {Title: "Shipping"}},
		nil)

	answer := engine.Ask(ctx, "widgets are assembled in bay three")
	assert.Contains(t, answer.Text, "Widgets are assembled")
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "Assembly Manual", answer.Sources[0].Metadata.Title)

	// The exchange lands in the session.
	messages := sess.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, []string{"widgets are assembled in bay three"}, sess.RecentQueries(1))
}

func TestAsk_GenerationFailureYieldsReadableMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine, reg, _ := newEngine(t, srv.URL)
	ctx := context.Background()

	id := reg.Create(ctx, "docs", "")
	reg.SwitchActive(id)
	tenant, _ := reg.Get(id)
	tenant.Store().Add(ctx, []string{"some indexed content"}, nil, nil)

	answer := engine.Ask(ctx, "a question")
	assert.Contains(t, answer.Text, "error communicating with the language model")
	assert.NotEmpty(t, answer.Sources, "retrieval still succeeded")
}

func TestAsk_TimeoutYieldsTimeoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(400 * time.Millisecond)
	}))
	defer srv.Close()

	sess := session.New()
	provider := store.NewProvider(store.NewMemoryBackend(), fakeEmbedder{}, testLogger())
	reg := registry.New(provider, sess, testLogger())
	client := llm.NewClient(srv.URL, 50*time.Millisecond, testLogger())
	engine := New(reg, sess, client, "m", 3, 0, testLogger())

	ctx := context.Background()
	id := reg.Create(ctx, "docs", "")
	reg.SwitchActive(id)
	tenant, _ := reg.Get(id)
	tenant.Store().Add(ctx, []string{"content"}, nil, nil)

	answer := engine.Ask(ctx, "slow question")
	assert.Contains(t, answer.Text, "took too long to respond")
}
