package registry

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func chunkTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = "chunk " + strings.Repeat("x", i+1)
	}
	return texts
}

func newTestRegistry(t *testing.T) (*Registry, *session.Session) {
	t.Helper()
	sess := session.New()
	provider := store.NewProvider(store.NewMemoryBackend(), fakeEmbedder{}, testLogger())
	return New(provider, sess, testLogger()), sess
}

func TestCreate_AssignsIDAndCollection(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	id := reg.Create(ctx, "Product Docs", "internal manuals")
	require.NotEmpty(t, id)

	tenant, ok := reg.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Product Docs", tenant.Name)
	assert.Equal(t, "internal manuals", tenant.Description)
	assert.True(t, tenant.Store().Ready())

	// Collection name combines a slug of the name with the id prefix.
	assert.Equal(t, "rag_product_docs_"+id[:8], tenant.CollectionName)
}

func TestCollectionName_Slugify(t *testing.T) {
	assert.Equal(t, "rag_my_docs_12345678", collectionName("My Docs", "12345678-abcd"))
	assert.Equal(t, "rag_faq-v2_abcdefgh", collectionName("FAQ-v2!!", "abcdefgh"))
	assert.Equal(t, "rag__short", collectionName("", "short"))
}

func TestList_PreservesCreationOrder(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	first := reg.Create(ctx, "first", "")
	second := reg.Create(ctx, "second", "")
	third := reg.Create(ctx, "third", "")

	tenants := reg.List()
	require.Len(t, tenants, 3)
	assert.Equal(t, []string{first, second, third},
		[]string{tenants[0].ID, tenants[1].ID, tenants[2].ID})
}

func TestSwitchActive_ClearsSession(t *testing.T) {
	reg, sess := newTestRegistry(t)
	ctx := context.Background()

	a := reg.Create(ctx, "a", "")
	b := reg.Create(ctx, "b", "")
	require.True(t, reg.SwitchActive(a))

	sess.Append("user", "what is the refund policy?")
	require.NotEmpty(t, sess.Messages())

	require.True(t, reg.SwitchActive(b))
	assert.Empty(t, sess.Messages(), "conversation must not leak across corpora")

	active, ok := reg.Active()
	require.True(t, ok)
	assert.Equal(t, b, active.ID)
}

func TestSwitchActive_UnknownID(t *testing.T) {
	reg, sess := newTestRegistry(t)
	sess.Append("user", "hello")

	assert.False(t, reg.SwitchActive("no-such-id"))
	assert.NotEmpty(t, sess.Messages(), "failed switch must not clear session")
}

func TestDelete_RemovesTenantAndCollection(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	id := reg.Create(ctx, "doomed", "")
	tenant, _ := reg.Get(id)
	tenant.Store().Add(ctx, []string{"some content"}, nil, nil)

	require.True(t, reg.Delete(ctx, id))
	_, ok := reg.Get(id)
	assert.False(t, ok)
	assert.Empty(t, reg.List())
}

func TestDelete_ActiveTenantClearsSelection(t *testing.T) {
	reg, sess := newTestRegistry(t)
	ctx := context.Background()

	id := reg.Create(ctx, "active one", "")
	reg.SwitchActive(id)
	sess.Append("user", "hi")

	require.True(t, reg.Delete(ctx, id))
	_, ok := reg.Active()
	assert.False(t, ok)
	assert.Empty(t, sess.Messages())
}

func TestDelete_FailedCollectionDeleteKeepsRecord(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	id := reg.Create(ctx, "sticky", "")
	tenant, _ := reg.Get(id)

	// First delete succeeds and marks the store gone; a second registry
	// delete would hit the failed collection delete path.
	require.True(t, tenant.Store().Delete(ctx))

	assert.False(t, reg.Delete(ctx, id))
	_, ok := reg.Get(id)
	assert.True(t, ok, "record survives a failed collection delete")
}

func TestRecordDocument_UpsertsByFilename(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	id := reg.Create(ctx, "docs", "")
	tenant, _ := reg.Get(id)

	tenant.Store().Add(ctx, chunkTexts(10), nil, nil)
	tenant.RecordDocument(ctx, DocumentSummary{
		SourceType: store.SourceTextFile,
		Filename:   "a.txt",
		Chunks:     10,
	})
	require.Equal(t, 1, tenant.DocumentCount())

	// Re-ingesting the same file adds vectors but must not add a second
	// ledger entry; the chunk count refreshes from the live store count.
	tenant.Store().Add(ctx, chunkTexts(5), nil, nil)
	tenant.RecordDocument(ctx, DocumentSummary{
		SourceType: store.SourceTextFile,
		Filename:   "a.txt",
		Chunks:     5,
	})

	docs := tenant.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, 15, docs[0].Chunks)
	assert.False(t, docs[0].DateUpdated.IsZero())
}

func TestRecordDocument_EmptyKeyAlwaysAppends(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	id := reg.Create(ctx, "raw", "")
	tenant, _ := reg.Get(id)

	tenant.RecordDocument(ctx, DocumentSummary{SourceType: store.SourceText, Chunks: 2})
	tenant.RecordDocument(ctx, DocumentSummary{SourceType: store.SourceText, Chunks: 3})

	assert.Equal(t, 2, tenant.DocumentCount(), "keyless raw text never deduplicates")
}

func TestSaveLoadFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.yaml")

	reg, _ := newTestRegistry(t)
	id := reg.Create(ctx, "persisted", "survives restarts")
	tenant, _ := reg.Get(id)
	tenant.RecordDocument(ctx, DocumentSummary{
		SourceType: store.SourceURL,
		URL:        "https://example.com",
		Title:      "Example",
		Chunks:     4,
	})
	reg.SwitchActive(id)
	require.NoError(t, reg.SaveFile(path))

	restored, _ := newTestRegistry(t)
	require.NoError(t, restored.LoadFile(ctx, path))

	loaded, ok := restored.Get(id)
	require.True(t, ok)
	assert.Equal(t, "persisted", loaded.Name)
	assert.Equal(t, tenant.CollectionName, loaded.CollectionName)
	assert.True(t, loaded.Store().Ready())

	docs := loaded.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "https://example.com", docs[0].URL)
	assert.Equal(t, 4, docs[0].Chunks)

	active, ok := restored.Active()
	require.True(t, ok)
	assert.Equal(t, id, active.ID)
}

func TestLoadFile_MissingFileIsEmpty(t *testing.T) {
	reg, _ := newTestRegistry(t)
	err := reg.LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, reg.List())
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":    "hello_world",
		"  padded  ":     "padded",
		"Weird!@#Chars":  "weirdchars",
		"under_score-ok": "under_score-ok",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugify(in), "slugify(%q)", in)
	}
}
