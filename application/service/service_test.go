package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex7/codex7/domain/document"
	"github.com/codex7/codex7/domain/index"
	"github.com/codex7/codex7/domain/library"
	"github.com/codex7/codex7/domain/search"
	"github.com/codex7/codex7/domain/storage"
	"github.com/codex7/codex7/infrastructure/persistence"
	"github.com/codex7/codex7/infrastructure/topics"
	"github.com/codex7/codex7/infrastructure/vector"
	"github.com/codex7/codex7/internal/database"
)

// fakeEmbedder returns a fixed leading coordinate padded to the embedding
// dimension, so tests control cosine similarity exactly.
type fakeEmbedder struct {
	configured bool
	lead       []float64
	err        error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = padVector(f.lead...)
	}
	return out, nil
}

func (f *fakeEmbedder) Configured() bool { return f.configured }

func padVector(lead ...float64) []float64 {
	v := make([]float64, search.Dimension)
	copy(v, lead)
	return v
}

type stores struct {
	libraries *persistence.LibraryStore
	documents *persistence.DocumentStore
	jobs      *persistence.JobStore
	vectors   *vector.MemoryStore
}

func setupStores(t *testing.T) stores {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := database.NewDatabase(ctx, "sqlite:///"+dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	return stores{
		libraries: persistence.NewLibraryStore(db),
		documents: persistence.NewDocumentStore(db),
		jobs:      persistence.NewJobStore(db),
		vectors:   vector.NewMemoryStore(),
	}
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return root
}

func newIndexer(s stores, embedder search.Embedder) *Indexer {
	return NewIndexer(s.libraries, s.documents, s.jobs, s.vectors, embedder, topics.NewExtractor(nil, nil), nil)
}

const routedDoc = "# Router\n\n## Routing\n\nContent.\n\n## Data Fetching\n\nMore.\n"

func TestIndexer_IndexProject(t *testing.T) {
	ctx := context.Background()
	s := setupStores(t)
	ix := newIndexer(s, &fakeEmbedder{configured: true, lead: []float64{1}})

	root := writeProject(t, map[string]string{"README.md": routedDoc})
	job, err := ix.IndexProject(ctx, IndexParams{Path: root, Identifier: "/acme/router"})
	require.NoError(t, err)
	assert.Equal(t, index.StatusCompleted, job.State())

	lib, err := s.libraries.GetLibrary(ctx, storage.WithIdentifier("/acme/router"))
	require.NoError(t, err)
	assert.Equal(t, library.LocalTrustScore, lib.TrustScore())
	assert.Equal(t, []string{"routing", "data-fetching"}, lib.Topics())

	snippets, err := s.documents.ListSnippets(ctx, storage.WithLibraryID(lib.ID()))
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	for _, sn := range snippets {
		assert.InDelta(t, 0.5, sn.QualityScore(), 1e-9)
		assert.Len(t, sn.Embedding(), search.Dimension)
	}

	// Vector / relational parity.
	snippetIDs, err := s.documents.SnippetIDs(ctx, storage.WithLibraryID(lib.ID()))
	require.NoError(t, err)
	pointIDs, err := s.vectors.PointIDs(ctx, lib.ID())
	require.NoError(t, err)
	assert.ElementsMatch(t, snippetIDs, pointIDs)

	versions, err := s.libraries.ListVersions(ctx, lib.ID())
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, DefaultVersionString, versions[0].VersionString())
	assert.Equal(t, 1, versions[0].DocumentCount())
}

func TestIndexer_ReindexIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := setupStores(t)
	ix := newIndexer(s, &fakeEmbedder{configured: true, lead: []float64{1}})

	root := writeProject(t, map[string]string{"README.md": routedDoc})
	_, err := ix.IndexProject(ctx, IndexParams{Path: root, Identifier: "/acme/router"})
	require.NoError(t, err)

	lib, err := s.libraries.GetLibrary(ctx, storage.WithIdentifier("/acme/router"))
	require.NoError(t, err)
	firstIDs, err := s.documents.SnippetIDs(ctx, storage.WithLibraryID(lib.ID()))
	require.NoError(t, err)

	_, err = ix.IndexProject(ctx, IndexParams{Path: root, Identifier: "/acme/router"})
	require.NoError(t, err)

	relib, err := s.libraries.GetLibrary(ctx, storage.WithIdentifier("/acme/router"))
	require.NoError(t, err)
	assert.Equal(t, lib.ID(), relib.ID())

	secondIDs, err := s.documents.SnippetIDs(ctx, storage.WithLibraryID(relib.ID()))
	require.NoError(t, err)
	assert.ElementsMatch(t, firstIDs, secondIDs)
	assert.Equal(t, lib.Topics(), relib.Topics())
}

func TestIndexer_NoSnippets(t *testing.T) {
	ctx := context.Background()
	s := setupStores(t)
	ix := newIndexer(s, &fakeEmbedder{})

	root := writeProject(t, map[string]string{"notes.txt": "not markdown"})
	job, err := ix.IndexProject(ctx, IndexParams{Path: root, Identifier: "/acme/empty"})
	require.Error(t, err)
	assert.True(t, IsNoSnippets(err))
	assert.Equal(t, index.StatusFailed, job.State())
}

func TestIndexer_BadIdentifier(t *testing.T) {
	s := setupStores(t)
	ix := newIndexer(s, &fakeEmbedder{})

	_, err := ix.IndexProject(context.Background(), IndexParams{Path: t.TempDir(), Identifier: "not an id"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIndexer_LibraryBusy(t *testing.T) {
	s := setupStores(t)
	ix := newIndexer(s, &fakeEmbedder{})

	require.True(t, ix.locks.Acquire("/acme/router"))
	_, err := ix.IndexProject(context.Background(), IndexParams{Path: t.TempDir(), Identifier: "/acme/router"})
	assert.ErrorIs(t, err, ErrLibraryBusy)

	ix.locks.Release("/acme/router")
	root := writeProject(t, map[string]string{"README.md": routedDoc})
	_, err = ix.IndexProject(context.Background(), IndexParams{Path: root, Identifier: "/acme/router"})
	assert.NoError(t, err)
}

// seedLibrary inserts a bare library; tests add reconstructed snippets to
// control tokens, quality, and updated-at exactly.
func seedLibrary(t *testing.T, s stores, identifier string, rules []string) library.Library {
	t.Helper()

	id, err := library.ParseIdentifier(identifier)
	require.NoError(t, err)
	lib := library.NewLibrary(id, id.Project(), "Library for testing.").WithRules(rules)
	require.NoError(t, s.libraries.SaveLibrary(context.Background(), lib))
	return lib
}

func reconstructSnippet(id, libraryID, title string, tokens int, quality float64, updatedAt time.Time) document.Snippet {
	content := "content of " + title
	return document.ReconstructSnippet(
		id, libraryID, "", title, "/docs/"+id+".md",
		document.SourceDocs,
		"", content, nil, nil,
		tokens, quality, nil, updatedAt,
	)
}

func TestRetrieval_TokenBudgetPrefix(t *testing.T) {
	ctx := context.Background()
	s := setupStores(t)

	now := time.Now().UTC()
	lib := seedLibrary(t, s, "/acme/budget", nil)
	// Quality descending fixes the fallback-scan order.
	require.NoError(t, s.documents.SaveSnippets(ctx, []document.Snippet{
		reconstructSnippet("s1", lib.ID(), "First", 400, 0.9, now),
		reconstructSnippet("s2", lib.ID(), "Second", 600, 0.8, now),
		reconstructSnippet("s3", lib.ID(), "Third", 500, 0.7, now),
	}))

	retrieval := NewRetrieval(s.libraries, s.documents, s.vectors, &fakeEmbedder{}, nil)

	small, err := retrieval.LibraryDocs(ctx, DocsRequest{Library: "/acme/budget", MaxTokens: 1000})
	require.NoError(t, err)
	assert.Contains(t, small, "### First")
	assert.NotContains(t, small, "### Second")
	assert.NotContains(t, small, "### Third")

	large, err := retrieval.LibraryDocs(ctx, DocsRequest{Library: "/acme/budget", MaxTokens: 2000})
	require.NoError(t, err)
	assert.Contains(t, large, "### First")
	assert.Contains(t, large, "### Second")
	assert.Contains(t, large, "### Third")

	// Budget monotonicity: the small render is a prefix of the large one.
	assert.Equal(t, small, large[:len(small)])
}

func TestRetrieval_BlendedOverridesSimilarity(t *testing.T) {
	ctx := context.Background()
	s := setupStores(t)

	now := time.Now().UTC()
	lib := seedLibrary(t, s, "/acme/blend", nil)
	require.NoError(t, s.documents.SaveSnippets(ctx, []document.Snippet{
		reconstructSnippet("sa", lib.ID(), "Alpha", 10, 0.3, now),
		reconstructSnippet("sb", lib.ID(), "Beta", 10, 1.0, now),
	}))

	// Query embedding is [1, 0, ...]; point A scores 0.9, point B 0.7.
	require.NoError(t, s.vectors.Upsert(ctx, []search.Point{
		{
			ID:     "sa",
			Vector: padVector(0.9, 0.43588989435),
			Payload: search.Payload{SnippetID: "sa", LibraryID: lib.ID(), QualityScore: 0.3},
		},
		{
			ID:     "sb",
			Vector: padVector(0.7, 0.71414284285),
			Payload: search.Payload{SnippetID: "sb", LibraryID: lib.ID(), QualityScore: 1.0},
		},
	}))

	retrieval := NewRetrieval(s.libraries, s.documents, s.vectors, &fakeEmbedder{configured: true, lead: []float64{1}}, nil)
	out, err := retrieval.LibraryDocs(ctx, DocsRequest{Library: "/acme/blend", Topic: "alpha or beta"})
	require.NoError(t, err)

	// Blended: A = 0.7*0.9 + 0.3*0.3 = 0.72, B = 0.7*0.7 + 0.3*1.0 = 0.79.
	posAlpha := indexOf(out, "### Alpha")
	posBeta := indexOf(out, "### Beta")
	require.GreaterOrEqual(t, posAlpha, 0)
	require.GreaterOrEqual(t, posBeta, 0)
	assert.Less(t, posBeta, posAlpha)
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func TestRetrieval_TopicFilter(t *testing.T) {
	ctx := context.Background()
	s := setupStores(t)

	now := time.Now().UTC()
	lib := seedLibrary(t, s, "/acme/topics", nil)
	require.NoError(t, s.documents.SaveSnippets(ctx, []document.Snippet{
		reconstructSnippet("s1", lib.ID(), "Auth Guide", 10, 0.5, now),
		reconstructSnippet("s2", lib.ID(), "Routing Guide", 10, 0.5, now),
		reconstructSnippet("s3", lib.ID(), "Auth Routing", 10, 0.5, now),
	}))
	require.NoError(t, s.vectors.Upsert(ctx, []search.Point{
		{ID: "s1", Vector: padVector(1), Payload: search.Payload{SnippetID: "s1", LibraryID: lib.ID(), Topics: []string{"auth"}}},
		{ID: "s2", Vector: padVector(1), Payload: search.Payload{SnippetID: "s2", LibraryID: lib.ID(), Topics: []string{"routing"}}},
		{ID: "s3", Vector: padVector(1), Payload: search.Payload{SnippetID: "s3", LibraryID: lib.ID(), Topics: []string{"auth", "routing"}}},
	}))

	retrieval := NewRetrieval(s.libraries, s.documents, s.vectors, &fakeEmbedder{configured: true, lead: []float64{1}}, nil)

	out, err := retrieval.LibraryDocs(ctx, DocsRequest{Library: "/acme/topics", Topic: "q", Topics: []string{"auth"}})
	require.NoError(t, err)
	assert.Contains(t, out, "### Auth Guide")
	assert.Contains(t, out, "### Auth Routing")
	assert.NotContains(t, out, "### Routing Guide")

	out, err = retrieval.LibraryDocs(ctx, DocsRequest{Library: "/acme/topics", Topic: "q", Topics: []string{"routing"}})
	require.NoError(t, err)
	assert.NotContains(t, out, "### Auth Guide")
	assert.Contains(t, out, "### Routing Guide")
	assert.Contains(t, out, "### Auth Routing")
}

func TestRetrieval_RendersRules(t *testing.T) {
	ctx := context.Background()
	s := setupStores(t)

	now := time.Now().UTC()
	lib := seedLibrary(t, s, "/acme/rules", []string{"Pin the SDK version."})
	require.NoError(t, s.documents.SaveSnippets(ctx, []document.Snippet{
		reconstructSnippet("s1", lib.ID(), "Only", 10, 0.5, now),
	}))

	retrieval := NewRetrieval(s.libraries, s.documents, s.vectors, &fakeEmbedder{}, nil)
	out, err := retrieval.LibraryDocs(ctx, DocsRequest{Library: "/acme/rules"})
	require.NoError(t, err)
	assert.Contains(t, out, "## Best Practices\n- Pin the SDK version.")
	assert.Contains(t, out, "Source: /docs/s1.md")
}

func TestRetrieval_GetDocumentTruncates(t *testing.T) {
	ctx := context.Background()
	s := setupStores(t)
	lib := seedLibrary(t, s, "/acme/docs", nil)

	longContent := ""
	for len(longContent) < 9000 {
		longContent += "abcdefghij"
	}
	doc := document.NewDocument(lib.ID(), "", "guide.md", "Guide", longContent, document.SourceDocs, "")
	require.NoError(t, s.documents.SaveDocuments(ctx, []document.Document{doc}))

	retrieval := NewRetrieval(s.libraries, s.documents, s.vectors, &fakeEmbedder{}, nil)

	payload, err := retrieval.GetDocument(ctx, "/acme/docs", "guide.md", 1000)
	require.NoError(t, err)
	assert.Equal(t, "Guide", payload.Title)
	assert.Len(t, payload.Content, 4000+len("... [truncated]"))
	assert.Contains(t, payload.Content, "... [truncated]")

	_, err = retrieval.GetDocument(ctx, "/acme/docs", "missing.md", 1000)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestRetrieval_SearchDegradesToFullText(t *testing.T) {
	ctx := context.Background()
	s := setupStores(t)

	now := time.Now().UTC()
	lib := seedLibrary(t, s, "/acme/hybrid", nil)
	require.NoError(t, s.documents.SaveSnippets(ctx, []document.Snippet{
		reconstructSnippet("s1", lib.ID(), "Caching Strategies", 10, 0.5, now),
		reconstructSnippet("s2", lib.ID(), "Unrelated", 10, 0.9, now),
	}))

	retrieval := NewRetrieval(s.libraries, s.documents, s.vectors, &fakeEmbedder{}, nil)
	hits, err := retrieval.Search(ctx, HybridRequest{Query: "caching"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Caching Strategies", hits[0].Title)
	assert.Equal(t, "/acme/hybrid", hits[0].LibraryIdentifier)

	_, err = retrieval.Search(ctx, HybridRequest{Query: "  "})
	assert.ErrorIs(t, err, ErrValidation)
}

type fakeUpstream struct {
	matches []RemoteLibrary
	err     error
}

func (f *fakeUpstream) SearchLibraries(_ context.Context, _ string) ([]RemoteLibrary, error) {
	return f.matches, f.err
}

func TestResolver_LocalsFirst(t *testing.T) {
	ctx := context.Background()
	s := setupStores(t)
	seedLibrary(t, s, "/acme/router", nil)

	upstream := &fakeUpstream{matches: []RemoteLibrary{
		{ID: "/acme/router", Name: "router (remote)"},
		{ID: "/vendor/router", Name: "vendor router"},
	}}
	resolver := NewResolver(s.libraries, upstream, nil)

	matches, err := resolver.Resolve(ctx, "router")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "/acme/router", matches[0].ID)
	assert.Equal(t, SourceLocal, matches[0].Source)
	assert.Equal(t, ToolHintLocalDocs, matches[0].ToolHint)

	assert.Equal(t, "/vendor/router", matches[1].ID)
	assert.Equal(t, SourceRemote, matches[1].Source)
	assert.Equal(t, ToolHintLibraryDocs, matches[1].ToolHint)
}

func TestResolver_UpstreamFailureDegrades(t *testing.T) {
	ctx := context.Background()
	s := setupStores(t)
	seedLibrary(t, s, "/acme/router", nil)

	resolver := NewResolver(s.libraries, &fakeUpstream{err: assert.AnError}, nil)
	matches, err := resolver.Resolve(ctx, "router")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, SourceLocal, matches[0].Source)
}
