package codex7_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex7/codex7"
	"github.com/codex7/codex7/application/service"
)

// createTestDocs writes a small markdown documentation tree and returns its
// root path.
func createTestDocs(t *testing.T) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "docs-project")
	docsDir := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0o755))

	readme := `# Router

A tiny HTTP router.

## Installation

` + "```bash\ngo get github.com/acme/router\n```" + `
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte(readme), 0o644))

	routing := `# Routing

## Path Parameters

Routes may capture path segments as named parameters.

` + "```go\nr.Get(\"/users/{id}\", handler)\n```" + `

## Middleware

Handlers compose through middleware chains applied per route group.

` + "```go\nr.Use(Logger)\n```" + `
`
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "routing.md"), []byte(routing), 0o644))

	return root
}

func newTestClient(t *testing.T) *codex7.Client {
	t.Helper()

	tmpDir := t.TempDir()
	client, err := codex7.New(
		codex7.WithSQLite(filepath.Join(tmpDir, "test.db")),
		codex7.WithDataDir(tmpDir),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func indexTestProject(ctx context.Context, t *testing.T, client *codex7.Client) {
	t.Helper()

	_, err := client.Indexer.IndexProject(ctx, service.IndexParams{
		Path:       createTestDocs(t),
		Identifier: "/acme/router",
		Version:    "1.0.0",
	})
	require.NoError(t, err)
}

func TestIntegration_IndexThenResolve(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	indexTestProject(ctx, t, client)

	matches, err := client.Resolver.Resolve(ctx, "router")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.Equal(t, "/acme/router", matches[0].ID)
	assert.Equal(t, service.ToolHintLocalDocs, matches[0].ToolHint)
	assert.Equal(t, service.SourceLocal, matches[0].Source)
	assert.Contains(t, matches[0].Versions, "1.0.0")
}

func TestIntegration_IndexThenRenderDocs(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	indexTestProject(ctx, t, client)

	docs, err := client.Retrieval.LibraryDocs(ctx, service.DocsRequest{
		Library: "/acme/router",
	})
	require.NoError(t, err)

	assert.Contains(t, docs, "Path Parameters")
	assert.Contains(t, docs, "r.Get(")
}

func TestIntegration_IndexThenSearch(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	indexTestProject(ctx, t, client)

	// No embedding provider configured: search degrades to full-text.
	hits, err := client.Retrieval.Search(ctx, service.HybridRequest{
		Query: "middleware",
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	assert.Contains(t, hits[0].Content, "middleware")
	assert.Equal(t, "/acme/router", hits[0].LibraryIdentifier)
}

func TestIntegration_GetDocumentByPath(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	indexTestProject(ctx, t, client)

	doc, err := client.Retrieval.GetDocument(ctx, "/acme/router", "docs/routing.md", 0)
	require.NoError(t, err)

	assert.Equal(t, "Routing", doc.Title)
	assert.Contains(t, doc.Content, "Path Parameters")
	assert.Greater(t, doc.Tokens, 0)
}

func TestIntegration_ReindexReplacesVersion(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	path := createTestDocs(t)
	for range 2 {
		_, err := client.Indexer.IndexProject(ctx, service.IndexParams{
			Path:       path,
			Identifier: "/acme/router",
			Version:    "1.0.0",
		})
		require.NoError(t, err)
	}

	// Reindexing the same version replaces it rather than accumulating.
	lib, versions, err := client.Retrieval.Versions(ctx, "/acme/router")
	require.NoError(t, err)
	assert.Equal(t, "/acme/router", lib.Identifier().String())
	assert.Len(t, versions, 1)
}

func TestIntegration_MissingLibrary(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	_, err := client.Retrieval.LibraryDocs(context.Background(), service.DocsRequest{
		Library: "/acme/missing",
	})
	assert.ErrorIs(t, err, service.ErrLibraryNotFound)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	client, err := codex7.New(
		codex7.WithSQLite(filepath.Join(tmpDir, "test.db")),
		codex7.WithDataDir(tmpDir),
	)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.Close(), codex7.ErrClientClosed)
}
