package document

import (
	"context"

	"github.com/codex7/codex7/domain/storage"
)

// Store defines persistence operations for documents and snippets.
type Store interface {
	// SaveDocuments batch-inserts documents.
	SaveDocuments(ctx context.Context, docs []Document) error

	// GetDocument retrieves a single document matching the given options.
	GetDocument(ctx context.Context, options ...storage.Option) (Document, error)

	// DeleteDocuments removes documents matching the given options.
	DeleteDocuments(ctx context.Context, options ...storage.Option) error

	// DocumentExistsByHash reports whether a document with the given
	// content hash exists.
	DocumentExistsByHash(ctx context.Context, hash string) (bool, error)

	// SaveSnippets batch-inserts snippets in parser order.
	SaveSnippets(ctx context.Context, snippets []Snippet) error

	// ListSnippets retrieves snippets matching the given options.
	ListSnippets(ctx context.Context, options ...storage.Option) ([]Snippet, error)

	// SnippetIDs returns the ids of snippets matching the given options.
	SnippetIDs(ctx context.Context, options ...storage.Option) ([]string, error)

	// DeleteSnippets removes snippets matching the given options.
	DeleteSnippets(ctx context.Context, options ...storage.Option) error

	// FullTextSearch performs a case-insensitive substring match against
	// snippet titles and contents.
	FullTextSearch(ctx context.Context, opts FullTextOptions) ([]FullTextMatch, error)
}

// FullTextOptions configures a full-text snippet search.
type FullTextOptions struct {
	Query     string
	LibraryID string
	VersionID string
	CodeOnly  bool
	Limit     int
	MinScore  float64
}

// FullTextMatch pairs a snippet with its keyword score: 0.8 on a title
// match, 0.5 on a content match, 0.3 otherwise.
type FullTextMatch struct {
	Snippet Snippet
	Score   float64
}
