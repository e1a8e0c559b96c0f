package search

import "context"

// Payload is the filterable metadata stored alongside each vector point.
// It mirrors the relational snippet row for the fields used in filtering.
type Payload struct {
	SnippetID      string
	LibraryID      string
	VersionID      string
	Title          string
	SourceFile     string
	SourceType     string
	ContentPreview string
	Topics         []string
	QualityScore   float64
}

// Point is one vector-store entry, keyed by snippet id.
type Point struct {
	ID      string
	Vector  []float64
	Payload Payload
}

// Filter restricts a vector search. All set fields combine with AND; Topics
// matches when the stored topic set intersects the given one.
type Filter struct {
	LibraryID string
	VersionID string
	Topics    []string
}

// VectorQuery is a similarity search request.
type VectorQuery struct {
	Embedding []float64
	K         int
	Threshold float64
	Filter    Filter
}

// Match is one similarity search hit.
type Match struct {
	Payload    Payload
	Similarity float64
}

// VectorStore holds one point per snippet with a filterable payload.
type VectorStore interface {
	// EnsureCollection creates the collection if absent (dimension D,
	// cosine distance). Idempotent.
	EnsureCollection(ctx context.Context) error

	// Upsert replaces points by id, batching internally. Idempotent per id.
	Upsert(ctx context.Context, points []Point) error

	// DeleteByLibrary removes every point whose payload library_id matches.
	DeleteByLibrary(ctx context.Context, libraryID string) error

	// Search returns the top-k matches by cosine similarity, filtered, with
	// rows at or below the threshold dropped when threshold > 0.
	Search(ctx context.Context, query VectorQuery) ([]Match, error)

	// PointIDs lists the point ids stored for a library.
	PointIDs(ctx context.Context, libraryID string) ([]string, error)
}
