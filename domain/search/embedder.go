// Package search provides the vector-search domain contracts and the blended
// ranking used by the retrieval engine.
package search

import (
	"context"
	"errors"
)

// Dimension is the embedding dimensionality of the vector space.
const Dimension = 1536

// ErrEmbeddingUnavailable indicates the upstream embedding service could not
// be reached or returned a non-2xx status. Retryable.
var ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

// ErrEmbeddingProtocol indicates the upstream returned a malformed response
// (wrong count, wrong dimension). Fatal for the indexing job.
var ErrEmbeddingProtocol = errors.New("embedding protocol error")

// Embedder converts texts into same-order embedding vectors of Dimension
// unit-normalized floats.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// Configured reports whether the upstream service is configured; when
	// false the retrieval engine degrades to full-text search.
	Configured() bool
}
