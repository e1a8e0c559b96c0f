package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex7/codex7/domain/search"
)

func point(id, libraryID string, topics []string, vector []float64) search.Point {
	return search.Point{
		ID:     id,
		Vector: vector,
		Payload: search.Payload{
			SnippetID: id,
			LibraryID: libraryID,
			Title:     "t-" + id,
			Topics:    topics,
		},
	}
}

func TestMemoryStore_SearchFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Upsert(ctx, []search.Point{
		point("s1", "lib-1", []string{"routing"}, []float64{1, 0, 0}),
		point("s2", "lib-1", []string{"caching"}, []float64{0.9, 0.1, 0}),
		point("s3", "lib-2", []string{"routing"}, []float64{1, 0, 0}),
	}))

	// Library filter plus topic filter leaves only the matching point.
	matches, err := store.Search(ctx, search.VectorQuery{
		Embedding: []float64{1, 0, 0},
		K:         10,
		Filter:    search.Filter{LibraryID: "lib-1", Topics: []string{"routing"}},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "s1", matches[0].Payload.SnippetID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)

	// Topic-any semantics: either tag qualifies.
	matches, err = store.Search(ctx, search.VectorQuery{
		Embedding: []float64{1, 0, 0},
		K:         10,
		Filter:    search.Filter{LibraryID: "lib-1", Topics: []string{"routing", "caching"}},
	})
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestMemoryStore_ThresholdAndK(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Upsert(ctx, []search.Point{
		point("s1", "lib-1", nil, []float64{1, 0, 0}),
		point("s2", "lib-1", nil, []float64{0, 1, 0}),
		point("s3", "lib-1", nil, []float64{0.7, 0.7, 0}),
	}))

	matches, err := store.Search(ctx, search.VectorQuery{
		Embedding: []float64{1, 0, 0},
		K:         2,
		Threshold: 0.5,
	})
	require.NoError(t, err)
	// s2 is orthogonal and dropped by the threshold; the rest sort by
	// similarity.
	require.Len(t, matches, 2)
	assert.Equal(t, "s1", matches[0].Payload.SnippetID)
	assert.Equal(t, "s3", matches[1].Payload.SnippetID)
}

func TestMemoryStore_DeleteByLibrary(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Upsert(ctx, []search.Point{
		point("s1", "lib-1", nil, []float64{1, 0, 0}),
		point("s2", "lib-2", nil, []float64{0, 1, 0}),
	}))
	require.NoError(t, store.DeleteByLibrary(ctx, "lib-1"))

	ids, err := store.PointIDs(ctx, "lib-1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = store.PointIDs(ctx, "lib-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, ids)
}

func TestMemoryStore_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Upsert(ctx, []search.Point{point("s1", "lib-1", nil, []float64{1, 0, 0})}))
	require.NoError(t, store.Upsert(ctx, []search.Point{point("s1", "lib-1", nil, []float64{0, 1, 0})}))
	assert.Equal(t, 1, store.Len())

	matches, err := store.Search(ctx, search.VectorQuery{Embedding: []float64{0, 1, 0}, K: 1})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
}

func TestCachedStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	store, err := NewCachedStore(inner)
	require.NoError(t, err)

	require.NoError(t, store.Upsert(ctx, []search.Point{point("s1", "lib-1", nil, []float64{1, 0, 0})}))

	query := search.VectorQuery{Embedding: []float64{1, 0, 0}, K: 5}
	first, err := store.Search(ctx, query)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Mutate the inner store directly; the cached result must still be
	// served until the next write through the wrapper.
	require.NoError(t, inner.DeleteByLibrary(ctx, "lib-1"))
	cached, err := store.Search(ctx, query)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	// A write through the wrapper invalidates.
	require.NoError(t, store.Upsert(ctx, []search.Point{point("s2", "lib-2", nil, []float64{0, 1, 0})}))
	fresh, err := store.Search(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestCacheKey_Distinguishes(t *testing.T) {
	base := search.VectorQuery{Embedding: []float64{1, 0}, K: 5}

	other := base
	other.K = 6
	assert.NotEqual(t, cacheKey(base), cacheKey(other))

	other = base
	other.Filter.LibraryID = "lib-1"
	assert.NotEqual(t, cacheKey(base), cacheKey(other))

	// Topic order does not matter.
	a := base
	a.Filter.Topics = []string{"x", "y"}
	b := base
	b.Filter.Topics = []string{"y", "x"}
	assert.Equal(t, cacheKey(a), cacheKey(b))
}

func TestParseQdrantURL(t *testing.T) {
	tests := []struct {
		raw     string
		host    string
		port    int
		useTLS  bool
		wantErr bool
	}{
		{raw: "http://localhost:6334", host: "localhost", port: 6334},
		{raw: "localhost", host: "localhost", port: 6334},
		{raw: "https://qdrant.internal:7000", host: "qdrant.internal", port: 7000, useTLS: true},
		{raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			host, port, useTLS, err := parseQdrantURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
			assert.Equal(t, tt.useTLS, useTLS)
		})
	}
}

func TestAboveThreshold_DropsBoundaryEqualRows(t *testing.T) {
	matches := []search.Match{
		{Payload: search.Payload{SnippetID: "above"}, Similarity: 0.51},
		{Payload: search.Payload{SnippetID: "equal"}, Similarity: 0.5},
		{Payload: search.Payload{SnippetID: "below"}, Similarity: 0.49},
	}

	kept := aboveThreshold(matches, 0.5)
	require.Len(t, kept, 1)
	assert.Equal(t, "above", kept[0].Payload.SnippetID)

	// No threshold keeps everything.
	all := []search.Match{
		{Payload: search.Payload{SnippetID: "a"}, Similarity: 0.1},
		{Payload: search.Payload{SnippetID: "b"}, Similarity: 0.2},
	}
	assert.Len(t, aboveThreshold(all, 0), 2)
}

func TestPointUUID_Stable(t *testing.T) {
	assert.Equal(t, pointUUID("abc"), pointUUID("abc"))
	assert.NotEqual(t, pointUUID("abc"), pointUUID("abd"))
}
