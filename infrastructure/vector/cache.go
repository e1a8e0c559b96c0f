package vector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codex7/codex7/domain/search"
)

// CacheSize is the number of search results kept by the read-through cache.
const CacheSize = 512

// CachedStore wraps a search.VectorStore with an LRU over Search results.
// Any write for a library invalidates the whole cache; correctness over
// cleverness, writes are rare next to reads.
type CachedStore struct {
	inner search.VectorStore
	cache *lru.Cache[string, []search.Match]
}

// NewCachedStore wraps inner with a CacheSize-entry search cache.
func NewCachedStore(inner search.VectorStore) (*CachedStore, error) {
	cache, err := lru.New[string, []search.Match](CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create search cache: %w", err)
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

// EnsureCollection delegates to the wrapped store.
func (c *CachedStore) EnsureCollection(ctx context.Context) error {
	return c.inner.EnsureCollection(ctx)
}

// Upsert writes through and drops all cached results.
func (c *CachedStore) Upsert(ctx context.Context, points []search.Point) error {
	if err := c.inner.Upsert(ctx, points); err != nil {
		return err
	}
	c.cache.Purge()
	return nil
}

// DeleteByLibrary writes through and drops all cached results.
func (c *CachedStore) DeleteByLibrary(ctx context.Context, libraryID string) error {
	if err := c.inner.DeleteByLibrary(ctx, libraryID); err != nil {
		return err
	}
	c.cache.Purge()
	return nil
}

// Search serves cached results when the same query was seen since the last
// write, otherwise queries the wrapped store and caches.
func (c *CachedStore) Search(ctx context.Context, query search.VectorQuery) ([]search.Match, error) {
	key := cacheKey(query)
	if matches, ok := c.cache.Get(key); ok {
		return matches, nil
	}

	matches, err := c.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, matches)
	return matches, nil
}

// PointIDs delegates to the wrapped store.
func (c *CachedStore) PointIDs(ctx context.Context, libraryID string) ([]string, error) {
	return c.inner.PointIDs(ctx, libraryID)
}

// cacheKey hashes the full query shape, embedding included.
func cacheKey(query search.VectorQuery) string {
	h := sha256.New()
	for _, v := range query.Embedding {
		fmt.Fprintf(h, "%.9f,", v)
	}
	topics := append([]string{}, query.Filter.Topics...)
	sort.Strings(topics)
	fmt.Fprintf(h, "|%d|%.6f|%s|%s|%s",
		query.K, query.Threshold,
		query.Filter.LibraryID, query.Filter.VersionID, strings.Join(topics, ","))
	return hex.EncodeToString(h.Sum(nil))
}
