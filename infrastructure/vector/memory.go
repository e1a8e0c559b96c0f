package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/codex7/codex7/domain/search"
)

// MemoryStore is an in-process search.VectorStore with exact cosine scoring.
// It backs tests and deployments with no Qdrant configured.
type MemoryStore struct {
	mu     sync.RWMutex
	points map[string]search.Point
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{points: make(map[string]search.Point)}
}

// EnsureCollection is a no-op.
func (s *MemoryStore) EnsureCollection(_ context.Context) error { return nil }

// Upsert replaces points by id.
func (s *MemoryStore) Upsert(_ context.Context, points []search.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, point := range points {
		s.points[point.ID] = point
	}
	return nil
}

// DeleteByLibrary removes every point tagged with the library id.
func (s *MemoryStore) DeleteByLibrary(_ context.Context, libraryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, point := range s.points {
		if point.Payload.LibraryID == libraryID {
			delete(s.points, id)
		}
	}
	return nil
}

// Search scores every stored point by cosine similarity, applies the filter
// and threshold, and returns the top k.
func (s *MemoryStore) Search(_ context.Context, query search.VectorQuery) ([]search.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []search.Match
	for _, point := range s.points {
		if !matchesFilter(point.Payload, query.Filter) {
			continue
		}
		sim := cosine(query.Embedding, point.Vector)
		if query.Threshold > 0 && sim <= query.Threshold {
			continue
		}
		matches = append(matches, search.Match{Payload: point.Payload, Similarity: sim})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Payload.SnippetID < matches[j].Payload.SnippetID
	})

	if query.K > 0 && len(matches) > query.K {
		matches = matches[:query.K]
	}
	return matches, nil
}

// PointIDs lists the snippet ids stored for a library, in stable order.
func (s *MemoryStore) PointIDs(_ context.Context, libraryID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, point := range s.points {
		if point.Payload.LibraryID == libraryID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Len reports the number of stored points.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func matchesFilter(payload search.Payload, filter search.Filter) bool {
	if filter.LibraryID != "" && payload.LibraryID != filter.LibraryID {
		return false
	}
	if filter.VersionID != "" && payload.VersionID != filter.VersionID {
		return false
	}
	if len(filter.Topics) > 0 && !intersects(payload.Topics, filter.Topics) {
		return false
	}
	return true
}

func intersects(stored, wanted []string) bool {
	for _, w := range wanted {
		for _, s := range stored {
			if s == w {
				return true
			}
		}
	}
	return false
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
