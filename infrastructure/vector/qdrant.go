// Package vector provides the Qdrant-backed vector store, an in-memory
// fallback, and a read-through search cache.
package vector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/codex7/codex7/domain/search"
)

// UpsertBatchSize bounds points per upsert call.
const UpsertBatchSize = 100

// scrollPageSize bounds points per scroll page when listing ids.
const scrollPageSize = 256

// Payload keys.
const (
	fieldSnippetID      = "snippet_id"
	fieldLibraryID      = "library_id"
	fieldVersionID      = "version_id"
	fieldTitle          = "title"
	fieldSourceFile     = "source_file"
	fieldSourceType     = "source_type"
	fieldContentPreview = "content_preview"
	fieldTopics         = "topics"
	fieldQualityScore   = "quality_score"
)

// QdrantStore implements search.VectorStore against a Qdrant instance.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore connects to the Qdrant gRPC endpoint named by rawURL
// (scheme http/https decides TLS, default port 6334).
func NewQdrantStore(rawURL, apiKey, collection string) (*QdrantStore, error) {
	host, port, useTLS, err := parseQdrantURL(rawURL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	return &QdrantStore{client: client, collection: collection}, nil
}

// parseQdrantURL splits a qdrant endpoint URL into client config fields.
func parseQdrantURL(rawURL string) (host string, port int, useTLS bool, err error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, false, fmt.Errorf("parse qdrant url: %w", err)
	}

	useTLS = u.Scheme == "https"
	host = u.Hostname()
	if host == "" {
		return "", 0, false, fmt.Errorf("parse qdrant url: missing host in %q", rawURL)
	}

	port = 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("parse qdrant url: bad port %q", p)
		}
	}
	return host, port, useTLS, nil
}

// EnsureCollection creates the snippet collection if it does not exist.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(search.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		// Lost a race with a concurrent creator.
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert writes points in batches of UpsertBatchSize with wait=true. Qdrant
// upsert replaces by id, so re-running is idempotent.
func (s *QdrantStore) Upsert(ctx context.Context, points []search.Point) error {
	for start := 0; start < len(points); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(points) {
			end = len(points)
		}

		batch := make([]*qdrant.PointStruct, 0, end-start)
		for _, point := range points[start:end] {
			batch = append(batch, &qdrant.PointStruct{
				Id:      qdrant.NewID(pointUUID(point.ID)),
				Vectors: qdrant.NewVectors(toFloat32(point.Vector)...),
				Payload: encodePayload(point.Payload),
			})
		}

		wait := true
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         batch,
			Wait:           &wait,
		})
		if err != nil {
			return fmt.Errorf("upsert points: %w", err)
		}
	}
	return nil
}

// DeleteByLibrary removes every point tagged with the library id.
func (s *QdrantStore) DeleteByLibrary(ctx context.Context, libraryID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch(fieldLibraryID, libraryID),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete points for library %s: %w", libraryID, err)
	}
	return nil
}

// Search runs a filtered top-k similarity query.
func (s *QdrantStore) Search(ctx context.Context, query search.VectorQuery) ([]search.Match, error) {
	req := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(toFloat32(query.Embedding)...),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if query.K > 0 {
		limit := uint64(query.K)
		req.Limit = &limit
	}
	if query.Threshold > 0 {
		threshold := float32(query.Threshold)
		req.ScoreThreshold = &threshold
	}
	if filter := encodeFilter(query.Filter); filter != nil {
		req.Filter = filter
	}

	scored, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}

	matches := make([]search.Match, 0, len(scored))
	for _, point := range scored {
		matches = append(matches, search.Match{
			Payload:    decodePayload(point.Payload),
			Similarity: float64(point.Score),
		})
	}
	return aboveThreshold(matches, query.Threshold), nil
}

// aboveThreshold keeps matches strictly above the threshold. Qdrant's
// server-side ScoreThreshold is inclusive, while the store contract drops
// boundary-equal rows.
func aboveThreshold(matches []search.Match, threshold float64) []search.Match {
	if threshold <= 0 {
		return matches
	}
	kept := matches[:0]
	for _, m := range matches {
		if m.Similarity > threshold {
			kept = append(kept, m)
		}
	}
	return kept
}

// PointIDs scrolls the collection and returns the snippet ids stored for a
// library.
func (s *QdrantStore) PointIDs(ctx context.Context, libraryID string) ([]string, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(fieldLibraryID, libraryID)},
	}

	var ids []string
	var offset *qdrant.PointId
	for {
		limit := uint32(scrollPageSize)
		page, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter:         filter,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scroll points for library %s: %w", libraryID, err)
		}
		if len(page) == 0 {
			break
		}

		for _, point := range page {
			payload := decodePayload(point.Payload)
			if payload.SnippetID != "" {
				ids = append(ids, payload.SnippetID)
			}
		}
		if len(page) < scrollPageSize {
			break
		}
		offset = page[len(page)-1].Id
	}
	return ids, nil
}

// Close releases the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// pointUUID derives the stable qdrant point id for a snippet id. Qdrant
// point ids must be UUIDs, snippet ids are sha256 hex.
func pointUUID(snippetID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(snippetID)).String()
}

func toFloat32(vector []float64) []float32 {
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(v)
	}
	return out
}

func encodePayload(p search.Payload) map[string]*qdrant.Value {
	topics := make([]any, len(p.Topics))
	for i, t := range p.Topics {
		topics[i] = t
	}
	return qdrant.NewValueMap(map[string]any{
		fieldSnippetID:      p.SnippetID,
		fieldLibraryID:      p.LibraryID,
		fieldVersionID:      p.VersionID,
		fieldTitle:          p.Title,
		fieldSourceFile:     p.SourceFile,
		fieldSourceType:     p.SourceType,
		fieldContentPreview: p.ContentPreview,
		fieldTopics:         topics,
		fieldQualityScore:   p.QualityScore,
	})
}

func decodePayload(values map[string]*qdrant.Value) search.Payload {
	str := func(key string) string { return values[key].GetStringValue() }

	var topics []string
	if list := values[fieldTopics].GetListValue(); list != nil {
		for _, item := range list.Values {
			if tag := item.GetStringValue(); tag != "" {
				topics = append(topics, tag)
			}
		}
	}

	return search.Payload{
		SnippetID:      str(fieldSnippetID),
		LibraryID:      str(fieldLibraryID),
		VersionID:      str(fieldVersionID),
		Title:          str(fieldTitle),
		SourceFile:     str(fieldSourceFile),
		SourceType:     str(fieldSourceType),
		ContentPreview: str(fieldContentPreview),
		Topics:         topics,
		QualityScore:   values[fieldQualityScore].GetDoubleValue(),
	}
}

// encodeFilter builds the must-clause for a search. Topics match when any
// stored tag equals any requested tag.
func encodeFilter(f search.Filter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.LibraryID != "" {
		must = append(must, qdrant.NewMatch(fieldLibraryID, f.LibraryID))
	}
	if f.VersionID != "" {
		must = append(must, qdrant.NewMatch(fieldVersionID, f.VersionID))
	}
	if len(f.Topics) > 0 {
		must = append(must, qdrant.NewMatchKeywords(fieldTopics, f.Topics...))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}
