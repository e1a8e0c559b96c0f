package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codex7/codex7/domain/document"
	"github.com/codex7/codex7/domain/library"
	"github.com/codex7/codex7/domain/search"
	"github.com/codex7/codex7/domain/storage"
)

// Retrieval limits.
const (
	// SemanticK is the vector-search depth for the docs modes.
	SemanticK = 30

	// FallbackScanLimit bounds the snippet scan used when vector search
	// yields nothing.
	FallbackScanLimit = 30

	// DefaultHybridLimit is the result count for hybrid search when the
	// caller does not set one.
	DefaultHybridLimit = 10

	// MaxHybridLimit caps caller-requested hybrid result counts.
	MaxHybridLimit = 50
)

// truncationMarker ends document content cut to fit a token budget.
const truncationMarker = "... [truncated]"

// DocsRequest asks for rendered documentation for one library.
type DocsRequest struct {
	// Library is an identifier ("/org/project") or a library id.
	Library string

	// Topic is free text driving semantic retrieval.
	Topic string

	// Topics filters snippets by normalized topic tags (any-of).
	Topics []string

	// MaxTokens bounds the rendered output; DefaultOutputTokens when zero.
	MaxTokens int
}

// DocumentPayload is a single document fetched by path.
type DocumentPayload struct {
	Title   string
	Content string
	Tokens  int
}

// HybridRequest is a cross-library documentation search.
type HybridRequest struct {
	Query      string
	Library    string
	Version    string
	SourceType string
	Limit      int
	MinScore   float64
}

// SearchHit is one hybrid search result.
type SearchHit struct {
	Title   string
	Content string
	Score   float64

	LibraryIdentifier string
	LibraryName       string
	LibraryVersion    string
}

// Retrieval serves the read paths: document fetch, rendered docs, and
// hybrid search.
type Retrieval struct {
	libraries library.Store
	documents document.Store
	vectors   search.VectorStore
	embedder  search.Embedder
	logger    *slog.Logger
}

// NewRetrieval wires a Retrieval over its stores and providers.
func NewRetrieval(
	libraries library.Store,
	documents document.Store,
	vectors search.VectorStore,
	embedder search.Embedder,
	logger *slog.Logger,
) *Retrieval {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrieval{
		libraries: libraries,
		documents: documents,
		vectors:   vectors,
		embedder:  embedder,
		logger:    logger,
	}
}

// Library resolves a library reference: identifiers start with a slash,
// anything else is treated as a library id.
func (r *Retrieval) Library(ctx context.Context, ref string) (library.Library, error) {
	var lib library.Library
	var err error
	if strings.HasPrefix(ref, "/") {
		var identifier library.Identifier
		identifier, err = library.ParseIdentifier(ref)
		if err != nil {
			return library.Library{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		lib, err = r.libraries.GetLibrary(ctx, storage.WithIdentifier(identifier.WithoutVersion().String()))
	} else {
		lib, err = r.libraries.GetLibrary(ctx, storage.WithID(ref))
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return library.Library{}, fmt.Errorf("%w: %s", ErrLibraryNotFound, ref)
		}
		return library.Library{}, fmt.Errorf("get library: %w", err)
	}
	return lib, nil
}

// Versions lists the indexed versions of a library, newest first.
func (r *Retrieval) Versions(ctx context.Context, ref string) (library.Library, []library.Version, error) {
	lib, err := r.Library(ctx, ref)
	if err != nil {
		return library.Library{}, nil, err
	}
	versions, err := r.libraries.ListVersions(ctx, lib.ID())
	if err != nil {
		return library.Library{}, nil, fmt.Errorf("list versions: %w", err)
	}
	return lib, versions, nil
}

// GetDocument fetches one document by path, truncating the content to
// maxTokens*4 characters when it is longer.
func (r *Retrieval) GetDocument(ctx context.Context, libraryRef, path string, maxTokens int) (DocumentPayload, error) {
	lib, err := r.Library(ctx, libraryRef)
	if err != nil {
		return DocumentPayload{}, err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if maxTokens <= 0 {
		maxTokens = search.DefaultOutputTokens
	}

	doc, err := r.documents.GetDocument(ctx, storage.WithLibraryID(lib.ID()), storage.WithPath(path))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return DocumentPayload{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return DocumentPayload{}, fmt.Errorf("get document: %w", err)
	}

	content := doc.Content()
	if maxChars := maxTokens * 4; len(content) > maxChars {
		content = content[:maxChars] + truncationMarker
	}
	return DocumentPayload{
		Title:   doc.Title(),
		Content: content,
		Tokens:  document.EstimateTokens(content),
	}, nil
}

// LibraryDocs renders token-budgeted documentation for a library, driven by
// an optional topic text (semantic) and optional topic filters. With no
// usable vector results it falls back to full-text search, then to a
// quality-ordered snippet scan.
func (r *Retrieval) LibraryDocs(ctx context.Context, req DocsRequest) (string, error) {
	lib, err := r.Library(ctx, req.Library)
	if err != nil {
		return "", err
	}

	budget := search.DefaultTokenBudget()
	if req.MaxTokens > 0 {
		budget, err = search.NewTokenBudget(req.MaxTokens)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	snippets, err := r.rankedSnippets(ctx, lib, req.Topic, req.Topics)
	if err != nil {
		return "", err
	}
	return renderDocs(lib, snippets, &budget), nil
}

// rankedSnippets picks and orders the snippets for the docs modes.
func (r *Retrieval) rankedSnippets(ctx context.Context, lib library.Library, topicText string, topics []string) ([]document.Snippet, error) {
	if r.embedder != nil && r.embedder.Configured() {
		embedding, ok := r.queryEmbedding(ctx, topicText)
		if ok {
			matches, err := r.vectors.Search(ctx, search.VectorQuery{
				Embedding: embedding,
				K:         SemanticK,
				Filter:    search.Filter{LibraryID: lib.ID(), Topics: topics},
			})
			if err != nil {
				return nil, fmt.Errorf("vector search: %w", err)
			}
			if len(matches) > 0 {
				return r.hydrateBlended(ctx, matches)
			}
		}
	}

	if topicText != "" {
		matches, err := r.documents.FullTextSearch(ctx, document.FullTextOptions{
			Query:     topicText,
			LibraryID: lib.ID(),
			Limit:     FallbackScanLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("full-text search: %w", err)
		}
		if len(matches) > 0 {
			snippets := make([]document.Snippet, len(matches))
			for i, m := range matches {
				snippets[i] = m.Snippet
			}
			return snippets, nil
		}
	}

	snippets, err := r.documents.ListSnippets(ctx,
		storage.WithLibraryID(lib.ID()),
		storage.WithOrderDesc("quality_score"),
		storage.WithOrderDesc("updated_at"),
		storage.WithLimit(FallbackScanLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("list snippets: %w", err)
	}
	return snippets, nil
}

// queryEmbedding embeds the topic text; an empty topic yields a neutral
// vector so topic-filter-only queries still flow through the vector store.
// Embedding failures degrade to the full-text path.
func (r *Retrieval) queryEmbedding(ctx context.Context, topicText string) ([]float64, bool) {
	if topicText == "" {
		return make([]float64, search.Dimension), true
	}
	vectors, err := r.embedder.Embed(ctx, []string{topicText})
	if err != nil || len(vectors) != 1 {
		r.logger.WarnContext(ctx, "query embedding failed, degrading to full-text", "error", err)
		return nil, false
	}
	return vectors[0], true
}

// hydrateBlended loads the snippet rows for vector matches and orders them
// by blended score.
func (r *Retrieval) hydrateBlended(ctx context.Context, matches []search.Match) ([]document.Snippet, error) {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.Payload.SnippetID
	}

	rows, err := r.documents.ListSnippets(ctx, storage.WithIDIn(ids))
	if err != nil {
		return nil, fmt.Errorf("hydrate snippets: %w", err)
	}
	byID := make(map[string]document.Snippet, len(rows))
	for _, sn := range rows {
		byID[sn.ID()] = sn
	}

	ranked := make([]search.Ranked, 0, len(matches))
	for _, m := range matches {
		sn, ok := byID[m.Payload.SnippetID]
		if !ok {
			// Vector store ahead of the relational store; skip the orphan.
			continue
		}
		ranked = append(ranked, search.Ranked{
			ID:         sn.ID(),
			Similarity: m.Similarity,
			Quality:    sn.QualityScore(),
			UpdatedAt:  sn.UpdatedAt(),
		})
	}
	search.SortBlended(ranked)

	ordered := make([]document.Snippet, len(ranked))
	for i, rk := range ranked {
		ordered[i] = byID[rk.ID]
	}
	return ordered, nil
}

// Search runs hybrid retrieval across libraries: vector plus full-text
// merged by blended score, degrading to full-text alone when no embedding
// provider is configured.
func (r *Retrieval) Search(ctx context.Context, req HybridRequest) ([]SearchHit, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrValidation)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultHybridLimit
	}
	if limit > MaxHybridLimit {
		limit = MaxHybridLimit
	}

	var libraryID, versionID string
	if req.Library != "" {
		lib, err := r.Library(ctx, req.Library)
		if err != nil {
			return nil, err
		}
		libraryID = lib.ID()

		if req.Version != "" {
			version, err := r.libraries.GetVersion(ctx,
				storage.WithLibraryID(lib.ID()),
				storage.WithCondition("version_normalized", library.NormalizeVersion(req.Version)),
			)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return nil, fmt.Errorf("%w: version %s", ErrLibraryNotFound, req.Version)
				}
				return nil, fmt.Errorf("get version: %w", err)
			}
			versionID = version.ID()
		}
	}

	merged := make(map[string]scoredSnippet)

	ftMatches, err := r.documents.FullTextSearch(ctx, document.FullTextOptions{
		Query:     req.Query,
		LibraryID: libraryID,
		VersionID: versionID,
		Limit:     limit * 2,
		MinScore:  req.MinScore,
	})
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}
	for _, m := range ftMatches {
		merged[m.Snippet.ID()] = scoredSnippet{snippet: m.Snippet, similarity: m.Score}
	}

	if r.embedder != nil && r.embedder.Configured() {
		if embedding, ok := r.queryEmbedding(ctx, req.Query); ok {
			matches, err := r.vectors.Search(ctx, search.VectorQuery{
				Embedding: embedding,
				K:         limit * 2,
				Threshold: req.MinScore,
				Filter:    search.Filter{LibraryID: libraryID, VersionID: versionID},
			})
			if err != nil {
				return nil, fmt.Errorf("vector search: %w", err)
			}
			snippets, err := r.hydrateBlended(ctx, matches)
			if err != nil {
				return nil, err
			}
			bySnippetID := make(map[string]float64, len(matches))
			for _, m := range matches {
				bySnippetID[m.Payload.SnippetID] = m.Similarity
			}
			for _, sn := range snippets {
				sim := bySnippetID[sn.ID()]
				if prev, ok := merged[sn.ID()]; !ok || sim > prev.similarity {
					merged[sn.ID()] = scoredSnippet{snippet: sn, similarity: sim}
				}
			}
		}
	}

	ranked := make([]search.Ranked, 0, len(merged))
	for _, sc := range merged {
		if req.SourceType != "" && string(sc.snippet.Source()) != req.SourceType {
			continue
		}
		ranked = append(ranked, search.Ranked{
			ID:         sc.snippet.ID(),
			Similarity: sc.similarity,
			Quality:    sc.snippet.QualityScore(),
			UpdatedAt:  sc.snippet.UpdatedAt(),
		})
	}
	search.SortBlended(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return r.buildHits(ctx, ranked, merged)
}

// scoredSnippet pairs a snippet with its best similarity across the merge.
type scoredSnippet struct {
	snippet    document.Snippet
	similarity float64
}

// buildHits hydrates library summaries for the final hit list, one lookup
// per distinct library.
func (r *Retrieval) buildHits(ctx context.Context, ranked []search.Ranked, merged map[string]scoredSnippet) ([]SearchHit, error) {
	libCache := make(map[string]library.Library)
	versionCache := make(map[string]string)

	hits := make([]SearchHit, 0, len(ranked))
	for _, rk := range ranked {
		sc := merged[rk.ID]
		sn := sc.snippet

		lib, ok := libCache[sn.LibraryID()]
		if !ok {
			var err error
			lib, err = r.libraries.GetLibrary(ctx, storage.WithID(sn.LibraryID()))
			if err != nil {
				r.logger.WarnContext(ctx, "dangling snippet library", "library_id", sn.LibraryID(), "error", err)
				continue
			}
			libCache[sn.LibraryID()] = lib
		}

		versionString := ""
		if sn.VersionID() != "" {
			if cached, ok := versionCache[sn.VersionID()]; ok {
				versionString = cached
			} else if version, err := r.libraries.GetVersion(ctx, storage.WithID(sn.VersionID())); err == nil {
				versionString = version.VersionString()
				versionCache[sn.VersionID()] = versionString
			}
		}

		hits = append(hits, SearchHit{
			Title:             sn.Title(),
			Content:           sn.ContentPreview(),
			Score:             rk.Blended(),
			LibraryIdentifier: lib.Identifier().String(),
			LibraryName:       lib.Name(),
			LibraryVersion:    versionString,
		})
	}
	return hits, nil
}
