package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/codex7/codex7/domain/document"
	"github.com/codex7/codex7/domain/storage"
	"github.com/codex7/codex7/internal/database"
)

// Keyword match scores for the full-text fallback: title hits rank above
// content hits, which rank above incidental matches.
const (
	titleMatchScore   = 0.8
	contentMatchScore = 0.5
	weakMatchScore    = 0.3
)

// insertBatchSize bounds rows per multi-row INSERT.
const insertBatchSize = 100

// DocumentStore implements document.Store on the relational database.
type DocumentStore struct {
	db        database.Database
	documents database.Repository[document.Document, DocumentModel]
	snippets  database.Repository[document.Snippet, SnippetModel]
}

var _ document.Store = (*DocumentStore)(nil)

// NewDocumentStore creates a DocumentStore.
func NewDocumentStore(db database.Database) *DocumentStore {
	return &DocumentStore{
		db:        db,
		documents: database.NewRepository[document.Document, DocumentModel](db, DocumentMapper{}, "document"),
		snippets:  database.NewRepository[document.Snippet, SnippetModel](db, SnippetMapper{}, "snippet"),
	}
}

// SaveDocuments batch-inserts documents.
func (s *DocumentStore) SaveDocuments(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	mapper := DocumentMapper{}
	entities := make([]DocumentModel, len(docs))
	for i, d := range docs {
		entities[i] = mapper.ToModel(d)
	}
	return database.Retry(ctx, func() error {
		if result := s.db.Session(ctx).CreateInBatches(entities, insertBatchSize); result.Error != nil {
			return fmt.Errorf("save documents: %w", result.Error)
		}
		return nil
	})
}

// GetDocument retrieves a single document matching the given options.
func (s *DocumentStore) GetDocument(ctx context.Context, options ...storage.Option) (document.Document, error) {
	return s.documents.FindOne(ctx, options...)
}

// DeleteDocuments removes documents matching the given options.
func (s *DocumentStore) DeleteDocuments(ctx context.Context, options ...storage.Option) error {
	return database.Retry(ctx, func() error {
		return s.documents.DeleteBy(ctx, options...)
	})
}

// DocumentExistsByHash reports whether a document with the given content hash exists.
func (s *DocumentStore) DocumentExistsByHash(ctx context.Context, hash string) (bool, error) {
	return s.documents.Exists(ctx, storage.WithContentHash(hash))
}

// SaveSnippets batch-inserts snippets in parser order.
func (s *DocumentStore) SaveSnippets(ctx context.Context, snippets []document.Snippet) error {
	if len(snippets) == 0 {
		return nil
	}
	mapper := SnippetMapper{}
	entities := make([]SnippetModel, len(snippets))
	for i, sn := range snippets {
		entities[i] = mapper.ToModel(sn)
	}
	return database.Retry(ctx, func() error {
		if result := s.db.Session(ctx).CreateInBatches(entities, insertBatchSize); result.Error != nil {
			return fmt.Errorf("save snippets: %w", result.Error)
		}
		return nil
	})
}

// ListSnippets retrieves snippets matching the given options.
func (s *DocumentStore) ListSnippets(ctx context.Context, options ...storage.Option) ([]document.Snippet, error) {
	return s.snippets.Find(ctx, options...)
}

// SnippetIDs returns the ids of snippets matching the given options.
func (s *DocumentStore) SnippetIDs(ctx context.Context, options ...storage.Option) ([]string, error) {
	var ids []string
	db := database.ApplyOptions(s.db.Session(ctx).Model(&SnippetModel{}), options...)
	if result := db.Pluck("id", &ids); result.Error != nil {
		return nil, fmt.Errorf("list snippet ids: %w", result.Error)
	}
	return ids, nil
}

// DeleteSnippets removes snippets matching the given options.
func (s *DocumentStore) DeleteSnippets(ctx context.Context, options ...storage.Option) error {
	return database.Retry(ctx, func() error {
		return s.snippets.DeleteBy(ctx, options...)
	})
}

// FullTextSearch performs a case-insensitive substring match against snippet
// titles and contents. Results are scored by where the match landed and
// scanned newest first; final ranking happens in the blend layer.
func (s *DocumentStore) FullTextSearch(ctx context.Context, opts document.FullTextOptions) ([]document.FullTextMatch, error) {
	fragment := "%" + strings.ToLower(opts.Query) + "%"

	db := s.db.Session(ctx).Model(&SnippetModel{}).
		Where("lower(title) LIKE ? OR lower(content) LIKE ?", fragment, fragment)
	if opts.LibraryID != "" {
		db = db.Where("library_id = ?", opts.LibraryID)
	}
	if opts.VersionID != "" {
		db = db.Where("version_id = ?", opts.VersionID)
	}
	if opts.CodeOnly {
		db = db.Where("code_blocks <> ? AND code_blocks <> ?", "[]", "")
	}

	var entities []SnippetModel
	if result := db.Order("updated_at DESC").Order("id ASC").Find(&entities); result.Error != nil {
		return nil, fmt.Errorf("full-text search: %w", result.Error)
	}

	mapper := SnippetMapper{}
	needle := strings.ToLower(opts.Query)
	matches := make([]document.FullTextMatch, 0, len(entities))
	for _, e := range entities {
		score := weakMatchScore
		switch {
		case strings.Contains(strings.ToLower(e.Title), needle):
			score = titleMatchScore
		case strings.Contains(strings.ToLower(e.Content), needle):
			score = contentMatchScore
		}
		if opts.MinScore > 0 && score < opts.MinScore {
			continue
		}
		sn, err := mapper.ToDomain(e)
		if err != nil {
			return nil, err
		}
		matches = append(matches, document.FullTextMatch{Snippet: sn, Score: score})
		if opts.Limit > 0 && len(matches) >= opts.Limit {
			break
		}
	}
	return matches, nil
}

// CountSnippets returns the number of snippets matching the given options.
func (s *DocumentStore) CountSnippets(ctx context.Context, options ...storage.Option) (int64, error) {
	return s.snippets.Count(ctx, options...)
}
