// Package persistence provides database storage implementations.
package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/codex7/codex7/domain/library"
	"github.com/codex7/codex7/domain/storage"
	"github.com/codex7/codex7/internal/database"
	"gorm.io/gorm"
)

// DefaultSearchLimit bounds SearchLibraries results when no limit is given.
const DefaultSearchLimit = 50

// LibraryStore implements library.Store on the relational database.
type LibraryStore struct {
	db        database.Database
	libraries database.Repository[library.Library, LibraryModel]
	versions  database.Repository[library.Version, VersionModel]
}

var _ library.Store = (*LibraryStore)(nil)

// NewLibraryStore creates a LibraryStore.
func NewLibraryStore(db database.Database) *LibraryStore {
	return &LibraryStore{
		db:        db,
		libraries: database.NewRepository[library.Library, LibraryModel](db, LibraryMapper{}, "library"),
		versions:  database.NewRepository[library.Version, VersionModel](db, VersionMapper{}, "version"),
	}
}

// SaveLibrary inserts or updates a library.
func (s *LibraryStore) SaveLibrary(ctx context.Context, lib library.Library) error {
	return database.Retry(ctx, func() error {
		return s.libraries.Save(ctx, lib)
	})
}

// GetLibrary retrieves a single library matching the given options.
func (s *LibraryStore) GetLibrary(ctx context.Context, options ...storage.Option) (library.Library, error) {
	return s.libraries.FindOne(ctx, options...)
}

// ListLibraries retrieves libraries matching the given options.
func (s *LibraryStore) ListLibraries(ctx context.Context, options ...storage.Option) ([]library.Library, error) {
	return s.libraries.Find(ctx, options...)
}

// SearchLibraries performs a case-insensitive substring match against name,
// org, project, and identifier, ordered by updated_at descending.
func (s *LibraryStore) SearchLibraries(ctx context.Context, query string, limit int) ([]library.Library, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var entities []LibraryModel
	fragment := "%" + strings.ToLower(query) + "%"
	result := s.db.Session(ctx).
		Where(
			"lower(name) LIKE ? OR lower(org) LIKE ? OR lower(project) LIKE ? OR lower(identifier) LIKE ?",
			fragment, fragment, fragment, fragment,
		).
		Order("updated_at DESC").
		Limit(limit).
		Find(&entities)
	if result.Error != nil {
		return nil, fmt.Errorf("search libraries: %w", result.Error)
	}

	mapper := LibraryMapper{}
	libs := make([]library.Library, 0, len(entities))
	for _, e := range entities {
		lib, err := mapper.ToDomain(e)
		if err != nil {
			return nil, err
		}
		libs = append(libs, lib)
	}
	return libs, nil
}

// DeleteLibrary removes a library; versions, documents, and snippets cascade.
// Job rows are kept as run history.
func (s *LibraryStore) DeleteLibrary(ctx context.Context, id string) error {
	return database.WithRetryableTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, model := range []any{
			&SnippetModel{},
			&DocumentModel{},
			&VersionModel{},
		} {
			if err := tx.Where("library_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("cascade delete library %s: %w", id, err)
			}
		}
		if err := tx.Where("id = ?", id).Delete(&LibraryModel{}).Error; err != nil {
			return fmt.Errorf("delete library %s: %w", id, err)
		}
		return nil
	})
}

// SaveVersion inserts or updates a version.
func (s *LibraryStore) SaveVersion(ctx context.Context, v library.Version) error {
	return database.Retry(ctx, func() error {
		return s.versions.Save(ctx, v)
	})
}

// GetVersion retrieves a single version matching the given options.
func (s *LibraryStore) GetVersion(ctx context.Context, options ...storage.Option) (library.Version, error) {
	return s.versions.FindOne(ctx, options...)
}

// ListVersions retrieves versions for a library ordered by indexed_at descending.
func (s *LibraryStore) ListVersions(ctx context.Context, libraryID string) ([]library.Version, error) {
	return s.versions.Find(ctx,
		storage.WithLibraryID(libraryID),
		storage.WithOrderDesc("indexed_at"),
	)
}

// DeleteVersion removes a single version.
func (s *LibraryStore) DeleteVersion(ctx context.Context, id string) error {
	return database.Retry(ctx, func() error {
		return s.versions.DeleteBy(ctx, storage.WithID(id))
	})
}
