package library

import (
	"context"

	"github.com/codex7/codex7/domain/storage"
)

// Store defines persistence operations for libraries and versions.
type Store interface {
	// SaveLibrary inserts or updates a library.
	SaveLibrary(ctx context.Context, lib Library) error

	// GetLibrary retrieves a single library matching the given options.
	GetLibrary(ctx context.Context, options ...storage.Option) (Library, error)

	// ListLibraries retrieves libraries matching the given options.
	ListLibraries(ctx context.Context, options ...storage.Option) ([]Library, error)

	// SearchLibraries performs a case-insensitive substring match against
	// name, org, project, and identifier, ordered by updated_at descending.
	SearchLibraries(ctx context.Context, query string, limit int) ([]Library, error)

	// DeleteLibrary removes a library; versions, documents, and snippets
	// cascade.
	DeleteLibrary(ctx context.Context, id string) error

	// SaveVersion inserts or updates a version.
	SaveVersion(ctx context.Context, v Version) error

	// GetVersion retrieves a single version matching the given options.
	GetVersion(ctx context.Context, options ...storage.Option) (Version, error)

	// ListVersions retrieves versions for a library ordered by indexed_at
	// descending.
	ListVersions(ctx context.Context, libraryID string) ([]Version, error)

	// DeleteVersion removes a single version.
	DeleteVersion(ctx context.Context, id string) error
}
