package index

import (
	"context"

	"github.com/codex7/codex7/domain/storage"
)

// Store defines persistence operations for indexing jobs. Job state is held
// only here — there is no separate in-memory job registry.
type Store interface {
	// SaveJob inserts or updates a job.
	SaveJob(ctx context.Context, job Job) error

	// GetJob retrieves a single job matching the given options.
	GetJob(ctx context.Context, options ...storage.Option) (Job, error)

	// ListJobs retrieves jobs matching the given options, newest first.
	ListJobs(ctx context.Context, options ...storage.Option) ([]Job, error)
}
