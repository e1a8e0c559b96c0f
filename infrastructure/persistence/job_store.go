package persistence

import (
	"context"

	"github.com/codex7/codex7/domain/index"
	"github.com/codex7/codex7/domain/storage"
	"github.com/codex7/codex7/internal/database"
)

// JobStore implements index.Store on the relational database.
type JobStore struct {
	jobs database.Repository[index.Job, JobModel]
}

var _ index.Store = (*JobStore)(nil)

// NewJobStore creates a JobStore.
func NewJobStore(db database.Database) *JobStore {
	return &JobStore{
		jobs: database.NewRepository[index.Job, JobModel](db, JobMapper{}, "index job"),
	}
}

// SaveJob inserts or updates a job.
func (s *JobStore) SaveJob(ctx context.Context, job index.Job) error {
	return database.Retry(ctx, func() error {
		return s.jobs.Save(ctx, job)
	})
}

// GetJob retrieves a single job matching the given options.
func (s *JobStore) GetJob(ctx context.Context, options ...storage.Option) (index.Job, error) {
	return s.jobs.FindOne(ctx, options...)
}

// ListJobs retrieves jobs matching the given options, newest first.
func (s *JobStore) ListJobs(ctx context.Context, options ...storage.Option) ([]index.Job, error) {
	options = append(options, storage.WithOrderDesc("created_at"))
	return s.jobs.Find(ctx, options...)
}
