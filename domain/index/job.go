// Package index provides the indexing-job state machine.
package index

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an indexing job.
type Status string

// Status values. Completed and Failed are terminal.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job tracks one indexing run for a library.
type Job struct {
	id                 string
	libraryID          string
	versionID          string
	status             Status
	totalDocuments     int
	processedDocuments int
	failedDocuments    int
	errorMessage       string
	startedAt          time.Time
	completedAt        time.Time
	metadata           map[string]any
}

// NewJob creates a pending Job for the given library.
func NewJob(libraryID, versionID string) Job {
	return Job{
		id:        uuid.NewString(),
		libraryID: libraryID,
		versionID: versionID,
		status:    StatusPending,
		metadata:  map[string]any{},
	}
}

// ReconstructJob rebuilds a Job from persistence.
func ReconstructJob(
	id, libraryID, versionID string,
	status Status,
	totalDocuments, processedDocuments, failedDocuments int,
	errorMessage string,
	startedAt, completedAt time.Time,
	metadata map[string]any,
) Job {
	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return Job{
		id:                 id,
		libraryID:          libraryID,
		versionID:          versionID,
		status:             status,
		totalDocuments:     totalDocuments,
		processedDocuments: processedDocuments,
		failedDocuments:    failedDocuments,
		errorMessage:       errorMessage,
		startedAt:          startedAt,
		completedAt:        completedAt,
		metadata:           md,
	}
}

// ID returns the job id.
func (j Job) ID() string { return j.id }

// LibraryID returns the library being indexed.
func (j Job) LibraryID() string { return j.libraryID }

// VersionID returns the version being indexed.
func (j Job) VersionID() string { return j.versionID }

// State returns the job status.
func (j Job) State() Status { return j.status }

// TotalDocuments returns the number of documents discovered.
func (j Job) TotalDocuments() int { return j.totalDocuments }

// ProcessedDocuments returns the number of documents processed so far.
func (j Job) ProcessedDocuments() int { return j.processedDocuments }

// FailedDocuments returns the number of documents that failed to parse.
func (j Job) FailedDocuments() int { return j.failedDocuments }

// ErrorMessage returns the failure reason for failed jobs.
func (j Job) ErrorMessage() string { return j.errorMessage }

// StartedAt returns when the job transitioned to running.
func (j Job) StartedAt() time.Time { return j.startedAt }

// CompletedAt returns when the job reached a terminal state.
func (j Job) CompletedAt() time.Time { return j.completedAt }

// Metadata returns the free-form job metadata.
func (j Job) Metadata() map[string]any {
	md := make(map[string]any, len(j.metadata))
	for k, v := range j.metadata {
		md[k] = v
	}
	return md
}

// IsTerminal reports whether the job has finished.
func (j Job) IsTerminal() bool {
	return j.status == StatusCompleted || j.status == StatusFailed
}

// Started returns a running copy with the start time set.
func (j Job) Started(total int) Job {
	j.status = StatusRunning
	j.totalDocuments = total
	j.startedAt = time.Now().UTC()
	return j
}

// Completed returns a terminal completed copy.
func (j Job) Completed(processed, failed int) Job {
	j.status = StatusCompleted
	j.processedDocuments = processed
	j.failedDocuments = failed
	j.completedAt = time.Now().UTC()
	return j
}

// Failed returns a terminal failed copy carrying the error message.
func (j Job) Failed(err error) Job {
	j.status = StatusFailed
	if err != nil {
		j.errorMessage = err.Error()
	}
	j.completedAt = time.Now().UTC()
	return j
}

// WithVersionID returns a copy bound to the given version.
func (j Job) WithVersionID(versionID string) Job {
	j.versionID = versionID
	return j
}
