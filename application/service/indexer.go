package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/codex7/codex7/domain/document"
	"github.com/codex7/codex7/domain/index"
	"github.com/codex7/codex7/domain/library"
	"github.com/codex7/codex7/domain/search"
	"github.com/codex7/codex7/domain/storage"
	"github.com/codex7/codex7/domain/topic"
	"github.com/codex7/codex7/infrastructure/parser"
)

// DefaultVersionString names a version when the caller provides none.
const DefaultVersionString = "latest"

// IndexParams configures one indexing run.
type IndexParams struct {
	// Path is the project root on disk.
	Path string

	// Identifier is the raw "/org/project" identifier.
	Identifier string

	// Version labels the indexed snapshot; DefaultVersionString when empty.
	Version string

	// Title, Description, Keywords override project config values.
	Title       string
	Description string
	Keywords    []string

	// UseLLMTopics permits the LLM topic fallback for header-less files.
	UseLLMTopics bool
}

// Indexer runs the ingest pipeline: parse, tag, embed, replace.
type Indexer struct {
	libraries library.Store
	documents document.Store
	jobs      index.Store
	vectors   search.VectorStore
	embedder  search.Embedder
	topics    topic.Extractor
	parser    *parser.Parser
	locks     *libraryLocks
	logger    *slog.Logger
}

// NewIndexer wires an Indexer over its stores and providers.
func NewIndexer(
	libraries library.Store,
	documents document.Store,
	jobs index.Store,
	vectors search.VectorStore,
	embedder search.Embedder,
	topics topic.Extractor,
	logger *slog.Logger,
) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		libraries: libraries,
		documents: documents,
		jobs:      jobs,
		vectors:   vectors,
		embedder:  embedder,
		topics:    topics,
		parser:    parser.NewParser(),
		locks:     newLibraryLocks(),
		logger:    logger,
	}
}

// IndexProject indexes the project tree at params.Path under the given
// identifier, wholesale-replacing any previous index of the same library.
// Concurrent runs for the same library fail fast with ErrLibraryBusy.
//
// The returned job reflects the terminal state; its id is empty when the
// run failed before a job could be recorded.
func (ix *Indexer) IndexProject(ctx context.Context, params IndexParams) (index.Job, error) {
	identifier, err := library.ParseIdentifier(params.Identifier)
	if err != nil {
		return index.Job{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	canonical := identifier.WithoutVersion()

	if !ix.locks.Acquire(canonical.String()) {
		return index.Job{}, fmt.Errorf("%w: %s", ErrLibraryBusy, canonical.String())
	}
	defer ix.locks.Release(canonical.String())

	// Reuse the existing library id so snippet ids stay stable across
	// re-indexing runs.
	libraryID := uuid.NewString()
	createdAt := time.Now().UTC()
	existing, err := ix.libraries.GetLibrary(ctx, storage.WithIdentifier(canonical.String()))
	replacing := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return index.Job{}, fmt.Errorf("lookup library: %w", err)
	}
	if replacing {
		libraryID = existing.ID()
		createdAt = existing.CreatedAt()
	}

	versionString := params.Version
	if versionString == "" {
		versionString = identifier.VersionSelector()
	}
	if versionString == "" {
		versionString = DefaultVersionString
	}
	version := library.NewVersion(libraryID, versionString, true)

	job := index.NewJob(libraryID, version.ID())
	if err := ix.jobs.SaveJob(ctx, job); err != nil {
		return index.Job{}, fmt.Errorf("save job: %w", err)
	}

	result, err := ix.parser.Parse(params.Path, parser.Options{
		LibraryID:   libraryID,
		VersionID:   version.ID(),
		Identifier:  identifier,
		Title:       params.Title,
		Description: params.Description,
		Keywords:    params.Keywords,
	})
	for _, warning := range result.Warnings {
		ix.logger.WarnContext(ctx, "indexing warning", "library", canonical.String(), "warning", warning)
	}
	if err != nil {
		return ix.fail(ctx, job, err)
	}

	job = job.Started(result.TotalFiles)
	if err := ix.jobs.SaveJob(ctx, job); err != nil {
		return job, fmt.Errorf("save job: %w", err)
	}

	snippets, libraryTopics := ix.tagTopics(ctx, result.Snippets, params.UseLLMTopics)

	snippets, err = ix.embed(ctx, snippets)
	if err != nil {
		return ix.fail(ctx, job, err)
	}

	lib := library.ReconstructLibrary(
		libraryID, canonical,
		result.Draft.Title, result.Draft.Description,
		"", "",
		library.LocalTrustScore,
		result.Draft.Keywords, libraryTopics, result.Draft.Rules,
		result.Draft.SourcePath,
		nil,
		createdAt, time.Now().UTC(),
	)

	if err := ix.replace(ctx, replacing, lib, version.WithDocumentCount(len(result.Documents)), result.Documents, snippets); err != nil {
		return ix.fail(ctx, job, err)
	}

	job = job.Completed(result.TotalFiles-result.FailedFiles, result.FailedFiles)
	if err := ix.jobs.SaveJob(ctx, job); err != nil {
		return job, fmt.Errorf("save job: %w", err)
	}

	ix.logger.InfoContext(ctx, "indexed library",
		"library", canonical.String(),
		"documents", len(result.Documents),
		"snippets", len(snippets))
	return job, nil
}

// fail records the terminal failed state and passes the cause through.
func (ix *Indexer) fail(ctx context.Context, job index.Job, cause error) (index.Job, error) {
	job = job.Failed(cause)
	if saveErr := ix.jobs.SaveJob(ctx, job); saveErr != nil {
		ix.logger.ErrorContext(ctx, "save failed job", "job_id", job.ID(), "error", saveErr)
	}
	return job, cause
}

// tagTopics attaches topic tags to every snippet and returns the ordered
// first-occurrence union for the library.
func (ix *Indexer) tagTopics(ctx context.Context, snippets []document.Snippet, useLLM bool) ([]document.Snippet, []string) {
	tagged := make([]document.Snippet, 0, len(snippets))
	sets := make([][]string, 0, len(snippets))
	for _, sn := range snippets {
		tags := ix.topics.Extract(ctx, sn.Content(), useLLM)
		tagged = append(tagged, sn.WithTopics(tags))
		sets = append(sets, tags)
	}
	return tagged, topic.Union(sets...)
}

// embed attaches embeddings to every snippet. Skipped entirely when no
// embedding provider is configured; retrieval then degrades to full-text.
func (ix *Indexer) embed(ctx context.Context, snippets []document.Snippet) ([]document.Snippet, error) {
	if ix.embedder == nil || !ix.embedder.Configured() {
		ix.logger.WarnContext(ctx, "embedding provider not configured, indexing without vectors")
		return snippets, nil
	}

	texts := make([]string, len(snippets))
	for i, sn := range snippets {
		texts[i] = sn.EmbeddingText()
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed snippets: %w", err)
	}
	if len(vectors) != len(snippets) {
		return nil, fmt.Errorf("%w: got %d vectors for %d snippets", search.ErrEmbeddingProtocol, len(vectors), len(snippets))
	}

	embedded := make([]document.Snippet, len(snippets))
	for i, sn := range snippets {
		embedded[i] = sn.WithEmbedding(vectors[i])
	}
	return embedded, nil
}

// replace executes the wholesale-replacement sequence: delete vectors,
// delete the library cascade, insert the new rows, upsert vectors. A failure
// mid-sequence leaves the library partially indexed; re-running the job
// cleans up.
func (ix *Indexer) replace(
	ctx context.Context,
	replacing bool,
	lib library.Library,
	version library.Version,
	documents []document.Document,
	snippets []document.Snippet,
) error {
	if replacing {
		if err := ix.vectors.DeleteByLibrary(ctx, lib.ID()); err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
		if err := ix.libraries.DeleteLibrary(ctx, lib.ID()); err != nil {
			return fmt.Errorf("delete library: %w", err)
		}
	}

	if err := ix.libraries.SaveLibrary(ctx, lib); err != nil {
		return fmt.Errorf("save library: %w", err)
	}
	if err := ix.libraries.SaveVersion(ctx, version); err != nil {
		return fmt.Errorf("save version: %w", err)
	}
	if err := ix.documents.SaveDocuments(ctx, documents); err != nil {
		return fmt.Errorf("save documents: %w", err)
	}
	if err := ix.documents.SaveSnippets(ctx, snippets); err != nil {
		return fmt.Errorf("save snippets: %w", err)
	}

	points := pointsFromSnippets(snippets)
	if len(points) == 0 {
		return nil
	}
	if err := ix.vectors.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	if err := ix.vectors.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// pointsFromSnippets builds vector points for every snippet that carries an
// embedding of the expected dimension.
func pointsFromSnippets(snippets []document.Snippet) []search.Point {
	var points []search.Point
	for _, sn := range snippets {
		embedding := sn.Embedding()
		if len(embedding) != search.Dimension {
			continue
		}
		points = append(points, search.Point{
			ID:     sn.ID(),
			Vector: embedding,
			Payload: search.Payload{
				SnippetID:      sn.ID(),
				LibraryID:      sn.LibraryID(),
				VersionID:      sn.VersionID(),
				Title:          sn.Title(),
				SourceFile:     sn.SourceFile(),
				SourceType:     string(sn.Source()),
				ContentPreview: sn.ContentPreview(),
				Topics:         sn.Topics(),
				QualityScore:   sn.QualityScore(),
			},
		})
	}
	return points
}

// IsNoSnippets reports whether an indexing error means the tree produced no
// snippets at all.
func IsNoSnippets(err error) bool {
	return errors.Is(err, parser.ErrNoSnippets)
}
