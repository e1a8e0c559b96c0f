package persistence

import (
	"fmt"
	"time"

	"github.com/codex7/codex7/domain/document"
	"github.com/codex7/codex7/domain/index"
	"github.com/codex7/codex7/domain/library"
)

// LibraryMapper maps between domain Library and persistence LibraryModel.
type LibraryMapper struct{}

// ToDomain converts a LibraryModel to a domain Library.
func (m LibraryMapper) ToDomain(e LibraryModel) (library.Library, error) {
	identifier, err := library.ParseIdentifier(e.Identifier)
	if err != nil {
		return library.Library{}, fmt.Errorf("library %s: %w", e.ID, err)
	}
	return library.ReconstructLibrary(
		e.ID,
		identifier,
		e.Name,
		e.Description,
		e.RepositoryURL,
		e.HomepageURL,
		e.TrustScore,
		e.Keywords,
		e.Topics,
		e.Rules,
		e.SourcePath,
		e.Metadata,
		e.CreatedAt,
		e.UpdatedAt,
	), nil
}

// ToModel converts a domain Library to a LibraryModel.
func (m LibraryMapper) ToModel(l library.Library) LibraryModel {
	return LibraryModel{
		ID:            l.ID(),
		Identifier:    l.Identifier().String(),
		Org:           l.Org(),
		Project:       l.Project(),
		Name:          l.Name(),
		Description:   l.Description(),
		RepositoryURL: l.RepositoryURL(),
		HomepageURL:   l.HomepageURL(),
		TrustScore:    l.TrustScore(),
		Keywords:      l.Keywords(),
		Topics:        l.Topics(),
		Rules:         l.Rules(),
		SourcePath:    l.SourcePath(),
		Metadata:      l.Metadata(),
		CreatedAt:     l.CreatedAt(),
		UpdatedAt:     l.UpdatedAt(),
	}
}

// VersionMapper maps between domain Version and persistence VersionModel.
type VersionMapper struct{}

// ToDomain converts a VersionModel to a domain Version.
func (m VersionMapper) ToDomain(e VersionModel) (library.Version, error) {
	var releaseDate time.Time
	if e.ReleaseDate != nil {
		releaseDate = *e.ReleaseDate
	}
	return library.ReconstructVersion(
		e.ID,
		e.LibraryID,
		e.VersionString,
		e.VersionNormalized,
		e.IsLatest,
		e.IsDeprecated,
		e.DocumentCount,
		e.GitCommitSHA,
		releaseDate,
		e.IndexedAt,
		e.UpdatedAt,
	), nil
}

// ToModel converts a domain Version to a VersionModel.
func (m VersionMapper) ToModel(v library.Version) VersionModel {
	var releaseDate *time.Time
	if !v.ReleaseDate().IsZero() {
		t := v.ReleaseDate()
		releaseDate = &t
	}
	return VersionModel{
		ID:                v.ID(),
		LibraryID:         v.LibraryID(),
		VersionString:     v.VersionString(),
		VersionNormalized: v.VersionNormalized(),
		IsLatest:          v.IsLatest(),
		IsDeprecated:      v.IsDeprecated(),
		DocumentCount:     v.DocumentCount(),
		GitCommitSHA:      v.GitCommitSHA(),
		ReleaseDate:       releaseDate,
		IndexedAt:         v.IndexedAt(),
		UpdatedAt:         v.UpdatedAt(),
	}
}

// DocumentMapper maps between domain Document and persistence DocumentModel.
type DocumentMapper struct{}

// ToDomain converts a DocumentModel to a domain Document.
func (m DocumentMapper) ToDomain(e DocumentModel) (document.Document, error) {
	return document.ReconstructDocument(
		e.ID,
		e.LibraryID,
		e.VersionID,
		e.Path,
		e.Title,
		e.Content,
		e.ContentHash,
		e.Tokens,
		document.SourceType(e.SourceType),
		e.SourcePath,
		e.SourceURL,
		e.Language,
		e.IndexedAt,
	), nil
}

// ToModel converts a domain Document to a DocumentModel.
func (m DocumentMapper) ToModel(d document.Document) DocumentModel {
	return DocumentModel{
		ID:          d.ID(),
		LibraryID:   d.LibraryID(),
		VersionID:   d.VersionID(),
		Path:        d.Path(),
		Title:       d.Title(),
		Content:     d.Content(),
		ContentHash: d.ContentHash(),
		Tokens:      d.Tokens(),
		SourceType:  string(d.Source()),
		SourcePath:  d.SourcePath(),
		SourceURL:   d.SourceURL(),
		Language:    d.Language(),
		IndexedAt:   d.IndexedAt(),
	}
}

// SnippetMapper maps between domain Snippet and persistence SnippetModel.
type SnippetMapper struct{}

// ToDomain converts a SnippetModel to a domain Snippet.
func (m SnippetMapper) ToDomain(e SnippetModel) (document.Snippet, error) {
	blocks := make([]document.CodeBlock, len(e.CodeBlocks))
	for i, b := range e.CodeBlocks {
		blocks[i] = document.NewCodeBlock(b.Language, b.Code)
	}
	return document.ReconstructSnippet(
		e.ID,
		e.LibraryID,
		e.VersionID,
		e.Title,
		e.SourceFile,
		document.SourceType(e.SourceType),
		e.Description,
		e.Content,
		blocks,
		e.Topics,
		e.Tokens,
		e.QualityScore,
		e.Embedding,
		e.UpdatedAt,
	), nil
}

// ToModel converts a domain Snippet to a SnippetModel.
func (m SnippetMapper) ToModel(s document.Snippet) SnippetModel {
	blocks := make(CodeBlockSlice, 0, s.CodeBlockCount())
	for _, b := range s.CodeBlocks() {
		blocks = append(blocks, CodeBlockRecord{Language: b.Language(), Code: b.Code()})
	}
	return SnippetModel{
		ID:           s.ID(),
		LibraryID:    s.LibraryID(),
		VersionID:    s.VersionID(),
		Title:        s.Title(),
		SourceFile:   s.SourceFile(),
		SourceType:   string(s.Source()),
		Description:  s.Description(),
		Content:      s.Content(),
		CodeBlocks:   blocks,
		Topics:       s.Topics(),
		Tokens:       s.Tokens(),
		QualityScore: s.QualityScore(),
		Embedding:    s.Embedding(),
		UpdatedAt:    s.UpdatedAt(),
	}
}

// JobMapper maps between domain Job and persistence JobModel.
type JobMapper struct{}

// ToDomain converts a JobModel to a domain Job.
func (m JobMapper) ToDomain(e JobModel) (index.Job, error) {
	var startedAt, completedAt time.Time
	if e.StartedAt != nil {
		startedAt = *e.StartedAt
	}
	if e.CompletedAt != nil {
		completedAt = *e.CompletedAt
	}
	return index.ReconstructJob(
		e.ID,
		e.LibraryID,
		e.VersionID,
		index.Status(e.Status),
		e.TotalDocuments,
		e.ProcessedDocuments,
		e.FailedDocuments,
		e.ErrorMessage,
		startedAt,
		completedAt,
		e.Metadata,
	), nil
}

// ToModel converts a domain Job to a JobModel.
func (m JobMapper) ToModel(j index.Job) JobModel {
	var startedAt, completedAt *time.Time
	if !j.StartedAt().IsZero() {
		t := j.StartedAt()
		startedAt = &t
	}
	if !j.CompletedAt().IsZero() {
		t := j.CompletedAt()
		completedAt = &t
	}
	return JobModel{
		ID:                 j.ID(),
		LibraryID:          j.LibraryID(),
		VersionID:          j.VersionID(),
		Status:             string(j.State()),
		TotalDocuments:     j.TotalDocuments(),
		ProcessedDocuments: j.ProcessedDocuments(),
		FailedDocuments:    j.FailedDocuments(),
		ErrorMessage:       j.ErrorMessage(),
		StartedAt:          startedAt,
		CompletedAt:        completedAt,
		Metadata:           j.Metadata(),
	}
}
