// Package document provides the document and snippet domain types — the units
// of path-based and semantic retrieval respectively.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceType classifies where a document came from.
type SourceType string

// SourceType values.
const (
	SourceReadme   SourceType = "readme"
	SourceAPI      SourceType = "api"
	SourceDocs     SourceType = "docs"
	SourceExamples SourceType = "examples"
	SourceContent  SourceType = "content"
	SourceGitHub   SourceType = "github"
	SourceWeb      SourceType = "web"
	SourcePDF      SourceType = "pdf"
	SourceMarkdown SourceType = "markdown"
)

// EstimateTokens approximates the token count of a text as ceil(len/4).
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// HashContent returns the SHA-256 hex digest of a document body.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Document represents a whole source file persisted verbatim, addressed by
// path within its library.
type Document struct {
	id          string
	libraryID   string
	versionID   string
	path        string
	title       string
	content     string
	contentHash string
	tokens      int
	sourceType  SourceType
	sourcePath  string
	sourceURL   string
	language    string
	indexedAt   time.Time
}

// NewDocument creates a Document. The path is canonicalized to carry a
// leading slash; hash and token estimate are derived from the content.
func NewDocument(libraryID, versionID, path, title, content string, sourceType SourceType, sourcePath string) Document {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Document{
		id:          uuid.NewString(),
		libraryID:   libraryID,
		versionID:   versionID,
		path:        path,
		title:       title,
		content:     content,
		contentHash: HashContent(content),
		tokens:      EstimateTokens(content),
		sourceType:  sourceType,
		sourcePath:  sourcePath,
		language:    "en",
		indexedAt:   time.Now().UTC(),
	}
}

// ReconstructDocument rebuilds a Document from persistence.
func ReconstructDocument(
	id, libraryID, versionID, path, title, content, contentHash string,
	tokens int,
	sourceType SourceType,
	sourcePath, sourceURL, language string,
	indexedAt time.Time,
) Document {
	return Document{
		id:          id,
		libraryID:   libraryID,
		versionID:   versionID,
		path:        path,
		title:       title,
		content:     content,
		contentHash: contentHash,
		tokens:      tokens,
		sourceType:  sourceType,
		sourcePath:  sourcePath,
		sourceURL:   sourceURL,
		language:    language,
		indexedAt:   indexedAt,
	}
}

// ID returns the document id.
func (d Document) ID() string { return d.id }

// LibraryID returns the owning library id.
func (d Document) LibraryID() string { return d.libraryID }

// VersionID returns the owning version id ("" when indexed without one).
func (d Document) VersionID() string { return d.versionID }

// Path returns the document path with a leading slash.
func (d Document) Path() string { return d.path }

// Title returns the first H1 header or the filename stem.
func (d Document) Title() string { return d.title }

// Content returns the full file text.
func (d Document) Content() string { return d.content }

// ContentHash returns the SHA-256 hex digest of the content.
func (d Document) ContentHash() string { return d.contentHash }

// Tokens returns the estimated token count.
func (d Document) Tokens() int { return d.tokens }

// Source returns the source type classification.
func (d Document) Source() SourceType { return d.sourceType }

// SourcePath returns the on-disk path the document was read from.
func (d Document) SourcePath() string { return d.sourcePath }

// SourceURL returns the remote origin URL, if any.
func (d Document) SourceURL() string { return d.sourceURL }

// Language returns the document language (default "en").
func (d Document) Language() string { return d.language }

// IndexedAt returns when the document was indexed.
func (d Document) IndexedAt() time.Time { return d.indexedAt }
