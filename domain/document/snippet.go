package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// DescriptionMaxChars caps snippet descriptions.
const DescriptionMaxChars = 500

// CodeBlock is a fenced code block extracted from a snippet, in document
// order.
type CodeBlock struct {
	language string
	code     string
}

// NewCodeBlock creates a CodeBlock. An empty language defaults to "text".
func NewCodeBlock(language, code string) CodeBlock {
	if language == "" {
		language = "text"
	}
	return CodeBlock{language: language, code: code}
}

// Language returns the fence language tag.
func (b CodeBlock) Language() string { return b.language }

// Code returns the code body.
func (b CodeBlock) Code() string { return b.code }

// Snippet is a section-sized chunk of a document carrying an embedding and a
// quality score; the unit of semantic retrieval.
type Snippet struct {
	id           string
	libraryID    string
	versionID    string
	title        string
	sourceFile   string
	sourceType   SourceType
	description  string
	content      string
	codeBlocks   []CodeBlock
	topics       []string
	tokens       int
	qualityScore float64
	embedding    []float64
	updatedAt    time.Time
}

// SnippetID derives a deterministic snippet id. Re-indexing the same ordered
// input yields the same ids within a library; the library id is mixed in so
// identical content in two libraries never collides.
func SnippetID(libraryID, sourceFile string, ordinal int, title string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%s\x00%d\x00%s", libraryID, sourceFile, ordinal, title))
	return hex.EncodeToString(sum[:])
}

// NewSnippet creates a Snippet with derived fields: id, token estimate, and
// quality score. The description is truncated to DescriptionMaxChars.
func NewSnippet(
	libraryID, sourceFile string,
	ordinal int,
	title, description, content string,
	sourceType SourceType,
	codeBlocks []CodeBlock,
) Snippet {
	if len(description) > DescriptionMaxChars {
		description = description[:DescriptionMaxChars]
	}
	blocks := make([]CodeBlock, len(codeBlocks))
	copy(blocks, codeBlocks)

	return Snippet{
		id:           SnippetID(libraryID, sourceFile, ordinal, title),
		libraryID:    libraryID,
		title:        title,
		sourceFile:   sourceFile,
		sourceType:   sourceType,
		description:  description,
		content:      content,
		codeBlocks:   blocks,
		topics:       []string{},
		tokens:       EstimateTokens(content),
		qualityScore: ComputeQuality(len(blocks), len(content), len(description)),
		updatedAt:    time.Now().UTC(),
	}
}

// ReconstructSnippet rebuilds a Snippet from persistence.
func ReconstructSnippet(
	id, libraryID, versionID, title, sourceFile string,
	sourceType SourceType,
	description, content string,
	codeBlocks []CodeBlock,
	topics []string,
	tokens int,
	qualityScore float64,
	embedding []float64,
	updatedAt time.Time,
) Snippet {
	blocks := make([]CodeBlock, len(codeBlocks))
	copy(blocks, codeBlocks)
	tp := make([]string, len(topics))
	copy(tp, topics)
	emb := make([]float64, len(embedding))
	copy(emb, embedding)

	return Snippet{
		id:           id,
		libraryID:    libraryID,
		versionID:    versionID,
		title:        title,
		sourceFile:   sourceFile,
		sourceType:   sourceType,
		description:  description,
		content:      content,
		codeBlocks:   blocks,
		topics:       tp,
		tokens:       tokens,
		qualityScore: qualityScore,
		embedding:    emb,
		updatedAt:    updatedAt,
	}
}

// ID returns the deterministic snippet id.
func (s Snippet) ID() string { return s.id }

// LibraryID returns the owning library id.
func (s Snippet) LibraryID() string { return s.libraryID }

// VersionID returns the owning version id ("" when indexed without one).
func (s Snippet) VersionID() string { return s.versionID }

// Title returns the section title.
func (s Snippet) Title() string { return s.title }

// SourceFile returns the document path the snippet was chunked from.
func (s Snippet) SourceFile() string { return s.sourceFile }

// Source returns the source type classification.
func (s Snippet) Source() SourceType { return s.sourceType }

// Description returns the first paragraph before any code fence (≤500 chars).
func (s Snippet) Description() string { return s.description }

// Content returns the markdown section body.
func (s Snippet) Content() string { return s.content }

// CodeBlocks returns the fenced code blocks in document order.
func (s Snippet) CodeBlocks() []CodeBlock {
	blocks := make([]CodeBlock, len(s.codeBlocks))
	copy(blocks, s.codeBlocks)
	return blocks
}

// Topics returns the snippet's normalized topic tags.
func (s Snippet) Topics() []string {
	tp := make([]string, len(s.topics))
	copy(tp, s.topics)
	return tp
}

// HasCode reports whether the snippet contains at least one code block.
func (s Snippet) HasCode() bool { return len(s.codeBlocks) > 0 }

// CodeBlockCount returns the number of code blocks.
func (s Snippet) CodeBlockCount() int { return len(s.codeBlocks) }

// Tokens returns the estimated token count of the content.
func (s Snippet) Tokens() int { return s.tokens }

// QualityScore returns the deterministic quality scalar in [0, 1].
func (s Snippet) QualityScore() float64 { return s.qualityScore }

// Embedding returns the embedding vector (empty until embedded).
func (s Snippet) Embedding() []float64 {
	emb := make([]float64, len(s.embedding))
	copy(emb, s.embedding)
	return emb
}

// UpdatedAt returns the last update timestamp.
func (s Snippet) UpdatedAt() time.Time { return s.updatedAt }

// WithVersionID returns a copy bound to the given version.
func (s Snippet) WithVersionID(versionID string) Snippet {
	s.versionID = versionID
	return s
}

// WithTopics returns a copy with the given topics.
func (s Snippet) WithTopics(topics []string) Snippet {
	tp := make([]string, len(topics))
	copy(tp, topics)
	s.topics = tp
	return s
}

// WithEmbedding returns a copy with the embedding vector attached.
func (s Snippet) WithEmbedding(embedding []float64) Snippet {
	emb := make([]float64, len(embedding))
	copy(emb, embedding)
	s.embedding = emb
	return s
}

// EmbeddingText returns the text fed to the embedder:
// title, description, and content separated by blank lines.
func (s Snippet) EmbeddingText() string {
	return s.title + "\n\n" + s.description + "\n\n" + s.content
}

// ContentPreview returns the content truncated for vector-store payloads.
func (s Snippet) ContentPreview() string {
	if len(s.content) <= DescriptionMaxChars {
		return s.content
	}
	return s.content[:DescriptionMaxChars]
}

// ComputeQuality derives the deterministic quality score. Base 0.5, plus
// bonuses for code presence, many code blocks, long content, and a real
// description. Boundary values do not award a bonus.
func ComputeQuality(codeBlockCount, contentLength, descriptionLength int) float64 {
	score := 0.5
	if codeBlockCount > 0 {
		score += 0.2
	}
	if codeBlockCount > 2 {
		score += 0.1
	}
	if contentLength > 500 {
		score += 0.1
	}
	if descriptionLength > 50 {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
