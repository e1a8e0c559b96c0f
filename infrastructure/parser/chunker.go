package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/codex7/codex7/domain/document"
)

// Chunking bounds.
const (
	SectionMaxTokens      = 1000
	ChunkTargetChars      = 3000
	MinSectionChars       = 50
	FallbackContentChars  = 4000
	FallbackCodeBlocksMax = 10
)

// sectionHeaderPattern matches level-2 and level-3 ATX headers at line start.
var sectionHeaderPattern = regexp.MustCompile(`^(##|###) (.+)$`)

// Chunk is one snippet-sized piece of a document produced by the chunker.
type Chunk struct {
	Title       string
	Description string
	Content     string
	CodeBlocks  []document.CodeBlock
}

// section is a candidate chunk bounded by ##/### headers.
type section struct {
	title   string
	content string
}

// ChunkMarkdown splits a markdown file into snippet-sized chunks. Every
// ##/### header yields a chunk so header-derived topics stay complete; the
// MinSectionChars floor applies only to the header-less fallback. Oversize
// sections are split at the chunk character target without breaking code
// fences.
func ChunkMarkdown(content, fallbackTitle string) []Chunk {
	sections := splitSections(content)

	if len(sections) == 0 {
		return fallbackChunk(content, fallbackTitle)
	}

	var chunks []Chunk
	for _, sec := range sections {
		chunks = append(chunks, chunkSection(sec)...)
	}
	return chunks
}

// splitSections splits the file at ##/### headers. Content before the first
// header is discarded — it is covered by the whole-document record.
func splitSections(content string) []section {
	lines := strings.Split(content, "\n")

	var sections []section
	var current *section
	var buf []string
	inFence := false

	flush := func() {
		if current != nil {
			current.content = strings.TrimRight(strings.Join(buf, "\n"), "\n")
			sections = append(sections, *current)
		}
		current = nil
		buf = nil
	}

	for _, line := range lines {
		if isFenceLine(line) {
			inFence = !inFence
		}

		if !inFence || isFenceLine(line) {
			if m := sectionHeaderPattern.FindStringSubmatch(line); m != nil && !inFence {
				flush()
				current = &section{title: strings.TrimSpace(m[2])}
				buf = []string{line}
				continue
			}
		}

		if current != nil {
			buf = append(buf, line)
		}
	}
	flush()

	return sections
}

func isFenceLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}

// chunkSection turns one section into one or more chunks. Sections within
// the token budget map one-to-one; oversize sections are split at the
// character target, alternating text spans and whole code blocks.
func chunkSection(sec section) []Chunk {
	if document.EstimateTokens(sec.content) <= SectionMaxTokens {
		return []Chunk{makeChunk(sec.title, sec.content)}
	}

	parts := splitParts(sec.content)

	var pieces []string
	var buf strings.Builder
	for _, part := range parts {
		if buf.Len() > 0 && buf.Len()+len(part) > ChunkTargetChars {
			pieces = append(pieces, buf.String())
			buf.Reset()
		}
		buf.WriteString(part)
	}
	if buf.Len() > 0 {
		pieces = append(pieces, buf.String())
	}

	chunks := make([]Chunk, 0, len(pieces))
	for i, piece := range pieces {
		title := sec.title
		if i > 0 {
			title = sec.title + " (continued " + strconv.Itoa(i) + ")"
		}
		chunks = append(chunks, makeChunk(title, piece))
	}
	return chunks
}

// splitParts decomposes section content into an alternating sequence of text
// spans and whole code blocks. Code blocks are atomic; text spans longer than
// the chunk target are cut at the target.
func splitParts(content string) []string {
	lines := strings.Split(content, "\n")

	var parts []string
	var buf []string
	inFence := false

	flushText := func() {
		if len(buf) == 0 {
			return
		}
		text := strings.Join(buf, "\n") + "\n"
		for len(text) > ChunkTargetChars {
			parts = append(parts, text[:ChunkTargetChars])
			text = text[ChunkTargetChars:]
		}
		if text != "" {
			parts = append(parts, text)
		}
		buf = nil
	}

	for _, line := range lines {
		if isFenceLine(line) {
			if !inFence {
				flushText()
				inFence = true
				buf = append(buf, line)
				continue
			}
			// Closing fence ends an atomic code part.
			buf = append(buf, line)
			parts = append(parts, strings.Join(buf, "\n")+"\n")
			buf = nil
			inFence = false
			continue
		}
		buf = append(buf, line)
	}
	if inFence {
		parts = append(parts, strings.Join(buf, "\n")+"\n")
	} else {
		flushText()
	}

	return parts
}

// makeChunk derives description and code blocks from a chunk's content.
func makeChunk(title, content string) Chunk {
	content = strings.TrimRight(content, "\n")
	return Chunk{
		Title:       title,
		Description: extractDescription(content),
		Content:     content,
		CodeBlocks:  ExtractCodeBlocks(content),
	}
}

// fallbackChunk produces the single whole-file chunk for header-less files.
func fallbackChunk(content, title string) []Chunk {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < MinSectionChars {
		return nil
	}

	body := trimmed
	if len(body) > FallbackContentChars {
		body = body[:FallbackContentChars]
	}

	blocks := ExtractCodeBlocks(trimmed)
	if len(blocks) > FallbackCodeBlocksMax {
		blocks = blocks[:FallbackCodeBlocksMax]
	}

	return []Chunk{{
		Title:       title,
		Description: extractDescription(body),
		Content:     body,
		CodeBlocks:  blocks,
	}}
}

// extractDescription returns the first paragraph between the header and the
// first code fence, truncated to the description cap.
func extractDescription(content string) string {
	lines := strings.Split(content, "\n")

	var para []string
	started := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isFenceLine(line) {
			break
		}
		if sectionHeaderPattern.MatchString(line) || strings.HasPrefix(trimmed, "# ") {
			if started {
				break
			}
			continue
		}
		if trimmed == "" {
			if started {
				break
			}
			continue
		}
		started = true
		para = append(para, trimmed)
	}

	desc := strings.Join(para, " ")
	if len(desc) > document.DescriptionMaxChars {
		desc = desc[:document.DescriptionMaxChars]
	}
	return desc
}

// ExtractCodeBlocks returns all fenced code blocks in document order. The
// fence language defaults to "text" when absent.
func ExtractCodeBlocks(content string) []document.CodeBlock {
	lines := strings.Split(content, "\n")

	var blocks []document.CodeBlock
	var code []string
	lang := ""
	inFence := false

	for _, line := range lines {
		if isFenceLine(line) {
			if !inFence {
				inFence = true
				lang = strings.TrimPrefix(strings.TrimSpace(line), "```")
				code = nil
				continue
			}
			blocks = append(blocks, document.NewCodeBlock(strings.TrimSpace(lang), strings.Join(code, "\n")))
			inFence = false
			continue
		}
		if inFence {
			code = append(code, line)
		}
	}

	return blocks
}
