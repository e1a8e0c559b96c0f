package parser

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/codex7/codex7/domain/document"
	"github.com/codex7/codex7/domain/library"
)

// ErrNoSnippets indicates the project tree produced no snippets at all —
// fatal for the indexing job.
var ErrNoSnippets = errors.New("no snippets produced")

// Options carries the caller-supplied overrides for a parse run.
type Options struct {
	// LibraryID keys the produced documents and snippets.
	LibraryID string

	// VersionID is optional; documents and snippets are bound to it when set.
	VersionID string

	// Identifier is the target "/org/project" identifier.
	Identifier library.Identifier

	// Title overrides the project config title.
	Title string

	// Description overrides the project config description.
	Description string

	// Keywords are attached to the library draft.
	Keywords []string
}

// Draft is the library-shaped output of a parse run, before persistence.
type Draft struct {
	Identifier  library.Identifier
	Title       string
	Description string
	Keywords    []string
	Rules       []string
	SourcePath  string
}

// Result is the complete output of parsing one project tree.
type Result struct {
	Draft     Draft
	Documents []document.Document
	Snippets  []document.Snippet

	// Warnings are non-fatal per-file or config problems.
	Warnings []string

	// TotalFiles and FailedFiles feed indexing-job progress.
	TotalFiles  int
	FailedFiles int
}

// Parser turns a project tree into documents and snippets.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse walks the project tree at root and chunks every selected file.
// Per-file failures become warnings; producing zero snippets is fatal.
func (p *Parser) Parse(root string, opts Options) (Result, error) {
	cfg, warnings := LoadProjectConfig(root)

	scanner := NewScanner(root, cfg)
	files, scanWarnings := scanner.Scan()
	warnings = append(warnings, scanWarnings...)

	if len(files) == 0 {
		warnings = append(warnings, "no documentation files found under "+root)
	}

	result := Result{
		Warnings:   warnings,
		TotalFiles: len(files),
	}

	var readmeTitle string
	for _, file := range files {
		raw, err := os.ReadFile(file.AbsPath)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("read %s: %v", file.RelPath, err))
			result.FailedFiles++
			continue
		}
		content := string(raw)

		if readmeTitle == "" && file.SourceType == document.SourceReadme {
			readmeTitle = firstH1(content)
		}

		title := documentTitle(content, file.RelPath)
		doc := document.NewDocument(opts.LibraryID, opts.VersionID, file.RelPath, title, content, file.SourceType, file.AbsPath)
		result.Documents = append(result.Documents, doc)

		for ordinal, chunk := range ChunkMarkdown(content, title) {
			sn := document.NewSnippet(
				opts.LibraryID,
				doc.Path(),
				ordinal,
				chunk.Title,
				chunk.Description,
				chunk.Content,
				file.SourceType,
				chunk.CodeBlocks,
			).WithVersionID(opts.VersionID)
			result.Snippets = append(result.Snippets, sn)
		}
	}

	result.Draft = buildDraft(cfg, opts, root, readmeTitle)

	if len(result.Snippets) == 0 {
		return result, fmt.Errorf("%w: %s", ErrNoSnippets, root)
	}
	return result, nil
}

// buildDraft resolves the library draft fields: CLI overrides win over the
// project config, which wins over the README's H1, which wins over the
// identifier's project segment.
func buildDraft(cfg ProjectConfig, opts Options, root, readmeTitle string) Draft {
	title := opts.Title
	if title == "" {
		title = cfg.ProjectTitle
	}
	if title == "" {
		title = readmeTitle
	}
	if title == "" {
		title = opts.Identifier.Project()
	}

	description := opts.Description
	if description == "" {
		description = cfg.Description
	}

	return Draft{
		Identifier:  opts.Identifier,
		Title:       title,
		Description: description,
		Keywords:    opts.Keywords,
		Rules:       cfg.Rules,
		SourcePath:  root,
	}
}

// documentTitle returns the first H1 header, or the filename stem.
func documentTitle(content, relPath string) string {
	if title := firstH1(content); title != "" {
		return title
	}
	base := path.Base(relPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// firstH1 returns the first H1 header in the markdown, or "".
func firstH1(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}
