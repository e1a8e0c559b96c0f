package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codex7/codex7/domain/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func relPaths(files []ScannedFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestScanner_StandardSet(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# Project")
	writeFile(t, root, "API.md", "# API")
	writeFile(t, root, "docs/guide.md", "# Guide")
	writeFile(t, root, "docs/nested/deep.mdx", "# Deep")
	writeFile(t, root, "examples/basic.md", "# Basic")
	writeFile(t, root, "src/code.md", "# Not scanned")
	writeFile(t, root, "docs/ignored.txt", "not markdown")

	files, warnings := NewScanner(root, ProjectConfig{}).Scan()
	assert.Empty(t, warnings)
	assert.ElementsMatch(t, []string{
		"README.md", "API.md", "docs/guide.md", "docs/nested/deep.mdx", "examples/basic.md",
	}, relPaths(files))
}

func TestScanner_ExplicitFolders(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# Project")
	writeFile(t, root, "guides/intro.md", "# Intro")
	writeFile(t, root, "docs/skipped.md", "# Skipped")

	files, _ := NewScanner(root, ProjectConfig{Folders: []string{"guides"}}).Scan()
	assert.ElementsMatch(t, []string{"README.md", "guides/intro.md"}, relPaths(files))
}

func TestScanner_ExplicitFoldersSkipRootAPIFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# Project")
	writeFile(t, root, "API.md", "# API")
	writeFile(t, root, "REFERENCE.md", "# Reference")
	writeFile(t, root, "guides/intro.md", "# Intro")

	// An explicit folder list keeps the READMEs but drops the root API
	// and REFERENCE files from the scan set.
	files, _ := NewScanner(root, ProjectConfig{Folders: []string{"guides"}}).Scan()
	assert.ElementsMatch(t, []string{"README.md", "guides/intro.md"}, relPaths(files))
}

func TestScanner_DefaultExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/guide.md", "# Guide")
	writeFile(t, root, "docs/node_modules/pkg/doc.md", "# Dep")
	writeFile(t, root, "docs/archive/old.md", "# Old")
	writeFile(t, root, "docs/.hidden/secret.md", "# Secret")
	writeFile(t, root, "CONTRIBUTING.md", "# Contributing")

	files, _ := NewScanner(root, ProjectConfig{Folders: []string{"docs"}}).Scan()
	assert.ElementsMatch(t, []string{"docs/guide.md"}, relPaths(files))
}

func TestScanner_ExcludeDialects(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/node_modules/pkg/doc.md", "# Dep")
	writeFile(t, root, "dist/x.md", "# Dist")
	writeFile(t, root, "app-sdk/v2.3/api.md", "# Old API")
	writeFile(t, root, "src/dist/x.md", "# Kept")
	writeFile(t, root, "app-sdk/v3.0/api.md", "# Kept too")

	scanner := NewScannerWithRules(
		root,
		[]string{"src", "dist", "app-sdk"},
		[]string{"node_modules", "./dist", "app-sdk/v2.3"},
		nil,
	)
	files, _ := scanner.Scan()
	assert.ElementsMatch(t, []string{"src/dist/x.md", "app-sdk/v3.0/api.md"}, relPaths(files))
}

func TestInferSourceType(t *testing.T) {
	tests := []struct {
		relPath string
		want    document.SourceType
	}{
		{"README.md", document.SourceReadme},
		{"readme.md", document.SourceReadme},
		{"API.md", document.SourceAPI},
		{"REFERENCE.md", document.SourceAPI},
		{"docs/guide.md", document.SourceDocs},
		{"examples/basic.md", document.SourceExamples},
		{"api-reference/v1.md", document.SourceAPI},
		{"content/post.md", document.SourceContent},
		{"guides/intro.md", document.SourceDocs},
	}

	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			assert.Equal(t, tt.want, inferSourceType(tt.relPath))
		})
	}
}
