package parser

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codex7/codex7/domain/document"
)

// Defaults always applied on top of user exclude rules.
var (
	defaultExcludeFolders = []string{
		"node_modules", ".git", "dist", "build", "coverage", "archive", "deprecated", "i18n",
	}
	defaultExcludeFiles = []string{
		"CHANGELOG.md", "LICENSE.md", "LICENSE", "CODE_OF_CONDUCT.md", "CONTRIBUTING.md", "SECURITY.md",
	}
)

// Root-level README-ish and API files included in the standard scan set.
var (
	readmeNames  = []string{"README.md", "README.rst", "README.txt", "readme.md"}
	apiNames     = []string{"API.md", "api.md", "REFERENCE.md"}
	standardDirs = []string{"docs", "examples", "content"}
)

// markdownExtensions are the file types considered documentation.
var markdownExtensions = map[string]bool{
	".md":  true,
	".mdx": true,
	".rst": true,
}

// ScannedFile is one documentation file selected by the scanner.
type ScannedFile struct {
	// RelPath is the slash-separated path relative to the scan root.
	RelPath string

	// AbsPath is the on-disk path.
	AbsPath string

	// SourceType is inferred from the top-level folder.
	SourceType document.SourceType
}

// Scanner selects documentation files under a project root, applying
// include and exclude rules.
type Scanner struct {
	root           string
	folders        []string
	excludeFolders []string
	excludeFiles   []string
}

// NewScanner creates a Scanner for the given root. Config excludes are
// combined with the built-in defaults.
func NewScanner(root string, cfg ProjectConfig) *Scanner {
	return NewScannerWithRules(
		root,
		cfg.Folders,
		append(append([]string{}, defaultExcludeFolders...), cfg.ExcludeFolders...),
		append(append([]string{}, defaultExcludeFiles...), cfg.ExcludeFiles...),
	)
}

// NewScannerWithRules creates a Scanner with the exact rule set given — no
// defaults are added.
func NewScannerWithRules(root string, folders, excludeFolders, excludeFiles []string) *Scanner {
	return &Scanner{
		root:           root,
		folders:        folders,
		excludeFolders: excludeFolders,
		excludeFiles:   excludeFiles,
	}
}

// Scan walks the project tree and returns the selected files in a stable
// order. Unreadable directories are recorded as warnings, not errors.
func (s *Scanner) Scan() ([]ScannedFile, []string) {
	var files []ScannedFile
	var warnings []string
	seen := map[string]bool{}

	add := func(relPath string) {
		relPath = filepath.ToSlash(relPath)
		if seen[relPath] {
			return
		}
		seen[relPath] = true
		files = append(files, ScannedFile{
			RelPath:    relPath,
			AbsPath:    filepath.Join(s.root, filepath.FromSlash(relPath)),
			SourceType: inferSourceType(relPath),
		})
	}

	// Root-level README files are always candidates; API and REFERENCE
	// files join them only under the standard scan set. An explicit folder
	// list narrows the scan to those folders plus the READMEs.
	rootNames := readmeNames
	if len(s.folders) == 0 {
		rootNames = append(append([]string{}, readmeNames...), apiNames...)
	}
	for _, name := range rootNames {
		if s.excludedFile(name) {
			continue
		}
		if info, err := os.Stat(filepath.Join(s.root, name)); err == nil && !info.IsDir() {
			add(name)
		}
	}

	dirs := s.folders
	if len(dirs) == 0 {
		dirs = standardDirs
	}

	for _, dir := range dirs {
		dir = strings.Trim(filepath.ToSlash(dir), "/")
		if dir == "" || s.excludedDir(dir) {
			continue
		}
		absDir := filepath.Join(s.root, filepath.FromSlash(dir))
		if info, err := os.Stat(absDir); err != nil || !info.IsDir() {
			continue
		}

		walkErr := filepath.WalkDir(absDir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				warnings = append(warnings, "walk "+p+": "+err.Error())
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			rel, relErr := filepath.Rel(s.root, p)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if p != absDir && (strings.HasPrefix(d.Name(), ".") || s.excludedDir(rel)) {
					return fs.SkipDir
				}
				return nil
			}

			if strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			if !markdownExtensions[strings.ToLower(path.Ext(rel))] {
				return nil
			}
			if s.excludedFile(d.Name()) {
				return nil
			}
			add(rel)
			return nil
		})
		if walkErr != nil {
			warnings = append(warnings, "walk "+dir+": "+walkErr.Error())
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, warnings
}

// excludedDir tests a slash-separated relative directory path against the
// exclude rules. Three dialects: a bare name matches anywhere in the tree,
// "./name" matches only at the root, and "a/b" matches that exact path or
// any path under it.
func (s *Scanner) excludedDir(relPath string) bool {
	segments := strings.Split(relPath, "/")
	for _, rule := range s.excludeFolders {
		rule = filepath.ToSlash(rule)
		switch {
		case strings.HasPrefix(rule, "./"):
			name := strings.TrimPrefix(rule, "./")
			if segments[0] == name {
				return true
			}
		case strings.Contains(rule, "/"):
			if relPath == rule || strings.HasPrefix(relPath, rule+"/") {
				return true
			}
		default:
			for _, seg := range segments {
				if seg == rule {
					return true
				}
			}
		}
	}
	return false
}

// excludedFile tests a bare filename against the flat exclude list.
func (s *Scanner) excludedFile(name string) bool {
	for _, rule := range s.excludeFiles {
		if name == rule {
			return true
		}
	}
	return false
}

// inferSourceType derives the source type from the file's top-level folder.
func inferSourceType(relPath string) document.SourceType {
	segments := strings.Split(relPath, "/")
	if len(segments) == 1 {
		name := strings.ToLower(segments[0])
		if strings.HasPrefix(name, "readme") {
			return document.SourceReadme
		}
		if strings.HasPrefix(name, "api") || strings.HasPrefix(name, "reference") {
			return document.SourceAPI
		}
		return document.SourceDocs
	}

	top := strings.ToLower(segments[0])
	switch {
	case strings.Contains(top, "example"):
		return document.SourceExamples
	case strings.Contains(top, "api"), strings.Contains(top, "reference"):
		return document.SourceAPI
	case strings.Contains(top, "content"):
		return document.SourceContent
	default:
		return document.SourceDocs
	}
}
