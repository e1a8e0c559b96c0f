package library

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern matches the canonical "/org/project" form with an
// optional trailing version selector ("/org/project/v1.2.3").
var identifierPattern = regexp.MustCompile(`^/[\w-]+/[\w.-]+(?:/v?[\w.-]+)?$`)

// ErrInvalidIdentifier indicates a malformed library identifier.
var ErrInvalidIdentifier = fmt.Errorf("invalid library identifier")

// Identifier is the canonical "/org/project[/version]" string used at the
// tool surface.
type Identifier struct {
	org     string
	project string
	version string
}

// ParseIdentifier validates and decomposes a library identifier. A missing
// leading slash is tolerated and canonicalized.
func ParseIdentifier(raw string) (Identifier, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Identifier{}, fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	if !identifierPattern.MatchString(s) {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}

	parts := strings.Split(strings.TrimPrefix(s, "/"), "/")
	id := Identifier{org: parts[0], project: parts[1]}
	if len(parts) == 3 {
		id.version = parts[2]
	}
	return id, nil
}

// NewIdentifier builds an Identifier from org and project names.
func NewIdentifier(org, project string) Identifier {
	return Identifier{org: org, project: project}
}

// Org returns the organization segment.
func (i Identifier) Org() string { return i.org }

// Project returns the project segment.
func (i Identifier) Project() string { return i.project }

// VersionSelector returns the optional version segment ("" if absent).
func (i Identifier) VersionSelector() string { return i.version }

// WithoutVersion returns the identifier stripped of its version selector.
func (i Identifier) WithoutVersion() Identifier {
	i.version = ""
	return i
}

// String returns the canonical string form with a leading slash.
func (i Identifier) String() string {
	s := "/" + i.org + "/" + i.project
	if i.version != "" {
		s += "/" + i.version
	}
	return s
}
