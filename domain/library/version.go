package library

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Version represents a specific release of a library. At most one version per
// library is marked latest; uniqueness is the indexer's responsibility, not
// the schema's.
type Version struct {
	id                string
	libraryID         string
	versionString     string
	versionNormalized string
	isLatest          bool
	isDeprecated      bool
	documentCount     int
	gitCommitSHA      string
	releaseDate       time.Time
	indexedAt         time.Time
	updatedAt         time.Time
}

// NewVersion creates a Version for the given library and raw version string.
func NewVersion(libraryID, versionString string, isLatest bool) Version {
	now := time.Now().UTC()
	return Version{
		id:                uuid.NewString(),
		libraryID:         libraryID,
		versionString:     versionString,
		versionNormalized: NormalizeVersion(versionString),
		isLatest:          isLatest,
		indexedAt:         now,
		updatedAt:         now,
	}
}

// ReconstructVersion rebuilds a Version from persistence.
func ReconstructVersion(
	id, libraryID, versionString, versionNormalized string,
	isLatest, isDeprecated bool,
	documentCount int,
	gitCommitSHA string,
	releaseDate, indexedAt, updatedAt time.Time,
) Version {
	return Version{
		id:                id,
		libraryID:         libraryID,
		versionString:     versionString,
		versionNormalized: versionNormalized,
		isLatest:          isLatest,
		isDeprecated:      isDeprecated,
		documentCount:     documentCount,
		gitCommitSHA:      gitCommitSHA,
		releaseDate:       releaseDate,
		indexedAt:         indexedAt,
		updatedAt:         updatedAt,
	}
}

// ID returns the version id.
func (v Version) ID() string { return v.id }

// LibraryID returns the owning library id.
func (v Version) LibraryID() string { return v.libraryID }

// VersionString returns the raw version string as supplied.
func (v Version) VersionString() string { return v.versionString }

// VersionNormalized returns the MAJOR.MINOR.PATCH form.
func (v Version) VersionNormalized() string { return v.versionNormalized }

// IsLatest reports whether this is the library's latest version.
func (v Version) IsLatest() bool { return v.isLatest }

// IsDeprecated reports whether this version is deprecated.
func (v Version) IsDeprecated() bool { return v.isDeprecated }

// DocumentCount returns the number of documents indexed for this version.
func (v Version) DocumentCount() int { return v.documentCount }

// GitCommitSHA returns the commit the version was indexed at, if known.
func (v Version) GitCommitSHA() string { return v.gitCommitSHA }

// ReleaseDate returns the release date, if known.
func (v Version) ReleaseDate() time.Time { return v.releaseDate }

// IndexedAt returns when the version was indexed.
func (v Version) IndexedAt() time.Time { return v.indexedAt }

// UpdatedAt returns the last update timestamp.
func (v Version) UpdatedAt() time.Time { return v.updatedAt }

// WithDocumentCount returns a copy with the document count set.
func (v Version) WithDocumentCount(n int) Version {
	v.documentCount = n
	v.updatedAt = time.Now().UTC()
	return v
}

// WithLatest returns a copy with the latest flag set.
func (v Version) WithLatest(latest bool) Version {
	v.isLatest = latest
	v.updatedAt = time.Now().UTC()
	return v
}

// WithDeprecated returns a copy with the deprecated flag set.
func (v Version) WithDeprecated(deprecated bool) Version {
	v.isDeprecated = deprecated
	v.updatedAt = time.Now().UTC()
	return v
}

// WithGitCommitSHA returns a copy with the commit SHA set.
func (v Version) WithGitCommitSHA(sha string) Version {
	v.gitCommitSHA = sha
	v.updatedAt = time.Now().UTC()
	return v
}

// NormalizeVersion converts a raw version string to MAJOR.MINOR.PATCH:
// a leading "v" is stripped, missing components are filled with 0, and
// anything beyond three components is truncated.
func NormalizeVersion(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "v")
	if s == "" {
		return "0.0.0"
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	for i, p := range parts {
		if p == "" {
			parts[i] = "0"
		}
	}
	return strings.Join(parts, ".")
}
