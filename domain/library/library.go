// Package library provides the library and version domain types.
package library

import (
	"time"

	"github.com/google/uuid"
)

// Trust score bounds. Locally indexed libraries default to the maximum
// because their content is fully under the operator's control.
const (
	MinTrustScore   = 1
	MaxTrustScore   = 10
	LocalTrustScore = 10
)

// Library represents a uniquely identified software project whose
// documentation has been ingested.
type Library struct {
	id            string
	identifier    Identifier
	name          string
	description   string
	repositoryURL string
	homepageURL   string
	trustScore    int
	keywords      []string
	topics        []string
	rules         []string
	sourcePath    string
	metadata      map[string]any
	createdAt     time.Time
	updatedAt     time.Time
}

// NewLibrary creates a Library for a locally indexed project. The identifier
// is derived from org and project; the trust score defaults to the local
// maximum.
func NewLibrary(identifier Identifier, name, description string) Library {
	now := time.Now().UTC()
	return Library{
		id:         uuid.NewString(),
		identifier: identifier.WithoutVersion(),
		name:       name,
		description: description,
		trustScore: LocalTrustScore,
		keywords:   []string{},
		topics:     []string{},
		rules:      []string{},
		metadata:   map[string]any{},
		createdAt:  now,
		updatedAt:  now,
	}
}

// ReconstructLibrary rebuilds a Library from persistence.
func ReconstructLibrary(
	id string,
	identifier Identifier,
	name, description, repositoryURL, homepageURL string,
	trustScore int,
	keywords, topics, rules []string,
	sourcePath string,
	metadata map[string]any,
	createdAt, updatedAt time.Time,
) Library {
	return Library{
		id:            id,
		identifier:    identifier,
		name:          name,
		description:   description,
		repositoryURL: repositoryURL,
		homepageURL:   homepageURL,
		trustScore:    clampTrust(trustScore),
		keywords:      copyStrings(keywords),
		topics:        copyStrings(topics),
		rules:         copyStrings(rules),
		sourcePath:    sourcePath,
		metadata:      copyMetadata(metadata),
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ID returns the opaque library id.
func (l Library) ID() string { return l.id }

// Identifier returns the canonical "/org/project" identifier.
func (l Library) Identifier() Identifier { return l.identifier }

// Name returns the display name.
func (l Library) Name() string { return l.name }

// Org returns the organization segment of the identifier.
func (l Library) Org() string { return l.identifier.Org() }

// Project returns the project segment of the identifier.
func (l Library) Project() string { return l.identifier.Project() }

// Description returns the library description.
func (l Library) Description() string { return l.description }

// RepositoryURL returns the source repository URL.
func (l Library) RepositoryURL() string { return l.repositoryURL }

// HomepageURL returns the project homepage URL.
func (l Library) HomepageURL() string { return l.homepageURL }

// TrustScore returns the preference weight in [1, 10]; higher is better.
func (l Library) TrustScore() int { return l.trustScore }

// Keywords returns the library keywords.
func (l Library) Keywords() []string { return copyStrings(l.keywords) }

// Topics returns the union of the library's snippet topics.
func (l Library) Topics() []string { return copyStrings(l.topics) }

// Rules returns the best-practice rules rendered ahead of snippets.
func (l Library) Rules() []string { return copyStrings(l.rules) }

// SourcePath returns the filesystem root the library was indexed from.
func (l Library) SourcePath() string { return l.sourcePath }

// Metadata returns the free-form metadata map.
func (l Library) Metadata() map[string]any { return copyMetadata(l.metadata) }

// CreatedAt returns the creation timestamp.
func (l Library) CreatedAt() time.Time { return l.createdAt }

// UpdatedAt returns the last update timestamp.
func (l Library) UpdatedAt() time.Time { return l.updatedAt }

// WithDetails returns a copy with description, URLs, and source path set.
func (l Library) WithDetails(description, repositoryURL, homepageURL, sourcePath string) Library {
	if description != "" {
		l.description = description
	}
	l.repositoryURL = repositoryURL
	l.homepageURL = homepageURL
	l.sourcePath = sourcePath
	l.updatedAt = time.Now().UTC()
	return l
}

// WithKeywords returns a copy with the given keywords.
func (l Library) WithKeywords(keywords []string) Library {
	l.keywords = copyStrings(keywords)
	l.updatedAt = time.Now().UTC()
	return l
}

// WithRules returns a copy with the given best-practice rules.
func (l Library) WithRules(rules []string) Library {
	l.rules = copyStrings(rules)
	l.updatedAt = time.Now().UTC()
	return l
}

// WithTopics returns a copy with the given topic union.
func (l Library) WithTopics(topics []string) Library {
	l.topics = copyStrings(topics)
	l.updatedAt = time.Now().UTC()
	return l
}

// WithTrustScore returns a copy with the trust score clamped to bounds.
func (l Library) WithTrustScore(score int) Library {
	l.trustScore = clampTrust(score)
	l.updatedAt = time.Now().UTC()
	return l
}

func clampTrust(score int) int {
	if score < MinTrustScore {
		return MinTrustScore
	}
	if score > MaxTrustScore {
		return MaxTrustScore
	}
	return score
}

func copyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
