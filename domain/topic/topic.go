// Package topic provides topic-tag normalization and the extraction contract.
package topic

import (
	"context"
	"strings"
)

// Tag length bounds after normalization.
const (
	MinTagLen = 3
	MaxTagLen = 30
)

// Extractor derives normalized topic tags from markdown text.
type Extractor interface {
	// Extract returns the topic tags for the given markdown. useLLMFallback
	// permits a single bounded LLM call when header scanning yields nothing.
	// Extraction never fails: upstream problems yield an empty set.
	Extract(ctx context.Context, markdown string, useLLMFallback bool) []string

	// Available reports whether the LLM fallback is configured.
	Available() bool
}

// Normalize canonicalizes a raw tag: lowercase, non-alphanumeric runs
// collapsed to a single hyphen, trimmed. Returns "" when the result falls
// outside the length bounds. Normalize is idempotent.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	lastHyphen := false
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	tag := strings.Trim(b.String(), "-")
	if len(tag) < MinTagLen || len(tag) > MaxTagLen {
		return ""
	}
	return tag
}

// NormalizeAll normalizes every raw tag, dropping empties and duplicates
// while preserving first occurrence.
func NormalizeAll(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		tag := Normalize(r)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Union merges topic sets preserving first occurrence across all inputs.
// Used to derive a library's topics from its snippets.
func Union(sets ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, set := range sets {
		for _, tag := range set {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
