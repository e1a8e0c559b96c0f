// Package topics derives topic tags for snippets, from markdown headers
// first and a bounded LLM call as fallback.
package topics

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/codex7/codex7/domain/topic"
)

// LLM fallback bounds.
const (
	LLMInputMaxChars = 2000
	LLMMaxTags       = 5
)

// headerPattern matches level-2 and level-3 ATX headers at line start.
var headerPattern = regexp.MustCompile(`^(##|###) (.+)$`)

// inlineMarkup strips backtick and asterisk emphasis from header text
// before normalization.
var inlineMarkup = strings.NewReplacer("`", "", "*", "", "_", " ")

// ChatCompleter is the single-call chat capability the LLM fallback needs.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// ExtractHeaders scans markdown for ##/### headers and returns the
// normalized, deduplicated tags in document order.
func ExtractHeaders(markdown string) []string {
	var raw []string
	inFence := false
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			raw = append(raw, inlineMarkup.Replace(m[2]))
		}
	}
	return topic.NormalizeAll(raw)
}

// Extractor implements topic.Extractor: header scan first, then an optional
// single LLM call when the scan yields nothing.
type Extractor struct {
	completer ChatCompleter
	logger    *slog.Logger
}

// NewExtractor creates an Extractor. completer may be nil, which disables
// the LLM fallback.
func NewExtractor(completer ChatCompleter, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{completer: completer, logger: logger}
}

// Available reports whether the LLM fallback can be used.
func (e *Extractor) Available() bool {
	return e.completer != nil && e.completer.Configured()
}

// Extract derives topic tags for the markdown. Header tags win; when there
// are none and the fallback is both requested and available, a single LLM
// call is made. Extraction never fails — any upstream problem yields an
// empty set.
func (e *Extractor) Extract(ctx context.Context, markdown string, useLLMFallback bool) []string {
	tags := ExtractHeaders(markdown)
	if len(tags) > 0 {
		return tags
	}
	if !useLLMFallback || !e.Available() {
		return []string{}
	}
	return e.extractLLM(ctx, markdown)
}

const llmPrompt = `You are labeling documentation for retrieval. Read the excerpt below and reply with a JSON array of 1 to 5 short topic tags (lowercase, hyphenated words). Reply with the JSON array only, no prose.

Excerpt:
`

func (e *Extractor) extractLLM(ctx context.Context, markdown string) []string {
	excerpt := markdown
	if len(excerpt) > LLMInputMaxChars {
		excerpt = excerpt[:LLMInputMaxChars]
	}

	reply, err := e.completer.Complete(ctx, llmPrompt+excerpt)
	if err != nil {
		e.logger.DebugContext(ctx, "topic LLM fallback failed", "error", err)
		return []string{}
	}

	tags := parseTagArray(reply)
	if len(tags) > LLMMaxTags {
		tags = tags[:LLMMaxTags]
	}
	return topic.NormalizeAll(tags)
}

// parseTagArray extracts the first JSON string array from a model reply,
// tolerating surrounding prose and ```json fences.
func parseTagArray(reply string) []string {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(reply[start:end+1]), &tags); err != nil {
		return nil
	}
	return tags
}
