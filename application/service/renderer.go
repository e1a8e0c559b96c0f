package service

import (
	"strings"

	"github.com/codex7/codex7/domain/document"
	"github.com/codex7/codex7/domain/library"
	"github.com/codex7/codex7/domain/search"
)

// snippetSeparator closes each rendered snippet block.
const snippetSeparator = "--------------------------------"

// renderDocs produces the markdown payload for a library and an ordered
// snippet list. The budget is a strict prefix: a snippet is appended only
// when its token estimate still fits, and iteration stops at the first
// snippet that does not.
func renderDocs(lib library.Library, snippets []document.Snippet, budget *search.TokenBudget) string {
	var b strings.Builder

	header := renderHeader(lib)
	b.WriteString(header)
	budget.ConsumeHeader(document.EstimateTokens(header))

	for _, sn := range snippets {
		if !budget.Consume(sn.Tokens()) {
			break
		}
		b.WriteString(renderSnippet(sn))
	}
	return b.String()
}

// renderHeader emits the library title, description, and Best Practices
// section when rules exist.
func renderHeader(lib library.Library) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(lib.Name())
	b.WriteString("\n")
	if lib.Description() != "" {
		b.WriteString(lib.Description())
		b.WriteString("\n")
	}
	if rules := lib.Rules(); len(rules) > 0 {
		b.WriteString("## Best Practices\n")
		for _, rule := range rules {
			b.WriteString("- ")
			b.WriteString(rule)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// renderSnippet emits one snippet block.
func renderSnippet(sn document.Snippet) string {
	var b strings.Builder
	b.WriteString("### ")
	b.WriteString(sn.Title())
	b.WriteString("\n")
	b.WriteString("Source: ")
	b.WriteString(sn.SourceFile())
	b.WriteString("\n")
	if sn.Description() != "" {
		b.WriteString(sn.Description())
		b.WriteString("\n")
	}
	for _, block := range sn.CodeBlocks() {
		b.WriteString("```")
		b.WriteString(block.Language())
		b.WriteString("\n")
		b.WriteString(block.Code())
		b.WriteString("\n```\n")
	}
	b.WriteString(snippetSeparator)
	b.WriteString("\n")
	return b.String()
}
