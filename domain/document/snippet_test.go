package document

import (
	"math"
	"strings"
	"testing"
)

func TestComputeQuality(t *testing.T) {
	tests := []struct {
		name       string
		codeBlocks int
		contentLen int
		descLen    int
		want       float64
	}{
		{"base", 0, 100, 10, 0.5},
		{"one code block", 1, 100, 10, 0.7},
		{"three code blocks", 3, 100, 10, 0.8},
		{"long content", 0, 501, 10, 0.6},
		{"real description", 0, 100, 51, 0.6},
		{"everything", 3, 501, 51, 1.0},
		// Boundary values award no bonus: comparisons are strict.
		{"two code blocks", 2, 100, 10, 0.7},
		{"content exactly 500", 0, 500, 10, 0.5},
		{"description exactly 50", 0, 100, 50, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeQuality(tt.codeBlocks, tt.contentLen, tt.descLen)
			// The bonuses are 0.1 steps; sums like 0.5+0.2+0.1 are not
			// exactly representable.
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ComputeQuality(%d, %d, %d) = %v, want %v",
					tt.codeBlocks, tt.contentLen, tt.descLen, got, tt.want)
			}
		})
	}
}

func TestSnippetID_Deterministic(t *testing.T) {
	a := SnippetID("lib-1", "/docs/routing.md", 0, "Routing")
	b := SnippetID("lib-1", "/docs/routing.md", 0, "Routing")
	if a != b {
		t.Error("same inputs produced different ids")
	}
	if len(a) != 64 {
		t.Errorf("id length = %d, want 64 hex chars", len(a))
	}
}

func TestSnippetID_MixesLibrary(t *testing.T) {
	a := SnippetID("lib-1", "/docs/routing.md", 0, "Routing")
	b := SnippetID("lib-2", "/docs/routing.md", 0, "Routing")
	if a == b {
		t.Error("identical content in two libraries collided")
	}
}

func TestSnippetID_DistinguishesOrdinal(t *testing.T) {
	a := SnippetID("lib-1", "/docs/routing.md", 0, "Routing")
	b := SnippetID("lib-1", "/docs/routing.md", 1, "Routing")
	if a == b {
		t.Error("ordinal not mixed into id")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(len %d) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}

func TestNewSnippet_DerivesFields(t *testing.T) {
	content := "## Routing\n\nSome body text with a fenced example.\n\n```go\nr := mux.NewRouter()\n```\n"
	blocks := []CodeBlock{NewCodeBlock("go", "r := mux.NewRouter()")}

	sn := NewSnippet("lib-1", "/docs/routing.md", 0, "Routing", "Short intro.", content, SourceDocs, blocks)

	if sn.ID() != SnippetID("lib-1", "/docs/routing.md", 0, "Routing") {
		t.Error("id not derived from SnippetID")
	}
	if sn.Tokens() != EstimateTokens(content) {
		t.Errorf("Tokens() = %d, want %d", sn.Tokens(), EstimateTokens(content))
	}
	if sn.QualityScore() != 0.7 {
		t.Errorf("QualityScore() = %v, want 0.7", sn.QualityScore())
	}
	if !sn.HasCode() || sn.CodeBlockCount() != 1 {
		t.Errorf("code blocks: HasCode=%v count=%d", sn.HasCode(), sn.CodeBlockCount())
	}
}

func TestNewSnippet_TruncatesDescription(t *testing.T) {
	long := strings.Repeat("d", DescriptionMaxChars+100)
	sn := NewSnippet("lib-1", "/f.md", 0, "T", long, "content body", SourceDocs, nil)

	if len(sn.Description()) != DescriptionMaxChars {
		t.Errorf("description length = %d, want %d", len(sn.Description()), DescriptionMaxChars)
	}
}

func TestSnippet_EmbeddingText(t *testing.T) {
	sn := NewSnippet("lib-1", "/f.md", 0, "Title", "Desc.", "Body.", SourceDocs, nil)

	want := "Title\n\nDesc.\n\nBody."
	if sn.EmbeddingText() != want {
		t.Errorf("EmbeddingText() = %q, want %q", sn.EmbeddingText(), want)
	}
}

func TestSnippet_ContentPreview(t *testing.T) {
	long := strings.Repeat("c", DescriptionMaxChars+200)
	sn := NewSnippet("lib-1", "/f.md", 0, "T", "", long, SourceDocs, nil)

	if len(sn.ContentPreview()) != DescriptionMaxChars {
		t.Errorf("preview length = %d, want %d", len(sn.ContentPreview()), DescriptionMaxChars)
	}

	short := NewSnippet("lib-1", "/f.md", 0, "T", "", "tiny", SourceDocs, nil)
	if short.ContentPreview() != "tiny" {
		t.Errorf("short preview = %q", short.ContentPreview())
	}
}
