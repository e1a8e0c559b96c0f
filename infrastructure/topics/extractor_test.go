package topics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCompleter struct {
	reply      string
	err        error
	configured bool
	calls      int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeCompleter) Configured() bool { return f.configured }

func TestExtractHeaders(t *testing.T) {
	md := "# Title\n\nintro\n\n## Routing & Navigation\n\ntext\n\n### `useRouter` Hook\n\nmore\n\n## Routing & Navigation\n"

	assert.Equal(t, []string{"routing-navigation", "userouter-hook"}, ExtractHeaders(md))
}

func TestExtractHeaders_IgnoresFences(t *testing.T) {
	md := "## Real\n\n```md\n## Fenced Header\n```\n"
	assert.Equal(t, []string{"real"}, ExtractHeaders(md))
}

func TestExtract_HeadersWin(t *testing.T) {
	completer := &fakeCompleter{reply: `["never-used"]`, configured: true}
	ex := NewExtractor(completer, nil)

	tags := ex.Extract(context.Background(), "## Caching Strategies\n\ntext", true)
	assert.Equal(t, []string{"caching-strategies"}, tags)
	assert.Zero(t, completer.calls)
}

func TestExtract_LLMFallback(t *testing.T) {
	completer := &fakeCompleter{reply: "```json\n[\"State Management\", \"hooks\", \"hooks\"]\n```", configured: true}
	ex := NewExtractor(completer, nil)

	tags := ex.Extract(context.Background(), "plain prose without any headers", true)
	assert.Equal(t, []string{"state-management", "hooks"}, tags)
	assert.Equal(t, 1, completer.calls)
}

func TestExtract_FallbackGate(t *testing.T) {
	completer := &fakeCompleter{reply: `["x"]`, configured: true}
	ex := NewExtractor(completer, nil)

	assert.Empty(t, ex.Extract(context.Background(), "no headers here", false))
	assert.Zero(t, completer.calls)
}

func TestExtract_LLMErrorYieldsEmpty(t *testing.T) {
	ex := NewExtractor(&fakeCompleter{err: errors.New("boom"), configured: true}, nil)
	assert.Empty(t, ex.Extract(context.Background(), "no headers here", true))
}

func TestExtract_MalformedReplyYieldsEmpty(t *testing.T) {
	ex := NewExtractor(&fakeCompleter{reply: "sorry, I cannot help", configured: true}, nil)
	assert.Empty(t, ex.Extract(context.Background(), "no headers here", true))
}

func TestExtract_Unconfigured(t *testing.T) {
	ex := NewExtractor(nil, nil)
	assert.False(t, ex.Available())
	assert.Empty(t, ex.Extract(context.Background(), "no headers here", true))
}

func TestParseTagArray(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseTagArray(`["a","b"]`))
	assert.Equal(t, []string{"a"}, parseTagArray("Here you go:\n```json\n[\"a\"]\n```\nHope that helps."))
	assert.Nil(t, parseTagArray("no array"))
	assert.Nil(t, parseTagArray("[1, 2]"))
}
