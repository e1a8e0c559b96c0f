// Package provider implements remote AI service clients.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/codex7/codex7/domain/search"
	"github.com/codex7/codex7/internal/config"
)

// EmbedBatchSize is the maximum number of texts per embedding API call.
const EmbedBatchSize = 100

// EmbedMaxChars is the per-text character cap; longer texts are truncated
// with a trailing ellipsis before embedding.
const EmbedMaxChars = 30000

// OpenAIProvider implements embedding and chat completion against any
// OpenAI-compatible API.
type OpenAIProvider struct {
	client        *openai.Client
	chatModel     string
	embedModel    string
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	configured    bool
}

var _ search.Embedder = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider from an endpoint configuration.
// A nil endpoint yields an unconfigured provider whose Embed always fails
// with search.ErrEmbeddingUnavailable.
func NewOpenAIProvider(endpoint *config.Endpoint) *OpenAIProvider {
	p := &OpenAIProvider{
		chatModel:     openai.GPT4oMini,
		embedModel:    config.DefaultEmbeddingModel,
		maxRetries:    config.DefaultMaxRetries,
		initialDelay:  config.DefaultInitialDelay,
		backoffFactor: config.DefaultBackoffFactor,
	}
	if endpoint == nil || !endpoint.IsConfigured() {
		return p
	}

	cfg := openai.DefaultConfig(endpoint.APIKey())
	if endpoint.BaseURL() != "" {
		cfg.BaseURL = endpoint.BaseURL()
	}
	if endpoint.Timeout() > 0 {
		cfg.HTTPClient = &http.Client{Timeout: endpoint.Timeout()}
	}

	p.client = openai.NewClientWithConfig(cfg)
	p.configured = true
	if endpoint.Model() != "" {
		p.embedModel = endpoint.Model()
	}
	if endpoint.MaxRetries() >= 0 {
		p.maxRetries = endpoint.MaxRetries()
	}
	if endpoint.InitialDelay() > 0 {
		p.initialDelay = endpoint.InitialDelay()
	}
	if endpoint.BackoffFactor() > 0 {
		p.backoffFactor = endpoint.BackoffFactor()
	}
	return p
}

// WithChatModel sets the chat completion model and returns the provider.
func (p *OpenAIProvider) WithChatModel(model string) *OpenAIProvider {
	if model != "" {
		p.chatModel = model
	}
	return p
}

// Configured reports whether an API key was provided.
func (p *OpenAIProvider) Configured() bool {
	return p.configured
}

// Embed generates embeddings for the given texts, preserving order. Texts
// are sent in batches of EmbedBatchSize; each text is truncated to
// EmbedMaxChars first.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if !p.configured {
		return nil, fmt.Errorf("%w: no API key configured", search.ErrEmbeddingUnavailable)
	}
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	prepared := make([]string, len(texts))
	for i, t := range texts {
		prepared[i] = truncateText(t)
	}

	out := make([][]float64, 0, len(prepared))
	for start := 0; start < len(prepared); start += EmbedBatchSize {
		end := min(start+EmbedBatchSize, len(prepared))
		vectors, err := p.embedBatch(ctx, prepared[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (p *OpenAIProvider) embedBatch(ctx context.Context, batch []string) ([][]float64, error) {
	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.embedModel),
		Input: batch,
	}

	var resp openai.EmbeddingResponse
	err := p.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateEmbeddings(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, p.classifyError(err)
	}

	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts",
			search.ErrEmbeddingProtocol, len(resp.Data), len(batch))
	}

	vectors := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		if len(data.Embedding) != search.Dimension {
			return nil, fmt.Errorf("%w: vector dimension %d, want %d",
				search.ErrEmbeddingProtocol, len(data.Embedding), search.Dimension)
		}
		vec := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Complete generates a single chat completion for the given prompt. Used by
// the LLM topic fallback.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if !p.configured {
		return "", fmt.Errorf("%w: no API key configured", search.ErrEmbeddingUnavailable)
	}

	req := openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var resp openai.ChatCompletionResponse
	err := p.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		return "", p.classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in completion response", search.ErrEmbeddingProtocol)
	}
	return resp.Choices[0].Message.Content, nil
}

// withRetry executes fn with exponential backoff on retryable errors.
func (p *OpenAIProvider) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) || attempt == p.maxRetries {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * p.backoffFactor)
		}
	}

	return lastErr
}

// isRetryable determines if an error should be retried.
func isRetryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

// classifyError maps transport and API failures onto the domain sentinels.
// 4xx responses other than 429 are protocol errors; everything else means
// the upstream could not serve the request.
func (p *OpenAIProvider) classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != http.StatusTooManyRequests {
			return fmt.Errorf("%w: %s (status %d)", search.ErrEmbeddingProtocol, apiErr.Message, apiErr.HTTPStatusCode)
		}
	}
	return fmt.Errorf("%w: %v", search.ErrEmbeddingUnavailable, err)
}

func truncateText(s string) string {
	if len(s) <= EmbedMaxChars {
		return s
	}
	return s[:EmbedMaxChars-3] + "..."
}
