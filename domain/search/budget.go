package search

import "fmt"

// DefaultOutputTokens is the default response budget for rendered docs.
const DefaultOutputTokens = 5000

// MinOutputTokens is the smallest budget a caller may request.
const MinOutputTokens = 1000

// TokenBudget enforces the strict-prefix output budget: a block is appended
// only if the running total stays within the limit, and iteration stops at
// the first block that does not fit — no reordering for fit.
type TokenBudget struct {
	maxTokens int
	used      int
	closed    bool
}

// NewTokenBudget creates a TokenBudget. Budgets below MinOutputTokens are
// rejected.
func NewTokenBudget(maxTokens int) (TokenBudget, error) {
	if maxTokens < MinOutputTokens {
		return TokenBudget{}, fmt.Errorf("token budget must be at least %d, got %d", MinOutputTokens, maxTokens)
	}
	return TokenBudget{maxTokens: maxTokens}, nil
}

// DefaultTokenBudget returns a budget of DefaultOutputTokens.
func DefaultTokenBudget() TokenBudget {
	b, _ := NewTokenBudget(DefaultOutputTokens)
	return b
}

// Max returns the budget limit.
func (b TokenBudget) Max() int { return b.maxTokens }

// Used returns the tokens consumed so far.
func (b TokenBudget) Used() int { return b.used }

// Remaining returns the tokens left in the budget.
func (b TokenBudget) Remaining() int { return b.maxTokens - b.used }

// Consume reserves tokens for one block. The first block that does not fit
// closes the budget; later blocks are rejected even if smaller, preserving
// the strict-prefix property.
func (b *TokenBudget) Consume(tokens int) bool {
	if b.closed || b.used+tokens > b.maxTokens {
		b.closed = true
		return false
	}
	b.used += tokens
	return true
}

// ConsumeHeader reserves tokens without closing the budget on overflow.
// Used for the mandatory library header, which is always emitted.
func (b *TokenBudget) ConsumeHeader(tokens int) {
	b.used += tokens
}
