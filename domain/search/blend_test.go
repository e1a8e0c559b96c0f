package search

import (
	"testing"
	"time"
)

func TestBlendScore(t *testing.T) {
	tests := []struct {
		name       string
		similarity float64
		quality    float64
		want       float64
	}{
		{"weighted sum", 0.8, 0.5, 0.7*0.8 + 0.3*0.5},
		{"zero", 0, 0, 0},
		{"full", 1, 1, 1},
		{"negative similarity clamped", -0.2, 0.5, 0.3 * 0.5},
		{"oversized similarity clamped", 1.4, 0.5, 0.7 + 0.3*0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BlendScore(tt.similarity, tt.quality); got != tt.want {
				t.Errorf("BlendScore(%v, %v) = %v, want %v", tt.similarity, tt.quality, got, tt.want)
			}
		})
	}
}

func TestBlendScore_QualityBeatsSimilarity(t *testing.T) {
	// sim 0.9 / quality 0.3 blends below sim 0.7 / quality 1.0.
	a := BlendScore(0.9, 0.3)
	b := BlendScore(0.7, 1.0)
	if a >= b {
		t.Errorf("BlendScore(0.9, 0.3) = %v should rank below BlendScore(0.7, 1.0) = %v", a, b)
	}
}

func TestSortBlended_TotalOrder(t *testing.T) {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	items := []Ranked{
		{ID: "d", Similarity: 0.5, Quality: 0.5, UpdatedAt: older},
		{ID: "c", Similarity: 0.5, Quality: 0.5, UpdatedAt: older},
		{ID: "b", Similarity: 0.5, Quality: 0.5, UpdatedAt: newer},
		{ID: "a", Similarity: 0.8, Quality: 0.5, UpdatedAt: older},
		{ID: "e", Similarity: 0.9, Quality: 0.2, UpdatedAt: older},
	}
	SortBlended(items)

	// a: blended 0.71; e: blended 0.69; b/c/d tie at 0.5 blended, broken by
	// updated-at then id.
	wantOrder := []string{"a", "e", "b", "c", "d"}
	for i, want := range wantOrder {
		if items[i].ID != want {
			t.Fatalf("position %d = %q, want %q (order %v)", i, items[i].ID, want, ids(items))
		}
	}
}

func TestSortBlended_HigherBlendedWins(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Ranked{
		{ID: "low-sim", Similarity: 0.4, Quality: 1.0, UpdatedAt: ts},  // 0.28 + 0.30
		{ID: "high-sim", Similarity: 0.9, Quality: 0.3, UpdatedAt: ts}, // 0.63 + 0.09
	}
	SortBlended(items)
	if items[0].ID != "high-sim" {
		t.Errorf("order = %v", ids(items))
	}
}

func TestSortBlended_SimilarityBreaksExactTie(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// Oversized similarities clamp inside the blend but keep their raw
	// value for the tiebreak, so both items carry an identical blended
	// score and only similarity separates them.
	items := []Ranked{
		{ID: "exact", Similarity: 1.0, Quality: 0.4, UpdatedAt: ts},
		{ID: "clamped", Similarity: 1.2, Quality: 0.4, UpdatedAt: ts},
	}
	if items[0].Blended() != items[1].Blended() {
		t.Fatal("blended scores must tie for this case")
	}
	SortBlended(items)
	if items[0].ID != "clamped" {
		t.Errorf("order = %v", ids(items))
	}
}

func ids(items []Ranked) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestNewTokenBudget_RejectsBelowMinimum(t *testing.T) {
	if _, err := NewTokenBudget(MinOutputTokens - 1); err == nil {
		t.Error("expected error for budget below minimum")
	}
	if _, err := NewTokenBudget(MinOutputTokens); err != nil {
		t.Errorf("minimum budget rejected: %v", err)
	}
}

func TestTokenBudget_StrictPrefix(t *testing.T) {
	budget, err := NewTokenBudget(1000)
	if err != nil {
		t.Fatalf("NewTokenBudget() error = %v", err)
	}

	if !budget.Consume(400) {
		t.Fatal("first block should fit")
	}
	if budget.Consume(700) {
		t.Fatal("second block exceeds the budget")
	}
	// The budget is closed: a later, smaller block is rejected even though
	// it would fit, preserving the prefix property.
	if budget.Consume(100) {
		t.Error("closed budget accepted a block")
	}
	if budget.Used() != 400 {
		t.Errorf("Used() = %d, want 400", budget.Used())
	}
}

func TestTokenBudget_HeaderNeverCloses(t *testing.T) {
	budget, err := NewTokenBudget(1000)
	if err != nil {
		t.Fatalf("NewTokenBudget() error = %v", err)
	}

	// The header is always emitted, even when it exceeds the budget alone.
	budget.ConsumeHeader(1200)
	if budget.Remaining() != -200 {
		t.Errorf("Remaining() = %d, want -200", budget.Remaining())
	}
	if budget.Consume(100) {
		t.Error("snippet accepted after the header exhausted the budget")
	}
}
