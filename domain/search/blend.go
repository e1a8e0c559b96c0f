package search

import (
	"sort"
	"time"
)

// Blend weights: vector similarity dominates, stored quality breaks the
// near-ties.
const (
	SimilarityWeight = 0.7
	QualityWeight    = 0.3
)

// BlendScore combines vector similarity (clamped to [0, 1]) with the
// snippet's stored quality score.
func BlendScore(similarity, quality float64) float64 {
	if similarity < 0 {
		similarity = 0
	}
	if similarity > 1 {
		similarity = 1
	}
	return SimilarityWeight*similarity + QualityWeight*quality
}

// Ranked is a retrieval candidate carrying everything the total order needs.
type Ranked struct {
	ID         string
	Similarity float64
	Quality    float64
	UpdatedAt  time.Time
}

// Blended returns the blended score for this candidate.
func (r Ranked) Blended() float64 {
	return BlendScore(r.Similarity, r.Quality)
}

// SortBlended orders candidates by blended score descending, ties broken by
// similarity descending, then updated-at descending, then id ascending —
// a total order.
func SortBlended(items []Ranked) {
	sort.SliceStable(items, func(i, j int) bool {
		bi, bj := items[i].Blended(), items[j].Blended()
		if bi != bj {
			return bi > bj
		}
		if items[i].Similarity != items[j].Similarity {
			return items[i].Similarity > items[j].Similarity
		}
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
