// Package vectorindex is the nearest-neighbor index behind semantic search.
package vectorindex

import (
	"context"
	"sort"

	"github.com/dgallion1/regrag/internal/doctree"
	"github.com/dgallion1/regrag/internal/embed"
)

// Entry is one indexed chunk.
type Entry struct {
	ID       string
	Text     string
	Metadata doctree.Metadata
	Vector   []float32
}

// Match is a query hit. Distance is 1 - cosine similarity, so lower is closer.
type Match struct {
	ID       string           `json:"id"`
	Text     string           `json:"text"`
	Metadata doctree.Metadata `json:"metadata"`
	Distance float32          `json:"distance"`
}

// Index stores vectors and answers k-nearest queries.
type Index interface {
	Upsert(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vec []float32, k int) ([]Match, error)
	DeleteDocument(ctx context.Context, documentID string) error
	Count(ctx context.Context) (int, error)
}

// topK ranks candidates by distance, ties by ID, and keeps the first k.
func topK(cands []Match, k int) []Match {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Distance != cands[j].Distance {
			return cands[i].Distance < cands[j].Distance
		}
		return cands[i].ID < cands[j].ID
	})
	if k > 0 && k < len(cands) {
		cands = cands[:k]
	}
	return cands
}

func distance(a, b []float32) float32 {
	return 1 - embed.Cosine(a, b)
}
