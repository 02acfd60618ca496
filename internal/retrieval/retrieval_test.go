package retrieval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/dgallion1/regrag/internal/doctree"
	"github.com/dgallion1/regrag/internal/embed"
	"github.com/dgallion1/regrag/internal/lexical"
	"github.com/dgallion1/regrag/internal/vectorindex"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cands(ids ...string) []Candidate {
	out := make([]Candidate, len(ids))
	for i, id := range ids {
		out[i] = Candidate{ChunkID: id, Text: "text " + id}
	}
	return out
}

func TestFuseHandComputedScores(t *testing.T) {
	res := Fuse([]Source{
		{Name: "semantic", Weight: 1, Candidates: cands("A", "B")},
		{Name: "lexical", Weight: 1, Candidates: cands("C", "B")},
	}, 60, 10)

	if len(res) != 3 || res[0].ChunkID != "B" {
		t.Fatalf("expected B first, got %+v", res)
	}
	if math.Abs(res[0].Score-0.03279) > 1e-5 {
		t.Errorf("expected B score 0.03279, got %.5f", res[0].Score)
	}
	if math.Abs(res[1].Score-0.01667) > 1e-5 || res[1].ChunkID != "A" {
		t.Errorf("expected A at 0.01667, got %s at %.5f", res[1].ChunkID, res[1].Score)
	}
	if res[2].ChunkID != "C" {
		t.Errorf("expected tie broken by source order (A before C), got %s", res[2].ChunkID)
	}
}

func TestFuseWeightsAndTruncation(t *testing.T) {
	tests := []struct {
		name     string
		sem, lex float64
		n        int
		want     []string
	}{
		{"lexical heavier", 1, 2, 0, []string{"C", "A"}},
		{"semantic heavier", 2, 1, 0, []string{"A", "C"}},
		{"truncate", 1, 1, 1, []string{"A"}},
		{"lexical off", 1, 0, 0, []string{"A"}},
		{"semantic off", 0, 1, 0, []string{"C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Fuse([]Source{
				{Weight: tt.sem, Candidates: cands("A")},
				{Weight: tt.lex, Candidates: cands("C")},
			}, 0, tt.n)
			var got []string
			for _, r := range res {
				got = append(got, r.ChunkID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRepairTables(t *testing.T) {
	long := "| A | B |" + strings.Repeat("| 1 | 2 |", 30)
	tests := []struct {
		name, in, want string
	}{
		{"separator glued to header", "| H1 ||---|", "| H1 |\n|---|"},
		{"aligned separator", "| H1 || :--- |", "| H1 |\n| :--- |"},
		{"short doubled delimiter", "a || b", "a || b"},
		{"formatted table", "| H1 |\n|---|\n| v |", "| H1 |\n|---|\n| v |"},
		{"long flattened rows", long, strings.ReplaceAll(long, "||", "|\n|")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RepairTables(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

type stubLexical struct {
	hits []lexical.Hit
	err  error
	k    int
}

func (s *stubLexical) Search(_ context.Context, _ string, k int) ([]lexical.Hit, error) {
	s.k = k
	return s.hits, s.err
}

type failingEmbedder struct{ embed.Embedder }

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding service down")
}

func seedVectors(t *testing.T, e embed.Embedder) *vectorindex.Memory {
	t.Helper()
	idx := vectorindex.NewMemory()
	texts := map[string]string{
		"income":    "income limits and income verification",
		"residency": "residency proof of address",
		"table":     "| Fee | Amount ||---|---|",
	}
	for id, text := range texts {
		vec, err := e.Embed(context.Background(), text)
		if err != nil {
			t.Fatal(err)
		}
		idx.Upsert(context.Background(), []vectorindex.Entry{{
			ID: id, Text: text, Vector: vec,
			Metadata: doctree.Metadata{DocumentID: "d", HeaderPath: "Guide > " + id},
		}})
	}
	return idx
}

func TestHybridFusesBothBranches(t *testing.T) {
	e := embed.NewHash(128)
	lex := &stubLexical{hits: []lexical.Hit{
		{ID: "table", Text: "| Fee | Amount ||---|---|", Score: 3},
		{ID: "income", Text: "income limits and income verification", Score: 1},
		{ID: "ignored", Text: "zero", Score: 0},
	}}
	h := NewHybrid(e, seedVectors(t, e), lex, DefaultConfig(), discardLogger())

	res, err := h.Retrieve(context.Background(), "income limits", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if lex.k != 4 {
		t.Errorf("expected lexical over-fetch of 4, got %d", lex.k)
	}
	if len(res) != 2 || res[0].ChunkID != "income" {
		t.Fatalf("expected income first, got %+v", res)
	}
	if res[0].Metadata.HeaderPath != "Guide > income" {
		t.Errorf("expected metadata from the semantic branch, got %+v", res[0].Metadata)
	}
	if res[1].ChunkID != "table" || res[1].Text != "| Fee | Amount |\n|---|---|" {
		t.Errorf("expected repaired table second, got %+v", res[1])
	}
}

func TestHybridFallsBackToLexical(t *testing.T) {
	e := embed.NewHash(128)
	lex := &stubLexical{hits: []lexical.Hit{{ID: "residency", Text: "residency proof", Score: 2}}}
	h := NewHybrid(failingEmbedder{e}, seedVectors(t, e), lex, DefaultConfig(), discardLogger())

	res, err := h.Retrieve(context.Background(), "income", 3)
	if err != nil {
		t.Fatalf("expected lexical-only result, got error %v", err)
	}
	if len(res) != 1 || res[0].ChunkID != "residency" {
		t.Errorf("expected lexical hit only, got %+v", res)
	}
}

func TestHybridErrors(t *testing.T) {
	e := embed.NewHash(128)
	lex := &stubLexical{err: errors.New("fts down")}

	h := NewHybrid(failingEmbedder{e}, seedVectors(t, e), lex, DefaultConfig(), discardLogger())
	if _, err := h.Retrieve(context.Background(), "income", 3); err == nil {
		t.Error("expected error when both branches fail")
	}

	h = NewHybrid(e, seedVectors(t, e), lex, DefaultConfig(), discardLogger())
	if res, err := h.Retrieve(context.Background(), "income", 3); err != nil || len(res) == 0 {
		t.Errorf("expected semantic results despite lexical failure, got %v %v", res, err)
	}

	if res, err := h.Retrieve(context.Background(), "   ", 3); err != nil || res != nil {
		t.Errorf("expected empty query to return nothing, got %v %v", res, err)
	}
}

func TestHybridZeroWeightSkipsBranch(t *testing.T) {
	e := embed.NewHash(128)
	lex := &stubLexical{hits: []lexical.Hit{{ID: "residency", Text: "residency proof", Score: 2}}}
	cfg := DefaultConfig()
	cfg.LexicalWeight = 0
	h := NewHybrid(e, seedVectors(t, e), lex, cfg, discardLogger())

	res, err := h.Retrieve(context.Background(), "residency proof", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if lex.k != 0 {
		t.Errorf("expected lexical branch not to run, got k=%d", lex.k)
	}
	for _, r := range res {
		if r.Score <= 0 {
			t.Errorf("expected only positively scored results, got %+v", r)
		}
	}

	cfg = DefaultConfig()
	cfg.SemanticWeight = 0
	h = NewHybrid(failingEmbedder{e}, seedVectors(t, e), lex, cfg, discardLogger())
	res, err = h.Retrieve(context.Background(), "residency", 5)
	if err != nil {
		t.Fatalf("expected disabled semantic branch not to fail the query, got %v", err)
	}
	if len(res) != 1 || res[0].ChunkID != "residency" {
		t.Errorf("expected lexical hit only, got %+v", res)
	}
}
