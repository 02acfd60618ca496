// Package retrieval answers queries by fusing semantic and lexical rankings.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/regrag/internal/embed"
	"github.com/dgallion1/regrag/internal/lexical"
	"github.com/dgallion1/regrag/internal/vectorindex"
)

// LexicalSearcher ranks chunks by term relevance.
type LexicalSearcher interface {
	Search(ctx context.Context, query string, k int) ([]lexical.Hit, error)
}

// Config holds fusion weights and the rank offset.
type Config struct {
	SemanticWeight float64
	LexicalWeight  float64
	K              int
}

func DefaultConfig() Config {
	return Config{SemanticWeight: 1.0, LexicalWeight: 1.0, K: DefaultRRFK}
}

// Hybrid runs a semantic and a lexical branch concurrently and fuses them.
// Either branch may be nil, weighted zero or fail; the other still answers.
type Hybrid struct {
	embedder embed.Embedder
	vectors  vectorindex.Index
	lexical  LexicalSearcher
	cfg      Config
	log      *slog.Logger
}

func NewHybrid(e embed.Embedder, v vectorindex.Index, lex LexicalSearcher, cfg Config, log *slog.Logger) *Hybrid {
	if cfg.K <= 0 {
		cfg.K = DefaultRRFK
	}
	return &Hybrid{embedder: e, vectors: v, lexical: lex, cfg: cfg, log: log}
}

// Retrieve returns up to n chunks for the query, best first, with table
// text repaired. It errors only when every configured branch failed.
func (h *Hybrid) Retrieve(ctx context.Context, query string, n int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" || n <= 0 {
		return nil, nil
	}
	fetch := 2 * n

	var (
		semantic, lex       []Candidate
		semanticErr, lexErr error
	)
	var g errgroup.Group
	if h.semanticOn() {
		g.Go(func() error {
			semantic, semanticErr = h.semantic(ctx, query, fetch)
			if semanticErr != nil {
				h.log.Warn("semantic branch failed, using lexical only", "error", semanticErr)
			}
			return nil
		})
	}
	if h.lexicalOn() {
		g.Go(func() error {
			lex, lexErr = h.lexicalBranch(ctx, query, fetch)
			if lexErr != nil {
				h.log.Warn("lexical branch failed", "error", lexErr)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := bothFailed(h, semanticErr, lexErr); err != nil {
		return nil, err
	}

	results := Fuse([]Source{
		{Name: "semantic", Weight: h.cfg.SemanticWeight, Candidates: semantic},
		{Name: "lexical", Weight: h.cfg.LexicalWeight, Candidates: lex},
	}, h.cfg.K, n)
	for i := range results {
		results[i].Text = RepairTables(results[i].Text)
	}
	h.log.Debug("retrieved", "query", query, "semantic", len(semantic), "lexical", len(lex), "results", len(results))
	return results, nil
}

func (h *Hybrid) semanticOn() bool {
	return h.embedder != nil && h.vectors != nil && h.cfg.SemanticWeight > 0
}

func (h *Hybrid) lexicalOn() bool {
	return h.lexical != nil && h.cfg.LexicalWeight > 0
}

func bothFailed(h *Hybrid, semanticErr, lexErr error) error {
	semanticOn, lexOn := h.semanticOn(), h.lexicalOn()
	switch {
	case semanticOn && lexOn && semanticErr != nil && lexErr != nil:
		return fmt.Errorf("retrieve: %w", errors.Join(semanticErr, lexErr))
	case semanticOn && !lexOn && semanticErr != nil:
		return fmt.Errorf("retrieve: %w", semanticErr)
	case lexOn && !semanticOn && lexErr != nil:
		return fmt.Errorf("retrieve: %w", lexErr)
	}
	return nil
}

func (h *Hybrid) semantic(ctx context.Context, query string, k int) ([]Candidate, error) {
	vec, err := h.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := h.vectors.Query(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	out := make([]Candidate, len(matches))
	for i, m := range matches {
		out[i] = Candidate{ChunkID: m.ID, Text: m.Text, Metadata: m.Metadata}
	}
	return out, nil
}

func (h *Hybrid) lexicalBranch(ctx context.Context, query string, k int) ([]Candidate, error) {
	hits, err := h.lexical.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		if hit.Score <= 0 {
			continue
		}
		out = append(out, Candidate{ChunkID: hit.ID, Text: hit.Text, Metadata: hit.Metadata})
	}
	return out, nil
}
