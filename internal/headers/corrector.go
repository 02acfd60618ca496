package headers

import (
	"context"
	"log/slog"

	"github.com/dgallion1/regrag/internal/doctree"
)

// Classifier inspects the unique headings of a document and proposes level
// corrections. It may return none.
type Classifier interface {
	Classify(ctx context.Context, headers []doctree.HeaderNode) ([]Correction, float64, error)
}

// Corrector rewrites chunk header paths from classifier output.
type Corrector struct {
	classifier Classifier
	log        *slog.Logger
}

func NewCorrector(c Classifier, log *slog.Logger) *Corrector {
	return &Corrector{classifier: c, log: log}
}

// Correct classifies the document's headings and applies the corrections.
// A classifier failure returns the chunks unchanged with zero cost.
func (c *Corrector) Correct(ctx context.Context, chunks []doctree.Chunk) ([]doctree.Chunk, float64) {
	unique := UniqueHeaders(chunks)
	if len(unique) == 0 {
		return chunks, 0
	}

	corrections, cost, err := c.classifier.Classify(ctx, unique)
	if err != nil {
		c.log.Warn("header classification failed, keeping original headers", "headers", len(unique), "error", err)
		return chunks, 0
	}

	valid := FilterCorrections(corrections, unique)
	if dropped := len(corrections) - len(valid); dropped > 0 {
		c.log.Warn("dropped invalid header corrections", "dropped", dropped)
	}
	c.log.Info("header correction complete", "headers", len(unique), "corrections", len(valid), "cost", cost)
	return Apply(chunks, valid), cost
}

// Apply rebuilds every chunk's header path. The input slice is not modified.
// Chunks without headers pass through, and no corrections means no change.
func Apply(chunks []doctree.Chunk, corrections []Correction) []doctree.Chunk {
	if len(corrections) == 0 {
		return chunks
	}
	r := NewResolver(chunks, corrections)
	out := make([]doctree.Chunk, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Clone()
		if len(ch.HeaderPath) > 0 {
			out[i].HeaderPath = r.Resolve(ch.HeaderPath)
		}
	}
	return out
}

// UniqueHeaders lists each distinct (level, name) pair in first-seen order.
func UniqueHeaders(chunks []doctree.Chunk) []doctree.HeaderNode {
	seen := make(map[doctree.HeaderNode]bool)
	var out []doctree.HeaderNode
	for _, c := range chunks {
		for _, h := range c.HeaderPath {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	return out
}
