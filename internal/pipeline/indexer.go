package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/regrag/internal/doctree"
	"github.com/dgallion1/regrag/internal/embed"
	"github.com/dgallion1/regrag/internal/vectorindex"
)

// Resetter is a cached index that must be rebuilt after the corpus changes.
type Resetter interface {
	Reset()
}

// Indexer embeds document chunks into the vector index and invalidates the
// lexical index.
type Indexer struct {
	embedder embed.Embedder
	vectors  vectorindex.Index
	lexical  Resetter
	log      *slog.Logger
}

func NewIndexer(e embed.Embedder, v vectorindex.Index, lexical Resetter, log *slog.Logger) *Indexer {
	return &Indexer{embedder: e, vectors: v, lexical: lexical, log: log}
}

// Index upserts every non-blank chunk of doc. The lexical index is reset
// even when embedding fails, since the store already changed.
func (ix *Indexer) Index(ctx context.Context, doc *doctree.Document) error {
	if ix.lexical != nil {
		defer ix.lexical.Reset()
	}
	if ix.embedder == nil || ix.vectors == nil {
		return nil
	}

	var (
		texts   []string
		entries []vectorindex.Entry
	)
	for _, c := range doc.Chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		texts = append(texts, c.Content)
		entries = append(entries, vectorindex.Entry{
			ID:       c.ChunkID,
			Text:     c.Content,
			Metadata: doctree.MetadataOf(c, doc.Filename),
		})
	}
	if len(entries) == 0 {
		return nil
	}

	vecs, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(texts), err)
	}
	for i := range entries {
		entries[i].Vector = vecs[i]
	}
	if err := ix.vectors.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	ix.log.Info("indexed document", "doc_id", doc.DocumentID, "chunks", len(entries), "embedder", ix.embedder.Name())
	return nil
}

// Remove drops a document's vectors and resets the lexical index.
func (ix *Indexer) Remove(ctx context.Context, docID string) error {
	if ix.lexical != nil {
		defer ix.lexical.Reset()
	}
	if ix.vectors == nil {
		return nil
	}
	return ix.vectors.DeleteDocument(ctx, docID)
}
