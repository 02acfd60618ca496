// Package lexical ranks chunks by term relevance with SQLite FTS5 (bm25).
package lexical

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgallion1/regrag/internal/doctree"
	"github.com/dgallion1/regrag/internal/embed"
	"github.com/dgallion1/regrag/internal/store"
)

// Document is one chunk to index.
type Document struct {
	ID       string
	Text     string
	Metadata doctree.Metadata
}

// Hit is a ranked match. Score is the negated bm25 rank, higher is better.
type Hit struct {
	ID       string
	Text     string
	Metadata doctree.Metadata
	Score    float64
}

// Source supplies the corpus when the index is built.
type Source func(ctx context.Context) ([]Document, error)

// FromStore adapts a document store into a Source. Each chunk's header
// breadcrumb is attached as metadata.
func FromStore(s store.Store) Source {
	return func(ctx context.Context) ([]Document, error) {
		recs, err := s.AllChunks(ctx)
		if err != nil {
			return nil, err
		}
		docs := make([]Document, len(recs))
		for i, r := range recs {
			docs[i] = Document{
				ID:       r.Chunk.ChunkID,
				Text:     r.Chunk.Content,
				Metadata: doctree.MetadataOf(r.Chunk, r.Filename),
			}
		}
		return docs, nil
	}
}

// Index is built on first search and then read-only until Reset.
type Index struct {
	source Source
	log    *slog.Logger

	mu    sync.RWMutex
	db    *sql.DB
	built bool
	size  int
}

func New(source Source, log *slog.Logger) *Index {
	return &Index{source: source, log: log}
}

const ftsSchema = `
CREATE VIRTUAL TABLE chunks_fts USING fts5(
    chunk_id UNINDEXED,
    text UNINDEXED,
    metadata UNINDEXED,
    body,
    tokenize='unicode61 remove_diacritics 2'
);`

// build (re)creates the FTS table from the source. Caller holds mu.
func (ix *Index) build(ctx context.Context) error {
	docs, err := ix.source(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	if ix.db != nil {
		ix.db.Close()
		ix.db = nil
	}
	db, err := store.Open(":memory:", store.WithSchema(ftsSchema))
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks_fts (chunk_id, text, metadata, body) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		db.Close()
		return fmt.Errorf("prepare insert: %w", err)
	}
	for _, d := range docs {
		meta, _ := json.Marshal(d.Metadata)
		if _, err := stmt.ExecContext(ctx, d.ID, d.Text, string(meta), PlainText(d.Text)); err != nil {
			stmt.Close()
			tx.Rollback()
			db.Close()
			return fmt.Errorf("index %s: %w", d.ID, err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		db.Close()
		return fmt.Errorf("commit: %w", err)
	}

	ix.db = db
	ix.built = true
	ix.size = len(docs)
	ix.log.Info("lexical index built", "chunks", len(docs))
	return nil
}

func (ix *Index) ensure(ctx context.Context) error {
	ix.mu.RLock()
	built := ix.built
	ix.mu.RUnlock()
	if built {
		return nil
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.built {
		return nil
	}
	return ix.build(ctx)
}

// Reset discards the built index; the next search rebuilds from the source.
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.built = false
}

// Size is the number of indexed chunks, 0 before the first build.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.size
}

// Close releases the backing database.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.built = false
	if ix.db == nil {
		return nil
	}
	err := ix.db.Close()
	ix.db = nil
	return err
}

// MatchQuery turns free text into an FTS5 query: lowercase tokens, each
// quoted, joined with OR. Returns "" when the text has no tokens.
func MatchQuery(q string) string {
	toks := embed.Tokens(PlainText(q))
	if len(toks) == 0 {
		return ""
	}
	seen := make(map[string]bool, len(toks))
	parts := make([]string, 0, len(toks))
	for _, t := range toks {
		if seen[t] {
			continue
		}
		seen[t] = true
		parts = append(parts, `"`+t+`"`)
	}
	return strings.Join(parts, " OR ")
}

// Search returns up to k chunks with a positive score, best first.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	match := MatchQuery(query)
	if match == "" || k <= 0 {
		return nil, nil
	}
	if err := ix.ensure(ctx); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.db == nil {
		return nil, nil
	}
	rows, err := ix.db.QueryContext(ctx, `
		SELECT chunk_id, text, metadata, -bm25(chunks_fts) AS score
		FROM chunks_fts
		WHERE chunks_fts MATCH ?
		ORDER BY bm25(chunks_fts), rowid
		LIMIT ?`, match, k)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h    Hit
			meta string
		)
		if err := rows.Scan(&h.ID, &h.Text, &meta, &h.Score); err != nil {
			return nil, err
		}
		if h.Score <= 0 {
			continue
		}
		if err := json.Unmarshal([]byte(meta), &h.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", h.ID, err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
