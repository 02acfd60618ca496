package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/regrag/internal/doctree"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    document_id   TEXT PRIMARY KEY,
    filename      TEXT NOT NULL,
    content_hash  TEXT NOT NULL DEFAULT '',
    page_count    INTEGER NOT NULL DEFAULT 0,
    chunk_count   INTEGER NOT NULL DEFAULT 0,
    summary       TEXT NOT NULL DEFAULT '',
    total_cost    REAL NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL DEFAULT '',
    body          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);

CREATE TABLE IF NOT EXISTS chunks (
    chunk_id     TEXT PRIMARY KEY,
    document_id  TEXT NOT NULL,
    seq          INTEGER NOT NULL,
    body         TEXT NOT NULL,
    FOREIGN KEY (document_id) REFERENCES documents(document_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id, seq);
`

// SQLite stores each document as one JSON body, with its chunks mirrored
// into a table for index rebuilds.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the store at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := Open(path, WithMkdirAll(), WithSchema(schema))
	if err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// NewSQLite applies the schema to an already open database.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Close() error { return s.db.Close() }

// Put inserts or replaces a document and its chunks.
func (s *SQLite) Put(ctx context.Context, doc *doctree.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, doc.DocumentID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (document_id, filename, content_hash, page_count, chunk_count, summary, total_cost, created_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			filename = excluded.filename,
			content_hash = excluded.content_hash,
			page_count = excluded.page_count,
			chunk_count = excluded.chunk_count,
			summary = excluded.summary,
			total_cost = excluded.total_cost,
			created_at = excluded.created_at,
			body = excluded.body`,
		doc.DocumentID, doc.Filename, doc.ContentHash, doc.PageCount, len(doc.Chunks),
		doc.DocumentSummary, doc.TotalCost(), doc.CreatedAt, string(body))
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (chunk_id, document_id, seq, body) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()
	for i, c := range doc.Chunks {
		cb, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal chunk %s: %w", c.ChunkID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ChunkID, doc.DocumentID, i, string(cb)); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Get(ctx context.Context, id string) (*doctree.Document, error) {
	return s.one(ctx, `SELECT body FROM documents WHERE document_id = ?`, id)
}

// FindByHash returns the most recent document with the given content hash.
func (s *SQLite) FindByHash(ctx context.Context, hash string) (*doctree.Document, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return s.one(ctx, `SELECT body FROM documents WHERE content_hash = ? ORDER BY created_at DESC LIMIT 1`, hash)
}

func (s *SQLite) one(ctx context.Context, query string, arg string) (*doctree.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	var doc doctree.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

func (s *SQLite) List(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, filename, page_count, chunk_count, summary, total_cost, created_at
		FROM documents ORDER BY created_at DESC, document_id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.DocumentID, &d.Filename, &d.PageCount, &d.ChunkCount,
			&d.DocumentSummary, &d.TotalCost, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE document_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AllChunks returns every stored chunk, grouped by document in chunk order.
func (s *SQLite) AllChunks(ctx context.Context) ([]ChunkRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.body, d.filename
		FROM chunks c JOIN documents d ON d.document_id = c.document_id
		ORDER BY d.created_at, d.document_id, c.seq`)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var out []ChunkRecord
	for rows.Next() {
		var body, filename string
		if err := rows.Scan(&body, &filename); err != nil {
			return nil, err
		}
		var c doctree.Chunk
		if err := json.Unmarshal([]byte(body), &c); err != nil {
			return nil, fmt.Errorf("decode chunk: %w", err)
		}
		out = append(out, ChunkRecord{Chunk: c, Filename: filename})
	}
	return out, rows.Err()
}
