// Package store persists ingested documents.
package store

import (
	"context"
	"errors"

	"github.com/dgallion1/regrag/internal/doctree"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// DocumentInfo is the listing view of a stored document.
type DocumentInfo struct {
	DocumentID      string  `json:"document_id"`
	Filename        string  `json:"filename"`
	PageCount       int     `json:"page_count"`
	ChunkCount      int     `json:"chunk_count"`
	DocumentSummary string  `json:"document_summary"`
	TotalCost       float64 `json:"total_cost"`
	CreatedAt       string  `json:"created_at"`
}

// ChunkRecord is a stored chunk with the filename of its document.
type ChunkRecord struct {
	Chunk    doctree.Chunk
	Filename string
}

// Store is implemented by the SQLite and pathstore backends.
type Store interface {
	Put(ctx context.Context, doc *doctree.Document) error
	Get(ctx context.Context, id string) (*doctree.Document, error)
	List(ctx context.Context) ([]DocumentInfo, error)
	Delete(ctx context.Context, id string) error
	FindByHash(ctx context.Context, hash string) (*doctree.Document, error)
	AllChunks(ctx context.Context) ([]ChunkRecord, error)
	Close() error
}

func infoOf(doc *doctree.Document) DocumentInfo {
	return DocumentInfo{
		DocumentID:      doc.DocumentID,
		Filename:        doc.Filename,
		PageCount:       doc.PageCount,
		ChunkCount:      len(doc.Chunks),
		DocumentSummary: doc.DocumentSummary,
		TotalCost:       doc.TotalCost(),
		CreatedAt:       doc.CreatedAt,
	}
}
