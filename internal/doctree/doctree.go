package doctree

import (
	"fmt"
	"strings"
)

// MaxLevel is the deepest heading ordinal a markdown heading can carry.
const MaxLevel = 6

// HeaderNode is one heading in a breadcrumb.
type HeaderNode struct {
	Level int    `json:"level"`
	Name  string `json:"name"`
}

func (h HeaderNode) String() string {
	return fmt.Sprintf("Header %d: %s", h.Level, h.Name)
}

// ChunkLocation records where a chunk came from in the source.
type ChunkLocation struct {
	PageNumber int `json:"page_number"`
}

// Chunk is the atomic retrievable unit of text or table content.
type Chunk struct {
	ChunkID    string        `json:"chunk_id"`
	DocumentID string        `json:"document_id"`
	Content    string        `json:"content"`
	ChunkIndex int           `json:"chunk_index"`
	SubIndex   *int          `json:"sub_index,omitempty"`
	Location   ChunkLocation `json:"location"`
	HeaderPath []HeaderNode  `json:"header_path"`
	IsTable    bool          `json:"is_table"`
	TableID    string        `json:"table_id,omitempty"`
}

// IndexLabel renders the chunk index with its sub-index suffix, e.g. "7" or "7-1".
func (c Chunk) IndexLabel() string {
	if c.SubIndex == nil {
		return fmt.Sprintf("%d", c.ChunkIndex)
	}
	return fmt.Sprintf("%d-%d", c.ChunkIndex, *c.SubIndex)
}

// Key returns the HeaderPathKey the chunk is grouped under.
func (c Chunk) Key() HeaderPathKey {
	return KeyOf(c.HeaderPath)
}

// Breadcrumb joins the chunk's header names root to leaf.
func (c Chunk) Breadcrumb() string {
	return Breadcrumb(c.HeaderPath)
}

// Clone returns a deep copy, so header path rewrites never alias the source.
func (c Chunk) Clone() Chunk {
	out := c
	if c.HeaderPath != nil {
		out.HeaderPath = append([]HeaderNode(nil), c.HeaderPath...)
	}
	if c.SubIndex != nil {
		v := *c.SubIndex
		out.SubIndex = &v
	}
	return out
}

// Stage names used in Document.Costs.
const (
	CostHeaderCorrection = "header_correction"
	CostSectionSummaries = "section_summaries"
	CostDocumentSummary  = "document_summary"
)

// Document is the persisted result of one ingestion run.
type Document struct {
	DocumentID       string             `json:"document_id"`
	Filename         string             `json:"filename"`
	ContentHash      string             `json:"content_hash,omitempty"`
	Chunks           []Chunk            `json:"chunks"`
	SectionChunks    []Chunk            `json:"section_chunks"`
	SectionSummaries map[string]string  `json:"section_summaries"`
	DocumentSummary  string             `json:"document_summary"`
	Costs            map[string]float64 `json:"costs"`
	PageCount        int                `json:"page_count"`
	CreatedAt        string             `json:"created_at,omitempty"`
}

// TotalCost sums every stage cost.
func (d *Document) TotalCost() float64 {
	var total float64
	for _, c := range d.Costs {
		total += c
	}
	return total
}

// Breadcrumb joins header names with " > ".
func Breadcrumb(path []HeaderNode) string {
	names := make([]string, len(path))
	for i, h := range path {
		names[i] = h.Name
	}
	return strings.Join(names, BreadcrumbSep)
}

// BreadcrumbSep separates header names in breadcrumb strings and serialized section keys.
const BreadcrumbSep = " > "

// Metadata is the fixed-shape record attached to a chunk in the indexes and
// in retrieval results.
type Metadata struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename,omitempty"`
	ChunkIndex string `json:"chunk_index"`
	PageNumber int    `json:"page_number"`
	HeaderPath string `json:"header_path"`
	IsTable    bool   `json:"is_table"`
	TableID    string `json:"table_id,omitempty"`
}

// MetadataOf builds the index metadata of a chunk.
func MetadataOf(c Chunk, filename string) Metadata {
	return Metadata{
		DocumentID: c.DocumentID,
		Filename:   filename,
		ChunkIndex: c.IndexLabel(),
		PageNumber: c.Location.PageNumber,
		HeaderPath: c.Breadcrumb(),
		IsTable:    c.IsTable,
		TableID:    c.TableID,
	}
}
