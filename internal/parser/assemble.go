package parser

import (
	"fmt"

	"github.com/dgallion1/regrag/internal/doctree"
)

// Options controls chunk assembly.
type Options struct {
	// MaxPage stops assembly after this page number. Zero means no limit.
	MaxPage int
}

// Result is the output of Assemble.
type Result struct {
	Chunks    []doctree.Chunk
	PageCount int
}

// ChunkID formats the identifier of the i-th assembled chunk of a document.
func ChunkID(docID string, i int) string {
	if docID == "" {
		return fmt.Sprintf("chunk_%03d", i)
	}
	return fmt.Sprintf("%s_chunk_%03d", docID, i)
}

// TableID formats the identifier of the i-th table of a document.
func TableID(i int) string {
	return fmt.Sprintf("table_%03d", i)
}

// Assemble runs page, section and table segmentation over page-marked
// markdown and emits one chunk per text or table segment. Chunk indices
// start at 1 and increase strictly in document order.
func Assemble(text, docID string, opts Options) Result {
	pages := SplitPages(text)
	res := Result{PageCount: len(pages)}

	var stack doctree.HeaderStack
	index := 0
	tableCount := 0

	for p, page := range pages {
		pageNum := p + 1
		if opts.MaxPage > 0 && pageNum > opts.MaxPage {
			break
		}

		var sections []Section
		sections, stack = SplitSections(page, stack)

		for _, sec := range sections {
			body, tables := ExtractTables(sec.Content)
			path := sec.Headers.Path()

			for _, seg := range Interleave(body, tables) {
				index++
				c := doctree.Chunk{
					ChunkID:    ChunkID(docID, index),
					DocumentID: docID,
					Content:    seg.Text,
					ChunkIndex: index,
					Location:   doctree.ChunkLocation{PageNumber: pageNum},
					HeaderPath: append([]doctree.HeaderNode(nil), path...),
					IsTable:    seg.IsTable,
				}
				if seg.IsTable {
					tableCount++
					c.TableID = TableID(tableCount)
				}
				res.Chunks = append(res.Chunks, c)
			}
		}
	}

	return res
}
