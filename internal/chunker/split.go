package chunker

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/dgallion1/regrag/internal/doctree"
)

// separators are tried in order: paragraphs, lines, words, then a hard cut.
var separators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks oversized text chunks into overlapping pieces.
type Splitter struct {
	cfg      Config
	splitter textsplitter.RecursiveCharacter
}

func NewSplitter(cfg Config) *Splitter {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 5
	}
	return &Splitter{
		cfg: cfg,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithSeparators(separators),
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
			textsplitter.WithLenFunc(Len),
		),
	}
}

// Split passes tables and chunks within budget through unchanged. Each
// piece of a split chunk keeps the original chunk index and gets a
// sub-index; its ID carries the same suffix.
func (s *Splitter) Split(chunks []doctree.Chunk) []doctree.Chunk {
	out := make([]doctree.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.IsTable || Len(c.Content) <= s.cfg.ChunkSize {
			out = append(out, c)
			continue
		}

		pieces, err := s.splitter.SplitText(c.Content)
		if err != nil || len(pieces) < 2 {
			out = append(out, c)
			continue
		}
		for i, p := range pieces {
			piece := c.Clone()
			sub := i
			piece.SubIndex = &sub
			piece.ChunkID = fmt.Sprintf("%s-%d", c.ChunkID, i)
			piece.Content = p
			out = append(out, piece)
		}
	}
	return out
}
