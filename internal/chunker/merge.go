// Package chunker sizes assembled chunks: small same-section neighbours are
// merged, oversized text chunks are split with overlap.
package chunker

import (
	"github.com/dgallion1/regrag/internal/doctree"
)

// Config controls chunk sizing. Sizes are in characters.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
	}
}

// Merge coalesces adjacent text chunks that share a header path while the
// combined content stays under chunkSize. Tables are never merged and reset
// the accumulator. Output order is preserved and indices are renumbered 1..N.
func Merge(chunks []doctree.Chunk, chunkSize int) []doctree.Chunk {
	out := make([]doctree.Chunk, 0, len(chunks))
	var (
		acc     doctree.Chunk
		haveAcc bool
		accKey  doctree.HeaderPathKey
		accLen  int
	)

	flush := func() {
		if haveAcc {
			out = append(out, acc)
			haveAcc = false
		}
	}

	for _, c := range chunks {
		if c.IsTable {
			flush()
			out = append(out, c.Clone())
			continue
		}

		key := c.Key()
		n := Len(c.Content)
		if haveAcc && key == accKey && accLen+n+1 < chunkSize {
			acc.Content += "\n" + c.Content
			accLen += n + 1
			continue
		}

		flush()
		acc = c.Clone()
		accKey = key
		accLen = n
		haveAcc = true
	}
	flush()

	for i := range out {
		out[i].ChunkIndex = i + 1
	}
	return out
}
