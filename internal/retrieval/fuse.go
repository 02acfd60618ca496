package retrieval

import (
	"sort"

	"github.com/dgallion1/regrag/internal/doctree"
)

// DefaultRRFK is the rank offset in reciprocal rank fusion.
const DefaultRRFK = 60

// Candidate is one entry of a ranked source list.
type Candidate struct {
	ChunkID  string
	Text     string
	Metadata doctree.Metadata
}

// Source is a ranked list with its fusion weight.
type Source struct {
	Name       string
	Weight     float64
	Candidates []Candidate
}

// Result is a fused, ranked chunk.
type Result struct {
	ChunkID  string           `json:"chunk_id"`
	Text     string           `json:"text"`
	Metadata doctree.Metadata `json:"metadata"`
	Score    float64          `json:"score"`
}

// Fuse combines source lists with weighted reciprocal rank fusion: an item at
// 0-based rank r in a source of weight w adds w/(r+k). Results are ordered by
// descending score, ties by first appearance across sources in order, and
// truncated to n (n <= 0 keeps all). The first source to list a chunk
// supplies its text and metadata. Sources with a non-positive weight are
// ignored.
func Fuse(sources []Source, k, n int) []Result {
	if k <= 0 {
		k = DefaultRRFK
	}
	idx := make(map[string]int)
	var out []Result
	for _, src := range sources {
		if src.Weight <= 0 {
			continue
		}
		for rank, c := range src.Candidates {
			contrib := src.Weight / float64(rank+k)
			i, ok := idx[c.ChunkID]
			if !ok {
				i = len(out)
				idx[c.ChunkID] = i
				out = append(out, Result{ChunkID: c.ChunkID, Text: c.Text, Metadata: c.Metadata})
			}
			out[i].Score += contrib
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
