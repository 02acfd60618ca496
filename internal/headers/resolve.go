package headers

import (
	"strings"

	"github.com/dgallion1/regrag/internal/doctree"
)

// falseParents are non-numbered headings that look like parents of
// numbered sections but only list them (tables of contents, appendix indexes).
var falseParents = map[string]bool{
	"appendices":        true,
	"contents":          true,
	"table of contents": true,
}

// Correction re-levels one heading.
type Correction struct {
	OriginalLevel  Level  `json:"original_level"`
	OriginalName   string `json:"original_name"`
	CorrectedLevel Level  `json:"corrected_level"`
}

// Resolver rebuilds header paths from section numbers. Build it once per
// document with NewResolver, then call Resolve per chunk.
type Resolver struct {
	byKey    map[doctree.HeaderNode]int
	byName   map[string]int
	sections map[string]doctree.HeaderNode
}

// NewResolver indexes corrections and every heading seen in chunks.
func NewResolver(chunks []doctree.Chunk, corrections []Correction) *Resolver {
	r := &Resolver{
		byKey:    make(map[doctree.HeaderNode]int, len(corrections)),
		byName:   make(map[string]int, len(corrections)),
		sections: make(map[string]doctree.HeaderNode),
	}
	for _, c := range corrections {
		r.byKey[doctree.HeaderNode{Level: int(c.OriginalLevel), Name: c.OriginalName}] = int(c.CorrectedLevel)
		r.byName[c.OriginalName] = int(c.CorrectedLevel)
	}

	seen := make(map[string]bool)
	for _, c := range chunks {
		for _, h := range c.HeaderPath {
			if seen[h.Name] {
				continue
			}
			seen[h.Name] = true
			if num, ok := SectionNumber(h.Name); ok {
				r.sections[num] = r.corrected(h)
			}
		}
	}
	return r
}

// corrected applies the (level, name) correction, then the name-only one.
func (r *Resolver) corrected(h doctree.HeaderNode) doctree.HeaderNode {
	if lvl, ok := r.byKey[h]; ok {
		return doctree.HeaderNode{Level: lvl, Name: h.Name}
	}
	if lvl, ok := r.byName[h.Name]; ok {
		return doctree.HeaderNode{Level: lvl, Name: h.Name}
	}
	return h
}

// numbered returns the section-number ancestors of num, root first, followed
// by self if given.
func (r *Resolver) numbered(num string) []doctree.HeaderNode {
	var out []doctree.HeaderNode
	for _, p := range AncestorNumbers(num) {
		if h, ok := r.sections[p]; ok {
			out = append(out, h)
		}
	}
	return out
}

// Resolve returns the corrected header path for one chunk's path.
//
// Numbered ancestors come from the section-number index, not document order.
// Non-numbered headings from the original path survive at their original
// level when they sit strictly above the shallowest numbered ancestor and are
// not false parents. A non-numbered leaf has no numbered ancestors, so every
// non-numbered heading above it qualifies.
func (r *Resolver) Resolve(path []doctree.HeaderNode) []doctree.HeaderNode {
	if len(path) == 0 {
		return path
	}
	leaf := r.corrected(path[len(path)-1])

	var numbered []doctree.HeaderNode
	minLevel := doctree.MaxLevel + 1
	if num, ok := SectionNumber(leaf.Name); ok {
		numbered = r.numbered(num)
		minLevel = leaf.Level
		if len(numbered) > 0 {
			minLevel = numbered[0].Level
			for _, h := range numbered[1:] {
				minLevel = min(minLevel, h.Level)
			}
		}
	}

	var titles []doctree.HeaderNode
	for _, h := range path[:len(path)-1] {
		if sectionNumbered(h.Name) || falseParents[strings.ToLower(strings.TrimSpace(h.Name))] {
			continue
		}
		if h.Level < minLevel {
			titles = append(titles, h)
		}
	}

	out := make([]doctree.HeaderNode, 0, len(titles)+len(numbered)+1)
	out = append(out, titles...)
	out = append(out, numbered...)
	out = append(out, leaf)
	return strictlyIncreasing(out)
}

func sectionNumbered(name string) bool {
	_, ok := SectionNumber(name)
	return ok
}

// strictlyIncreasing keeps the leaf and walks toward the root, dropping any
// heading whose level is not strictly above the one kept after it.
func strictlyIncreasing(path []doctree.HeaderNode) []doctree.HeaderNode {
	if len(path) == 0 {
		return path
	}
	kept := []doctree.HeaderNode{path[len(path)-1]}
	for i := len(path) - 2; i >= 0; i-- {
		if path[i].Level < kept[len(kept)-1].Level {
			kept = append(kept, path[i])
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
