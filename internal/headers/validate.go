package headers

import (
	"regexp"
	"strings"

	"github.com/dgallion1/regrag/internal/doctree"
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|` +
		`new\s+instructions)`,
)

// ValidCorrection checks a classifier correction against the headings the
// document actually has. Corrections naming unknown headings, out of range
// levels, or carrying instruction-like text are dropped.
func ValidCorrection(c Correction, known map[doctree.HeaderNode]bool) bool {
	name := strings.TrimSpace(c.OriginalName)
	if name == "" || len(name) > 300 {
		return false
	}
	if c.CorrectedLevel < 1 || c.CorrectedLevel > doctree.MaxLevel {
		return false
	}
	if injectionPattern.MatchString(name) {
		return false
	}
	if known[doctree.HeaderNode{Level: int(c.OriginalLevel), Name: c.OriginalName}] {
		return true
	}
	for h := range known {
		if h.Name == c.OriginalName {
			return true
		}
	}
	return false
}

// FilterCorrections keeps the valid corrections in order.
func FilterCorrections(cs []Correction, headers []doctree.HeaderNode) []Correction {
	known := make(map[doctree.HeaderNode]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	out := cs[:0:0]
	for _, c := range cs {
		if ValidCorrection(c, known) {
			out = append(out, c)
		}
	}
	return out
}
