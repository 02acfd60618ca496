// Package parser turns page-marked markdown into an ordered stream of text
// and table chunks carrying page numbers and header breadcrumbs.
package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// pageRule is the dash rule that follows a page number in the converter output.
var pageRule = strings.Repeat("-", 48)

var pageMarkerRe = regexp.MustCompile(`\n\n\{\d+\}` + pageRule + `\n\n`)

// PageMarker renders the boundary placed before page n (0-based, as the
// converters emit it).
func PageMarker(n int) string {
	return fmt.Sprintf("\n\n{%d}%s\n\n", n, pageRule)
}

// HasPageMarkers reports whether text contains at least one page boundary.
func HasPageMarkers(text string) bool {
	return pageMarkerRe.MatchString(text)
}

// SplitPages splits text on page boundaries. Anything before the first
// boundary is preamble and is dropped, so text without markers has no pages.
// The returned slice is ordered; page numbers are index+1.
func SplitPages(text string) []string {
	parts := pageMarkerRe.Split(text, -1)
	if len(parts) <= 1 {
		return nil
	}
	return parts[1:]
}
