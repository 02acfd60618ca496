package retrieval

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// flattenedSeparator matches a row end glued to a separator row start, as in
// "| H1 ||---|".
var flattenedSeparator = regexp.MustCompile(`\|\|(\s*:?-)`)

// RepairTables restores row breaks in markdown tables whose newlines were
// lost. Doubled delimiters are only split when the text is long and nearly
// newline-free; short or already formatted text is left alone.
func RepairTables(s string) string {
	s = flattenedSeparator.ReplaceAllString(s, "|\n|${1}")
	if utf8.RuneCountInString(s) > 200 && strings.Count(s, "\n") < 3 {
		s = strings.ReplaceAll(s, "||", "|\n|")
	}
	return s
}
