package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	separatorRe   = regexp.MustCompile(`^\|[\s:-]+\|`)
	placeholderRe = regexp.MustCompile(`(__TABLE_\d+__)`)
)

// Placeholder returns the token that stands in for table i in section text.
func Placeholder(i int) string {
	return fmt.Sprintf("__TABLE_%d__", i)
}

func isSeparatorRow(line string) bool {
	return separatorRe.MatchString(line) && strings.Contains(line, "-")
}

// ExtractTables pulls pipe tables out of section content. A run of lines
// starting with "|" is a table only if it has at least two lines and a
// separator row; other runs stay in the text as they were.
func ExtractTables(content string) (string, []string) {
	var (
		out    []string
		tables []string
		run    []string
	)

	closeRun := func() {
		if len(run) == 0 {
			return
		}
		valid := false
		if len(run) >= 2 {
			for _, l := range run {
				if isSeparatorRow(strings.TrimSpace(l)) {
					valid = true
					break
				}
			}
		}
		if valid {
			out = append(out, Placeholder(len(tables)))
			tables = append(tables, strings.Join(run, "\n"))
		} else {
			out = append(out, run...)
		}
		run = nil
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			run = append(run, line)
			continue
		}
		closeRun()
		out = append(out, line)
	}
	closeRun()

	return strings.Join(out, "\n"), tables
}

// Segment is one ordered piece of a section: text or a table block.
type Segment struct {
	Text    string
	IsTable bool
}

// Interleave splits placeholder-annotated text back into text and table
// segments in their original order. Empty text pieces are dropped.
func Interleave(text string, tables []string) []Segment {
	var segs []Segment
	last := 0
	for _, loc := range placeholderRe.FindAllStringIndex(text, -1) {
		segs = appendText(segs, text[last:loc[0]])
		token := text[loc[0]:loc[1]]
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(token, "__TABLE_"), "__"))
		if err == nil && idx < len(tables) {
			segs = append(segs, Segment{Text: tables[idx], IsTable: true})
		} else {
			segs = appendText(segs, token)
		}
		last = loc[1]
	}
	return appendText(segs, text[last:])
}

func appendText(segs []Segment, s string) []Segment {
	s = strings.TrimSpace(s)
	if s == "" {
		return segs
	}
	return append(segs, Segment{Text: s})
}
