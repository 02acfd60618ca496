package parser

import (
	"regexp"
	"strings"

	"github.com/dgallion1/regrag/internal/doctree"
)

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)`)

// Section is a run of content under one header stack snapshot.
type Section struct {
	Content string
	Headers doctree.HeaderStack
}

// ParseHeading reports whether line is a markdown heading and returns its
// level and trimmed text.
func ParseHeading(line string) (int, string, bool) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	return len(m[1]), strings.TrimSpace(m[2]), true
}

// SplitSections scans one page. A heading closes the accumulated content
// under the stack as it was before the heading, then updates the stack.
// The final stack is returned to seed the next page.
func SplitSections(page string, carried doctree.HeaderStack) ([]Section, doctree.HeaderStack) {
	stack := carried
	var sections []Section
	var content []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(content, "\n"))
		content = content[:0]
		if text == "" {
			return
		}
		sections = append(sections, Section{Content: text, Headers: stack})
	}

	for _, line := range strings.Split(page, "\n") {
		if level, name, ok := ParseHeading(line); ok {
			flush()
			stack.Push(level, name)
			continue
		}
		content = append(content, line)
	}
	flush()

	return sections, stack
}
