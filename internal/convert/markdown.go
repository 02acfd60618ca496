package convert

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown passes markdown through, normalizing headings to the "#" form
// and adding a page-1 boundary when the file has none.
type Markdown struct{}

func (p *Markdown) Convert(_ context.Context, r io.Reader, _ string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	md := strings.ReplaceAll(string(src), "\r\n", "\n")
	return SinglePage(NormalizeHeadings(md)), nil
}

// NormalizeHeadings rewrites top-level setext headings ("Title" underlined
// with === or ---) as ATX headings, the only form the section splitter
// recognizes.
func NormalizeHeadings(md string) string {
	src := []byte(md)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	lineOf := func(off int) int { return bytes.Count(src[:off], []byte("\n")) }

	type rewrite struct {
		last int
		text string
	}
	rewrites := make(map[int]rewrite)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		first := h.Lines().At(0)
		lineStart := bytes.LastIndexByte(src[:first.Start], '\n') + 1
		if strings.HasPrefix(strings.TrimLeft(string(src[lineStart:first.Start]), " "), "#") {
			continue
		}
		var parts []string
		for i := 0; i < h.Lines().Len(); i++ {
			seg := h.Lines().At(i)
			parts = append(parts, strings.TrimSpace(string(seg.Value(src))))
		}
		lastText := lineOf(h.Lines().At(h.Lines().Len() - 1).Start)
		rewrites[lineOf(first.Start)] = rewrite{
			last: lastText + 1, // underline
			text: strings.Repeat("#", h.Level) + " " + strings.Join(parts, " "),
		}
	}
	if len(rewrites) == 0 {
		return md
	}

	lines := strings.Split(md, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		if rw, ok := rewrites[i]; ok {
			out = append(out, rw.text)
			i = rw.last
			continue
		}
		out = append(out, lines[i])
	}
	return strings.Join(out, "\n")
}
