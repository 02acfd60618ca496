package convert

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Text converts plain text: trailing whitespace is trimmed and runs of
// blank lines collapse to one. All content is page 1.
type Text struct{}

func (p *Text) Convert(_ context.Context, r io.Reader, _ string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	blank := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			if !blank {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		lines = append(lines, line)
		blank = false
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return SinglePage(strings.TrimSpace(strings.Join(lines, "\n"))), nil
}
