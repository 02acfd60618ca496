package convert

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// CSV converts a spreadsheet export into one pipe table under a heading
// named after the file. The first row is the header.
type CSV struct{}

func (p *CSV) Convert(_ context.Context, r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv %s: %w", filename, err)
	}
	if len(records) == 0 {
		return Paginate([]string{""}), nil
	}

	clean := func(row []string) []string {
		out := make([]string, len(row))
		for i, c := range row {
			out[i] = strings.ReplaceAll(strings.ReplaceAll(c, "\n", " "), "|", `\|`)
		}
		return out
	}
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, clean(rec))
	}

	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	body := "# " + title + "\n\n" + PipeTable(clean(records[0]), rows)
	return Paginate([]string{body}), nil
}
