package summary

import (
	"context"
	"log/slog"
	"strings"
)

// DocumentGenerator writes a whole-document summary from section summaries.
type DocumentGenerator interface {
	SummarizeDocument(ctx context.Context, filename string, sections []ChildSummary) (string, float64, error)
}

// Document rolls the section summaries up into one document summary, in
// section order. Empty summaries are skipped. Failures yield "" and zero cost.
func Document(ctx context.Context, gen DocumentGenerator, log *slog.Logger, filename string, res Result) (string, float64) {
	var sections []ChildSummary
	for _, k := range res.Order {
		sum := res.Summaries[k]
		if sum == "" {
			continue
		}
		sections = append(sections, ChildSummary{Name: SectionName(k), Summary: sum})
	}
	if len(sections) == 0 {
		return "", 0
	}

	text, cost, err := gen.SummarizeDocument(ctx, filename, sections)
	if err != nil {
		log.Warn("document summary failed", "filename", filename, "error", err)
		return "", 0
	}
	return strings.TrimSpace(text), cost
}
