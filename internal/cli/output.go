package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/regrag/internal/doctree"
	"github.com/dgallion1/regrag/internal/pipeline"
	"github.com/dgallion1/regrag/internal/retrieval"
	"github.com/dgallion1/regrag/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// muted metadata
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	tableStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

const previewRunes = 240

// preview flattens text to one line and cuts it at n runes.
func preview(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	r := []rune(flat)
	if len(r) <= n {
		return flat
	}
	return string(r[:n]) + "…"
}

// RenderIngest prints the outcome of one ingestion.
func RenderIngest(w io.Writer, out pipeline.Outcome) {
	doc := out.Document
	if out.Duplicate {
		fmt.Fprintf(w, "%s %s already stored as %s\n",
			warnStyle.Render("SKIP"), doc.Filename, titleStyle.Render(doc.DocumentID))
		return
	}
	status := successStyle.Render("OK")
	if out.IndexErr != nil {
		status = warnStyle.Render("PARTIAL")
	}
	content := fmt.Sprintf("%s %s  %s\n%s %d  %s %d  %s %d  %s %d\n%s $%.4f",
		dimStyle.Render("Document:"), titleStyle.Render(doc.DocumentID), status,
		dimStyle.Render("Pages:"), doc.PageCount,
		dimStyle.Render("Sections:"), len(doc.SectionChunks),
		dimStyle.Render("Chunks:"), len(doc.Chunks),
		dimStyle.Render("Summaries:"), len(doc.SectionSummaries),
		dimStyle.Render("Cost:"), doc.TotalCost(),
	)
	if out.IndexErr != nil {
		content += "\n" + errorStyle.Render("index: "+out.IndexErr.Error())
	}
	fmt.Fprintln(w, boxStyle.Render(content))
}

// RenderResults prints ranked retrieval results.
func RenderResults(w io.Writer, results []retrieval.Result, full bool) {
	if len(results) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no results"))
		return
	}
	for i, r := range results {
		m := r.Metadata
		kind := ""
		if m.IsTable {
			kind = " " + tableStyle.Render("[table "+m.TableID+"]")
		}
		fmt.Fprintf(w, "%s %s%s\n", titleStyle.Render(fmt.Sprintf("%d.", i+1)), m.HeaderPath, kind)
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("   %s p.%d chunk %s  score %.5f", m.Filename, m.PageNumber, m.ChunkIndex, r.Score)))
		text := preview(r.Text, previewRunes)
		if full {
			text = r.Text
		}
		for _, line := range strings.Split(text, "\n") {
			fmt.Fprintln(w, "   "+line)
		}
		fmt.Fprintln(w)
	}
}

// RenderDocuments prints one line per stored document.
func RenderDocuments(w io.Writer, docs []store.DocumentInfo) {
	if len(docs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no documents"))
		return
	}
	for _, d := range docs {
		fmt.Fprintf(w, "%s  %s  %s\n",
			titleStyle.Render(d.DocumentID), d.Filename,
			dimStyle.Render(fmt.Sprintf("%d pages, %d chunks, $%.4f, %s", d.PageCount, d.ChunkCount, d.TotalCost, d.CreatedAt)))
	}
}

// RenderDocument prints a document's summaries, section outline and
// optionally its chunks.
func RenderDocument(w io.Writer, doc *doctree.Document, chunks bool) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(doc.DocumentID), doc.Filename)
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d pages, %d sections, %d chunks, $%.4f",
		doc.PageCount, len(doc.SectionChunks), len(doc.Chunks), doc.TotalCost())))
	if doc.DocumentSummary != "" {
		fmt.Fprintln(w, boxStyle.Render(doc.DocumentSummary))
	}

	if len(doc.SectionSummaries) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Sections"))
		names := make([]string, 0, len(doc.SectionSummaries))
		for name := range doc.SectionSummaries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s\n", name)
			if s := doc.SectionSummaries[name]; s != "" {
				fmt.Fprintln(w, dimStyle.Render("    "+preview(s, previewRunes)))
			}
		}
	}

	if !chunks {
		return
	}
	fmt.Fprintln(w, titleStyle.Render("Chunks"))
	for _, c := range doc.Chunks {
		label := fmt.Sprintf("  [%s] p.%d %s", c.IndexLabel(), c.Location.PageNumber, c.Breadcrumb())
		if c.IsTable {
			label += " " + tableStyle.Render(c.TableID)
		}
		fmt.Fprintln(w, label)
		fmt.Fprintln(w, dimStyle.Render("    "+preview(c.Content, previewRunes)))
	}
}
