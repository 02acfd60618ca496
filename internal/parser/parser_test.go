package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/regrag/internal/doctree"
)

func pageDoc(pages ...string) string {
	var sb strings.Builder
	sb.WriteString("preamble that is dropped")
	for i, p := range pages {
		sb.WriteString(PageMarker(i))
		sb.WriteString(p)
	}
	return sb.String()
}

func TestSplitPages(t *testing.T) {
	pages := SplitPages(pageDoc("one", "two", "three"))
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if pages[0] != "one" || pages[2] != "three" {
		t.Errorf("unexpected pages: %q", pages)
	}
}

func TestSplitPagesNoMarkers(t *testing.T) {
	if pages := SplitPages("# Title\n\nno markers here"); len(pages) != 0 {
		t.Errorf("expected no pages, got %d", len(pages))
	}
	if HasPageMarkers("plain") {
		t.Error("expected no markers detected")
	}
}

func TestParseHeading(t *testing.T) {
	tests := []struct {
		line  string
		level int
		name  string
		ok    bool
	}{
		{"# Title", 1, "Title", true},
		{"### 1.1 Eligibility  ", 3, "1.1 Eligibility", true},
		{"###### Deep", 6, "Deep", true},
		{"####### Too deep", 0, "", false},
		{"#hashtag", 0, "", false},
		{"plain text", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			level, name, ok := ParseHeading(tt.line)
			if ok != tt.ok || level != tt.level || name != tt.name {
				t.Errorf("expected (%d, %q, %v), got (%d, %q, %v)", tt.level, tt.name, tt.ok, level, name, ok)
			}
		})
	}
}

func TestSplitSectionsSnapshotsStackBeforeHeading(t *testing.T) {
	page := "intro text\n# Part A\nbody a\n## A.1\nbody a1\n# Part B\nbody b"
	sections, final := SplitSections(page, doctree.HeaderStack{})

	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(sections))
	}
	if sections[0].Headers.Len() != 0 {
		t.Errorf("expected no headers for intro, got %v", sections[0].Headers.Path())
	}
	if got := doctree.Breadcrumb(sections[2].Headers.Path()); got != "Part A > A.1" {
		t.Errorf("expected 'Part A > A.1', got %q", got)
	}
	if got := doctree.Breadcrumb(sections[3].Headers.Path()); got != "Part B" {
		t.Errorf("expected 'Part B', got %q", got)
	}
	if got := doctree.Breadcrumb(final.Path()); got != "Part B" {
		t.Errorf("expected final stack 'Part B', got %q", got)
	}
}

func TestSplitSectionsCarriesContext(t *testing.T) {
	var carried doctree.HeaderStack
	carried.Push(1, "Chapter")
	carried.Push(2, "Rules")

	sections, _ := SplitSections("continued text", carried)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if got := doctree.Breadcrumb(sections[0].Headers.Path()); got != "Chapter > Rules" {
		t.Errorf("expected carried breadcrumb, got %q", got)
	}
}

func TestSplitSectionsSkipsEmptyContent(t *testing.T) {
	sections, final := SplitSections("# A\n\n## B\n   \n", doctree.HeaderStack{})
	if len(sections) != 0 {
		t.Errorf("expected no sections, got %d", len(sections))
	}
	if final.Len() != 2 {
		t.Errorf("expected trailing headings to seed next page, got %d", final.Len())
	}
}

func TestExtractTables(t *testing.T) {
	content := strings.Join([]string{
		"Before the table.",
		"| Fee | Amount |",
		"|-----|--------|",
		"| A   | $10    |",
		"After the table.",
		"| not | a table |",
		"trailing",
	}, "\n")

	text, tables := ExtractTables(content)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	if !strings.HasPrefix(tables[0], "| Fee | Amount |") || !strings.HasSuffix(tables[0], "| A   | $10    |") {
		t.Errorf("unexpected table block %q", tables[0])
	}
	if !strings.Contains(text, "__TABLE_0__") {
		t.Errorf("expected placeholder in %q", text)
	}
	if !strings.Contains(text, "| not | a table |") {
		t.Errorf("expected invalid run to stay as text, got %q", text)
	}
	if strings.Index(text, "Before") > strings.Index(text, "__TABLE_0__") {
		t.Error("placeholder out of order")
	}
}

func TestExtractTablesRequiresSeparator(t *testing.T) {
	content := "| a | b |\n| c | d |"
	text, tables := ExtractTables(content)
	if len(tables) != 0 {
		t.Errorf("expected no tables, got %d", len(tables))
	}
	if text != content {
		t.Errorf("expected content unchanged, got %q", text)
	}
}

func TestExtractTablesAtEndOfContent(t *testing.T) {
	_, tables := ExtractTables("intro\n| h |\n| :-: |\n| v |")
	if len(tables) != 1 {
		t.Fatalf("expected trailing table to be extracted, got %d", len(tables))
	}
}

func TestInterleave(t *testing.T) {
	segs := Interleave("first\n__TABLE_0__\nsecond\n__TABLE_1__", []string{"T0", "T1"})
	want := []Segment{{Text: "first"}, {Text: "T0", IsTable: true}, {Text: "second"}, {Text: "T1", IsTable: true}}
	if len(segs) != len(want) {
		t.Fatalf("expected %d segments, got %d: %v", len(want), len(segs), segs)
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Errorf("segment %d: expected %v, got %v", i, want[i], segs[i])
		}
	}
}

func TestAssemble(t *testing.T) {
	doc := pageDoc(
		"# Scope\nThis applies to all permits.\n\n| Fee | Amount |\n|---|---|\n| A | 10 |\n\nClosing note.",
		"## 1.1 Eligibility\nApplicants must qualify.",
		"# Ignored\nbeyond max page",
	)

	res := Assemble(doc, "doc1", Options{MaxPage: 2})
	if res.PageCount != 3 {
		t.Errorf("expected 3 pages, got %d", res.PageCount)
	}
	if len(res.Chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(res.Chunks))
	}

	for i, c := range res.Chunks {
		if c.ChunkIndex != i+1 {
			t.Errorf("chunk %d: expected index %d, got %d", i, i+1, c.ChunkIndex)
		}
		if c.DocumentID != "doc1" {
			t.Errorf("chunk %d: expected doc1, got %s", i, c.DocumentID)
		}
	}

	table := res.Chunks[1]
	if !table.IsTable || table.TableID != "table_001" {
		t.Errorf("expected table_001, got is_table=%v id=%q", table.IsTable, table.TableID)
	}
	if res.Chunks[0].ChunkID != "doc1_chunk_001" {
		t.Errorf("unexpected chunk id %s", res.Chunks[0].ChunkID)
	}

	last := res.Chunks[3]
	if last.Location.PageNumber != 2 {
		t.Errorf("expected page 2, got %d", last.Location.PageNumber)
	}
	if got := last.Breadcrumb(); got != "Scope > 1.1 Eligibility" {
		t.Errorf("expected header context across pages, got %q", got)
	}
}

func TestAssembleNoMarkers(t *testing.T) {
	res := Assemble("# Title\nbody", "d", Options{})
	if len(res.Chunks) != 0 || res.PageCount != 0 {
		t.Errorf("expected nothing, got %d chunks and %d pages", len(res.Chunks), res.PageCount)
	}
}
