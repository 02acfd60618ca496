package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/regrag/internal/doctree"
	"github.com/dgallion1/regrag/internal/pipeline"
	"github.com/dgallion1/regrag/internal/retrieval"
)

// isolate points the CLI at a fresh database with no LLM providers.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		"REGRAG_CONFIG", "OPENAI_API_KEY", "OPENROUTER_API_KEY", "ANTHROPIC_API_KEY",
		"MARKER_URL", "STORE_BACKEND", "FIX_HEADERS", "SUMMARIZE", "MAX_PAGE",
	} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "regrag.db"))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIngestQueryShowRm(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "permits.md")
	md := "# Permit Rules\n\nPermits expire after one year.\n\n## Renewal\n\nRenew thirty days before expiry.\n"
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "ingest", "--id", "permits", path)
	if err != nil {
		t.Fatalf("ingest: %v\n%s", err, out)
	}
	if !strings.Contains(out, "permits") || !strings.Contains(out, "OK") {
		t.Errorf("unexpected ingest output:\n%s", out)
	}

	out, err = run(t, "ingest", path)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if !strings.Contains(out, "SKIP") {
		t.Errorf("expected duplicate skip, got:\n%s", out)
	}

	out, err = run(t, "query", "-n", "2", "renew", "expiry")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.Contains(out, "Renew thirty days") || !strings.Contains(out, "permits.md") {
		t.Errorf("unexpected query output:\n%s", out)
	}

	out, err = run(t, "docs")
	if err != nil || !strings.Contains(out, "permits.md") {
		t.Errorf("unexpected docs output %v:\n%s", err, out)
	}

	out, err = run(t, "show", "--chunks", "permits")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Permit Rules > Renewal") {
		t.Errorf("expected breadcrumb in show output:\n%s", out)
	}

	if out, err = run(t, "rm", "permits"); err != nil {
		t.Fatalf("rm: %v\n%s", err, out)
	}
	if _, err = run(t, "show", "permits"); err == nil {
		t.Error("expected show to fail after rm")
	}
}

func TestIngestUnsupportedFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "tool.exe")
	os.WriteFile(path, []byte("MZ"), 0o644)
	if _, err := run(t, "ingest", path); err == nil {
		t.Error("expected error for unsupported file")
	}
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	RenderResults(&buf, nil, false)
	if !strings.Contains(buf.String(), "no results") {
		t.Errorf("expected empty marker, got %q", buf.String())
	}

	buf.Reset()
	RenderResults(&buf, []retrieval.Result{{
		ChunkID: "d_chunk_002",
		Text:    "| a | b |\n| --- | --- |\n| 1 | 2 |",
		Score:   0.0328,
		Metadata: doctree.Metadata{
			DocumentID: "d", Filename: "fees.pdf", ChunkIndex: "2", PageNumber: 4,
			HeaderPath: "Fees > Schedule", IsTable: true, TableID: "table_001",
		},
	}}, true)
	got := buf.String()
	for _, want := range []string{"Fees > Schedule", "table_001", "fees.pdf p.4 chunk 2", "| 1 | 2 |"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q:\n%s", want, got)
		}
	}
}

func TestRenderIngestPartial(t *testing.T) {
	var buf bytes.Buffer
	RenderIngest(&buf, pipeline.Outcome{
		Document: &doctree.Document{DocumentID: "doc-9", Filename: "a.pdf"},
		IndexErr: errors.New("embedding service down"),
	})
	if !strings.Contains(buf.String(), "PARTIAL") || !strings.Contains(buf.String(), "embedding service down") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestPreview(t *testing.T) {
	if got := preview("a\n\nb   c", 10); got != "a b c" {
		t.Errorf("expected flattened text, got %q", got)
	}
	if got := preview(strings.Repeat("é", 12), 10); got != strings.Repeat("é", 10)+"…" {
		t.Errorf("expected rune cut, got %q", got)
	}
}
