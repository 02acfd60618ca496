package headers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/dgallion1/regrag/internal/doctree"
	"github.com/dgallion1/regrag/internal/llm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hn(level int, name string) doctree.HeaderNode {
	return doctree.HeaderNode{Level: level, Name: name}
}

func chunkWith(idx int, path ...doctree.HeaderNode) doctree.Chunk {
	return doctree.Chunk{ChunkID: "c", ChunkIndex: idx, Content: "text", HeaderPath: path}
}

func TestSectionNumber(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"1.1 Eligibility", "1.1", true},
		{"2.3.1 Income limits", "2.3.1", true},
		{"10 Definitions", "10", true},
		{"Appendix A", "", false},
		{"Section 1.2", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SectionNumber(tt.name)
			if got != tt.want || ok != tt.ok {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestParentSection(t *testing.T) {
	tests := []struct {
		num  string
		want string
		ok   bool
	}{
		{"1", "", false},
		{"1.0", "", false},
		{"1.1", "1.0", true},
		{"1.1.1", "1.1", true},
		{"2.3.4.5", "2.3.4", true},
	}
	for _, tt := range tests {
		t.Run(tt.num, func(t *testing.T) {
			got, ok := ParentSection(tt.num)
			if got != tt.want || ok != tt.ok {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestAncestorNumbers(t *testing.T) {
	got := AncestorNumbers("1.2.3")
	want := []string{"1.0", "1.2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestApplyReparentsParentAppearingAfterChild(t *testing.T) {
	chunks := []doctree.Chunk{
		chunkWith(1, hn(1, "1.1 Eligibility")),
		chunkWith(2, hn(1, "1.0 Overview")),
	}
	out := Apply(chunks, []Correction{{OriginalLevel: 1, OriginalName: "1.1 Eligibility", CorrectedLevel: 2}})

	want := []doctree.HeaderNode{hn(1, "1.0 Overview"), hn(2, "1.1 Eligibility")}
	if !reflect.DeepEqual(out[0].HeaderPath, want) {
		t.Errorf("expected %v, got %v", want, out[0].HeaderPath)
	}
	if !reflect.DeepEqual(out[1].HeaderPath, []doctree.HeaderNode{hn(1, "1.0 Overview")}) {
		t.Errorf("unexpected path for overview chunk: %v", out[1].HeaderPath)
	}
	if chunks[0].HeaderPath[0].Level != 1 {
		t.Error("input chunks were modified")
	}
}

func TestApplyKeepsTitlesAndDropsFalseParents(t *testing.T) {
	chunks := []doctree.Chunk{
		chunkWith(1, hn(1, "Program Guide"), hn(2, "2.0 General")),
		chunkWith(2, hn(1, "Program Guide"), hn(2, "Contents"), hn(3, "2.1 Fees")),
	}
	out := Apply(chunks, []Correction{{OriginalLevel: 3, OriginalName: "2.1 Fees", CorrectedLevel: 3}})

	want := []doctree.HeaderNode{hn(1, "Program Guide"), hn(2, "2.0 General"), hn(3, "2.1 Fees")}
	if !reflect.DeepEqual(out[1].HeaderPath, want) {
		t.Errorf("expected %v, got %v", want, out[1].HeaderPath)
	}
}

func TestApplyNonNumberedLeafKeepsOnlyNonNumberedAncestors(t *testing.T) {
	tests := []struct {
		name string
		path []doctree.HeaderNode
		corr []Correction
		want []doctree.HeaderNode
	}{
		{
			name: "numbered parent dropped",
			path: []doctree.HeaderNode{hn(1, "Program Guide"), hn(2, "2.0 General"), hn(3, "Definitions")},
			corr: []Correction{{OriginalLevel: 2, OriginalName: "2.0 General", CorrectedLevel: 2}},
			want: []doctree.HeaderNode{hn(1, "Program Guide"), hn(3, "Definitions")},
		},
		{
			name: "only numbered parent",
			path: []doctree.HeaderNode{hn(1, "2.0 Fees"), hn(2, "Notes")},
			corr: []Correction{{OriginalLevel: 1, OriginalName: "2.0 Fees", CorrectedLevel: 1}},
			want: []doctree.HeaderNode{hn(2, "Notes")},
		},
		{
			name: "false parent dropped",
			path: []doctree.HeaderNode{hn(1, "Guide"), hn(2, "Appendices"), hn(3, "Glossary")},
			corr: []Correction{{OriginalLevel: 1, OriginalName: "Guide", CorrectedLevel: 1}},
			want: []doctree.HeaderNode{hn(1, "Guide"), hn(3, "Glossary")},
		},
		{
			name: "ancestor kept at original level",
			path: []doctree.HeaderNode{hn(1, "Guide"), hn(2, "Terms")},
			corr: []Correction{{OriginalLevel: 1, OriginalName: "Guide", CorrectedLevel: 3}},
			want: []doctree.HeaderNode{hn(1, "Guide"), hn(2, "Terms")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Apply([]doctree.Chunk{chunkWith(1, tt.path...)}, tt.corr)
			if !reflect.DeepEqual(out[0].HeaderPath, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, out[0].HeaderPath)
			}
		})
	}
}

func TestApplyHeaderLevelsStrictlyIncrease(t *testing.T) {
	chunks := []doctree.Chunk{
		chunkWith(1, hn(2, "1.1 Eligibility")),
		chunkWith(2, hn(1, "Guide"), hn(2, "1.0 Overview")),
		chunkWith(3, hn(1, "Guide"), hn(2, "1.1 Eligibility"), hn(3, "1.1.1 Income")),
	}
	out := Apply(chunks, []Correction{
		{OriginalLevel: 2, OriginalName: "1.0 Overview", CorrectedLevel: 3},
		{OriginalLevel: 3, OriginalName: "1.1.1 Income", CorrectedLevel: 3},
	})
	for _, c := range out {
		for i := 1; i < len(c.HeaderPath); i++ {
			if c.HeaderPath[i].Level <= c.HeaderPath[i-1].Level {
				t.Errorf("chunk %d: levels not increasing: %v", c.ChunkIndex, c.HeaderPath)
			}
		}
		if len(c.HeaderPath) == 0 {
			t.Errorf("chunk %d: lost its leaf header", c.ChunkIndex)
		}
	}
}

func TestApplyNoCorrectionsIsNoop(t *testing.T) {
	chunks := []doctree.Chunk{chunkWith(1, hn(1, "1.1 Eligibility"))}
	out := Apply(chunks, nil)
	if !reflect.DeepEqual(out, chunks) {
		t.Errorf("expected chunks unchanged")
	}
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, []doctree.HeaderNode) ([]Correction, float64, error) {
	return nil, 1.5, errors.New("timeout")
}

func TestCorrectorClassifierFailureIsNoop(t *testing.T) {
	chunks := []doctree.Chunk{chunkWith(1, hn(1, "1.1 Eligibility")), chunkWith(2, hn(1, "1.0 Overview"))}
	out, cost := NewCorrector(failingClassifier{}, discardLogger()).Correct(context.Background(), chunks)
	if cost != 0 {
		t.Errorf("expected zero cost, got %f", cost)
	}
	if !reflect.DeepEqual(out, chunks) {
		t.Errorf("expected chunks unchanged")
	}
}

func TestCorrectorDropsUnknownHeadings(t *testing.T) {
	chunks := []doctree.Chunk{chunkWith(1, hn(1, "1.1 Eligibility")), chunkWith(2, hn(1, "1.0 Overview"))}
	static := Static{
		{OriginalLevel: 1, OriginalName: "1.1 Eligibility", CorrectedLevel: 2},
		{OriginalLevel: 1, OriginalName: "Not in document", CorrectedLevel: 2},
		{OriginalLevel: 1, OriginalName: "1.0 Overview", CorrectedLevel: 9},
	}
	out, _ := NewCorrector(static, discardLogger()).Correct(context.Background(), chunks)
	want := []doctree.HeaderNode{hn(1, "1.0 Overview"), hn(2, "1.1 Eligibility")}
	if !reflect.DeepEqual(out[0].HeaderPath, want) {
		t.Errorf("expected %v, got %v", want, out[0].HeaderPath)
	}
}

type replyProvider struct {
	text string
	cost float64
}

func (p replyProvider) Name() string { return "reply" }

func (p replyProvider) Complete(context.Context, llm.Request) (llm.Completion, error) {
	return llm.Completion{Text: p.text, Cost: p.cost}, nil
}

func TestLLMClassifierParsesReply(t *testing.T) {
	reply := "```json\n{\"corrections\":[{\"original_level\":\"Header 1\",\"original_name\":\"1.1 Eligibility\",\"corrected_level\":2}],\"confidence_level\":\"high\"}\n```"
	c := NewLLMClassifier(replyProvider{text: reply, cost: 0.01})

	got, cost, err := c.Classify(context.Background(), []doctree.HeaderNode{hn(1, "1.1 Eligibility")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost != 0.01 {
		t.Errorf("expected cost 0.01, got %f", cost)
	}
	if len(got) != 1 || got[0].OriginalLevel != 1 || got[0].CorrectedLevel != 2 {
		t.Errorf("unexpected corrections %+v", got)
	}
}

func TestLLMClassifierBadJSON(t *testing.T) {
	c := NewLLMClassifier(replyProvider{text: "not json"})
	if _, _, err := c.Classify(context.Background(), []doctree.HeaderNode{hn(1, "x")}); err == nil {
		t.Error("expected parse error")
	}
}

func TestLevelUnmarshal(t *testing.T) {
	var c Correction
	if err := json.Unmarshal([]byte(`{"original_level":"Header 3","corrected_level":2}`), &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.OriginalLevel != 3 || c.CorrectedLevel != 2 {
		t.Errorf("expected 3 and 2, got %d and %d", c.OriginalLevel, c.CorrectedLevel)
	}
	if err := json.Unmarshal([]byte(`{"original_level":"deep"}`), &c); err == nil {
		t.Error("expected error for non-numeric level")
	}
}
