package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgallion1/regrag/internal/llm"
)

// LLMGenerator writes summaries with a chat provider.
type LLMGenerator struct {
	provider llm.Provider
}

func NewLLMGenerator(p llm.Provider) *LLMGenerator {
	return &LLMGenerator{provider: p}
}

func (g *LLMGenerator) SummarizeSection(ctx context.Context, in SectionInput) (string, float64, error) {
	out, err := g.provider.Complete(ctx, llm.Request{
		Prompt:    BuildSectionPrompt(in),
		MaxTokens: 1024,
		JSON:      true,
	})
	if err != nil {
		return "", 0, fmt.Errorf("summarize %q: %w", in.Name, err)
	}

	text := llm.StripCodeBlock(out.Text)
	var reply struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		// Plain prose replies are accepted as is.
		if strings.HasPrefix(text, "{") {
			return "", 0, fmt.Errorf("parse summary json: %w (raw: %s)", err, llm.Truncate(text, 200))
		}
		return text, out.Cost, nil
	}
	return reply.Summary, out.Cost, nil
}

func (g *LLMGenerator) SummarizeDocument(ctx context.Context, filename string, sections []ChildSummary) (string, float64, error) {
	out, err := g.provider.Complete(ctx, llm.Request{
		Prompt:    BuildDocumentPrompt(filename, sections),
		MaxTokens: 1024,
	})
	if err != nil {
		return "", 0, fmt.Errorf("summarize document: %w", err)
	}
	return out.Text, out.Cost, nil
}
