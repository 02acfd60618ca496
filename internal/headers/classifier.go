package headers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/regrag/internal/doctree"
	"github.com/dgallion1/regrag/internal/llm"
)

// Analysis is the classifier's JSON reply.
type Analysis struct {
	Corrections     []Correction `json:"corrections"`
	ConfidenceLevel string       `json:"confidence_level"`
}

// LLMClassifier asks a chat model which heading levels are wrong.
type LLMClassifier struct {
	provider llm.Provider
}

func NewLLMClassifier(p llm.Provider) *LLMClassifier {
	return &LLMClassifier{provider: p}
}

func (c *LLMClassifier) Classify(ctx context.Context, headers []doctree.HeaderNode) ([]Correction, float64, error) {
	out, err := c.provider.Complete(ctx, llm.Request{
		Prompt:    BuildClassificationPrompt(headers),
		MaxTokens: 4096,
		JSON:      true,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("classify headers: %w", err)
	}

	text := llm.StripCodeBlock(out.Text)
	var a Analysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nil, out.Cost, fmt.Errorf("parse corrections json: %w (raw: %s)", err, llm.Truncate(text, 200))
	}
	return a.Corrections, out.Cost, nil
}

// Static returns a fixed set of corrections. Useful when corrections were
// reviewed by hand.
type Static []Correction

func (s Static) Classify(context.Context, []doctree.HeaderNode) ([]Correction, float64, error) {
	return s, 0, nil
}
