package llm

import "strings"

// Price is USD per million tokens.
type Price struct {
	Input  float64
	Output float64
}

var pricing = map[string]Price{
	"gpt-4o-mini":                    {Input: 0.15, Output: 0.60},
	"gpt-4o":                         {Input: 2.50, Output: 10.00},
	"gpt-5-mini":                     {Input: 0.25, Output: 2.00},
	"meta-llama/llama-3-8b-instruct": {Input: 0.03, Output: 0.06},
	"openai/gpt-oss-120b":            {Input: 0.05, Output: 0.25},
	"claude-sonnet-4-5":              {Input: 3.00, Output: 15.00},
	"claude-haiku-4-5":               {Input: 1.00, Output: 5.00},
	"text-embedding-3-small":         {Input: 0.02},
	"text-embedding-3-large":         {Input: 0.13},
}

// PriceFor looks up a model, falling back to the longest known prefix so
// dated snapshots ("claude-sonnet-4-5-20250929") resolve to their family.
func PriceFor(model string) (Price, bool) {
	if p, ok := pricing[model]; ok {
		return p, true
	}
	best := ""
	for name := range pricing {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return Price{}, false
	}
	return pricing[best], true
}

// Cost prices a call. Unknown models cost zero.
func Cost(model string, inputTokens, outputTokens int) float64 {
	p, ok := PriceFor(model)
	if !ok {
		return 0
	}
	return (float64(inputTokens)*p.Input + float64(outputTokens)*p.Output) / 1_000_000
}
