// Package llm holds the chat-completion providers the pipeline calls for
// header classification and summarization.
package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrUnavailable is returned by providers that cannot serve requests.
var ErrUnavailable = errors.New("llm provider unavailable")

// Request is a single-turn completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
	// JSON asks the provider for a JSON object reply where supported.
	JSON bool
}

// Completion is a provider reply with its usage and priced cost.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// Provider completes prompts.
type Provider interface {
	Complete(ctx context.Context, req Request) (Completion, error)
	Name() string
}

// Null always fails with ErrUnavailable. Callers degrade as they would on
// any provider failure.
type Null struct{}

func (Null) Complete(context.Context, Request) (Completion, error) {
	return Completion{}, ErrUnavailable
}

func (Null) Name() string { return "null" }

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripCodeBlock removes a surrounding markdown code fence from a reply.
func StripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// Truncate shortens s to n bytes for log and error messages.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
