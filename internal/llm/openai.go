package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint of OpenRouter.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenAIClient serves chat completions from OpenAI or any OpenAI-compatible
// endpoint such as OpenRouter.
type OpenAIClient struct {
	client *openai.Client
	model  string
	label  string
	Stats  *Stats
}

// NewOpenAIClient builds a client. An empty baseURL uses api.openai.com.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	label := "openai"
	if baseURL != "" {
		cfg.BaseURL = baseURL
		if baseURL == OpenRouterBaseURL {
			label = "openrouter"
		} else {
			label = "openai-compatible"
		}
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		label:  label,
		Stats:  NewStats(time.Hour),
	}
}

func (c *OpenAIClient) Name() string { return c.label + "/" + c.model }

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Completion, error) {
	start := time.Now()

	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  msgs,
		MaxTokens: req.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		c.Stats.RecordFailure(time.Since(start))
		return Completion{}, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		c.Stats.RecordFailure(time.Since(start))
		return Completion{}, fmt.Errorf("empty response from %s", c.Name())
	}

	in, out := resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	comp := Completion{
		Text:         resp.Choices[0].Message.Content,
		Model:        c.model,
		InputTokens:  in,
		OutputTokens: out,
		Cost:         Cost(c.model, in, out),
	}
	c.Stats.Record(time.Since(start), comp)
	return comp, nil
}

// classifyOpenAIError maps rate limits and server errors to RetryableError.
func classifyOpenAIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return &RetryableError{StatusCode: status, Message: err.Error()}
	}
	return fmt.Errorf("openai chat: %w", err)
}
