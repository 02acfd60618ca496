package embed

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

// batchSize is the number of inputs sent in one embeddings request.
const batchSize = 64

// OpenAI embeds text with the OpenAI embeddings endpoint, or any
// OpenAI-compatible one.
type OpenAI struct {
	client      *openai.Client
	model       string
	dim         int
	concurrency int
}

// NewOpenAI builds an embedder. An empty baseURL uses api.openai.com.
// concurrency bounds the number of in-flight batch requests.
func NewOpenAI(apiKey, baseURL, model string, concurrency int) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	dim := 1536
	if model == string(openai.LargeEmbedding3) {
		dim = 3072
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		dim:         dim,
		concurrency: concurrency,
	}
}

func (e *OpenAI) Dimension() int { return e.dim }

func (e *OpenAI) Name() string { return "openai-" + e.model }

func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in request batches, preserving input order.
func (e *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = prepare(t)
		if inputs[i] == "" {
			return nil, fmt.Errorf("text %d: %w", i, ErrEmptyText)
		}
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for start := 0; start < len(inputs); start += batchSize {
		end := min(start+batchSize, len(inputs))
		g.Go(func() error {
			return e.embedRange(gctx, inputs[start:end], out[start:end])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OpenAI) embedRange(ctx context.Context, inputs []string, out [][]float32) error {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: inputs,
	})
	if err != nil {
		return fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return fmt.Errorf("openai embeddings: expected %d vectors, got %d", len(inputs), len(resp.Data))
	}
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		Normalize(v)
		out[d.Index] = v
	}
	return nil
}
