// Package app assembles the stores, indexes and providers from configuration.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/regrag/internal/api"
	"github.com/dgallion1/regrag/internal/chunker"
	"github.com/dgallion1/regrag/internal/config"
	"github.com/dgallion1/regrag/internal/convert"
	"github.com/dgallion1/regrag/internal/embed"
	"github.com/dgallion1/regrag/internal/headers"
	"github.com/dgallion1/regrag/internal/lexical"
	"github.com/dgallion1/regrag/internal/llm"
	"github.com/dgallion1/regrag/internal/pathstore"
	"github.com/dgallion1/regrag/internal/pipeline"
	"github.com/dgallion1/regrag/internal/retrieval"
	"github.com/dgallion1/regrag/internal/store"
	"github.com/dgallion1/regrag/internal/summary"
	"github.com/dgallion1/regrag/internal/vectorindex"
)

// App holds every long-lived component.
type App struct {
	Config    config.Config
	Store     store.Store
	Vectors   vectorindex.Index
	Lexical   *lexical.Index
	Embedder  embed.Embedder
	LLM       llm.Provider
	Ingestor  *pipeline.Ingestor
	Retriever *retrieval.Hybrid
	Convert   convert.Options
	Stats     []api.ProviderStats

	log     *slog.Logger
	closers []func() error
}

// New wires the application. Close releases what it opened.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}
	if err := a.openStorage(); err != nil {
		a.Close()
		return nil, err
	}

	a.Embedder = newEmbedder(cfg)
	a.Lexical = lexical.New(lexical.FromStore(a.Store), log)
	a.closers = append(a.closers, a.Lexical.Close)

	a.LLM, a.Stats = newLLM(cfg, log)

	ing := pipeline.IngestorConfig{
		Chunk: chunker.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap},
		Summary: summary.Config{
			HeadChars:     cfg.SummaryHeadChars,
			TailChars:     cfg.SummaryTailChars,
			MaxConcurrent: cfg.MaxConcurrentSummaries,
		},
		Store:   a.Store,
		Indexer: pipeline.NewIndexer(a.Embedder, a.Vectors, a.Lexical, log),
		Log:     log,
	}
	if a.LLM != nil {
		ing.Classifier = headers.NewLLMClassifier(a.LLM)
		ing.Summarizer = summary.NewLLMGenerator(a.LLM)
	}
	a.Ingestor = pipeline.NewIngestor(ing)

	a.Retriever = retrieval.NewHybrid(a.Embedder, a.Vectors, a.Lexical, retrieval.Config{
		SemanticWeight: cfg.RRFSemanticWeight,
		LexicalWeight:  cfg.RRFLexicalWeight,
		K:              cfg.RRFK,
	}, log)

	a.Convert = convert.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext, MaxPages: cfg.MaxPage}
	if cfg.MarkerURL != "" {
		a.Convert.Marker = convert.NewMarkerClient(cfg.MarkerURL, cfg.MarkerAPIKey)
	}

	log.Info("app ready",
		"store", cfg.StoreBackend, "embedder", a.Embedder.Name(),
		"llm", llmName(a.LLM), "marker", cfg.MarkerURL != "")
	return a, nil
}

// openStorage opens the document store and the vector index. Vectors always
// live in the local SQLite file; with the sqlite backend it is shared.
func (a *App) openStorage() error {
	db, err := store.Open(a.Config.DBPath, store.WithMkdirAll())
	if err != nil {
		return fmt.Errorf("open %s: %w", a.Config.DBPath, err)
	}
	a.closers = append(a.closers, db.Close)

	vectors, err := vectorindex.NewSQLite(db)
	if err != nil {
		return err
	}
	a.Vectors = vectors

	switch a.Config.StoreBackend {
	case config.BackendPathstore:
		client := pathstore.NewClient(a.Config.PathstoreURL, a.Config.PathstoreAPIKey)
		a.Store = store.NewPathstore(client, a.Config.PathstorePrefix)
	default:
		a.Store, err = sharedSQLite(db)
		if err != nil {
			return err
		}
	}
	return nil
}

// sharedSQLite wraps db without taking ownership of it.
func sharedSQLite(db *sql.DB) (store.Store, error) {
	s, err := store.NewSQLite(db)
	if err != nil {
		return nil, err
	}
	return noClose{s}, nil
}

type noClose struct{ store.Store }

func (noClose) Close() error { return nil }

func newEmbedder(cfg config.Config) embed.Embedder {
	if cfg.OpenAIAPIKey == "" {
		return embed.NewHash(cfg.HashEmbeddingDim)
	}
	return embed.NewOpenAI(cfg.OpenAIAPIKey, "", cfg.EmbeddingModel, cfg.MaxConcurrentEmbed)
}

// newLLM builds the provider chain OpenRouter, OpenAI, Anthropic from the
// configured keys. It returns nil when none is configured.
func newLLM(cfg config.Config, log *slog.Logger) (llm.Provider, []api.ProviderStats) {
	var (
		providers []llm.Provider
		stats     []api.ProviderStats
	)
	if cfg.OpenRouterAPIKey != "" {
		c := llm.NewOpenAIClient(cfg.OpenRouterAPIKey, llm.OpenRouterBaseURL, cfg.OpenRouterModel)
		providers = append(providers, llm.WithRetry(c, log))
		stats = append(stats, api.ProviderStats{Name: "openrouter", Model: c.Model(), Stats: c.Stats})
	}
	if cfg.OpenAIAPIKey != "" {
		c := llm.NewOpenAIClient(cfg.OpenAIAPIKey, "", cfg.OpenAIModel)
		providers = append(providers, llm.WithRetry(c, log))
		stats = append(stats, api.ProviderStats{Name: "openai", Model: c.Model(), Stats: c.Stats})
	}
	if cfg.AnthropicAPIKey != "" {
		c := llm.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		providers = append(providers, llm.WithRetry(c, log))
		stats = append(stats, api.ProviderStats{Name: "anthropic", Model: c.Model(), Stats: c.Stats})
	}
	switch len(providers) {
	case 0:
		return nil, nil
	case 1:
		return providers[0], stats
	}
	return llm.NewChain(log, providers...), stats
}

func llmName(p llm.Provider) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}

// Close releases stores and indexes in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
