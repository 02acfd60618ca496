package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/regrag/internal/config"
	"github.com/dgallion1/regrag/internal/llm"
	"github.com/dgallion1/regrag/internal/pipeline"
	"github.com/dgallion1/regrag/internal/retrieval"
	"github.com/dgallion1/regrag/internal/store"
)

// Retriever answers ranked chunk queries.
type Retriever interface {
	Retrieve(ctx context.Context, query string, n int) ([]retrieval.Result, error)
}

// ProviderStats names one LLM provider whose call stats are reported.
type ProviderStats struct {
	Name  string
	Model string
	Stats *llm.Stats
}

// Deps are the components the handlers call into.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Store        store.Store
	Retriever    Retriever
	LLM          []ProviderStats
}

// Server is the HTTP API server for regrag.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        store.Store
	retriever    Retriever
	llm          []ProviderStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: deps.Orchestrator,
		store:        deps.Store,
		retriever:    deps.Retriever,
		llm:          deps.LLM,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Post("/api/query", s.handleQuery)
		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
