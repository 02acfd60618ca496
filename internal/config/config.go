package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSQLite    = "sqlite"
	BackendPathstore = "pathstore"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Storage
	StoreBackend    string `yaml:"store_backend"`
	DBPath          string `yaml:"db_path"`
	PathstoreURL    string `yaml:"pathstore_url"`
	PathstoreAPIKey string `yaml:"pathstore_api_key"`
	PathstorePrefix string `yaml:"pathstore_prefix"`

	// LLM providers, tried in order OpenRouter, OpenAI, Anthropic.
	AnthropicAPIKey  string `yaml:"anthropic_api_key"`
	AnthropicModel   string `yaml:"anthropic_model"`
	OpenAIAPIKey     string `yaml:"openai_api_key"`
	OpenAIModel      string `yaml:"openai_model"`
	OpenRouterAPIKey string `yaml:"openrouter_api_key"`
	OpenRouterModel  string `yaml:"openrouter_model"`

	// Embeddings. Without an OpenAI key the hashing embedder is used.
	EmbeddingModel     string `yaml:"embedding_model"`
	HashEmbeddingDim   int    `yaml:"hash_embedding_dim"`
	MaxConcurrentEmbed int    `yaml:"max_concurrent_embed"`

	// Remote PDF conversion
	MarkerURL    string `yaml:"marker_url"`
	MarkerAPIKey string `yaml:"marker_api_key"`

	// Structuring
	ChunkSize              int  `yaml:"chunk_size"`
	ChunkOverlap           int  `yaml:"chunk_overlap"`
	SummaryHeadChars       int  `yaml:"summary_head_chars"`
	SummaryTailChars       int  `yaml:"summary_tail_chars"`
	MaxConcurrentSummaries int  `yaml:"max_concurrent_summaries"`
	MaxPage                int  `yaml:"max_page"`
	FixHeaders             bool `yaml:"fix_headers"`
	Summarize              bool `yaml:"summarize"`

	// Retrieval
	RRFSemanticWeight float64 `yaml:"rrf_semantic_weight"`
	RRFLexicalWeight  float64 `yaml:"rrf_lexical_weight"`
	RRFK              int     `yaml:"rrf_k"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

func Default() Config {
	return Config{
		Port:                   "8090",
		StoreBackend:           BackendSQLite,
		DBPath:                 "regrag.db",
		PathstoreURL:           "http://localhost:8080",
		PathstorePrefix:        "regrag",
		AnthropicModel:         "claude-sonnet-4-5-20250929",
		OpenAIModel:            "gpt-4o-mini",
		OpenRouterModel:        "openai/gpt-4o-mini",
		EmbeddingModel:         "text-embedding-3-small",
		HashEmbeddingDim:       256,
		MaxConcurrentEmbed:     4,
		ChunkSize:              1000,
		ChunkOverlap:           200,
		SummaryHeadChars:       2500,
		SummaryTailChars:       1000,
		MaxConcurrentSummaries: 8,
		FixHeaders:             true,
		Summarize:              true,
		RRFSemanticWeight:      1.0,
		RRFLexicalWeight:       1.0,
		RRFK:                   60,
		WorkerCount:            2,
		MaxQueueSize:           100,
		MaxUploadBytes:         52428800, // 50MB
		JobTTL:                 1 * time.Hour,
		PDFFallbackPdftotext:   true,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// REGRAG_CONFIG, then the environment (including a .env file if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("REGRAG_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	cfg.clamp()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("REGRAG_API_KEY", c.APIKey)

	c.StoreBackend = envOr("STORE_BACKEND", c.StoreBackend)
	c.DBPath = envOr("DB_PATH", c.DBPath)
	c.PathstoreURL = envOr("PATHSTORE_URL", c.PathstoreURL)
	c.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", c.PathstoreAPIKey)
	c.PathstorePrefix = envOr("PATHSTORE_PREFIX", c.PathstorePrefix)

	c.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.AnthropicModel = envOr("ANTHROPIC_MODEL", c.AnthropicModel)
	c.OpenAIAPIKey = envOr("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIModel = envOr("OPENAI_MODEL", c.OpenAIModel)
	c.OpenRouterAPIKey = envOr("OPENROUTER_API_KEY", c.OpenRouterAPIKey)
	c.OpenRouterModel = envOr("OPENROUTER_MODEL", c.OpenRouterModel)

	c.EmbeddingModel = envOr("EMBEDDING_MODEL", c.EmbeddingModel)
	c.HashEmbeddingDim = envInt("HASH_EMBEDDING_DIM", c.HashEmbeddingDim)
	c.MaxConcurrentEmbed = envInt("MAX_CONCURRENT_EMBED", c.MaxConcurrentEmbed)

	c.MarkerURL = envOr("MARKER_URL", c.MarkerURL)
	c.MarkerAPIKey = envOr("MARKER_API_KEY", c.MarkerAPIKey)

	c.ChunkSize = envInt("CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = envInt("CHUNK_OVERLAP", c.ChunkOverlap)
	c.SummaryHeadChars = envInt("SUMMARY_HEAD_CHARS", c.SummaryHeadChars)
	c.SummaryTailChars = envInt("SUMMARY_TAIL_CHARS", c.SummaryTailChars)
	c.MaxConcurrentSummaries = envInt("MAX_CONCURRENT_SUMMARIES", c.MaxConcurrentSummaries)
	c.MaxPage = envInt("MAX_PAGE", c.MaxPage)
	c.FixHeaders = envBool("FIX_HEADERS", c.FixHeaders)
	c.Summarize = envBool("SUMMARIZE", c.Summarize)

	c.RRFSemanticWeight = envFloat("RRF_SEMANTIC_WEIGHT", c.RRFSemanticWeight)
	c.RRFLexicalWeight = envFloat("RRF_LEXICAL_WEIGHT", c.RRFLexicalWeight)
	c.RRFK = envInt("RRF_K", c.RRFK)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)
	c.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)
}

// clamp resets non-positive sizes to defaults. Weights may be zero to
// disable a retrieval branch; MaxPage zero means all pages.
func (c *Config) clamp() {
	def := Default()
	clampInt := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	clampInt(&c.HashEmbeddingDim, def.HashEmbeddingDim)
	clampInt(&c.MaxConcurrentEmbed, def.MaxConcurrentEmbed)
	clampInt(&c.ChunkSize, def.ChunkSize)
	clampInt(&c.SummaryHeadChars, def.SummaryHeadChars)
	clampInt(&c.SummaryTailChars, def.SummaryTailChars)
	clampInt(&c.MaxConcurrentSummaries, def.MaxConcurrentSummaries)
	clampInt(&c.RRFK, def.RRFK)
	clampInt(&c.WorkerCount, def.WorkerCount)
	clampInt(&c.MaxQueueSize, def.MaxQueueSize)

	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 5
	}
	if c.MaxPage < 0 {
		c.MaxPage = 0
	}
	if c.RRFSemanticWeight < 0 {
		c.RRFSemanticWeight = 0
	}
	if c.RRFLexicalWeight < 0 {
		c.RRFLexicalWeight = 0
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = def.JobTTL
	}
	if c.StoreBackend == "" {
		c.StoreBackend = def.StoreBackend
	}
}

// HasLLM reports whether any chat provider is configured.
func (c Config) HasLLM() bool {
	return c.OpenRouterAPIKey != "" || c.OpenAIAPIKey != "" || c.AnthropicAPIKey != ""
}

// Validate checks the settings the server cannot run without.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, fmt.Errorf("REGRAG_API_KEY is required"))
	}
	switch c.StoreBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			errs = append(errs, fmt.Errorf("DB_PATH is required for the sqlite backend"))
		}
	case BackendPathstore:
		if c.PathstoreURL == "" || c.PathstoreAPIKey == "" {
			errs = append(errs, fmt.Errorf("PATHSTORE_URL and PATHSTORE_API_KEY are required for the pathstore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendPathstore, c.StoreBackend))
	}
	if c.RRFSemanticWeight == 0 && c.RRFLexicalWeight == 0 {
		errs = append(errs, fmt.Errorf("at least one of RRF_SEMANTIC_WEIGHT and RRF_LEXICAL_WEIGHT must be positive"))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
