package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/regrag/internal/chunker"
	"github.com/dgallion1/regrag/internal/doctree"
	"github.com/dgallion1/regrag/internal/headers"
	"github.com/dgallion1/regrag/internal/parser"
	"github.com/dgallion1/regrag/internal/store"
	"github.com/dgallion1/regrag/internal/summary"
)

// Options select the optional stages of one ingestion run.
type Options struct {
	FixHeaders bool
	Summarize  bool
	// Force re-ingests text whose content hash is already stored.
	Force bool
	// MaxPage stops structuring after this page. 0 means all pages.
	MaxPage int
}

func DefaultOptions() Options {
	return Options{FixHeaders: true, Summarize: true}
}

// Summarizer writes both section and document summaries.
type Summarizer interface {
	summary.Generator
	summary.DocumentGenerator
}

// Ingestor turns page-marked markdown into a stored, indexed Document.
type Ingestor struct {
	corrector  *headers.Corrector
	summarizer Summarizer
	scheduler  *summary.Scheduler
	chunkCfg   chunker.Config
	splitter   *chunker.Splitter
	store      store.Store
	indexer    *Indexer
	log        *slog.Logger
	now        func() time.Time
}

// IngestorConfig wires an Ingestor. Classifier, Summarizer and Indexer may
// be nil; the matching stage is then skipped.
type IngestorConfig struct {
	Classifier headers.Classifier
	Summarizer Summarizer
	Summary    summary.Config
	Chunk      chunker.Config
	Store      store.Store
	Indexer    *Indexer
	Log        *slog.Logger
}

func NewIngestor(cfg IngestorConfig) *Ingestor {
	in := &Ingestor{
		summarizer: cfg.Summarizer,
		chunkCfg:   cfg.Chunk,
		splitter:   chunker.NewSplitter(cfg.Chunk),
		store:      cfg.Store,
		indexer:    cfg.Indexer,
		log:        cfg.Log,
		now:        time.Now,
	}
	if in.chunkCfg.ChunkSize <= 0 {
		in.chunkCfg = chunker.DefaultConfig()
	}
	if cfg.Classifier != nil {
		in.corrector = headers.NewCorrector(cfg.Classifier, cfg.Log)
	}
	if cfg.Summarizer != nil {
		in.scheduler = summary.NewScheduler(cfg.Summarizer, cfg.Summary, cfg.Log)
	}
	return in
}

// Stage names reported through the progress callback.
const (
	StageStructuring = "structuring"
	StageSummarizing = "summarizing"
	StageStoring     = "storing"
	StageIndexing    = "indexing"
)

// Request is one document to ingest.
type Request struct {
	Text       string
	Filename   string
	DocumentID string
	Options    Options
	// Progress, when set, is called as each stage starts.
	Progress func(stage string)
}

// Outcome reports what Ingest did.
type Outcome struct {
	Document  *doctree.Document
	Duplicate bool
	// IndexErr is set when the document was stored but indexing failed.
	IndexErr error
}

// ErrNoContent is returned when the text yields no chunks.
var ErrNoContent = errors.New("no extractable content")

// Ingest structures, stores and indexes one document. An identical text
// already in the store is returned as a duplicate unless Options.Force.
func (in *Ingestor) Ingest(ctx context.Context, req Request) (Outcome, error) {
	progress := req.Progress
	if progress == nil {
		progress = func(string) {}
	}
	hash := ContentHashHex([]byte(req.Text))

	if in.store != nil && !req.Options.Force {
		existing, err := in.store.FindByHash(ctx, hash)
		switch {
		case err == nil:
			in.log.Info("duplicate document, skipping", "filename", req.Filename, "existing_doc_id", existing.DocumentID)
			return Outcome{Document: existing, Duplicate: true}, nil
		case !errors.Is(err, store.ErrNotFound):
			in.log.Warn("dedup check failed, proceeding", "error", err)
		}
	}

	docID := req.DocumentID
	if docID == "" {
		docID = uuid.NewString()
	}
	doc := in.Structure(ctx, req.Text, docID, req.Filename, req.Options, progress)
	if len(doc.Chunks) == 0 {
		return Outcome{Document: doc}, ErrNoContent
	}
	doc.ContentHash = hash

	if in.store != nil {
		progress(StageStoring)
		if err := in.store.Put(ctx, doc); err != nil {
			return Outcome{Document: doc}, fmt.Errorf("store document: %w", err)
		}
	}

	out := Outcome{Document: doc}
	if in.indexer != nil {
		progress(StageIndexing)
		if err := in.indexer.Index(ctx, doc); err != nil {
			in.log.Warn("indexing failed, document stored without vectors", "doc_id", docID, "error", err)
			out.IndexErr = err
		}
	}
	return out, nil
}

// Structure runs the pure structuring pipeline: assemble, correct headers,
// merge, summarize sections, split, summarize the document. It never fails;
// degraded stages leave their outputs empty.
func (in *Ingestor) Structure(ctx context.Context, text, docID, filename string, opts Options, progress func(string)) *doctree.Document {
	if progress == nil {
		progress = func(string) {}
	}
	log := in.log.With("doc_id", docID)
	doc := &doctree.Document{
		DocumentID:       docID,
		Filename:         filename,
		SectionSummaries: map[string]string{},
		Costs: map[string]float64{
			doctree.CostHeaderCorrection: 0,
			doctree.CostSectionSummaries: 0,
			doctree.CostDocumentSummary:  0,
		},
		CreatedAt: in.now().UTC().Format(time.RFC3339),
	}

	progress(StageStructuring)
	assembled := parser.Assemble(text, docID, parser.Options{MaxPage: opts.MaxPage})
	doc.PageCount = assembled.PageCount
	chunks := assembled.Chunks
	log.Info("assembled chunks", "pages", assembled.PageCount, "chunks", len(chunks))
	if len(chunks) == 0 {
		return doc
	}

	if opts.FixHeaders && in.corrector != nil {
		var cost float64
		chunks, cost = in.corrector.Correct(ctx, chunks)
		doc.Costs[doctree.CostHeaderCorrection] = cost
	}

	sections := chunker.Merge(chunks, in.chunkCfg.ChunkSize)
	doc.SectionChunks = sections

	if opts.Summarize && in.scheduler != nil {
		progress(StageSummarizing)
		res := in.scheduler.Run(ctx, sections)
		doc.SectionSummaries = summary.Serialize(res.Summaries)
		doc.Costs[doctree.CostSectionSummaries] = res.Cost

		overview, cost := summary.Document(ctx, in.summarizer, log, filename, res)
		doc.DocumentSummary = overview
		doc.Costs[doctree.CostDocumentSummary] = cost
	}

	doc.Chunks = in.splitter.Split(sections)
	log.Info("structured document",
		"sections", len(sections), "chunks", len(doc.Chunks),
		"summaries", len(doc.SectionSummaries), "cost", doc.TotalCost())
	return doc
}

// Delete removes a document from the store and the indexes.
func (in *Ingestor) Delete(ctx context.Context, docID string) error {
	if in.store == nil {
		return store.ErrNotFound
	}
	if err := in.store.Delete(ctx, docID); err != nil {
		return err
	}
	if in.indexer != nil {
		if err := in.indexer.Remove(ctx, docID); err != nil {
			return fmt.Errorf("remove %s from index: %w", docID, err)
		}
	}
	return nil
}
