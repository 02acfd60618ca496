package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/regrag/internal/convert"
)

// Worker processes a single document job.
type Worker struct {
	ingestor *Ingestor
	convert  convert.Options
	log      *slog.Logger
}

func NewWorker(in *Ingestor, convOpts convert.Options, log *slog.Logger) *Worker {
	return &Worker{ingestor: in, convert: convOpts, log: log}
}

var stageStatus = map[string]JobStatus{
	StageStructuring: StatusStructuring,
	StageSummarizing: StatusSummarizing,
	StageStoring:     StatusStoring,
	StageIndexing:    StatusIndexing,
}

// Process converts the upload and runs it through the ingestor.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)

	// Phase 1: Convert
	job.SetStatus(StatusConverting, "converting")
	conv, err := convert.ForFile(job.Filename, w.convert)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "converting")
		return
	}
	text, err := conv.Convert(ctx, bytes.NewReader(job.FileData()), job.Filename)
	job.releaseFileData()
	if err != nil {
		log.Error("convert failed", "error", err)
		job.AddError(fmt.Sprintf("convert: %s", err))
		job.SetStatus(StatusFailed, "converting")
		return
	}
	job.ContentHash = ContentHashHex([]byte(text))

	// Phase 2: Structure, store, index
	out, err := w.ingestor.Ingest(ctx, Request{
		Text:       text,
		Filename:   job.Filename,
		DocumentID: job.DocID,
		Options:    job.Options,
		Progress: func(stage string) {
			job.SetStatus(stageStatus[stage], stage)
		},
	})
	if out.Document != nil {
		d := out.Document
		job.SetResult(d.PageCount, len(d.SectionChunks), len(d.Chunks), len(d.SectionSummaries), d.TotalCost())
	}
	switch {
	case errors.Is(err, ErrNoContent):
		log.Warn("no chunks produced")
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "structuring")
	case err != nil:
		log.Error("ingest failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "storing")
	case out.Duplicate:
		log.Info("duplicate document, skipping", "existing_doc_id", out.Document.DocumentID)
		job.SetDocID(out.Document.DocumentID)
		job.SetStatus(StatusDupSkipped, "dedup")
	case out.IndexErr != nil:
		job.AddError(fmt.Sprintf("index: %s", out.IndexErr))
		job.SetStatus(StatusPartial, "done")
	default:
		log.Info("ingest complete")
		job.SetStatus(StatusCompleted, "done")
	}
}
