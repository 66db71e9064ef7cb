package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/pdfmarks/internal/render"
)

// Worker processes a single document job.
type Worker struct {
	ex  *Extractor
	log *slog.Logger
}

func NewWorker(ex *Extractor, log *slog.Logger) *Worker {
	return &Worker{ex: ex, log: log}
}

// Process extracts and renders the bookmarks of a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Extract
	job.SetStatus(StatusExtracting, "extracting")
	ext, err := w.ex.Extract(ctx, job.Filename, job.FileData())
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetFileData(nil)
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	job.SetContentHash(ext.ContentHash)

	if ext.Result == nil {
		log.Info("document has no outline", "cached", ext.Cached)
		job.SetResult(nil, nil, ext.Cached)
		job.SetStatus(StatusNoOutline, "done")
		return
	}

	// Phase 2: Render
	job.SetStatus(StatusRendering, "rendering")
	var buf bytes.Buffer
	if err := render.Render(&buf, ext.Result, job.Format, job.DumpOptions); err != nil {
		log.Error("render failed", "format", job.Format, "error", err)
		job.AddError(fmt.Sprintf("render: %s", err))
		job.SetResult(ext.Result, nil, ext.Cached)
		job.SetStatus(StatusFailed, "rendering")
		return
	}

	job.SetResult(ext.Result, buf.Bytes(), ext.Cached)
	job.SetStatus(StatusCompleted, "done")
	log.Info("extraction complete",
		"bookmarks", len(ext.Result.Records),
		"warnings", len(ext.Result.Diagnostics),
		"cached", ext.Cached,
	)
}
