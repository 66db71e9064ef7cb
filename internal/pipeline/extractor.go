package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
	"github.com/dgallion1/pdfmarks/internal/outline"
	"github.com/dgallion1/pdfmarks/internal/parser"
	"github.com/dgallion1/pdfmarks/internal/store"
)

// Extraction is the outcome of extracting one document. A nil Result
// means the document has no outline.
type Extraction struct {
	Result      *bookmarks.Result
	ContentHash string
	Cached      bool
}

// Extractor runs bookmark extraction on uploaded documents. Results are
// looked up in and written to the dump cache when one is configured.
type Extractor struct {
	cache    *store.Store // nil disables caching
	stats    *LatencyStats
	log      *slog.Logger
	maxDepth int
	maxNodes int
	password string
}

// ExtractorConfig holds the settings of an Extractor.
type ExtractorConfig struct {
	MaxDepth int
	MaxNodes int
	Password string
}

func NewExtractor(cfg ExtractorConfig, cache *store.Store, stats *LatencyStats, log *slog.Logger) *Extractor {
	if stats == nil {
		stats = NewLatencyStats(time.Hour)
	}
	return &Extractor{
		cache:    cache,
		stats:    stats,
		log:      log,
		maxDepth: cfg.MaxDepth,
		maxNodes: cfg.MaxNodes,
		password: cfg.Password,
	}
}

// Stats returns the latency tracker the extractor reports to.
func (e *Extractor) Stats() *LatencyStats {
	return e.stats
}

// Extract returns the bookmarks of the document data, named filename.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (*Extraction, error) {
	start := time.Now()
	log := e.log.With("filename", filename)
	key := store.Key{
		ContentHash: store.HashContent(data),
		Parser:      parser.Kind(filename),
		MaxDepth:    e.maxDepth,
		MaxNodes:    e.maxNodes,
	}

	if e.cache != nil {
		var entry *store.Entry
		err := withRetry(ctx, func() error {
			var err error
			entry, err = e.cache.Get(ctx, key)
			return err
		})
		switch {
		case err == nil:
			e.stats.Record(time.Since(start), OutcomeCached)
			log.Debug("dump cache hit", "content_hash", key.ContentHash, "hits", entry.Hits)
			return &Extraction{Result: entry.Result, ContentHash: key.ContentHash, Cached: true}, nil
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("dump cache lookup failed", "error", err)
		}
	}

	res, err := bookmarks.ExtractSource(func() (outline.Source, error) {
		return parser.OpenBytes(data, filename, parser.Options{Password: e.password})
	}, bookmarks.Options{
		MaxDepth: e.maxDepth,
		MaxNodes: e.maxNodes,
		Logger:   log,
	})
	if err != nil {
		e.stats.Record(time.Since(start), OutcomeFailed)
		return nil, err
	}
	e.stats.Record(time.Since(start), OutcomeExtracted)

	if e.cache != nil {
		err := withRetry(ctx, func() error {
			return e.cache.Put(ctx, store.Entry{Key: key, Filename: filename, Result: res})
		})
		if err != nil {
			log.Warn("dump cache write failed", "error", err)
		}
	}
	return &Extraction{Result: res, ContentHash: key.ContentHash}, nil
}
