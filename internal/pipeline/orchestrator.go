package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/pdfmarks/internal/config"
	"github.com/dgallion1/pdfmarks/internal/store"
)

// ErrQueueFull is returned by Submit when no more jobs can be queued.
var ErrQueueFull = errors.New("job queue is full")

// Orchestrator manages the extraction worker pool.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	ex    *Extractor
	cache *store.Store
	log   *slog.Logger
	cfg   config.Config

	cleanupEvery time.Duration
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	stopOnce     sync.Once
}

// NewOrchestrator creates the pipeline. cache may be nil.
func NewOrchestrator(cfg config.Config, cache *store.Store, log *slog.Logger) *Orchestrator {
	ex := NewExtractor(ExtractorConfig{
		MaxDepth: cfg.MaxOutlineDepth,
		MaxNodes: cfg.MaxOutlineNodes,
		Password: cfg.PDFPassword,
	}, cache, NewLatencyStats(time.Hour), log)

	return &Orchestrator{
		jobs:         NewJobStore(cfg.JobTTL),
		queue:        make(chan *Job, cfg.MaxQueueSize),
		ex:           ex,
		cache:        cache,
		log:          log,
		cfg:          cfg,
		cleanupEvery: 5 * time.Minute,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.ex, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store and cache cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.cleanup(workerCtx)
			}
		}
	}()
}

func (o *Orchestrator) cleanup(ctx context.Context) {
	o.jobs.Cleanup()
	if o.cache == nil {
		return
	}
	var n int64
	err := withRetry(ctx, func() error {
		var err error
		n, err = o.cache.Prune(ctx, time.Now().Add(-o.cfg.CacheTTL))
		return err
	})
	if err != nil {
		o.log.Warn("dump cache prune failed", "error", err)
		return
	}
	if n > 0 {
		o.log.Info("pruned dump cache", "removed", n)
	}
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		if o.cancel != nil {
			o.cancel()
		}
		close(o.queue)
		o.wg.Wait()
	})
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetFileData(nil)
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Extractor returns the extractor for synchronous use by API handlers.
func (o *Orchestrator) Extractor() *Extractor {
	return o.ex
}

// CacheStats reports the dump cache, or false if caching is disabled.
func (o *Orchestrator) CacheStats(ctx context.Context) (store.Stats, bool, error) {
	if o.cache == nil {
		return store.Stats{}, false, nil
	}
	st, err := o.cache.Stats(ctx)
	return st, true, err
}
