package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
	"github.com/dgallion1/pdfmarks/internal/dump"
	"github.com/dgallion1/pdfmarks/internal/render"
)

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusExtracting JobStatus = "extracting"
	StatusRendering  JobStatus = "rendering"
	StatusCompleted  JobStatus = "completed"
	StatusNoOutline  JobStatus = "no_outline"
	StatusFailed     JobStatus = "failed"
)

// Done reports whether the job will not change any more.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusNoOutline || s == StatusFailed
}

// Job tracks the state of a single document extraction.
type Job struct {
	mu sync.Mutex

	ID       string
	Status   JobStatus
	Phase    string
	Filename string

	// Format and DumpOptions select the rendering of the result.
	Format      render.Format
	DumpOptions dump.Options

	Progress Progress

	ContentHash string
	Cached      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Internal: not serialized.
	fileData []byte
	result   *bookmarks.Result
	output   []byte
	errors   []string
}

// Progress tracks what the extraction produced.
type Progress struct {
	Bookmarks int      `json:"bookmarks"`
	Warnings  int      `json:"warnings"`
	Errors    []string `json:"errors"`
}

// NewJob creates a queued job for the given upload.
func NewJob(filename string, data []byte, format render.Format, opts dump.Options) *Job {
	now := time.Now()
	return &Job{
		ID:          newJobID(),
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Format:      format,
		DumpOptions: opts,
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of jobs held.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetResult records the extraction result and its rendering, and drops
// the uploaded bytes.
func (j *Job) SetResult(res *bookmarks.Result, output []byte, cached bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.output = output
	j.Cached = cached
	j.fileData = nil
	if res != nil {
		j.Progress.Bookmarks = len(res.Records)
		j.Progress.Warnings = len(res.Diagnostics)
	}
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the uploaded bytes.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// Output returns the rendering of a finished job, or nil.
func (j *Job) Output() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.output
}

// Result returns the extraction result of a finished job. It is nil if the
// job failed or the document has no outline.
func (j *Job) Result() *bookmarks.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string        `json:"job_id"`
	Status      JobStatus     `json:"status"`
	Phase       string        `json:"phase"`
	Filename    string        `json:"filename"`
	Format      render.Format `json:"format"`
	ContentHash string        `json:"content_hash,omitempty"`
	Cached      bool          `json:"cached"`
	Progress    Progress      `json:"progress"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Format:      j.Format,
		ContentHash: j.ContentHash,
		Cached:      j.Cached,
		Progress: Progress{
			Bookmarks: j.Progress.Bookmarks,
			Warnings:  j.Progress.Warnings,
			Errors:    append([]string{}, j.Progress.Errors...),
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
