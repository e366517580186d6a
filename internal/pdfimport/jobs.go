// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pdfimport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dast-sv/lectoflip/pkg/uuid"
)

// # Job States

// State is the lifecycle position of an import job.
type State string

const (
	StateIdle       State = "idle"
	StateExtracting State = "extracting"
	StateReady      State = "ready"
	StateFailed     State = "failed"
	StateSaving     State = "saving"
)

// DefaultJobTTL bounds how long an abandoned job keeps its blobs alive.
const DefaultJobTTL = time.Hour

var (
	// ErrUnknownJob is returned for missing, expired or foreign jobs.
	ErrUnknownJob = errors.New("pdfimport: unknown import job")

	// ErrJobBusy is returned when a job cannot change while it is extracting or saving.
	ErrJobBusy = errors.New("pdfimport: import job is busy")

	// ErrJobNotReady is returned when saving a job that has no extracted pages.
	ErrJobNotReady = errors.New("pdfimport: import job is not ready")

	// ErrJobsClosed is returned once shutdown has begun.
	ErrJobsClosed = errors.New("pdfimport: import jobs are shutting down")
)

// # Job

type job struct {
	mu        sync.Mutex
	id        string
	ownerID   string
	filename  string
	state     State
	progress  Progress
	result    *Result
	source    []byte
	failure   string
	evicted   bool
	updatedAt time.Time
}

// Snapshot is a read-only view of a job.
type Snapshot struct {
	ID        string          `json:"id"`
	Filename  string          `json:"filename"`
	State     State           `json:"state"`
	Progress  Progress        `json:"progress"`
	Title     string          `json:"title,omitempty"`
	PageCount int             `json:"pageCount"`
	Width     int             `json:"width,omitempty"`
	Height    int             `json:"height,omitempty"`
	Pages     []ExtractedPage `json:"pages,omitempty"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// snapshot must be called with job.mu held.
func (job *job) snapshot() Snapshot {
	view := Snapshot{
		ID:        job.id,
		Filename:  job.filename,
		State:     job.state,
		Progress:  job.progress,
		PageCount: job.progress.Total,
		Width:     job.progress.Width,
		Height:    job.progress.Height,
		Error:     job.failure,
		UpdatedAt: job.updatedAt,
	}
	if job.result != nil {
		view.Title = job.result.Title
		view.PageCount = job.result.PageCount
		view.Width, view.Height = job.result.Width, job.result.Height
		view.Pages = append([]ExtractedPage(nil), job.result.Extracted...)
	}
	return view
}

// detach clears the extracted output and returns the batch that owned it.
// Must be called with job.mu held.
func (job *job) detach() *Batch {
	var batch *Batch
	if job.result != nil {
		batch = job.result.Batch
	}
	job.result = nil
	job.source = nil
	job.failure = ""
	job.progress = Progress{}
	return batch
}

func (job *job) touch() {
	job.updatedAt = time.Now().UTC()
}

// # Jobs

// Jobs tracks import jobs in a TTL cache and runs their extractions.
type Jobs struct {
	items     *cache.Cache
	extractor *Extractor
	logger    *slog.Logger

	context context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
	closed  atomic.Bool
}

// NewJobs constructs a job registry. Jobs untouched for ttl are evicted and their blobs released.
func NewJobs(extractor *Extractor, ttl time.Duration, logger *slog.Logger) *Jobs {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}

	ctx, cancel := context.WithCancel(context.Background())
	jobs := &Jobs{
		items:     cache.New(ttl, ttl/4),
		extractor: extractor,
		logger:    logger,
		context:   ctx,
		cancel:    cancel,
	}
	jobs.items.OnEvicted(jobs.evict)
	return jobs
}

/*
Start registers a new job and begins extracting data in the background.

Parameters:
  - ownerID: string (Only this user can see the job)
  - filename: string
  - data: []byte (Validated PDF contents)

Returns:
  - Snapshot: The job in the extracting state
  - error: ErrJobsClosed during shutdown
*/
func (jobs *Jobs) Start(ownerID, filename string, data []byte) (Snapshot, error) {
	if jobs.closed.Load() {
		return Snapshot{}, ErrJobsClosed
	}

	entry := &job{id: uuid.New(), ownerID: ownerID, state: StateIdle}
	entry.mu.Lock()
	view := jobs.launch(entry, filename, data)
	entry.mu.Unlock()

	jobs.items.SetDefault(entry.id, entry)
	jobs.logger.Info("pdf_import_started", slog.String("job_id", entry.id), slog.String("filename", filename))
	return view, nil
}

// Get returns a snapshot of the caller's job.
func (jobs *Jobs) Get(ownerID, id string) (Snapshot, error) {
	entry, err := jobs.lookup(ownerID, id)
	if err != nil {
		return Snapshot{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.snapshot(), nil
}

/*
Reset releases the job's pages and returns it to idle, ready for a new file.

Returns:
  - error: ErrJobBusy while extracting or saving; joined revoke failures
*/
func (jobs *Jobs) Reset(context context.Context, ownerID, id string) (Snapshot, error) {
	entry, err := jobs.lookup(ownerID, id)
	if err != nil {
		return Snapshot{}, err
	}

	entry.mu.Lock()
	if entry.state == StateExtracting || entry.state == StateSaving {
		entry.mu.Unlock()
		return Snapshot{}, ErrJobBusy
	}
	batch := entry.detach()
	entry.state = StateIdle
	entry.filename = ""
	entry.touch()
	view := entry.snapshot()
	entry.mu.Unlock()

	jobs.items.SetDefault(id, entry)
	return view, release(context, batch)
}

/*
Replace releases the job's previous pages, then extracts a new file under the same id.

Returns:
  - error: ErrJobBusy while extracting or saving; joined revoke failures of the previous pages
*/
func (jobs *Jobs) Replace(context context.Context, ownerID, id, filename string, data []byte) (Snapshot, error) {
	if jobs.closed.Load() {
		return Snapshot{}, ErrJobsClosed
	}

	entry, err := jobs.lookup(ownerID, id)
	if err != nil {
		return Snapshot{}, err
	}

	entry.mu.Lock()
	if entry.state == StateExtracting || entry.state == StateSaving {
		entry.mu.Unlock()
		return Snapshot{}, ErrJobBusy
	}
	previous := entry.detach()
	// Other mutators see a busy job while the previous pages are released.
	entry.state = StateExtracting
	entry.filename = filename
	entry.touch()
	entry.mu.Unlock()

	// The previous pages go before the new extraction allocates anything.
	releaseErr := release(context, previous)

	entry.mu.Lock()
	if entry.evicted || jobs.closed.Load() {
		entry.state = StateIdle
		entry.mu.Unlock()
		return Snapshot{}, errors.Join(ErrJobsClosed, releaseErr)
	}
	view := jobs.launch(entry, filename, data)
	entry.mu.Unlock()

	jobs.items.SetDefault(id, entry)
	return view, releaseErr
}

/*
Discard releases the job's pages and forgets it (explicit cancel or leaving the flow).

Returns:
  - error: ErrJobBusy while extracting or saving; joined revoke failures
*/
func (jobs *Jobs) Discard(context context.Context, ownerID, id string) error {
	entry, err := jobs.lookup(ownerID, id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	if entry.state == StateExtracting || entry.state == StateSaving {
		entry.mu.Unlock()
		return ErrJobBusy
	}
	batch := entry.detach()
	entry.mu.Unlock()

	jobs.items.Delete(id)
	return release(context, batch)
}

// Checkout is a ready job handed to a saver.
type Checkout struct {
	Filename string
	Source   []byte
	Result   *Result
}

// BeginSave moves a ready job to saving and hands out its extracted pages.
// Exactly one of [Jobs.Complete] or [Jobs.AbortSave] must follow.
func (jobs *Jobs) BeginSave(ownerID, id string) (*Checkout, error) {
	entry, err := jobs.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	switch entry.state {
	case StateReady:
		if entry.result == nil {
			return nil, ErrJobNotReady
		}
	case StateExtracting, StateSaving:
		return nil, ErrJobBusy
	default:
		return nil, ErrJobNotReady
	}

	entry.state = StateSaving
	entry.touch()
	jobs.items.SetDefault(id, entry)
	return &Checkout{Filename: entry.filename, Source: entry.source, Result: entry.result}, nil
}

// AbortSave returns a saving job to ready so the user can retry without re-extracting.
func (jobs *Jobs) AbortSave(ownerID, id string) {
	entry, err := jobs.lookup(ownerID, id)
	if err != nil {
		return
	}

	entry.mu.Lock()
	if entry.state == StateSaving {
		entry.state = StateReady
		entry.touch()
	}
	entry.mu.Unlock()
}

// Complete releases the pages of a job whose content has been persisted and forgets it.
func (jobs *Jobs) Complete(context context.Context, ownerID, id string) error {
	entry, err := jobs.lookup(ownerID, id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	batch := entry.detach()
	entry.state = StateIdle
	entry.mu.Unlock()

	jobs.items.Delete(id)
	jobs.logger.Info("pdf_import_completed", slog.String("job_id", id))
	return release(context, batch)
}

// Len reports the number of live jobs.
func (jobs *Jobs) Len() int {
	return jobs.items.ItemCount()
}

/*
Close stops accepting jobs, waits for running extractions, and releases every job.

Description: Running extractions are cancelled between pages; each releases its own
partial batch. The wait is bounded by context.
*/
func (jobs *Jobs) Close(context context.Context) error {
	if !jobs.closed.CompareAndSwap(false, true) {
		return nil
	}
	jobs.cancel()

	done := make(chan struct{})
	go func() {
		jobs.running.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-context.Done():
		jobs.logger.Warn("pdf_import_close_timeout")
	}

	var errs []error
	for id, item := range jobs.items.Items() {
		entry := item.Object.(*job)
		entry.mu.Lock()
		entry.evicted = true
		batch := entry.detach()
		entry.mu.Unlock()

		if err := release(context, batch); err != nil {
			errs = append(errs, err)
		}
		jobs.items.Delete(id)
	}
	return errors.Join(errs...)
}

// # Internals

// launch moves entry into extracting and starts the background run.
// Must be called with entry.mu held.
func (jobs *Jobs) launch(entry *job, filename string, data []byte) Snapshot {
	entry.filename = filename
	entry.state = StateExtracting
	entry.source = data
	entry.failure = ""
	entry.progress = Progress{}
	entry.touch()

	jobs.running.Add(1)
	go jobs.run(entry, data)
	return entry.snapshot()
}

func (jobs *Jobs) run(entry *job, data []byte) {
	defer jobs.running.Done()

	result, err := jobs.extractor.Extract(jobs.context, data, func(progress Progress) {
		entry.mu.Lock()
		defer entry.mu.Unlock()
		if progress.Width == 0 {
			progress.Width, progress.Height = entry.progress.Width, entry.progress.Height
		}
		entry.progress = progress
		entry.touch()
	})

	entry.mu.Lock()
	orphan := jobs.settle(entry, result, err)
	entry.mu.Unlock()

	// Revoking may block on the store, so it happens outside the lock.
	if releaseErr := release(context.Background(), orphan); releaseErr != nil {
		jobs.logger.Error("pdf_batch_release_failed", slog.String("job_id", entry.id), slog.Any("error", releaseErr))
	}
}

// settle records the outcome of an extraction and returns the batch nobody owns any
// more: the new one when the job is gone, or a result it replaces. Must be called with
// entry.mu held.
func (jobs *Jobs) settle(entry *job, result *Result, err error) *Batch {
	// 1. Nobody is left to own the pages.
	if entry.evicted {
		if result != nil {
			return result.Batch
		}
		return nil
	}

	// 2. Terminal failure
	entry.touch()
	if err != nil {
		entry.state = StateFailed
		entry.failure = failureMessage(err)
		entry.source = nil
		jobs.logger.Warn("pdf_import_failed", slog.String("job_id", entry.id), slog.Any("error", err))
		return nil
	}

	// 3. Ready
	var orphan *Batch
	if entry.result != nil && entry.result != result {
		orphan = entry.result.Batch
	}
	entry.state = StateReady
	entry.result = result
	jobs.logger.Info("pdf_import_ready",
		slog.String("job_id", entry.id),
		slog.Int("pages", result.PageCount),
		slog.Int("width", result.Width),
		slog.Int("height", result.Height),
	)
	return orphan
}

// evict runs when the cache drops a job, by expiry or by Delete.
func (jobs *Jobs) evict(id string, value interface{}) {
	entry, ok := value.(*job)
	if !ok {
		return
	}

	entry.mu.Lock()
	entry.evicted = true
	batch := entry.detach()
	entry.mu.Unlock()

	if err := release(context.Background(), batch); err != nil {
		jobs.logger.Error("pdf_import_evict_release_failed", slog.String("job_id", id), slog.Any("error", err))
	}
}

func (jobs *Jobs) lookup(ownerID, id string) (*job, error) {
	value, ok := jobs.items.Get(id)
	if !ok {
		return nil, ErrUnknownJob
	}
	entry := value.(*job)
	if entry.ownerID != ownerID {
		return nil, ErrUnknownJob
	}
	return entry, nil
}

func release(context context.Context, batch *Batch) error {
	if batch == nil {
		return nil
	}
	return batch.Release(context)
}

// failureMessage turns an extraction error into the message shown with the retry affordance.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotPDF):
		return "The file is not a valid PDF document"
	case errors.Is(err, ErrEmptyDocument):
		return "The PDF has no pages"
	case errors.Is(err, ErrUnreadable):
		return "The PDF could not be read; it may be damaged or encrypted"
	case errors.Is(err, context.Canceled):
		return "The import was interrupted"
	default:
		return "The PDF could not be processed"
	}
}
