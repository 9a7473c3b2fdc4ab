// Package worker provides a background job processing system using goroutines.
//
// Go Pattern: Goroutines and channels are Go's concurrency primitives.
// A goroutine is like a lightweight thread (thousands are fine), and
// channels are typed pipes for communication between goroutines.
//
// This worker pool pattern is very common in Go:
// 1. Create a buffered channel as a job queue
// 2. Spawn N worker goroutines that read from the channel
// 3. Send jobs to the channel from your HTTP handlers
// 4. Workers process jobs concurrently
//
// Think of it like a restaurant: the channel is the order window,
// workers are the cooks, and handlers are the waiters taking orders.
package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Ashford-Glazing/survey-tools-api/internal/database"
	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
	sheetservice "github.com/Ashford-Glazing/survey-tools-api/internal/services/sheet"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/storage"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/webhook"
)

// JobType identifies what kind of work a job represents.
type JobType string

const (
	JobSheetExtraction JobType = "sheet_extraction"
)

// Job represents a unit of work to be processed by a worker.
type Job struct {
	ID        string // The survey sheet record ID
	Type      JobType
	CreatedAt time.Time
}

// Pool manages a pool of worker goroutines.
type Pool struct {
	// Go Pattern: Channels are the backbone of Go concurrency.
	// This buffered channel acts as our job queue.
	// Buffered means it can hold `queueSize` jobs before blocking.
	jobs    chan Job
	workers int
	db      *database.DB
	store   *storage.Store

	// Set via SetWebhookService after construction; nil means no
	// notifications, which keeps tests simple.
	webhooks *webhook.Service

	// Go Pattern: sync.WaitGroup tracks running goroutines.
	// We call wg.Add(1) when starting a worker, wg.Done() when it finishes,
	// and wg.Wait() blocks until all workers are done (used for graceful shutdown).
	wg sync.WaitGroup

	// Go Pattern: context.Context with cancel for graceful shutdown.
	// When we call cancel(), all workers' contexts are cancelled.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a new worker pool.
func NewPool(workers, queueSize int, db *database.DB, store *storage.Store) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:    make(chan Job, queueSize), // Buffered channel
		workers: workers,
		db:      db,
		store:   store,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetWebhookService wires webhook notifications into job processing (SVT-18).
func (p *Pool) SetWebhookService(ws *webhook.Service) {
	p.webhooks = ws
}

// Start launches the worker goroutines.
// Go Pattern: The `go` keyword starts a new goroutine (lightweight thread).
// Each worker runs in its own goroutine, reading from the shared jobs channel.
func (p *Pool) Start() {
	log.Printf("🚀 Starting %d background workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i) // Launch worker goroutine
	}
}

// Stop gracefully shuts down all workers, draining whatever is still queued.
// Go Pattern: Close the channel + wait for completion + cancel the context.
// The order matters: closing first lets the `range` loops run the queue dry,
// and cancelling only after wg.Wait() keeps the pool context live for the
// final database writes of in-flight jobs. Callers must stop accepting HTTP
// traffic first so nothing submits into a closed channel.
func (p *Pool) Stop() {
	log.Println("⏹️  Stopping workers...")
	close(p.jobs) // No new jobs; workers drain the remaining queue
	p.wg.Wait()   // Wait for all workers to finish
	p.cancel()    // Release the pool context once the queue is empty
	log.Println("✅ All workers stopped")
}

// Submit adds a job to the queue.
// Returns an error if the queue is full (non-blocking).
func (p *Pool) Submit(job Job) error {
	// Go Pattern: `select` with `default` makes channel operations non-blocking.
	// Without default, sending to a full channel would block the HTTP handler.
	select {
	case p.jobs <- job:
		log.Printf("📥 Job queued: %s (type: %s)", job.ID, job.Type)
		return nil
	default:
		return fmt.Errorf("job queue is full; try again later")
	}
}

// SubmitBlocking adds a job to the queue, waiting for space when the queue
// is full. The wait ends early if ctx is cancelled or the pool shuts down.
// Owner traffic uses this instead of Submit so a full queue degrades into
// latency rather than rejection.
func (p *Pool) SubmitBlocking(ctx context.Context, job Job) error {
	select {
	case p.jobs <- job:
		log.Printf("📥 Job queued (blocking): %s (type: %s)", job.ID, job.Type)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("gave up waiting for queue space: %w", ctx.Err())
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// QueueSize returns the current number of jobs in the queue.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

// worker is the main loop for each worker goroutine.
// It reads jobs from the channel and processes them.
func (p *Pool) worker(id int) {
	defer p.wg.Done() // Signal completion when this worker exits

	log.Printf("👷 Worker %d started", id)

	// Go Pattern: `range` over a channel reads values until the channel is closed.
	// This is the idiomatic way to consume from a channel. It also gives us
	// drain-on-shutdown for free: Stop() closes the channel, and every job
	// queued before that still comes out here and gets processed.
	for job := range p.jobs {
		log.Printf("👷 Worker %d processing job: %s (type: %s)", id, job.ID, job.Type)

		// Go Pattern: Error handling — each job type has its own handler.
		// We use a switch statement (like a match/case in other languages).
		var err error
		switch job.Type {
		case JobSheetExtraction:
			err = p.processSheet(job)
		default:
			log.Printf("❌ Worker %d: unknown job type: %s", id, job.Type)
		}

		if err != nil {
			log.Printf("❌ Worker %d: job %s failed: %v", id, job.ID, err)
		} else {
			log.Printf("✅ Worker %d: job %s completed", id, job.ID)
		}
	}

	log.Printf("👷 Worker %d stopped", id)
}

// processSheet handles sheet extraction jobs: pull the stored PDF, recover
// its line text, parse the sales blocks, and persist the openings.
func (p *Pool) processSheet(job Job) error {
	ctx := p.ctx

	s, err := p.db.GetSheet(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to get sheet: %w", err)
	}

	s.Status = models.StatusProcessing
	if err := p.db.UpdateSheet(ctx, s); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	data, err := p.store.Read(s.StoredFilename)
	if err != nil {
		return p.failSheet(ctx, s, fmt.Errorf("failed to read stored PDF: %w", err))
	}

	result, err := sheetservice.Extract(data)
	if err != nil {
		return p.failSheet(ctx, s, fmt.Errorf("text extraction failed: %w", err))
	}

	openings := sheetservice.ParseOpenings(result.Text)
	if err := p.db.ReplaceOpenings(ctx, s.ID, openingModels(s.ID, openings)); err != nil {
		return p.failSheet(ctx, s, fmt.Errorf("failed to save openings: %w", err))
	}

	s.Status = models.StatusCompleted
	s.PageCount = result.PageCount
	s.OpeningCount = len(openings)
	s.ErrorMessage = ""
	s.Warning = ""
	if len(openings) == 0 {
		s.Warning = "no sales lines were detected in this PDF"
	}
	if err := p.db.UpdateSheet(ctx, s); err != nil {
		return fmt.Errorf("failed to save sheet: %w", err)
	}

	p.finishBatchMember(ctx, s)
	if p.webhooks != nil {
		p.webhooks.NotifyEvent(ctx, "sheet.completed", s)
	}

	return nil
}

// failSheet marks a sheet failed and emits the failure notifications.
// Returns cause so callers can `return p.failSheet(...)` in one line.
func (p *Pool) failSheet(ctx context.Context, s *models.SurveySheet, cause error) error {
	s.Status = models.StatusFailed
	s.ErrorMessage = cause.Error()
	if err := p.db.UpdateSheet(ctx, s); err != nil {
		log.Printf("⚠️  Failed to record sheet failure for %s: %v", s.ID, err)
	}

	p.finishBatchMember(ctx, s)
	if p.webhooks != nil {
		p.webhooks.NotifyEvent(ctx, "sheet.failed", s)
	}

	return cause
}

// finishBatchMember refreshes batch progress after a member sheet reaches a
// terminal state, and fires batch.completed when the last member lands.
//
// Go Pattern: We update batch counts after each sheet completes so that
// GET /batches/:id always returns fresh progress data.
func (p *Pool) finishBatchMember(ctx context.Context, s *models.SurveySheet) {
	if s.BatchID == nil {
		return
	}

	if err := p.db.UpdateBatchCounts(ctx, *s.BatchID); err != nil {
		log.Printf("⚠️  Failed to update batch counts for %s: %v", *s.BatchID, err)
		// Non-fatal — the batch status will self-heal on next read
		return
	}

	if p.webhooks == nil {
		return
	}
	batch, err := p.db.GetBatch(ctx, *s.BatchID)
	if err != nil {
		return
	}
	// Two workers racing on the final members may both see the batch as
	// done; subscribers get at-least-once delivery of batch.completed.
	if batch.CompletedCount+batch.FailedCount >= batch.TotalCount {
		p.webhooks.NotifyEvent(ctx, "batch.completed", batch)
	}
}

// openingModels converts parsed openings into database rows for a sheet.
func openingModels(sheetID string, openings []sheetservice.Opening) []models.SheetOpening {
	rows := make([]models.SheetOpening, len(openings))
	for i, op := range openings {
		rows[i] = models.SheetOpening{
			SheetID:     sheetID,
			Position:    op.Position,
			SalesLine:   op.SalesLine,
			OrderWidth:  op.OrderWidth,
			OrderHeight: op.OrderHeight,
			Reference:   op.Reference,
			Location:    op.Location,
			System:      op.System,
		}
	}
	return rows
}
