// Package jobs runs template preview renders in the background with retry
package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle phase of a job
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRendering Status = "rendering"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

// Job is one queued preview render
type Job struct {
	ID          string    `json:"id"`
	TemplateID  string    `json:"template_id"`
	Scale       float64   `json:"scale"`
	Retries     int       `json:"retries"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`

	PNG []byte `json:"-"`

	notBefore time.Time
}

// RenderFunc renders one template to PNG bytes
type RenderFunc func(ctx context.Context, templateID string, scale float64) ([]byte, error)

// Options tunes the queue
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
	Interval   time.Duration
	Logger     *slog.Logger
}

// Queue manages render jobs with retry logic
type Queue struct {
	jobs       []*Job
	mu         sync.Mutex
	render     RenderFunc
	maxRetries int
	retryDelay time.Duration
	listeners  []func(Job)
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a queue and starts its worker
func NewQueue(render RenderFunc, opts Options) *Queue {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:       make([]*Job, 0),
		render:     render,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	q.wg.Add(1)
	go q.worker(opts.Interval)

	return q
}

// OnUpdate registers a callback invoked after every status change.
// Callbacks run on the worker goroutine.
func (q *Queue) OnUpdate(fn func(Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listeners = append(q.listeners, fn)
}

// Enqueue adds a render job and returns its id
func (q *Queue) Enqueue(templateID string, scale float64) string {
	q.mu.Lock()

	job := &Job{
		ID:         "job_" + uuid.New().String(),
		TemplateID: templateID,
		Scale:      scale,
		Status:     StatusQueued,
		CreatedAt:  time.Now(),
	}
	q.jobs = append(q.jobs, job)
	snapshot, listeners := *job, q.listeners

	q.mu.Unlock()

	q.notify(listeners, snapshot)
	return job.ID
}

func (q *Queue) worker(interval time.Duration) {
	defer q.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			for q.processNextJob() {
			}
		}
	}
}

// processNextJob runs one due job and reports whether it found one
func (q *Queue) processNextJob() bool {
	q.mu.Lock()

	now := time.Now()
	var job *Job
	for _, j := range q.jobs {
		if j.Status == StatusQueued && !now.Before(j.notBefore) {
			job = j
			job.Status = StatusRendering
			break
		}
	}
	if job == nil {
		q.mu.Unlock()
		return false
	}
	started, listeners := *job, q.listeners
	q.mu.Unlock()

	q.notify(listeners, started)

	png, err := q.run(job.TemplateID, job.Scale)

	q.mu.Lock()
	if err != nil {
		job.Retries++
		job.Error = err.Error()

		if job.Retries >= q.maxRetries {
			job.Status = StatusFailed
			job.CompletedAt = time.Now()
			q.logger.Error("render job failed", "job", job.ID, "template", job.TemplateID, "retries", job.Retries, "error", err)
		} else {
			job.Status = StatusQueued
			job.notBefore = time.Now().Add(q.retryDelay)
			q.logger.Warn("render job failed, retrying", "job", job.ID, "attempt", job.Retries, "max", q.maxRetries, "error", err)
		}
	} else {
		job.Status = StatusCompleted
		job.Error = ""
		job.PNG = png
		job.CompletedAt = time.Now()
		q.logger.Info("render job completed", "job", job.ID, "template", job.TemplateID, "bytes", len(png))
	}
	finished := *job
	q.mu.Unlock()

	q.notify(listeners, finished)
	return true
}

// run calls the render func, turning a panic into an error
func (q *Queue) run(templateID string, scale float64) (png []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panicked: %v", r)
		}
	}()
	return q.render(q.ctx, templateID, scale)
}

func (q *Queue) notify(listeners []func(Job), job Job) {
	job.PNG = nil
	for _, fn := range listeners {
		fn(job)
	}
}

// Get returns a copy of a job by id
func (q *Queue) Get(jobID string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.ID == jobID {
			return *job, true
		}
	}
	return Job{}, false
}

// All returns copies of every job without their images
func (q *Queue) All() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]Job, len(q.jobs))
	for i, job := range q.jobs {
		jobs[i] = *job
		jobs[i].PNG = nil
	}
	return jobs
}

// ClearFinished removes completed and failed jobs and returns how many
// were removed
func (q *Queue) ClearFinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	filtered := make([]*Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		if job.Status != StatusCompleted && job.Status != StatusFailed {
			filtered = append(filtered, job)
		}
	}
	removed := len(q.jobs) - len(filtered)
	q.jobs = filtered
	return removed
}

// Stop stops the worker and waits for the job in progress
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
}
