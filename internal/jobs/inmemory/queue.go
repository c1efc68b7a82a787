package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/expense-explorer/internal/jobs"
	"github.com/google/uuid"
)

const (
	defaultWorkers = 2
	defaultBackoff = time.Second
)

// ErrQueueClosed is returned when publishing to a stopped queue.
var ErrQueueClosed = errors.New("queue is closed")

// Queue is a channel-backed job queue for a single process. It implements
// both jobs.Publisher and jobs.Consumer.
type Queue struct {
	pending chan *jobs.ArchiveUploadJob
	done    chan struct{}
	wg      sync.WaitGroup
	store   jobs.JobStore
	workers int
	backoff time.Duration

	mu      sync.Mutex
	closed  bool
	retries map[string]*scheduledRetry
}

type scheduledRetry struct {
	timer *time.Timer
	job   *jobs.ArchiveUploadJob
}

// Option configures a Queue.
type Option func(*Queue)

// WithWorkers sets how many jobs run concurrently.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithBackoff sets the base retry delay; retry n waits n times this.
func WithBackoff(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.backoff = d
		}
	}
}

// NewQueue creates a queue holding up to bufferSize waiting jobs. store may
// be nil when job state does not need to be queried.
func NewQueue(bufferSize int, store jobs.JobStore, opts ...Option) *Queue {
	q := &Queue{
		pending: make(chan *jobs.ArchiveUploadJob, bufferSize),
		done:    make(chan struct{}),
		store:   store,
		workers: defaultWorkers,
		backoff: defaultBackoff,
		retries: make(map[string]*scheduledRetry),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue) save(ctx context.Context, job *jobs.ArchiveUploadJob) error {
	if q.store == nil {
		return nil
	}
	return q.store.SaveJob(ctx, job)
}

// PublishArchiveUpload fills in defaults, records the job as pending and
// hands it to a worker. It blocks while the buffer is full.
func (q *Queue) PublishArchiveUpload(ctx context.Context, job *jobs.ArchiveUploadJob) error {
	if q.isClosed() {
		return ErrQueueClosed
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = jobs.DefaultMaxRetries
	}
	job.Status = jobs.JobStatusPending

	if err := q.save(ctx, job); err != nil {
		return fmt.Errorf("PublishArchiveUpload: save job: %w", err)
	}

	select {
	case q.pending <- job:
		// Stop may have drained the buffer between the check above and the send
		if q.isClosed() {
			q.drain(ctx)
		}
		return nil
	case <-q.done:
		q.abandon(ctx, job, "queue stopped before run")
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the workers. They run handler for each job until Stop is
// called or ctx ends.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	if q.isClosed() {
		return ErrQueueClosed
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-q.done:
					return
				case job := <-q.pending:
					q.run(ctx, job, handler)
				}
			}
		}()
	}
	return nil
}

// run executes one attempt of job and records the outcome.
func (q *Queue) run(ctx context.Context, job *jobs.ArchiveUploadJob, handler jobs.JobHandler) {
	started := time.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &started
	job.CompletedAt = nil
	_ = q.save(ctx, job)

	err := handler(ctx, job)

	finished := time.Now()
	job.CompletedAt = &finished

	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		job.Data = nil
	case job.RetryCount < job.MaxRetries:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying
	default:
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
		job.Data = nil
	}
	_ = q.save(ctx, job)

	// saved first: once scheduled, the retry timer owns job
	if job.Status == jobs.JobStatusRetrying {
		q.scheduleRetry(ctx, job)
	}
}

// scheduleRetry republishes job after a linear backoff.
func (q *Queue) scheduleRetry(ctx context.Context, job *jobs.ArchiveUploadJob) {
	delay := time.Duration(job.RetryCount) * q.backoff

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	q.retries[job.JobID] = &scheduledRetry{
		job: job,
		timer: time.AfterFunc(delay, func() {
			q.mu.Lock()
			delete(q.retries, job.JobID)
			q.mu.Unlock()

			if err := q.PublishArchiveUpload(ctx, job); err != nil && job.Status != jobs.JobStatusFailed {
				job.Status = jobs.JobStatusFailed
				job.Error = fmt.Sprintf("%s (retry not queued: %v)", job.Error, err)
				job.Data = nil
				_ = q.save(context.Background(), job)
			}
		}),
	}
}

// Stop closes the queue and fails every job that has not started: those
// still buffered and those waiting on a retry timer. It then waits for
// running jobs to finish or ctx to end.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.done)

	var abandoned []*jobs.ArchiveUploadJob
	for id, r := range q.retries {
		if r.timer.Stop() {
			abandoned = append(abandoned, r.job)
		}
		delete(q.retries, id)
	}
	q.mu.Unlock()

	for _, job := range abandoned {
		q.abandon(ctx, job, "queue stopped before retry")
	}
	q.drain(ctx)

	finished := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain fails every job still waiting in the buffer.
func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case job := <-q.pending:
			q.abandon(ctx, job, "queue stopped before run")
		default:
			return
		}
	}
}

// abandon records job as failed without running it.
func (q *Queue) abandon(ctx context.Context, job *jobs.ArchiveUploadJob, reason string) {
	job.Status = jobs.JobStatusFailed
	if job.Error == "" {
		job.Error = reason
	} else {
		job.Error = fmt.Sprintf("%s (%s)", job.Error, reason)
	}
	job.Data = nil
	_ = q.save(ctx, job)
}

// Close stops the queue without a deadline.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)
