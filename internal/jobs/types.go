package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeArchiveUpload copies an uploaded CSV to cloud storage.
	JobTypeArchiveUpload JobType = "archive_upload"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// DefaultMaxRetries applies when a job is published without MaxRetries.
const DefaultMaxRetries = 3

// ArchiveUploadJob archives one uploaded CSV to Bucket/ObjectName.
type ArchiveUploadJob struct {
	JobID      string `json:"job_id"`
	Bucket     string `json:"bucket"`
	ObjectName string `json:"object_name"`

	// Filename is the name the client uploaded the file under.
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	RowCount int    `json:"row_count"`

	// Data is released once the job completes.
	Data []byte `json:"-"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ArchiveUploadJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ArchiveUploadJob) GetType() JobType {
	return JobTypeArchiveUpload
}

// GetStatus implements the Job interface.
func (j *ArchiveUploadJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishArchiveUpload enqueues an archive job.
	PublishArchiveUpload(ctx context.Context, job *ArchiveUploadJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ArchiveUploadJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ArchiveUploadJob, error)

	// ListJobs retrieves jobs newest first with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ArchiveUploadJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}
