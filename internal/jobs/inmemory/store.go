package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/expense-explorer/internal/jobs"
)

// Store keeps job state in process memory; it is lost on restart. Jobs are
// copied on the way in and out so callers never share state with it.
type Store struct {
	mu   sync.RWMutex
	byID map[string]jobs.ArchiveUploadJob
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{byID: make(map[string]jobs.ArchiveUploadJob)}
}

// SaveJob inserts or overwrites job.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ArchiveUploadJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	s.byID[job.JobID] = *job
	s.mu.Unlock()
	return nil
}

// GetJob returns a copy of the job, or an error wrapping jobs.ErrNotFound.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ArchiveUploadJob, error) {
	s.mu.RLock()
	job, ok := s.byID[jobID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("GetJob: %w: %s", jobs.ErrNotFound, jobID)
	}
	return &job, nil
}

// ListJobs returns matching jobs, newest first, paged by filter.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ArchiveUploadJob, error) {
	s.mu.RLock()
	result := make([]*jobs.ArchiveUploadJob, 0, len(s.byID))
	for _, job := range s.byID {
		if filter.Status == "" || job.Status == filter.Status {
			job := job
			result = append(result, &job)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].JobID < result[j].JobID
	})
	return page(result, filter.Offset, filter.Limit), nil
}

func page(list []*jobs.ArchiveUploadJob, offset, limit int) []*jobs.ArchiveUploadJob {
	if offset >= len(list) {
		return []*jobs.ArchiveUploadJob{}
	}
	if offset > 0 {
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

var _ jobs.JobStore = (*Store)(nil)
