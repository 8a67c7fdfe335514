package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is an in-memory implementation of driven.JobStore.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

// NewJobStore creates a new in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*domain.Job)}
}

// Enqueue persists a new job in the queued state.
func (s *JobStore) Enqueue(_ context.Context, job *domain.Job) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	job.State = domain.JobQueued
	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

// Get retrieves a job by id.
func (s *JobStore) Get(_ context.Context, id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	out := *job
	return &out, nil
}

// ClaimNext moves the oldest queued job to running and returns it.
func (s *JobStore) ClaimNext(_ context.Context) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var queued []*domain.Job
	for _, job := range s.jobs {
		if job.State == domain.JobQueued {
			queued = append(queued, job)
		}
	}
	if len(queued) == 0 {
		return nil, nil
	}
	sort.Slice(queued, func(i, j int) bool {
		return queued[i].CreatedAt.Before(queued[j].CreatedAt)
	})

	job := queued[0]
	job.State = domain.JobRunning
	job.StartedAt = time.Now().UTC()
	out := *job
	return &out, nil
}

// MarkSucceeded finishes a job with its serialized result.
func (s *JobStore) MarkSucceeded(_ context.Context, id string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.State = domain.JobSucceeded
	job.Result = result
	job.FinishedAt = time.Now().UTC()
	return nil
}

// MarkFailed finishes a job with an error detail string.
func (s *JobStore) MarkFailed(_ context.Context, id string, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.State = domain.JobFailed
	job.Error = detail
	job.FinishedAt = time.Now().UTC()
	return nil
}

// PruneTerminal deletes terminal jobs finished before the retention window.
func (s *JobStore) PruneTerminal(_ context.Context, retention time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-retention)
	pruned := 0
	for id, job := range s.jobs {
		if job.State.Terminal() && !job.FinishedAt.IsZero() && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
			pruned++
		}
	}
	return pruned, nil
}
