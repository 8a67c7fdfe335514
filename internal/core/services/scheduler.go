package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
	"github.com/meridian-labs/docindex/internal/core/ports/driving"
	"github.com/meridian-labs/docindex/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.JobScheduler = (*Scheduler)(nil)

// SchedulerConfig holds worker pool and retention settings.
type SchedulerConfig struct {
	// Workers is the number of concurrent job runners.
	Workers int

	// PollInterval is how long an idle worker sleeps between claims.
	PollInterval time.Duration

	// Retention is how long terminal jobs stay pollable.
	Retention time.Duration

	// SearchTimeout is the wall-clock ceiling for synchronous search.
	SearchTimeout time.Duration
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:       4,
		PollInterval:  250 * time.Millisecond,
		Retention:     24 * time.Hour,
		SearchTimeout: 60 * time.Second,
	}
}

// Scheduler runs jobs from the durable queue with a fixed worker pool.
// Once a worker claims a job it runs to completion or failure; there is
// no cancellation. A caller that stops polling abandons observation, not
// execution.
type Scheduler struct {
	jobs    driven.JobStore
	store   driven.ChunkStore
	indexer driving.Indexer
	search  driving.SearchService
	config  SchedulerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler over the given job store and services.
func NewScheduler(
	jobs driven.JobStore,
	store driven.ChunkStore,
	indexer driving.Indexer,
	search driving.SearchService,
	config SchedulerConfig,
) *Scheduler {
	def := DefaultSchedulerConfig()
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.Retention <= 0 {
		config.Retention = def.Retention
	}
	if config.SearchTimeout <= 0 {
		config.SearchTimeout = def.SearchTimeout
	}
	return &Scheduler{
		jobs:    jobs,
		store:   store,
		indexer: indexer,
		search:  search,
		config:  config,
	}
}

// SubmitIndex queues an index job for one document.
func (s *Scheduler) SubmitIndex(ctx context.Context, documentID string, force bool) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("%w: document id required", domain.ErrInvalidInput)
	}
	return s.submit(ctx, domain.JobKindIndex, domain.IndexPayload{DocumentID: documentID, Force: force})
}

// SubmitBulkReindex queues the fan-out job.
func (s *Scheduler) SubmitBulkReindex(ctx context.Context) (string, error) {
	return s.submit(ctx, domain.JobKindBulkReindex, struct{}{})
}

// SubmitSearch queues a search job for asynchronous polling.
func (s *Scheduler) SubmitSearch(ctx context.Context, req domain.SearchRequest) (string, error) {
	return s.submit(ctx, domain.JobKindSearch, domain.SearchPayload{
		UserID:           req.UserID,
		Query:            req.Query,
		TopK:             req.TopK,
		TargetDocumentID: req.TargetDocumentID,
	})
}

func (s *Scheduler) submit(ctx context.Context, kind domain.JobKind, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	job := &domain.Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		Payload:   raw,
		State:     domain.JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("enqueue %s job: %w", kind, err)
	}

	logger.Debug("Queued %s job %s", kind, job.ID)
	return job.ID, nil
}

// Poll reports the state of a job.
func (s *Scheduler) Poll(ctx context.Context, jobID string) (*domain.JobStatus, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &domain.JobStatus{
		ID:     job.ID,
		State:  job.State,
		Result: job.Result,
		Error:  job.Error,
	}, nil
}

// SearchSync submits a search job and polls it to completion under a
// hard wall-clock ceiling. Exceeding the ceiling yields
// domain.ErrTimeout, distinct from a search failure.
func (s *Scheduler) SearchSync(ctx context.Context, req domain.SearchRequest) ([]domain.SearchHit, error) {
	jobID, err := s.SubmitSearch(ctx, req)
	if err != nil {
		return nil, err
	}

	deadline := time.NewTimer(s.config.SearchTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w after %s (job %s)", domain.ErrTimeout, s.config.SearchTimeout, jobID)
		case <-tick.C:
			status, err := s.Poll(ctx, jobID)
			if err != nil {
				return nil, err
			}
			switch status.State {
			case domain.JobSucceeded:
				var hits []domain.SearchHit
				if err := json.Unmarshal(status.Result, &hits); err != nil {
					return nil, fmt.Errorf("decode search result: %w", err)
				}
				return hits, nil
			case domain.JobFailed:
				return nil, searchFailure(status.Error)
			}
		}
	}
}

// searchFailure rebuilds an error from a failed search job's recorded
// detail. The job store persists errors as text, which strips their
// identity; well-known sentinels are matched by prefix so synchronous
// callers can still test with errors.Is.
func searchFailure(detail string) error {
	for _, sentinel := range []error{
		domain.ErrForbidden,
		domain.ErrNotFound,
		domain.ErrInvalidInput,
		domain.ErrEmbedderFailure,
	} {
		if prefix := sentinel.Error(); strings.HasPrefix(detail, prefix) {
			return fmt.Errorf("%w%s", sentinel, strings.TrimPrefix(detail, prefix))
		}
	}
	return errors.New(detail)
}

// Start launches the worker pool and the retention sweeper. It returns
// immediately; Stop drains running jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.runWorker(ctx, i)
	}

	s.wg.Add(1)
	go s.runSweeper(ctx)

	return nil
}

// Stop shuts the pool down, waiting for in-flight jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// runWorker claims and executes jobs until stopped.
func (s *Scheduler) runWorker(ctx context.Context, id int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		job, err := s.jobs.ClaimNext(ctx)
		if err != nil {
			logger.Warn("Worker %d claim failed: %v", id, err)
		}
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-time.After(s.config.PollInterval):
			}
			continue
		}

		// A claimed job runs to completion even while shutdown or the
		// caller's context unwinds.
		s.execute(context.WithoutCancel(ctx), job)
	}
}

// runSweeper prunes terminal jobs past the retention window.
func (s *Scheduler) runSweeper(ctx context.Context) {
	defer s.wg.Done()

	tick := time.NewTicker(time.Hour)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-tick.C:
			n, err := s.jobs.PruneTerminal(ctx, s.config.Retention)
			if err != nil {
				logger.Warn("Prune terminal jobs: %v", err)
			} else if n > 0 {
				logger.Debug("Pruned %d terminal jobs", n)
			}
		}
	}
}

// execute dispatches one claimed job and records its terminal state.
func (s *Scheduler) execute(ctx context.Context, job *domain.Job) {
	logger.Debug("Running %s job %s", job.Kind, job.ID)

	var (
		result any
		err    error
	)
	switch job.Kind {
	case domain.JobKindIndex:
		result, err = s.runIndex(ctx, job.Payload)
	case domain.JobKindBulkReindex:
		result, err = s.runBulkReindex(ctx)
	case domain.JobKindSearch:
		result, err = s.runSearch(ctx, job.Payload)
	default:
		err = fmt.Errorf("%w: unknown job kind %q", domain.ErrInvalidInput, job.Kind)
	}

	if err != nil {
		logger.Warn("Job %s failed: %v", job.ID, err)
		if markErr := s.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			logger.Warn("Mark job %s failed: %v", job.ID, markErr)
		}
		return
	}

	raw, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		_ = s.jobs.MarkFailed(ctx, job.ID, fmt.Sprintf("marshal result: %v", marshalErr))
		return
	}
	if err := s.jobs.MarkSucceeded(ctx, job.ID, raw); err != nil {
		logger.Warn("Mark job %s succeeded: %v", job.ID, err)
	}
}

func (s *Scheduler) runIndex(ctx context.Context, payload []byte) (domain.IndexOutcome, error) {
	var p domain.IndexPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.IndexOutcome{}, fmt.Errorf("decode index payload: %w", err)
	}
	return s.indexer.Index(ctx, p.DocumentID, p.Force)
}

// runBulkReindex enqueues one index job per document with zero chunks.
// Fire-and-forget: the fan-out job succeeds once the children are queued.
func (s *Scheduler) runBulkReindex(ctx context.Context) (domain.BulkReindexResult, error) {
	docs, err := s.store.ListUnindexedDocuments(ctx)
	if err != nil {
		return domain.BulkReindexResult{}, fmt.Errorf("list unindexed documents: %w", err)
	}

	queued := 0
	for _, doc := range docs {
		if _, err := s.SubmitIndex(ctx, doc.ID, false); err != nil {
			logger.Warn("Bulk reindex: queue %s: %v", doc.ID, err)
			continue
		}
		queued++
	}

	logger.Info("Bulk reindex queued %d documents", queued)
	return domain.BulkReindexResult{Queued: queued}, nil
}

func (s *Scheduler) runSearch(ctx context.Context, payload []byte) ([]domain.SearchHit, error) {
	var p domain.SearchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode search payload: %w", err)
	}
	return s.search.Search(ctx, domain.SearchRequest{
		UserID:           p.UserID,
		Query:            p.Query,
		TopK:             p.TopK,
		TargetDocumentID: p.TargetDocumentID,
	})
}
