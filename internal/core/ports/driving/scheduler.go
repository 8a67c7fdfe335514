package driving

import (
	"context"

	"github.com/meridian-labs/docindex/internal/core/domain"
)

// JobScheduler submits jobs to the durable queue and exposes their state
// for polling. Indexing is always asynchronous from the caller's
// perspective; search may be synchronous via SearchSync.
type JobScheduler interface {
	// SubmitIndex queues an index job for one document.
	SubmitIndex(ctx context.Context, documentID string, force bool) (string, error)

	// SubmitBulkReindex queues a fan-out job that enqueues one index job
	// per document with zero chunks.
	SubmitBulkReindex(ctx context.Context) (string, error)

	// SubmitSearch queues a search job for asynchronous polling.
	SubmitSearch(ctx context.Context, req domain.SearchRequest) (string, error)

	// Poll reports a job's state and, when terminal, its result or error.
	// Returns domain.ErrJobNotFound for unknown or pruned ids.
	Poll(ctx context.Context, jobID string) (*domain.JobStatus, error)

	// SearchSync submits a search job and blocks polling it until a
	// terminal state or the wall-clock ceiling, which yields
	// domain.ErrTimeout.
	SearchSync(ctx context.Context, req domain.SearchRequest) ([]domain.SearchHit, error)
}
