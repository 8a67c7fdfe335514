package driven

import (
	"context"
	"time"

	"github.com/meridian-labs/docindex/internal/core/domain"
)

// JobStore is the durable job queue behind the scheduler.
// Workers claim queued jobs transactionally so each job runs exactly once.
type JobStore interface {
	// Enqueue persists a new job in the queued state.
	Enqueue(ctx context.Context, job *domain.Job) error

	// Get retrieves a job by id.
	// Returns domain.ErrJobNotFound for unknown or pruned ids.
	Get(ctx context.Context, id string) (*domain.Job, error)

	// ClaimNext atomically moves the oldest queued job to running and
	// returns it. Returns (nil, nil) when the queue is empty.
	ClaimNext(ctx context.Context) (*domain.Job, error)

	// MarkSucceeded finishes a job with its serialized result.
	MarkSucceeded(ctx context.Context, id string, result []byte) error

	// MarkFailed finishes a job with an error detail string.
	MarkFailed(ctx context.Context, id string, detail string) error

	// PruneTerminal deletes terminal jobs finished earlier than the
	// retention window and returns how many were removed.
	PruneTerminal(ctx context.Context, retention time.Duration) (int, error)
}
