package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// jobStore implements driven.JobStore on the jobs table.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

// Enqueue persists a new job in the queued state.
func (s *jobStore) Enqueue(ctx context.Context, job *domain.Job) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	job.State = domain.JobQueued

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO jobs (id, kind, payload, state, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, job.ID, string(job.Kind), string(job.Payload), string(job.State),
		formatTime(job.CreatedAt))
	if err != nil {
		return fmt.Errorf("enqueueing job: %w", err)
	}
	return nil
}

// Get retrieves a job by id.
func (s *jobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, kind, payload, state, result, error, created_at, started_at, finished_at
		FROM jobs WHERE id = ?
	`, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning job: %w", err)
	}
	return job, nil
}

// ClaimNext atomically moves the oldest queued job to running.
// The SELECT and UPDATE share a transaction so two workers never claim
// the same job.
func (s *jobStore) ClaimNext(ctx context.Context) (*domain.Job, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	row := tx.QueryRowContext(ctx, `
		SELECT id, kind, payload, state, result, error, created_at, started_at, finished_at
		FROM jobs WHERE state = ? ORDER BY created_at LIMIT 1
	`, string(domain.JobQueued))

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	job.State = domain.JobRunning
	job.StartedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE jobs SET state = ?, started_at = ? WHERE id = ?
	`, string(job.State), formatTime(job.StartedAt), job.ID)
	if err != nil {
		return nil, fmt.Errorf("claiming job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}
	return job, nil
}

// MarkSucceeded finishes a job with its serialized result.
func (s *jobStore) MarkSucceeded(ctx context.Context, id string, result []byte) error {
	return s.finish(ctx, id, domain.JobSucceeded, string(result), "")
}

// MarkFailed finishes a job with an error detail string.
func (s *jobStore) MarkFailed(ctx context.Context, id string, detail string) error {
	return s.finish(ctx, id, domain.JobFailed, "", detail)
}

func (s *jobStore) finish(ctx context.Context, id string, state domain.JobState, result, detail string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE jobs SET state = ?, result = ?, error = ?, finished_at = ? WHERE id = ?
	`, string(state), nullString(result), nullString(detail),
		formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("finishing job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// PruneTerminal deletes terminal jobs that finished before the retention
// window.
func (s *jobStore) PruneTerminal(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.store.db.ExecContext(ctx, `
		DELETE FROM jobs
		WHERE state IN (?, ?) AND finished_at IS NOT NULL AND finished_at < ?
	`, string(domain.JobSucceeded), string(domain.JobFailed), formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("pruning jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned jobs: %w", err)
	}
	return int(n), nil
}

// scanJob reads one jobs row from a row scanner.
func scanJob(row *sql.Row) (*domain.Job, error) {
	var job domain.Job
	var kind, state, createdAt string
	var payload, result, errDetail, startedAt, finishedAt sql.NullString
	err := row.Scan(&job.ID, &kind, &payload, &state, &result, &errDetail,
		&createdAt, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	job.Kind = domain.JobKind(kind)
	job.State = domain.JobState(state)
	if payload.Valid {
		job.Payload = []byte(payload.String)
	}
	if result.Valid {
		job.Result = []byte(result.String)
	}
	job.Error = errDetail.String
	job.CreatedAt = parseTime(createdAt)
	job.StartedAt = parseNullableTime(startedAt)
	job.FinishedAt = parseNullableTime(finishedAt)
	return &job, nil
}
