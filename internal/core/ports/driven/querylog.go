package driven

import (
	"context"

	"github.com/meridian-labs/docindex/internal/core/domain"
)

// QueryLog is an append-only audit trail of executed searches.
type QueryLog interface {
	// Append records one executed search. Entries are immutable.
	Append(ctx context.Context, entry *domain.QueryLogEntry) error

	// Recent returns a user's latest entries, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]domain.QueryLogEntry, error)
}
