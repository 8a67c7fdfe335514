package driving

import (
	"context"

	"github.com/meridian-labs/docindex/internal/core/domain"
)

// Indexer runs the indexing pipeline for one document.
type Indexer interface {
	// Index extracts, chunks, embeds, classifies and persists a document.
	// Idempotent: when chunks already exist and force is false the run is
	// a no-op reporting IndexStatusSkipped. force replaces the chunk set
	// atomically.
	Index(ctx context.Context, documentID string, force bool) (domain.IndexOutcome, error)
}
