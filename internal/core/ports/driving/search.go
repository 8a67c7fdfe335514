package driving

import (
	"context"

	"github.com/meridian-labs/docindex/internal/core/domain"
)

// SearchService answers access-scoped semantic queries.
type SearchService interface {
	// Search embeds the query, runs a partition-scoped ANN query and
	// returns ranked, deduplicated, access-filtered hits. An empty
	// accessible set yields an empty slice, not an error. A target
	// document outside the caller's scope fails with domain.ErrForbidden.
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchHit, error)
}
