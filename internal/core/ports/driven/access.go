package driven

import "context"

// AccessResolver computes the set of document ids a user may read.
// Access policy ownership lives entirely outside the core; the core only
// consumes the resolved set and filters every result against it.
type AccessResolver interface {
	AccessibleDocuments(ctx context.Context, userID string) (map[string]struct{}, error)
}
