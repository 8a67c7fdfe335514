package driven

import "context"

// IndexRecord is one entry inserted into the vector index. The backend
// assigns its own primary key.
type IndexRecord struct {
	// DocumentID is the owning document, used for scope filtering.
	DocumentID string

	// ContentHash deduplicates identical chunk text within one
	// indexing batch.
	ContentHash string

	// Source is the originating filename, kept for diagnostics.
	Source string

	// Text is the chunk text, bounded to the collection's VARCHAR limit.
	Text string

	// Vector is the chunk embedding. Its length must match the
	// collection's configured dimension.
	Vector []float32
}

// VectorHit is a similarity search result from the vector index.
type VectorHit struct {
	DocumentID  string
	ContentHash string
	Text        string

	// Score is the cosine similarity reported by the backend.
	Score float64
}

// VectorIndex wraps a tenant-partitioned approximate-nearest-neighbour
// backend. One partition per tenant is the isolation unit: a search only
// ever targets the partitions it names, so cross-tenant leakage is
// structurally impossible.
type VectorIndex interface {
	// EnsureCollection lazily creates the single collection with its
	// fixed schema and ANN index. Safe to call repeatedly.
	EnsureCollection(ctx context.Context) error

	// EnsurePartition lazily creates the tenant's partition.
	EnsurePartition(ctx context.Context, tenantID string) error

	// Insert writes records into the tenant's partition in fixed-size
	// batches. A failed batch is logged and skipped; the remaining
	// batches still go in.
	Insert(ctx context.Context, tenantID string, records []IndexRecord) error

	// Search loads the named tenants' partitions, runs an ANN query
	// bounded to topK, and restricts hits to the given document ids
	// when documentIDs is non-empty.
	Search(ctx context.Context, tenantIDs []string, vector []float32, topK int, documentIDs []string) ([]VectorHit, error)

	// Flush makes inserted records durable and searchable. Idempotent.
	Flush(ctx context.Context) error

	// Release unloads the named tenants' partitions to bound memory.
	// Idempotent.
	Release(ctx context.Context, tenantIDs []string) error

	// Close releases resources.
	Close() error
}
