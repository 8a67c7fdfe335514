// Package memory provides a brute-force in-memory vector index. It mirrors
// the partition semantics of the Milvus adapter so tests exercise the same
// tenant isolation guarantees.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory driven.VectorIndex using exact cosine similarity.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	partitions map[string][]driven.IndexRecord
}

// NewIndex creates an in-memory vector index for the given dimensionality.
func NewIndex(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		partitions: make(map[string][]driven.IndexRecord),
	}
}

// EnsureCollection is a no-op for the in-memory index.
func (i *Index) EnsureCollection(_ context.Context) error {
	return nil
}

// EnsurePartition lazily creates the tenant's partition.
func (i *Index) EnsurePartition(_ context.Context, tenantID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.partitions[tenantID]; !ok {
		i.partitions[tenantID] = nil
	}
	return nil
}

// Insert writes records into the tenant's partition.
func (i *Index) Insert(_ context.Context, tenantID string, records []driven.IndexRecord) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, rec := range records {
		if len(rec.Vector) != i.dimensions {
			return domain.ErrDimensionMismatch
		}
	}
	i.partitions[tenantID] = append(i.partitions[tenantID], records...)
	return nil
}

// Search scans only the named tenants' partitions and returns the topK
// most similar records, optionally restricted to the given document ids.
func (i *Index) Search(_ context.Context, tenantIDs []string, vector []float32, topK int, documentIDs []string) ([]driven.VectorHit, error) {
	if len(vector) != i.dimensions {
		return nil, domain.ErrDimensionMismatch
	}
	if topK <= 0 {
		return nil, domain.ErrInvalidInput
	}

	var allowed map[string]struct{}
	if len(documentIDs) > 0 {
		allowed = make(map[string]struct{}, len(documentIDs))
		for _, id := range documentIDs {
			allowed[id] = struct{}{}
		}
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	var hits []driven.VectorHit
	for _, tenant := range tenantIDs {
		for _, rec := range i.partitions[tenant] {
			if allowed != nil {
				if _, ok := allowed[rec.DocumentID]; !ok {
					continue
				}
			}
			hits = append(hits, driven.VectorHit{
				DocumentID:  rec.DocumentID,
				ContentHash: rec.ContentHash,
				Text:        rec.Text,
				Score:       cosine(vector, rec.Vector),
			})
		}
	}

	sort.Slice(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Flush is a no-op for the in-memory index.
func (i *Index) Flush(_ context.Context) error {
	return nil
}

// Release is a no-op for the in-memory index.
func (i *Index) Release(_ context.Context, _ []string) error {
	return nil
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

// Count returns the number of records in a tenant's partition.
func (i *Index) Count(tenantID string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.partitions[tenantID])
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
