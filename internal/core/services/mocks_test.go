package services

import (
	"context"
	"crypto/sha256"
	"sync"

	vectormem "github.com/meridian-labs/docindex/internal/adapters/driven/vector/memory"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService with deterministic
// vectors. Texts registered via set() get fixed vectors; everything else
// hashes to a stable pseudo-vector.
type mockEmbedder struct {
	mu         sync.Mutex
	dims       int
	vectors    map[string][]float32
	embedCalls int
	batchCalls int

	// failBatchAfter fails EmbedBatch calls after the Nth. Zero disables.
	failBatchAfter int
	failErr        error
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims, vectors: make(map[string][]float32)}
}

func (m *mockEmbedder) set(text string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[text] = vec
}

func (m *mockEmbedder) vec(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	sum := sha256.Sum256([]byte(text))
	v := make([]float32, m.dims)
	for i := range v {
		v[i] = float32(sum[i%len(sum)]) / 255
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	return m.vec(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.failBatchAfter > 0 && m.batchCalls > m.failBatchAfter {
		return nil, m.failErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vec(text)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int             { return m.dims }
func (m *mockEmbedder) ModelName() string           { return "mock" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                { return nil }

func (m *mockEmbedder) counts() (embed, batch int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls, m.batchCalls
}

// mockExtractor implements driven.Extractor over a path->text map.
type mockExtractor struct {
	texts map[string]string
	err   error
}

func (m *mockExtractor) Extract(_ context.Context, path string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.texts[path], nil
}

// countingVector wraps the in-memory vector index and counts ANN queries.
type countingVector struct {
	*vectormem.Index

	mu          sync.Mutex
	searchCalls int
}

func newCountingVector(dims int) *countingVector {
	return &countingVector{Index: vectormem.NewIndex(dims)}
}

func (v *countingVector) Search(ctx context.Context, tenantIDs []string, vector []float32, topK int, documentIDs []string) ([]driven.VectorHit, error) {
	v.mu.Lock()
	v.searchCalls++
	v.mu.Unlock()
	return v.Index.Search(ctx, tenantIDs, vector, topK, documentIDs)
}

func (v *countingVector) searches() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.searchCalls
}

// cannedVector implements driven.VectorIndex returning fixed hits,
// regardless of scope. Used to exercise defense-in-depth filtering.
type cannedVector struct {
	hits []driven.VectorHit
}

func (v *cannedVector) EnsureCollection(_ context.Context) error              { return nil }
func (v *cannedVector) EnsurePartition(_ context.Context, _ string) error     { return nil }
func (v *cannedVector) Insert(_ context.Context, _ string, _ []driven.IndexRecord) error {
	return nil
}
func (v *cannedVector) Search(_ context.Context, _ []string, _ []float32, _ int, _ []string) ([]driven.VectorHit, error) {
	return v.hits, nil
}
func (v *cannedVector) Flush(_ context.Context) error             { return nil }
func (v *cannedVector) Release(_ context.Context, _ []string) error { return nil }
func (v *cannedVector) Close() error                              { return nil }
