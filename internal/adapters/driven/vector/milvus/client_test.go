package milvus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// fakeMilvus records requests per endpoint and serves canned envelopes.
type fakeMilvus struct {
	mu       sync.Mutex
	requests map[string][]json.RawMessage
	respond  map[string]string
	fail     map[string]int // fail the first N calls to an endpoint
}

func newFakeMilvus() *fakeMilvus {
	return &fakeMilvus{
		requests: make(map[string][]json.RawMessage),
		respond:  make(map[string]string),
		fail:     make(map[string]int),
	}
}

func (f *fakeMilvus) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.requests[r.URL.Path] = append(f.requests[r.URL.Path], body)
		if f.fail[r.URL.Path] > 0 {
			f.fail[r.URL.Path]--
			f.mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		resp := f.respond[r.URL.Path]
		f.mu.Unlock()

		if resp == "" {
			resp = `{"code":0,"data":{}}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}
}

func (f *fakeMilvus) calls(path string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func newTestIndex(t *testing.T, fake *fakeMilvus, dims int) (*Index, func()) {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	idx, err := NewIndex(Config{
		BaseURL:    server.URL,
		Collection: "doc_chunks",
		Dimensions: dims,
	})
	require.NoError(t, err)
	return idx, server.Close
}

func TestNewIndex_Validation(t *testing.T) {
	_, err := NewIndex(Config{Collection: "c", Dimensions: 3})
	assert.Error(t, err)

	_, err = NewIndex(Config{BaseURL: "http://localhost:19530", Dimensions: 3})
	assert.Error(t, err)

	_, err = NewIndex(Config{BaseURL: "http://localhost:19530", Collection: "c"})
	assert.Error(t, err)
}

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	fake := newFakeMilvus()
	fake.respond["/v2/vectordb/collections/has"] = `{"code":0,"data":{"has":false}}`
	idx, done := newTestIndex(t, fake, 4)
	defer done()

	require.NoError(t, idx.EnsureCollection(context.Background()))
	require.Len(t, fake.calls("/v2/vectordb/collections/create"), 1)

	var req map[string]any
	require.NoError(t, json.Unmarshal(fake.calls("/v2/vectordb/collections/create")[0], &req))
	assert.Equal(t, "doc_chunks", req["collectionName"])
}

func TestEnsureCollection_SkipsWhenPresent(t *testing.T) {
	fake := newFakeMilvus()
	fake.respond["/v2/vectordb/collections/has"] = `{"code":0,"data":{"has":true}}`
	idx, done := newTestIndex(t, fake, 4)
	defer done()

	require.NoError(t, idx.EnsureCollection(context.Background()))
	assert.Empty(t, fake.calls("/v2/vectordb/collections/create"))
}

func TestInsert_BatchesAndSkipsFailures(t *testing.T) {
	fake := newFakeMilvus()
	fake.fail["/v2/vectordb/entities/insert"] = 1
	idx, done := newTestIndex(t, fake, 2)
	defer done()

	records := make([]driven.IndexRecord, 250)
	for i := range records {
		records[i] = driven.IndexRecord{DocumentID: "doc-1", Vector: []float32{1, 0}}
	}

	// The first batch fails; the remaining two must still be sent.
	require.NoError(t, idx.Insert(context.Background(), "tenant-a", records))
	assert.Len(t, fake.calls("/v2/vectordb/entities/insert"), 3)
}

func TestInsert_DimensionMismatch(t *testing.T) {
	fake := newFakeMilvus()
	idx, done := newTestIndex(t, fake, 3)
	defer done()

	err := idx.Insert(context.Background(), "tenant-a", []driven.IndexRecord{
		{DocumentID: "doc-1", Vector: []float32{1, 0}},
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Empty(t, fake.calls("/v2/vectordb/entities/insert"))
}

func TestSearch_LoadsPartitionsAndParsesHits(t *testing.T) {
	fake := newFakeMilvus()
	fake.respond["/v2/vectordb/entities/search"] = `{"code":0,"data":[
		{"document_id":"doc-1","content_hash":"h1","chunk_text":"hello","distance":0.92},
		{"document_id":"doc-2","content_hash":"h2","chunk_text":"world","distance":0.71}
	]}`
	idx, done := newTestIndex(t, fake, 2)
	defer done()

	hits, err := idx.Search(context.Background(), []string{"tenant-a", "tenant-b"}, []float32{1, 0}, 5, []string{"doc-1", "doc-2"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc-1", hits[0].DocumentID)
	assert.Equal(t, 0.92, hits[0].Score)

	require.Len(t, fake.calls("/v2/vectordb/partitions/load"), 1)

	var req map[string]any
	require.NoError(t, json.Unmarshal(fake.calls("/v2/vectordb/entities/search")[0], &req))
	assert.ElementsMatch(t, []any{"tenant_tenant_a", "tenant_tenant_b"}, req["partitionNames"])
	assert.Equal(t, `document_id in ["doc-1", "doc-2"]`, req["filter"])
}

func TestSearch_MilvusErrorCode(t *testing.T) {
	fake := newFakeMilvus()
	fake.respond["/v2/vectordb/partitions/load"] = `{"code":1100,"message":"collection not loaded"}`
	idx, done := newTestIndex(t, fake, 2)
	defer done()

	_, err := idx.Search(context.Background(), []string{"tenant-a"}, []float32{1, 0}, 5, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection not loaded")
}

func TestPartitionName(t *testing.T) {
	assert.Equal(t, "tenant_42", partitionName("42"))
	assert.Equal(t, "tenant_user_a_b", partitionName("user-a.b"))
}
