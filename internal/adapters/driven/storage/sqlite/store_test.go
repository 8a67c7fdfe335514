package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/docindex/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "docindex-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// createTestDocument creates a document row to satisfy foreign key constraints.
func createTestDocument(t *testing.T, store *Store, docID, tenantID string) {
	t.Helper()
	ctx := context.Background()
	doc := &domain.Document{
		ID:       docID,
		TenantID: tenantID,
		Filename: docID + ".txt",
		Path:     "/data/" + docID + ".txt",
	}
	require.NoError(t, store.SaveDocument(ctx, doc))
}

func testChunks(docID string, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:          uuid.NewString(),
			DocumentID:  docID,
			Index:       i,
			Text:        "chunk text " + uuid.NewString(),
			Embedding:   []float32{float32(i), 0.5, -1.25},
			ContentHash: uuid.NewString(),
		}
	}
	return chunks
}

// ==================== Store Creation Tests ====================

func TestNewStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NotEmpty(t, store.Path())
	assert.FileExists(t, store.Path())
}

func TestMigrationsAreIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "docindex-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Re-opening runs migrate() again against an already-migrated file.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

// ==================== ChunkStore Tests ====================

func TestChunkStore_GetDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "doc-1", "tenant-a")

	doc, err := store.ChunkStore().GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "tenant-a", doc.TenantID)
	assert.Equal(t, "doc-1.txt", doc.Filename)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestChunkStore_GetDocument_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.ChunkStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore_SaveDocumentType(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	cs := store.ChunkStore()

	createTestDocument(t, store, "doc-1", "tenant-a")

	require.NoError(t, cs.SaveDocumentType(ctx, "doc-1", "Invoice"))

	doc, err := cs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Invoice", doc.DocumentType)

	assert.ErrorIs(t, cs.SaveDocumentType(ctx, "missing", "Invoice"), domain.ErrNotFound)
}

func TestChunkStore_SaveAndGetChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	cs := store.ChunkStore()

	createTestDocument(t, store, "doc-1", "tenant-a")
	chunks := testChunks("doc-1", 3)
	require.NoError(t, cs.SaveChunks(ctx, "doc-1", chunks))

	count, err := cs.ChunkCount(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	got, err := cs.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, chunk := range got {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, chunks[i].Text, chunk.Text)
		assert.Equal(t, chunks[i].Embedding, chunk.Embedding)
		assert.Equal(t, chunks[i].ContentHash, chunk.ContentHash)
	}
}

func TestChunkStore_ReplaceChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	cs := store.ChunkStore()

	createTestDocument(t, store, "doc-1", "tenant-a")
	require.NoError(t, cs.SaveChunks(ctx, "doc-1", testChunks("doc-1", 5)))

	replacement := testChunks("doc-1", 2)
	require.NoError(t, cs.ReplaceChunks(ctx, "doc-1", replacement))

	got, err := cs.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, replacement[0].ID, got[0].ID)
}

func TestChunkStore_ListUnindexedDocuments(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	cs := store.ChunkStore()

	createTestDocument(t, store, "indexed", "tenant-a")
	createTestDocument(t, store, "bare-1", "tenant-a")
	createTestDocument(t, store, "bare-2", "tenant-b")
	require.NoError(t, cs.SaveChunks(ctx, "indexed", testChunks("indexed", 1)))

	docs, err := cs.ListUnindexedDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	ids := []string{docs[0].ID, docs[1].ID}
	assert.Contains(t, ids, "bare-1")
	assert.Contains(t, ids, "bare-2")
}

func TestChunkStore_DocumentTenants(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	cs := store.ChunkStore()

	createTestDocument(t, store, "doc-1", "tenant-a")
	createTestDocument(t, store, "doc-2", "tenant-b")

	tenants, err := cs.DocumentTenants(ctx, []string{"doc-1", "doc-2", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"doc-1": "tenant-a",
		"doc-2": "tenant-b",
	}, tenants)

	empty, err := cs.DocumentTenants(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTenantDocuments(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "doc-1", "tenant-a")
	createTestDocument(t, store, "doc-2", "tenant-a")
	createTestDocument(t, store, "doc-3", "tenant-b")

	ids, err := store.TenantDocuments(ctx, "tenant-a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc-1", "doc-2"}, ids)

	none, err := store.TenantDocuments(ctx, "tenant-z")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// ==================== AccessResolver Tests ====================

func TestAccessResolver_OwnershipAndGrants(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "owned", "alice")
	createTestDocument(t, store, "shared", "bob")
	createTestDocument(t, store, "private", "bob")
	require.NoError(t, store.GrantAccess(ctx, "shared", "alice"))

	accessible, err := store.AccessResolver().AccessibleDocuments(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, accessible, "owned")
	assert.Contains(t, accessible, "shared")
	assert.NotContains(t, accessible, "private")
}

func TestAccessResolver_Revoke(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "shared", "bob")
	require.NoError(t, store.GrantAccess(ctx, "shared", "alice"))
	require.NoError(t, store.GrantAccess(ctx, "shared", "alice")) // duplicate grant is a no-op
	require.NoError(t, store.RevokeAccess(ctx, "shared", "alice"))

	accessible, err := store.AccessResolver().AccessibleDocuments(ctx, "alice")
	require.NoError(t, err)
	assert.NotContains(t, accessible, "shared")
}

// ==================== JobStore Tests ====================

func TestJobStore_EnqueueClaimFinish(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	js := store.JobStore()

	job := &domain.Job{
		ID:      uuid.NewString(),
		Kind:    domain.JobKindIndex,
		Payload: []byte(`{"document_id":"doc-1"}`),
	}
	require.NoError(t, js.Enqueue(ctx, job))

	claimed, err := js.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, domain.JobRunning, claimed.State)
	assert.False(t, claimed.StartedAt.IsZero())

	// Queue is now empty.
	next, err := js.ClaimNext(ctx)
	require.NoError(t, err)
	assert.Nil(t, next)

	require.NoError(t, js.MarkSucceeded(ctx, job.ID, []byte(`{"status":"ok","chunks":3}`)))

	finished, err := js.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobSucceeded, finished.State)
	assert.JSONEq(t, `{"status":"ok","chunks":3}`, string(finished.Result))
	assert.False(t, finished.FinishedAt.IsZero())
}

func TestJobStore_ClaimOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	js := store.JobStore()

	first := &domain.Job{ID: "job-1", Kind: domain.JobKindIndex, Payload: []byte(`{}`), CreatedAt: time.Now().Add(-time.Minute)}
	second := &domain.Job{ID: "job-2", Kind: domain.JobKindIndex, Payload: []byte(`{}`)}
	require.NoError(t, js.Enqueue(ctx, first))
	require.NoError(t, js.Enqueue(ctx, second))

	claimed, err := js.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "job-1", claimed.ID)
}

func TestJobStore_MarkFailed(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	js := store.JobStore()

	job := &domain.Job{ID: uuid.NewString(), Kind: domain.JobKindSearch, Payload: []byte(`{}`)}
	require.NoError(t, js.Enqueue(ctx, job))
	require.NoError(t, js.MarkFailed(ctx, job.ID, "embedding service unavailable"))

	failed, err := js.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, failed.State)
	assert.Equal(t, "embedding service unavailable", failed.Error)
}

func TestJobStore_GetNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.JobStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStore_PruneTerminal(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	js := store.JobStore()

	old := &domain.Job{ID: "old", Kind: domain.JobKindIndex, Payload: []byte(`{}`)}
	fresh := &domain.Job{ID: "fresh", Kind: domain.JobKindIndex, Payload: []byte(`{}`)}
	require.NoError(t, js.Enqueue(ctx, old))
	require.NoError(t, js.Enqueue(ctx, fresh))
	require.NoError(t, js.MarkSucceeded(ctx, "old", nil))
	require.NoError(t, js.MarkSucceeded(ctx, "fresh", nil))

	// Backdate the old job's finish time past the retention window.
	_, err := store.db.ExecContext(ctx, "UPDATE jobs SET finished_at = ? WHERE id = ?",
		formatTime(time.Now().Add(-48*time.Hour)), "old")
	require.NoError(t, err)

	pruned, err := js.PruneTerminal(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	_, err = js.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	_, err = js.Get(ctx, "fresh")
	assert.NoError(t, err)
}

// ==================== QueryLog Tests ====================

func TestQueryLog_AppendAndRecent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ql := store.QueryLog()

	for i := 0; i < 3; i++ {
		entry := &domain.QueryLogEntry{
			UserID:      "alice",
			QueryText:   "quarterly revenue",
			TopK:        5,
			Duration:    42 * time.Millisecond,
			ResultCount: 1,
			Results: []domain.SearchHit{
				{DocumentID: "doc-1", Snippet: "revenue grew", Score: 0.91},
			},
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, ql.Append(ctx, entry))
		assert.NotZero(t, entry.ID)
	}
	require.NoError(t, ql.Append(ctx, &domain.QueryLogEntry{
		UserID: "bob", QueryText: "other", TopK: 5,
	}))

	entries, err := ql.Recent(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, !entries[0].CreatedAt.Before(entries[1].CreatedAt))
	assert.Equal(t, "quarterly revenue", entries[0].QueryText)
	require.Len(t, entries[0].Results, 1)
	assert.Equal(t, "doc-1", entries[0].Results[0].DocumentID)
	assert.Equal(t, 42*time.Millisecond, entries[0].Duration)
}

// ==================== Embedding Codec Tests ====================

func TestEmbeddingCodec(t *testing.T) {
	vec := []float32{0.1, -2.5, 3.75, 0}
	assert.Equal(t, vec, decodeEmbedding(encodeEmbedding(vec)))

	assert.Nil(t, encodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding([]byte{1, 2, 3})) // not a multiple of 4
}
