package cli

import (
	"bytes"
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachemem "github.com/meridian-labs/docindex/internal/adapters/driven/cache/memory"
	"github.com/meridian-labs/docindex/internal/adapters/driven/extract"
	"github.com/meridian-labs/docindex/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/meridian-labs/docindex/internal/adapters/driven/vector/memory"
	"github.com/meridian-labs/docindex/internal/core/services"
)

// stubEmbedder produces deterministic hash-based vectors.
type stubEmbedder struct{ dims int }

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	v := make([]float32, e.dims)
	for i := range v {
		v[i] = float32(sum[i%len(sum)]) / 255
	}
	return v, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i], _ = e.Embed(ctx, text)
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int              { return e.dims }
func (e *stubEmbedder) ModelName() string            { return "stub" }
func (e *stubEmbedder) Ping(_ context.Context) error { return nil }
func (e *stubEmbedder) Close() error                 { return nil }

// setupTestServices wires the package-level services over a temp SQLite
// store, in-memory vector index and cache, and a stub embedder.
func setupTestServices(t *testing.T) func() {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "docindex-cli-test-*")
	require.NoError(t, err)

	store, err = sqlite.NewStore(tempDir)
	require.NoError(t, err)

	embedder := &stubEmbedder{dims: 8}
	vector := vectormem.NewIndex(8)
	classifier := services.NewClassifier(embedder, nil)
	indexer = services.NewIndexer(store.ChunkStore(), vector, embedder, extract.New(), classifier, nil)
	searchService = services.NewSearch(store.ChunkStore(), vector, embedder, store.AccessResolver(), cachemem.NewCache(), store.QueryLog(), time.Minute)
	scheduler = services.NewScheduler(store.JobStore(), store.ChunkStore(), indexer, searchService, services.SchedulerConfig{
		Workers:      2,
		PollInterval: 10 * time.Millisecond,
	})

	return func() {
		_ = scheduler.Stop()
		_ = store.Close()
		store = nil
		scheduler = nil
		_ = os.RemoveAll(tempDir)
	}
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

// --- Command structure tests ---

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "document")
	assert.Contains(t, names, "index")
	assert.Contains(t, names, "reindex")
	assert.Contains(t, names, "rebuild")
	assert.Contains(t, names, "search")
	assert.Contains(t, names, "jobs")
	assert.Contains(t, names, "worker")
	assert.Contains(t, names, "history")
	assert.Contains(t, names, "version")
}

func TestSearchCmd_RequiresUserFlag(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "search", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")
}

func TestIndexCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, "index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "docindex version")
}

// --- End-to-end flow ---

func TestEndToEnd_AddIndexSearch(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("Quarterly revenue grew twelve percent."), 0600))

	out, err := execute(t, "document", "add", "alice", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Registered report.txt")

	// Recover the generated document id.
	docs, err := store.ChunkStore().ListUnindexedDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	docID := docs[0].ID

	out, err = execute(t, "index", docID)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 1 chunks")

	// Indexing again without force skips.
	out, err = execute(t, "index", docID)
	require.NoError(t, err)
	assert.Contains(t, out, "already indexed")

	// The owner finds the document; the exact chunk text is the most
	// similar query the stub embedder can produce.
	out, err = execute(t, "search", "--user", "alice", "Quarterly revenue grew twelve percent.")
	require.NoError(t, err)
	assert.Contains(t, out, docID)

	// A stranger gets nothing.
	out, err = execute(t, "search", "--user", "mallory", "Quarterly revenue grew twelve percent.")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found")

	// Until the owner shares the document. The query is reworded so the
	// cached empty result from the pre-grant search does not apply.
	_, err = execute(t, "document", "grant", docID, "mallory")
	require.NoError(t, err)
	out, err = execute(t, "search", "--user", "mallory", "revenue growth last quarter")
	require.NoError(t, err)
	assert.Contains(t, out, docID)
}

func TestReindexCmd_QueuesBareDocuments(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("content of "+name), 0600))
		_, err := execute(t, "document", "add", "alice", path)
		require.NoError(t, err)
	}

	out, err := execute(t, "reindex")
	require.NoError(t, err)
	assert.Contains(t, out, "Queued 3 index jobs")
}

func TestRebuildCmd(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "manual.txt")
	require.NoError(t, os.WriteFile(path, []byte("operations manual text"), 0600))
	_, err := execute(t, "document", "add", "alice", path)
	require.NoError(t, err)

	docs, err := store.ChunkStore().ListUnindexedDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	_, err = execute(t, "index", docs[0].ID)
	require.NoError(t, err)

	out, err := execute(t, "rebuild", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Reinserted 1 chunks across 1 documents")

	out, err = execute(t, "rebuild", "nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "has no documents")
}

func TestDocumentShowCmd(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("a note"), 0600))
	_, err := execute(t, "document", "add", "bob", path)
	require.NoError(t, err)

	docs, err := store.ChunkStore().ListUnindexedDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	out, err := execute(t, "document", "show", docs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "note.txt")
	assert.Contains(t, out, `"chunks": 0`)
}
