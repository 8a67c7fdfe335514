package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "doc_chunks", cfg.Milvus.Collection)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 6*time.Hour, cfg.Search.CacheTTL)
	assert.Equal(t, 4, cfg.Scheduler.Workers)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
data_dir = "/var/lib/docindex"

[milvus]
url = "http://milvus:19530"

[embedding]
provider = "openai"
api_key = "sk-test"
requests_per_second = 2.5

[search]
top_k = 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/docindex", cfg.DataDir)
	assert.Equal(t, "http://milvus:19530", cfg.Milvus.URL)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 2.5, cfg.Embedding.RequestsPerSecond)
	assert.Equal(t, 10, cfg.Search.TopK)

	// Settings absent from the file keep their defaults.
	assert.Equal(t, "doc_chunks", cfg.Milvus.Collection)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 6*time.Hour, cfg.Search.CacheTTL)
}

func TestLoad_LabelCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[[labels]]
name = "Runbook"
prototype = "Operational procedure for responding to an incident."

[[labels]]
name = "RFC"
prototype = "Design proposal circulated for comment."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Labels, 2)
	assert.Equal(t, "Runbook", cfg.Labels[0].Name)
	assert.Equal(t, "RFC", cfg.Labels[1].Name)
	assert.NotEmpty(t, cfg.Labels[1].Prototype)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}
