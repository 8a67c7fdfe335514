// Package file loads the TOML configuration file that wires the service:
// storage location, vector index, cache, embedding backend, chunking and
// scheduler settings.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	// DataDir is the base directory for the SQLite database.
	// Empty means ~/.docindex/data.
	DataDir string `toml:"data_dir"`

	Milvus    MilvusConfig    `toml:"milvus"`
	Redis     RedisConfig     `toml:"redis"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Search    SearchConfig    `toml:"search"`
	Scheduler SchedulerConfig `toml:"scheduler"`

	// Labels overrides the built-in classification catalog.
	Labels []LabelConfig `toml:"labels"`
}

// LabelConfig is one classification label and its prototype description.
type LabelConfig struct {
	Name      string `toml:"name"`
	Prototype string `toml:"prototype"`
}

// MilvusConfig configures the vector index backend.
type MilvusConfig struct {
	// URL is the Milvus server address. Empty selects the in-memory
	// vector index.
	URL        string `toml:"url"`
	Token      string `toml:"token"`
	Collection string `toml:"collection"`
}

// RedisConfig configures the result cache backend.
type RedisConfig struct {
	// Addr is the Redis server address. Empty selects the in-memory
	// cache.
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	// Provider is "openai" or "ollama".
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`

	// Dimensions must match the vector collection. Zero uses the
	// provider's model default.
	Dimensions int `toml:"dimensions"`

	// RequestsPerSecond throttles outbound embedding calls.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ChunkingConfig configures the text splitter.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// SearchConfig configures query-side behaviour.
type SearchConfig struct {
	TopK     int           `toml:"top_k"`
	CacheTTL time.Duration `toml:"cache_ttl"`
	Timeout  time.Duration `toml:"timeout"`
}

// SchedulerConfig configures the background job runner.
type SchedulerConfig struct {
	Workers      int           `toml:"workers"`
	PollInterval time.Duration `toml:"poll_interval"`
	Retention    time.Duration `toml:"retention"`
}

// DefaultPath returns the default config file location,
// ~/.docindex/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".docindex", "config.toml"), nil
}

// Load reads the config file at path, falling back to defaults for any
// missing setting. A missing file is not an error: it yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Milvus: MilvusConfig{
			Collection: "doc_chunks",
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
		},
		Chunking: ChunkingConfig{
			Size:    500,
			Overlap: 100,
		},
		Search: SearchConfig{
			TopK:     5,
			CacheTTL: 6 * time.Hour,
			Timeout:  60 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Workers:      4,
			PollInterval: 250 * time.Millisecond,
			Retention:    24 * time.Hour,
		},
	}
}
