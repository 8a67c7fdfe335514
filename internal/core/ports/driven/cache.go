package driven

import (
	"context"
	"time"
)

// ResultCache is a TTL key-value cache over serialized search results.
// Entries expire naturally; re-indexing does not invalidate them.
// Last-writer-wins is safe because cached values are deterministic
// functions of the key.
type ResultCache interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases resources.
	Close() error
}
