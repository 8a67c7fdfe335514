package memory

import (
	"context"
	"sync"

	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// Ensure AccessResolver implements the interface.
var _ driven.AccessResolver = (*AccessResolver)(nil)

// AccessResolver is an in-memory implementation of driven.AccessResolver
// backed by a static user-to-documents map.
type AccessResolver struct {
	mu     sync.RWMutex
	grants map[string]map[string]struct{}
}

// NewAccessResolver creates a new in-memory access resolver.
func NewAccessResolver() *AccessResolver {
	return &AccessResolver{grants: make(map[string]map[string]struct{})}
}

// Grant makes the given documents readable by the user.
func (r *AccessResolver) Grant(userID string, documentIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.grants[userID]
	if !ok {
		set = make(map[string]struct{})
		r.grants[userID] = set
	}
	for _, id := range documentIDs {
		set[id] = struct{}{}
	}
}

// AccessibleDocuments returns the ids of every document the user may read.
func (r *AccessResolver) AccessibleDocuments(_ context.Context, userID string) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]struct{}, len(r.grants[userID]))
	for id := range r.grants[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}
