// Package memory provides in-memory implementations of the storage ports,
// used by tests and by ephemeral single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// AddDocument seeds a document record.
func (s *ChunkStore) AddDocument(doc domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	s.documents[doc.ID] = doc
}

// GetDocument retrieves a document by ID.
func (s *ChunkStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// SaveDocumentType persists a classification result.
func (s *ChunkStore) SaveDocumentType(_ context.Context, id, documentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.DocumentType = documentType
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return nil
}

// ChunkCount returns the number of stored chunks for a document.
func (s *ChunkStore) ChunkCount(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks[documentID]), nil
}

// SaveChunks stores a document's chunk set.
func (s *ChunkStore) SaveChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[documentID] = append(s.chunks[documentID], cloneChunks(chunks)...)
	return nil
}

// ReplaceChunks swaps a document's chunk set atomically.
func (s *ChunkStore) ReplaceChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[documentID] = cloneChunks(chunks)
	return nil
}

// GetChunks returns a document's chunks ordered by chunk index.
func (s *ChunkStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := cloneChunks(s.chunks[documentID])
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// ListUnindexedDocuments returns all documents with zero chunks.
func (s *ChunkStore) ListUnindexedDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []domain.Document
	for id, doc := range s.documents {
		if len(s.chunks[id]) == 0 {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// DocumentTenants maps each given document id to its owning tenant id.
func (s *ChunkStore) DocumentTenants(_ context.Context, documentIDs []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]string, len(documentIDs))
	for _, id := range documentIDs {
		if doc, ok := s.documents[id]; ok {
			result[id] = doc.TenantID
		}
	}
	return result, nil
}

func cloneChunks(chunks []domain.Chunk) []domain.Chunk {
	if chunks == nil {
		return nil
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out
}
