package driven

import (
	"context"

	"github.com/meridian-labs/docindex/internal/core/domain"
)

// ChunkStore persists documents' chunk sets and document metadata updates.
// Backed by SQLite. The chunk table is the rebuild source of truth for the
// vector index: embeddings are stored so a partition can be reseeded
// without re-invoking the embedder.
type ChunkStore interface {
	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if the document does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// SaveDocumentType persists a classification result.
	// This is the only document mutation the core performs.
	SaveDocumentType(ctx context.Context, id, documentType string) error

	// ChunkCount returns the number of chunk rows for a document.
	ChunkCount(ctx context.Context, documentID string) (int, error)

	// SaveChunks bulk-inserts a document's chunk set in one transaction.
	SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// ReplaceChunks deletes a document's existing chunk rows and inserts
	// the new set inside a single transaction, so the store never holds a
	// mix of old and new chunks.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetChunks returns a document's chunks ordered by chunk index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListUnindexedDocuments returns all documents with zero chunk rows.
	ListUnindexedDocuments(ctx context.Context) ([]domain.Document, error)

	// DocumentTenants maps each given document id to its owning tenant id.
	// Unknown ids are omitted from the result.
	DocumentTenants(ctx context.Context, documentIDs []string) (map[string]string, error)
}
