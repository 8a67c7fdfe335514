package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveDocument stores or updates a document record. Documents are created
// by the external upload surface; this lives on the Store rather than the
// port because the core itself never creates documents.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, tenant_id, filename, path, document_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			filename = excluded.filename,
			path = excluded.path,
			document_type = excluded.document_type,
			updated_at = excluded.updated_at
	`, doc.ID, doc.TenantID, doc.Filename, doc.Path, doc.DocumentType,
		formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// TenantDocuments returns the ids of every document a tenant owns.
// Used by the partition rebuild surface, so it lives on the Store like
// SaveDocument does.
func (s *Store) TenantDocuments(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM documents WHERE tenant_id = ? ORDER BY created_at", tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying tenant documents: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenant documents: %w", err)
	}
	return ids, nil
}

// GetDocument retrieves a document by ID.
func (s *chunkStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, filename, path, document_type, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var createdAt, updatedAt string
	err := row.Scan(&doc.ID, &doc.TenantID, &doc.Filename, &doc.Path,
		&doc.DocumentType, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)
	return &doc, nil
}

// SaveDocumentType persists a classification result.
func (s *chunkStore) SaveDocumentType(ctx context.Context, id, documentType string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET document_type = ?, updated_at = ? WHERE id = ?
	`, documentType, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("saving document type: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ChunkCount returns the number of chunk rows for a document.
func (s *chunkStore) ChunkCount(ctx context.Context, documentID string) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE document_id = ?", documentID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// SaveChunks bulk-inserts a document's chunk set in one transaction.
func (s *chunkStore) SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	return s.writeChunks(ctx, documentID, chunks, false)
}

// ReplaceChunks deletes existing rows and inserts the new set atomically,
// so the table never holds a mix of old and new chunks.
func (s *chunkStore) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	return s.writeChunks(ctx, documentID, chunks, true)
}

func (s *chunkStore) writeChunks(ctx context.Context, documentID string, chunks []domain.Chunk, replace bool) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
			return fmt.Errorf("deleting existing chunks: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, text, embedding, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, chunk := range chunks {
		_, err := stmt.ExecContext(ctx, chunk.ID, documentID, chunk.Index,
			chunk.Text, encodeEmbedding(chunk.Embedding), chunk.ContentHash, now)
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// GetChunks returns a document's chunks ordered by chunk index.
func (s *chunkStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, text, embedding, content_hash, created_at
		FROM chunks WHERE document_id = ? ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embedding []byte
		var createdAt string
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index,
			&chunk.Text, &embedding, &chunk.ContentHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = decodeEmbedding(embedding)
		chunk.CreatedAt = parseTime(createdAt)
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ListUnindexedDocuments returns all documents with zero chunk rows.
func (s *chunkStore) ListUnindexedDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT d.id, d.tenant_id, d.filename, d.path, d.document_type, d.created_at, d.updated_at
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		WHERE c.id IS NULL
		ORDER BY d.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying unindexed documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var createdAt, updatedAt string
		if err := rows.Scan(&doc.ID, &doc.TenantID, &doc.Filename, &doc.Path,
			&doc.DocumentType, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.CreatedAt = parseTime(createdAt)
		doc.UpdatedAt = parseTime(updatedAt)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DocumentTenants maps each given document id to its owning tenant id.
func (s *chunkStore) DocumentTenants(ctx context.Context, documentIDs []string) (map[string]string, error) {
	result := make(map[string]string, len(documentIDs))
	if len(documentIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(documentIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(documentIDs))
	for i, id := range documentIDs {
		args[i] = id
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id, tenant_id FROM documents WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("querying document tenants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, tenant string
		if err := rows.Scan(&id, &tenant); err != nil {
			return nil, fmt.Errorf("scanning document tenant: %w", err)
		}
		result[id] = tenant
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document tenants: %w", err)
	}
	return result, nil
}
