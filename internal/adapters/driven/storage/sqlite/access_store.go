package sqlite

import (
	"context"
	"fmt"

	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// accessResolver implements driven.AccessResolver. A user's readable set
// is the union of documents they own (tenant match) and documents shared
// with them through document_access grants.
type accessResolver struct {
	store *Store
}

var _ driven.AccessResolver = (*accessResolver)(nil)

// AccessibleDocuments returns the ids of every document the user may read.
func (r *accessResolver) AccessibleDocuments(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id FROM documents WHERE tenant_id = ?
		UNION
		SELECT document_id FROM document_access WHERE user_id = ?
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying accessible documents: %w", err)
	}
	defer rows.Close()

	accessible := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document id: %w", err)
		}
		accessible[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accessible documents: %w", err)
	}
	return accessible, nil
}

// GrantAccess shares a document with a user. Granting twice is a no-op.
func (s *Store) GrantAccess(ctx context.Context, documentID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_access (document_id, user_id) VALUES (?, ?)
		ON CONFLICT(document_id, user_id) DO NOTHING
	`, documentID, userID)
	if err != nil {
		return fmt.Errorf("granting access: %w", err)
	}
	return nil
}

// RevokeAccess removes a share. Revoking a non-existent grant is a no-op;
// ownership access cannot be revoked this way.
func (s *Store) RevokeAccess(ctx context.Context, documentID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM document_access WHERE document_id = ? AND user_id = ?
	`, documentID, userID)
	if err != nil {
		return fmt.Errorf("revoking access: %w", err)
	}
	return nil
}
