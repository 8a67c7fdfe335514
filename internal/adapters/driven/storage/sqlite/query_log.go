package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// queryLog implements driven.QueryLog on the search_query_log table.
type queryLog struct {
	store *Store
}

var _ driven.QueryLog = (*queryLog)(nil)

// Append records one executed search.
func (l *queryLog) Append(ctx context.Context, entry *domain.QueryLogEntry) error {
	if entry == nil {
		return domain.ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var resultJSON string
	if len(entry.Results) > 0 {
		data, err := json.Marshal(entry.Results)
		if err != nil {
			return fmt.Errorf("marshaling query results: %w", err)
		}
		resultJSON = string(data)
	}

	res, err := l.store.db.ExecContext(ctx, `
		INSERT INTO search_query_log (user_id, document_id, query_text, top_k, duration_ms, result_count, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.UserID, nullString(entry.DocumentID), entry.QueryText, entry.TopK,
		entry.Duration.Milliseconds(), entry.ResultCount, nullString(resultJSON),
		formatTime(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("appending query log entry: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// Recent returns a user's latest entries, newest first.
func (l *queryLog) Recent(ctx context.Context, userID string, limit int) ([]domain.QueryLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.store.db.QueryContext(ctx, `
		SELECT id, user_id, document_id, query_text, top_k, duration_ms, result_count, result_json, created_at
		FROM search_query_log
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying query log: %w", err)
	}
	defer rows.Close()

	var entries []domain.QueryLogEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var entry domain.QueryLogEntry
		var documentID, resultJSON sql.NullString
		var durationMS sql.NullInt64
		var resultCount sql.NullInt64
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.UserID, &documentID,
			&entry.QueryText, &entry.TopK, &durationMS, &resultCount,
			&resultJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning query log entry: %w", err)
		}
		entry.DocumentID = documentID.String
		entry.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		entry.ResultCount = int(resultCount.Int64)
		entry.CreatedAt = parseTime(createdAt)
		if resultJSON.Valid && resultJSON.String != "" {
			if err := json.Unmarshal([]byte(resultJSON.String), &entry.Results); err != nil {
				return nil, fmt.Errorf("unmarshaling query results: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query log: %w", err)
	}
	return entries, nil
}
