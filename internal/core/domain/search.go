package domain

import "time"

// SearchRequest describes one retrieval query.
type SearchRequest struct {
	// UserID is the caller whose access scope bounds the results.
	UserID string

	// Query is the raw query text.
	Query string

	// TopK is the maximum number of results to return.
	TopK int

	// TargetDocumentID optionally restricts the search to one document.
	// It must be inside the caller's accessible set or the search fails
	// with ErrForbidden before touching the vector index.
	TargetDocumentID string
}

// SearchHit is a single ranked search result.
type SearchHit struct {
	// DocumentID is the document the matching chunk belongs to.
	DocumentID string `json:"document_id"`

	// Snippet is a length-capped excerpt of the matching chunk with
	// normalized line breaks.
	Snippet string `json:"snippet"`

	// Score is the cosine similarity reported by the vector index.
	Score float64 `json:"score"`
}

// QueryLogEntry is an immutable audit record of one executed search.
// Cache hits are not re-logged; one entry is appended per cache-miss path.
type QueryLogEntry struct {
	ID int64

	// UserID is the caller.
	UserID string

	// DocumentID is the target document scope, empty for scope-wide
	// searches.
	DocumentID string

	// QueryText is the raw query as submitted.
	QueryText string

	// TopK is the requested result ceiling.
	TopK int

	// Duration is the server-measured latency of the query.
	Duration time.Duration

	// ResultCount is the number of hits returned to the caller.
	ResultCount int

	// Results is the returned payload, kept for analytics and debugging.
	Results []SearchHit

	CreatedAt time.Time
}
