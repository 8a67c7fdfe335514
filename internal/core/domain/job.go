package domain

import "time"

// JobKind identifies the work a job carries.
type JobKind string

const (
	// JobKindIndex runs the indexing pipeline for one document.
	JobKindIndex JobKind = "index"

	// JobKindBulkReindex fans out one index job per document that has
	// zero chunks. Fire-and-forget: it does not await the children.
	JobKindBulkReindex JobKind = "bulk_reindex"

	// JobKindSearch runs a search and exposes the result for polling.
	JobKindSearch JobKind = "search"
)

// JobState is the lifecycle state of a job.
// Transitions: Queued -> Running -> Succeeded | Failed.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// Job is one asynchronous unit of work pulled from the durable queue.
// Once claimed a job runs to completion or failure; abandoning a poll
// abandons observation, not execution.
type Job struct {
	// ID is the unique job identifier handed back on submission.
	ID string

	// Kind selects the handler.
	Kind JobKind

	// Payload is the kind-specific JSON-encoded argument struct.
	Payload []byte

	// State is the current lifecycle state.
	State JobState

	// Result is the kind-specific JSON-encoded result, set on success.
	Result []byte

	// Error is the failure detail string, set on failure.
	Error string

	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// IndexPayload is the argument struct for JobKindIndex.
type IndexPayload struct {
	DocumentID string `json:"document_id"`
	Force      bool   `json:"force"`
}

// SearchPayload is the argument struct for JobKindSearch.
type SearchPayload struct {
	UserID           string `json:"user_id"`
	Query            string `json:"query"`
	TopK             int    `json:"top_k"`
	TargetDocumentID string `json:"target_document_id,omitempty"`
}

// BulkReindexResult is the result struct for JobKindBulkReindex.
type BulkReindexResult struct {
	Queued int `json:"queued"`
}

// JobStatus is the poll-facing view of a job.
type JobStatus struct {
	ID     string   `json:"id"`
	State  JobState `json:"state"`
	Result []byte   `json:"result,omitempty"`
	Error  string   `json:"error,omitempty"`
}
