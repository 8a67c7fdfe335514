package domain

import "time"

// DocumentTypeUnknown is assigned when classification has nothing to work
// with (no extractable text) or no prototype clears similarity zero.
const DocumentTypeUnknown = "Unknown"

// Document represents an uploaded document owned by a tenant.
// Documents are created by an external upload surface; the core only
// reads them and mutates DocumentType after classification.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// TenantID identifies the owning tenant. It names the vector index
	// partition all of this document's chunks live in.
	TenantID string

	// Filename is the original upload name, carried into the vector
	// index as the source label.
	Filename string

	// Path is the location the extractor reads the raw file from.
	// Opaque to the core beyond being handed to the Extractor port.
	Path string

	// DocumentType is the classification result, empty until the
	// document has been indexed at least once.
	DocumentType string

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document record last changed.
	UpdatedAt time.Time
}

// Chunk is a bounded slice of a document's extracted text, the unit of
// embedding and retrieval. The relational chunk set doubles as the
// authoritative rebuild source for the vector index: the stored embedding
// lets a partition be reseeded without re-invoking the embedder.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the ordinal position within the document (0-based).
	// (DocumentID, Index) is unique.
	Index int

	// Text is the chunk's extracted text.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// ContentHash is a fixed-width fingerprint of Text, used to
	// deduplicate identical chunk text inside the vector index.
	ContentHash string

	// CreatedAt is when the chunk row was written.
	CreatedAt time.Time
}

// IndexStatus is the terminal status of one indexing run.
type IndexStatus string

const (
	// IndexStatusOK means chunks were extracted, persisted and inserted
	// into the vector index.
	IndexStatusOK IndexStatus = "ok"

	// IndexStatusSkipped means chunks already existed and force was not
	// set; the run was an idempotent no-op.
	IndexStatusSkipped IndexStatus = "skipped"

	// IndexStatusEmpty means the extractor produced no text. The document
	// is classified Unknown and nothing reaches the vector index.
	IndexStatusEmpty IndexStatus = "empty"
)

// IndexOutcome is the result of an indexing run.
type IndexOutcome struct {
	Status     IndexStatus `json:"status"`
	ChunkCount int         `json:"chunks"`
}
