package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller is outside the access scope
	// of the requested document.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates a synchronous search exceeded its wall-clock
	// ceiling. Distinct from a search failure: the job may still finish.
	ErrTimeout = errors.New("search timed out")

	// ErrJobNotFound indicates a polled job id is unknown or its terminal
	// record has been pruned.
	ErrJobNotFound = errors.New("job not found")

	// ErrExtractorFailure indicates the text extractor failed.
	// Fatal for the indexing job; the caller resubmits explicitly.
	ErrExtractorFailure = errors.New("extractor failure")

	// ErrEmbedderFailure indicates the embedding backend failed.
	// Fatal for the indexing job; the caller resubmits explicitly.
	ErrEmbedderFailure = errors.New("embedder failure")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates an embedding's dimension does not match
	// the collection's configured dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
