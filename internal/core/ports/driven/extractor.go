package driven

import "context"

// Extractor turns a stored file into raw text. It is an external
// collaborator: OCR, office formats and the rest live behind it.
// Deterministic for identical file content; an empty string means
// "no extractable text", not an error.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
