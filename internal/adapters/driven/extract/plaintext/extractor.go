// Package plaintext provides a filesystem text extractor for plain text
// formats. Binary formats (PDF, office documents) live behind external
// extraction services and are out of scope here.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads plain text files from the local filesystem.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract reads the file and returns its text content. Files that do not
// decode as UTF-8 yield an empty string: no extractable text, not an error.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", domain.ErrExtractorFailure, path, err)
	}

	if !utf8.Valid(data) {
		return "", nil
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.TrimSpace(text), nil
}
