// Package extract selects a text extractor for a document by its file
// extension. Formats without a dedicated extractor fall back to plain
// text. Binary formats (PDF, office documents) live behind external
// extraction services and are out of scope here.
package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/meridian-labs/docindex/internal/adapters/driven/extract/html"
	"github.com/meridian-labs/docindex/internal/adapters/driven/extract/markdown"
	"github.com/meridian-labs/docindex/internal/adapters/driven/extract/plaintext"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
)

// Ensure Dispatcher implements the interface.
var _ driven.Extractor = (*Dispatcher)(nil)

// Dispatcher routes extraction to a format-specific extractor.
type Dispatcher struct {
	byExt    map[string]driven.Extractor
	fallback driven.Extractor
}

// New creates a dispatcher covering the built-in formats.
func New() *Dispatcher {
	return &Dispatcher{
		byExt: map[string]driven.Extractor{
			".md":       markdown.New(),
			".markdown": markdown.New(),
			".html":     html.New(),
			".htm":      html.New(),
			".xhtml":    html.New(),
		},
		fallback: plaintext.New(),
	}
}

// Extract runs the extractor registered for the path's extension.
func (d *Dispatcher) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if e, ok := d.byExt[ext]; ok {
		return e.Extract(ctx, path)
	}
	return d.fallback.Extract(ctx, path)
}
