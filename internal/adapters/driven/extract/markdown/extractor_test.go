package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestExtract_StripsFormatting(t *testing.T) {
	extractor := New()
	path := writeFile(t, "doc.md", "# Hello World\n\nThis is **bold** and *italic* text.")

	text, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Hello World\n\nThis is bold and italic text.", text)
}

func TestExtract_RemovesCodeBlocks(t *testing.T) {
	extractor := New()
	path := writeFile(t, "doc.md", "Before\n\n```go\nfunc main() {}\n```\n\nAfter with `inline` code.")

	text, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.NotContains(t, text, "func main")
	assert.NotContains(t, text, "```")
	assert.NotContains(t, text, "inline")
	assert.Contains(t, text, "Before")
	assert.Contains(t, text, "After with  code.")
}

func TestExtract_ConvertsLinksAndImages(t *testing.T) {
	extractor := New()
	path := writeFile(t, "doc.md", "See [the docs](https://example.com) here.\n\n![diagram](img.png)")

	text, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "See the docs here.")
	assert.NotContains(t, text, "https://example.com")
	assert.NotContains(t, text, "img.png")
}

func TestExtract_RemovesListMarkers(t *testing.T) {
	extractor := New()
	path := writeFile(t, "doc.md", "- first\n- second\n\n1. one\n2. two\n\n> quoted\n\n---")

	text, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "first")
	assert.Contains(t, text, "one")
	assert.Contains(t, text, "quoted")
	assert.NotContains(t, text, "- first")
	assert.NotContains(t, text, "1. one")
	assert.NotContains(t, text, "> quoted")
	assert.NotContains(t, text, "---")
}

func TestExtract_MissingFile(t *testing.T) {
	extractor := New()
	_, err := extractor.Extract(context.Background(), "/nonexistent/doc.md")
	assert.Error(t, err)
}

func TestExtract_EmptyFile(t *testing.T) {
	extractor := New()
	path := writeFile(t, "empty.md", "")

	text, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, text)
}
