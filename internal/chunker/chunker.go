// Package chunker provides a fixed-size overlapping text splitter.
package chunker

import "strings"

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// MaxChunkLength bounds a single chunk's length so chunk text always fits
// the vector collection's VARCHAR field.
const MaxChunkLength = 1000

// Splitter splits extracted text into overlapping fixed-size chunks.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// Split returns the text's chunks in extraction order. Empty or
// whitespace-only text produces no chunks.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	length := len(runes)

	estimated := (length / (s.chunkSize - s.overlap)) + 1
	chunks := make([]string, 0, estimated)

	for start := 0; start < length; start += s.chunkSize - s.overlap {
		end := start + s.chunkSize
		if end > length {
			end = length
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			if len([]rune(chunk)) > MaxChunkLength {
				chunk = string([]rune(chunk)[:MaxChunkLength])
			}
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}
