package services

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
	"github.com/meridian-labs/docindex/internal/logger"
)

// Classifier assigns a document type by maximum cosine similarity between
// the whole-document embedding and a fixed catalog of label prototypes.
// The catalog is immutable configuration injected at construction;
// prototype embeddings are computed once per process, lazily.
type Classifier struct {
	embedder driven.EmbeddingService
	catalog  domain.LabelCatalog

	mu         sync.Mutex
	prototypes [][]float32
}

// NewClassifier creates a classifier over the given catalog.
// An empty catalog falls back to the built-in default.
func NewClassifier(embedder driven.EmbeddingService, catalog domain.LabelCatalog) *Classifier {
	if len(catalog) == 0 {
		catalog = domain.DefaultLabelCatalog()
	}
	return &Classifier{
		embedder: embedder,
		catalog:  catalog,
	}
}

// Classify returns the best-matching label for the given text and its
// similarity score. Empty text classifies as Unknown without embedding.
func (c *Classifier) Classify(ctx context.Context, text string) (string, float64, error) {
	if text == "" {
		return domain.DocumentTypeUnknown, 0, nil
	}
	if c.embedder == nil {
		return "", 0, domain.ErrEmbeddingUnavailable
	}

	if err := c.init(ctx); err != nil {
		return "", 0, err
	}

	docVec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return "", 0, fmt.Errorf("%w: embed document: %w", domain.ErrEmbedderFailure, err)
	}

	best := -1
	bestScore := math.Inf(-1)
	for i, proto := range c.prototypes {
		score := cosineSimilarity(docVec, proto)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return domain.DocumentTypeUnknown, 0, nil
	}

	logger.Debug("Classified as %q (score %.4f)", c.catalog[best].Name, bestScore)
	return c.catalog[best].Name, bestScore, nil
}

// init embeds the label prototypes once on first use. Only success is
// cached: a transient embedder outage fails this call alone, and the
// next Classify retries, so resubmitted jobs recover without a restart.
func (c *Classifier) init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prototypes != nil {
		return nil
	}

	texts := make([]string, len(c.catalog))
	for i, label := range c.catalog {
		texts[i] = label.Prototype
	}

	vecs, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed label prototypes: %w", domain.ErrEmbedderFailure, err)
	}
	if len(vecs) != len(c.catalog) {
		return fmt.Errorf("embed label prototypes: got %d vectors for %d labels", len(vecs), len(c.catalog))
	}
	c.prototypes = vecs
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero-magnitude vectors and length mismatches score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
