package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-labs/docindex/internal/chunker"
	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
	"github.com/meridian-labs/docindex/internal/core/ports/driving"
	"github.com/meridian-labs/docindex/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.Indexer = (*Indexer)(nil)

// Indexer orchestrates the indexing pipeline:
// extract -> chunk -> embed -> classify -> persist -> vector insert.
//
// The relational write is atomic per document; the vector insert is a
// non-transactional side effect. Re-runs without force are no-ops, so a
// crash between the two phases is repaired by resubmitting with force.
type Indexer struct {
	store      driven.ChunkStore
	vector     driven.VectorIndex
	embedder   driven.EmbeddingService
	extractor  driven.Extractor
	classifier *Classifier
	splitter   *chunker.Splitter
}

// NewIndexer creates the indexing pipeline.
func NewIndexer(
	store driven.ChunkStore,
	vector driven.VectorIndex,
	embedder driven.EmbeddingService,
	extractor driven.Extractor,
	classifier *Classifier,
	splitter *chunker.Splitter,
) *Indexer {
	if splitter == nil {
		splitter = chunker.New()
	}
	return &Indexer{
		store:      store,
		vector:     vector,
		embedder:   embedder,
		extractor:  extractor,
		classifier: classifier,
		splitter:   splitter,
	}
}

// Index runs the pipeline for one document.
//
// Idempotent: existing chunks without force short-circuit to
// IndexStatusSkipped, so re-running never double-inserts. With force the
// relational chunk set is replaced in one transaction and the vector
// partition receives the new batch.
func (x *Indexer) Index(ctx context.Context, documentID string, force bool) (domain.IndexOutcome, error) {
	logger.Section("Index Document")
	logger.Debug("Document: %s, force=%t", documentID, force)

	doc, err := x.store.GetDocument(ctx, documentID)
	if err != nil {
		return domain.IndexOutcome{}, fmt.Errorf("get document %s: %w", documentID, err)
	}

	existing, err := x.store.ChunkCount(ctx, documentID)
	if err != nil {
		return domain.IndexOutcome{}, fmt.Errorf("count chunks: %w", err)
	}
	if existing > 0 && !force {
		logger.Debug("Document %s already indexed (%d chunks); skipping", documentID, existing)
		return domain.IndexOutcome{Status: domain.IndexStatusSkipped, ChunkCount: existing}, nil
	}

	// 1. Extract and chunk
	text, err := x.extractor.Extract(ctx, doc.Path)
	if err != nil {
		return domain.IndexOutcome{}, fmt.Errorf("%w: %s: %w", domain.ErrExtractorFailure, doc.Filename, err)
	}
	texts := x.splitter.Split(text)
	logger.Debug("Extracted %d chunks from %s", len(texts), doc.Filename)

	// 2. Classify the whole document; the type persists even when a
	// later step fails.
	label := domain.DocumentTypeUnknown
	if len(texts) > 0 {
		label, _, err = x.classifier.Classify(ctx, strings.Join(texts, " "))
		if err != nil {
			return domain.IndexOutcome{}, fmt.Errorf("classify: %w", err)
		}
	}
	if err := x.store.SaveDocumentType(ctx, doc.ID, label); err != nil {
		return domain.IndexOutcome{}, fmt.Errorf("save document type: %w", err)
	}
	logger.Info("Document %s classified as %q", doc.ID, label)

	if len(texts) == 0 {
		logger.Warn("No extractable text in %s", doc.Filename)
		return domain.IndexOutcome{Status: domain.IndexStatusEmpty}, nil
	}

	// 3. Embed
	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return domain.IndexOutcome{}, fmt.Errorf("%w: embed chunks: %w", domain.ErrEmbedderFailure, err)
	}
	if len(vectors) != len(texts) {
		return domain.IndexOutcome{}, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedderFailure, len(vectors), len(texts))
	}

	// 4. Persist relationally, sequential chunk index. The chunk table
	// is the rebuild source of truth, so the store is written before the
	// vector index.
	chunks := make([]domain.Chunk, len(texts))
	for i, txt := range texts {
		chunks[i] = domain.Chunk{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			Index:       i,
			Text:        txt,
			Embedding:   vectors[i],
			ContentHash: ContentHash(txt),
		}
	}
	if force {
		err = x.store.ReplaceChunks(ctx, doc.ID, chunks)
	} else {
		err = x.store.SaveChunks(ctx, doc.ID, chunks)
	}
	if err != nil {
		return domain.IndexOutcome{}, fmt.Errorf("persist chunks: %w", err)
	}

	// 5. Vector index side effect
	if err := x.insertVectors(ctx, doc, chunks); err != nil {
		return domain.IndexOutcome{}, err
	}

	logger.Info("Indexed %d chunks for document %s (tenant %s)", len(chunks), doc.ID, doc.TenantID)
	return domain.IndexOutcome{Status: domain.IndexStatusOK, ChunkCount: len(chunks)}, nil
}

// insertVectors writes a document's chunk batch into its tenant partition.
// Identical chunk text is inserted once: distinct chunk rows keep their
// positions relationally, the index holds one record per content hash.
func (x *Indexer) insertVectors(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if err := x.vector.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	if err := x.vector.EnsurePartition(ctx, doc.TenantID); err != nil {
		return fmt.Errorf("ensure partition: %w", err)
	}

	seen := make(map[string]struct{}, len(chunks))
	records := make([]driven.IndexRecord, 0, len(chunks))
	for _, chunk := range chunks {
		if _, dup := seen[chunk.ContentHash]; dup {
			continue
		}
		seen[chunk.ContentHash] = struct{}{}
		records = append(records, driven.IndexRecord{
			DocumentID:  doc.ID,
			ContentHash: chunk.ContentHash,
			Source:      doc.Filename,
			Text:        chunk.Text,
			Vector:      chunk.Embedding,
		})
	}

	if err := x.vector.Insert(ctx, doc.TenantID, records); err != nil {
		return fmt.Errorf("vector insert: %w", err)
	}
	if err := x.vector.Flush(ctx); err != nil {
		return fmt.Errorf("vector flush: %w", err)
	}
	if err := x.vector.Release(ctx, []string{doc.TenantID}); err != nil {
		return fmt.Errorf("release partition: %w", err)
	}
	return nil
}

// RebuildPartition reseeds a tenant's vector partition from the stored
// chunk rows of the given documents without re-invoking the embedder.
// Disaster-recovery path: the relational chunk table is authoritative.
func (x *Indexer) RebuildPartition(ctx context.Context, tenantID string, documentIDs []string) (int, error) {
	if err := x.vector.EnsureCollection(ctx); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}
	if err := x.vector.EnsurePartition(ctx, tenantID); err != nil {
		return 0, fmt.Errorf("ensure partition: %w", err)
	}

	total := 0
	for _, docID := range documentIDs {
		doc, err := x.store.GetDocument(ctx, docID)
		if err != nil {
			return total, fmt.Errorf("get document %s: %w", docID, err)
		}
		chunks, err := x.store.GetChunks(ctx, docID)
		if err != nil {
			return total, fmt.Errorf("get chunks %s: %w", docID, err)
		}
		if err := x.insertVectors(ctx, doc, chunks); err != nil {
			return total, err
		}
		total += len(chunks)
	}
	return total, nil
}

// ContentHash returns the fixed-width fingerprint used to deduplicate
// identical chunk text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
