// Package milvus implements the vector index port against the Milvus
// RESTful v2 API. One collection holds all chunks; tenants are isolated
// by partition, and every query names the partitions it targets.
package milvus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
	"github.com/meridian-labs/docindex/internal/logger"
)

const (
	// insertBatchSize bounds one insert request. A failed batch is
	// logged and skipped; the remaining batches still go in.
	insertBatchSize = 100

	// maxChunkTextLength is the collection's VARCHAR bound for chunk
	// text. Longer text is truncated before insert.
	maxChunkTextLength = 2000

	defaultTimeout = 30 * time.Second
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Config holds the Milvus connection settings.
type Config struct {
	// BaseURL is the server address, e.g. "http://localhost:19530".
	BaseURL string

	// Token is an optional bearer token ("user:password" or API key).
	Token string

	// Collection is the collection name.
	Collection string

	// Dimensions is the embedding dimensionality of the collection.
	Dimensions int

	// Timeout bounds each HTTP request. Zero means 30s.
	Timeout time.Duration
}

// Index is a driven.VectorIndex backed by Milvus over HTTP.
type Index struct {
	baseURL    string
	token      string
	collection string
	dimensions int
	client     *http.Client
}

// NewIndex creates a Milvus-backed vector index client.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("milvus base URL is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("milvus collection name is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("milvus dimensions must be positive, got %d", cfg.Dimensions)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Index{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// envelope is the common Milvus v2 response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// post sends a JSON request to a /v2/vectordb endpoint and decodes the
// response envelope, returning the raw data payload.
func (x *Index) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		x.baseURL+"/v2/vectordb"+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if x.token != "" {
		req.Header.Set("Authorization", "Bearer "+x.token)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", domain.ErrVectorIndexUnavailable, path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if env.Code != 0 && env.Code != http.StatusOK {
		return nil, fmt.Errorf("milvus %s: code %d: %s", path, env.Code, env.Message)
	}
	return env.Data, nil
}

// has decodes the {"has": bool} payload of the has-collection and
// has-partition endpoints.
func (x *Index) has(ctx context.Context, path string, body any) (bool, error) {
	data, err := x.post(ctx, path, body)
	if err != nil {
		return false, err
	}
	var result struct {
		Has bool `json:"has"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return false, fmt.Errorf("decoding has response: %w", err)
	}
	return result.Has, nil
}

// EnsureCollection creates the collection with its fixed schema and a
// cosine IVF_FLAT index if it does not exist yet.
func (x *Index) EnsureCollection(ctx context.Context) error {
	exists, err := x.has(ctx, "/collections/has", map[string]any{
		"collectionName": x.collection,
	})
	if err != nil {
		return fmt.Errorf("checking collection: %w", err)
	}
	if exists {
		return nil
	}

	logger.Info("Creating Milvus collection %q (dim=%d)", x.collection, x.dimensions)

	createReq := map[string]any{
		"collectionName": x.collection,
		"schema": map[string]any{
			"autoID": true,
			"fields": []map[string]any{
				{"fieldName": "pk", "dataType": "Int64", "isPrimary": true},
				{"fieldName": "document_id", "dataType": "VarChar", "elementTypeParams": map[string]any{"max_length": 256}},
				{"fieldName": "content_hash", "dataType": "VarChar", "elementTypeParams": map[string]any{"max_length": 64}},
				{"fieldName": "source", "dataType": "VarChar", "elementTypeParams": map[string]any{"max_length": 512}},
				{"fieldName": "chunk_text", "dataType": "VarChar", "elementTypeParams": map[string]any{"max_length": maxChunkTextLength}},
				{"fieldName": "vector", "dataType": "FloatVector", "elementTypeParams": map[string]any{"dim": x.dimensions}},
			},
		},
		"indexParams": []map[string]any{
			{
				"fieldName":  "vector",
				"indexName":  "vector_idx",
				"metricType": "COSINE",
				"params":     map[string]any{"index_type": "IVF_FLAT", "nlist": 128},
			},
		},
	}
	if _, err := x.post(ctx, "/collections/create", createReq); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

// EnsurePartition creates the tenant's partition if missing.
func (x *Index) EnsurePartition(ctx context.Context, tenantID string) error {
	name := partitionName(tenantID)
	exists, err := x.has(ctx, "/partitions/has", map[string]any{
		"collectionName": x.collection,
		"partitionName":  name,
	})
	if err != nil {
		return fmt.Errorf("checking partition: %w", err)
	}
	if exists {
		return nil
	}

	logger.Debug("Creating Milvus partition %q", name)
	_, err = x.post(ctx, "/partitions/create", map[string]any{
		"collectionName": x.collection,
		"partitionName":  name,
	})
	if err != nil {
		return fmt.Errorf("creating partition: %w", err)
	}
	return nil
}

// Insert writes records into the tenant's partition in batches.
func (x *Index) Insert(ctx context.Context, tenantID string, records []driven.IndexRecord) error {
	for _, rec := range records {
		if len(rec.Vector) != x.dimensions {
			return fmt.Errorf("%w: record for document %s has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, rec.DocumentID, len(rec.Vector), x.dimensions)
		}
	}

	partition := partitionName(tenantID)
	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		rows := make([]map[string]any, len(batch))
		for i, rec := range batch {
			rows[i] = map[string]any{
				"document_id":  rec.DocumentID,
				"content_hash": rec.ContentHash,
				"source":       rec.Source,
				"chunk_text":   truncate(rec.Text, maxChunkTextLength),
				"vector":       rec.Vector,
			}
		}

		_, err := x.post(ctx, "/entities/insert", map[string]any{
			"collectionName": x.collection,
			"partitionName":  partition,
			"data":           rows,
		})
		if err != nil {
			// Partial progress beats none: later batches may still
			// succeed and the document can be force-reindexed.
			logger.Warn("Milvus insert batch %d-%d failed for partition %q: %v", start, end, partition, err)
			continue
		}
	}
	return nil
}

// Search loads the named tenants' partitions and runs an ANN query.
func (x *Index) Search(ctx context.Context, tenantIDs []string, vector []float32, topK int, documentIDs []string) ([]driven.VectorHit, error) {
	if len(vector) != x.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(vector), x.dimensions)
	}
	if topK <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if len(tenantIDs) == 0 {
		return nil, nil
	}

	partitions := make([]string, len(tenantIDs))
	for i, tenant := range tenantIDs {
		partitions[i] = partitionName(tenant)
	}

	if _, err := x.post(ctx, "/partitions/load", map[string]any{
		"collectionName": x.collection,
		"partitionNames": partitions,
	}); err != nil {
		return nil, fmt.Errorf("loading partitions: %w", err)
	}

	searchReq := map[string]any{
		"collectionName": x.collection,
		"partitionNames": partitions,
		"data":           [][]float32{vector},
		"annsField":      "vector",
		"limit":          topK,
		"outputFields":   []string{"document_id", "content_hash", "chunk_text"},
		"searchParams":   map[string]any{"metricType": "COSINE"},
	}
	if len(documentIDs) > 0 {
		searchReq["filter"] = documentFilter(documentIDs)
	}

	data, err := x.post(ctx, "/entities/search", searchReq)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	var rows []struct {
		DocumentID  string  `json:"document_id"`
		ContentHash string  `json:"content_hash"`
		ChunkText   string  `json:"chunk_text"`
		Distance    float64 `json:"distance"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding search results: %w", err)
	}

	hits := make([]driven.VectorHit, len(rows))
	for i, row := range rows {
		hits[i] = driven.VectorHit{
			DocumentID:  row.DocumentID,
			ContentHash: row.ContentHash,
			Text:        row.ChunkText,
			Score:       row.Distance,
		}
	}
	return hits, nil
}

// Flush makes inserted records durable and searchable.
func (x *Index) Flush(ctx context.Context) error {
	_, err := x.post(ctx, "/collections/flush", map[string]any{
		"collectionName": x.collection,
	})
	if err != nil {
		return fmt.Errorf("flushing collection: %w", err)
	}
	return nil
}

// Release unloads the named tenants' partitions.
func (x *Index) Release(ctx context.Context, tenantIDs []string) error {
	if len(tenantIDs) == 0 {
		return nil
	}
	partitions := make([]string, len(tenantIDs))
	for i, tenant := range tenantIDs {
		partitions[i] = partitionName(tenant)
	}
	_, err := x.post(context.WithoutCancel(ctx), "/partitions/release", map[string]any{
		"collectionName": x.collection,
		"partitionNames": partitions,
	})
	if err != nil {
		return fmt.Errorf("releasing partitions: %w", err)
	}
	return nil
}

// Close releases resources.
func (x *Index) Close() error {
	x.client.CloseIdleConnections()
	return nil
}

// partitionName maps a tenant id to its partition. Milvus partition names
// must start with a letter, so raw ids get a fixed prefix.
func partitionName(tenantID string) string {
	return "tenant_" + sanitize(tenantID)
}

// sanitize keeps only characters Milvus accepts in partition names.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// documentFilter builds a `document_id in [...]` boolean expression.
func documentFilter(documentIDs []string) string {
	quoted := make([]string, len(documentIDs))
	for i, id := range documentIDs {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return "document_id in [" + strings.Join(quoted, ", ") + "]"
}

// truncate bounds a string to max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
